package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/vedran77/concorde/internal/transport/http/middleware"
	"go.uber.org/zap"
)

// Routes holds everything the router mounts.
type Routes struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Friends      *FriendHandler
	Servers      *ServerHandler
	JoinRequests *JoinRequestHandler
	Channels     *ChannelHandler

	Authenticator *middleware.Authenticator
	WebSocket     http.Handler

	// AvatarDir is served under AvatarPath when set.
	AvatarDir  string
	AvatarPath string

	CORSOrigins []string
	Log         *zap.Logger
}

func NewRouter(rt Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(rt.Log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(rt.CORSOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if rt.AvatarDir != "" {
		prefix := strings.TrimRight(rt.AvatarPath, "/") + "/"
		r.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(rt.AvatarDir))))
	}

	// Upgraded connections outlive any request timeout.
	if rt.WebSocket != nil {
		r.Get("/ws", rt.WebSocket.ServeHTTP)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(chimw.Timeout(60 * time.Second))

		api.Route("/auth", func(r chi.Router) {
			r.Post("/register", rt.Auth.Register)
			r.Post("/login", rt.Auth.Login)
		})

		api.Group(func(r chi.Router) {
			r.Use(rt.Authenticator.Middleware)

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", rt.Users.Me)
				r.Put("/avatar", rt.Users.SetAvatar)
			})

			r.Route("/friends", func(r chi.Router) {
				r.Get("/", rt.Friends.List)
				r.Delete("/{userId}", rt.Friends.Remove)

				r.Route("/requests", func(r chi.Router) {
					r.Post("/", rt.Friends.Invite)
					r.Get("/", rt.Friends.ListIncoming)
					r.Get("/outgoing", rt.Friends.ListOutgoing)
					r.Post("/{id}/accept", rt.Friends.Accept)
					r.Post("/{id}/decline", rt.Friends.Decline)
					r.Delete("/{id}", rt.Friends.Cancel)
				})
			})

			r.Route("/servers", func(r chi.Router) {
				r.Post("/", rt.Servers.Create)
				r.Get("/", rt.Servers.List)
				r.Get("/discover", rt.Servers.Discover)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", rt.Servers.Get)
					r.Patch("/", rt.Servers.Update)
					r.Delete("/", rt.Servers.Delete)
					r.Get("/members", rt.Servers.ListMembers)
					r.Delete("/members/me", rt.Servers.Leave)
					r.Post("/bans/{userId}", rt.Servers.Ban)

					r.Post("/join-requests", rt.JoinRequests.Create)
					r.Get("/join-requests", rt.JoinRequests.List)

					r.Post("/channels", rt.Channels.Create)
					r.Get("/channels", rt.Channels.List)
				})
			})

			r.Route("/join-requests", func(r chi.Router) {
				r.Get("/", rt.JoinRequests.ListMine)
				r.Post("/{id}/accept", rt.JoinRequests.Accept)
				r.Post("/{id}/decline", rt.JoinRequests.Decline)
			})

			r.Route("/channels/{id}", func(r chi.Router) {
				r.Patch("/", rt.Channels.Update)
				r.Delete("/", rt.Channels.Delete)
			})
		})
	})

	return r
}
