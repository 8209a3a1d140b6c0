package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/keyvalue"
	"go.uber.org/zap"
)

const userExistsTTL = 15 * time.Minute

var errUnknownUser = fmt.Errorf("%w: user no longer exists", domain.ErrInvalidCredential)

type contextKey struct{}

// TokenVerifier resolves a bearer token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// UserChecker reports whether a user account still exists.
type UserChecker interface {
	Exists(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Authenticator turns bearer tokens into actors. Known users are cached
// under user_exists:<id> so most requests skip the users collection.
type Authenticator struct {
	tokens TokenVerifier
	users  UserChecker
	cache  keyvalue.Store
	log    *zap.Logger
}

func NewAuthenticator(tokens TokenVerifier, users UserChecker, cache keyvalue.Store, log *zap.Logger) *Authenticator {
	return &Authenticator{
		tokens: tokens,
		users:  users,
		cache:  cache,
		log:    log,
	}
}

// Resolve verifies the token and checks its user still exists.
func (a *Authenticator) Resolve(ctx context.Context, token string) (domain.Actor, error) {
	userID, err := a.tokens.Verify(token)
	if err != nil {
		return domain.Actor{}, err
	}

	key := "user_exists:" + userID.String()
	if _, ok, err := a.cache.Get(ctx, key); err != nil {
		a.log.Warn("user cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return domain.NewActor(userID), nil
	}

	exists, err := a.users.Exists(ctx, userID)
	if err != nil {
		return domain.Actor{}, err
	}
	if !exists {
		return domain.Actor{}, errUnknownUser
	}

	if err := a.cache.Set(ctx, key, "1", userExistsTTL); err != nil {
		a.log.Warn("user cache write failed", zap.String("key", key), zap.Error(err))
	}
	return domain.NewActor(userID), nil
}

// Middleware requires an Authorization: Bearer header and stores the
// resolved actor on the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			writeUnauthorized(w, "Missing or invalid token")
			return
		}

		actor, err := a.Resolve(r.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			if !errors.Is(err, domain.ErrInvalidCredential) {
				a.log.Error("resolve actor", zap.Error(err))
				writeJSONError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
				return
			}
			writeUnauthorized(w, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// GetActor extracts the authenticated actor from the request context.
func GetActor(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(contextKey{}).(domain.Actor)
	return actor, ok
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
