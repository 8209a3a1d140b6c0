package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/service"
	"go.uber.org/zap"
)

type FriendHandler struct {
	friendService *service.FriendService
	log           *zap.Logger
}

func NewFriendHandler(friendService *service.FriendService, log *zap.Logger) *FriendHandler {
	return &FriendHandler{friendService: friendService, log: log}
}

func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	friends, err := h.friendService.List(r.Context(), actorFrom(r))
	if err != nil {
		respondError(w, h.log, "list friends", err)
		return
	}

	writeJSON(w, http.StatusOK, friends)
}

func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	friendID, ok := pathID(w, r, "userId", "user")
	if !ok {
		return
	}

	if err := h.friendService.Remove(r.Context(), actorFrom(r), friendID); err != nil {
		respondError(w, h.log, "remove friend", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Invite accepts either a user id or a username.
func (h *FriendHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	var (
		req *domain.FriendRequest
		err error
	)
	switch {
	case body.UserID != "":
		targetID, perr := uuid.Parse(body.UserID)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
			return
		}
		req, err = h.friendService.Invite(r.Context(), actorFrom(r), targetID)
	case strings.TrimSpace(body.Username) != "":
		req, err = h.friendService.InviteByUsername(r.Context(), actorFrom(r), strings.TrimSpace(body.Username))
	default:
		writeValidationErrors(w, map[string]string{"user_id": "user_id or username is required"})
		return
	}
	if err != nil {
		respondError(w, h.log, "invite friend", err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

func (h *FriendHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.friendService.ListPendingIncoming(r.Context(), actorFrom(r))
	if err != nil {
		respondError(w, h.log, "list incoming friend requests", err)
		return
	}

	writeJSON(w, http.StatusOK, reqs)
}

func (h *FriendHandler) ListOutgoing(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.friendService.ListPendingOutgoing(r.Context(), actorFrom(r))
	if err != nil {
		respondError(w, h.log, "list outgoing friend requests", err)
		return
	}

	writeJSON(w, http.StatusOK, reqs)
}

func (h *FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, "accept friend request", h.friendService.Accept)
}

func (h *FriendHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, "decline friend request", h.friendService.Decline)
}

func (h *FriendHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, "cancel friend request", h.friendService.Cancel)
}

func (h *FriendHandler) resolve(w http.ResponseWriter, r *http.Request, op string, fn requestAction) {
	requestID, ok := pathID(w, r, "id", "request")
	if !ok {
		return
	}

	if err := fn(r.Context(), actorFrom(r), requestID); err != nil {
		respondError(w, h.log, op, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
