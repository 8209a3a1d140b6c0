package handlers

import (
	"io"
	"net/http"

	"github.com/vedran77/concorde/internal/avatar"
	"github.com/vedran77/concorde/internal/service"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService *service.UserService
	log         *zap.Logger
}

func NewUserHandler(userService *service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, err := h.userService.Me(r.Context(), actorFrom(r))
	if err != nil {
		respondError(w, h.log, "get me", err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// SetAvatar takes the raw image as the request body.
func (h *UserHandler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	// One byte over the limit lets the store reject oversized uploads.
	data, err := io.ReadAll(io.LimitReader(r.Body, avatar.MaxSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Could not read request body")
		return
	}

	account, err := h.userService.SetAvatar(r.Context(), actorFrom(r), r.Header.Get("Content-Type"), data)
	if err != nil {
		respondError(w, h.log, "set avatar", err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}
