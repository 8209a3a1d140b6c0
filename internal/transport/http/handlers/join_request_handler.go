package handlers

import (
	"net/http"

	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/service"
	"go.uber.org/zap"
)

type JoinRequestHandler struct {
	joinService *service.JoinRequestService
	log         *zap.Logger
}

func NewJoinRequestHandler(joinService *service.JoinRequestService, log *zap.Logger) *JoinRequestHandler {
	return &JoinRequestHandler{joinService: joinService, log: log}
}

func (h *JoinRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	serverID, ok := pathID(w, r, "id", "server")
	if !ok {
		return
	}

	req, err := h.joinService.RequestToJoin(r.Context(), actorFrom(r), serverID)
	if err != nil {
		respondError(w, h.log, "request to join", err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// List pages through a server's pending requests; ?page= and ?limit=.
func (h *JoinRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	serverID, ok := pathID(w, r, "id", "server")
	if !ok {
		return
	}

	page, err := pageFromQuery(r)
	if err != nil {
		respondError(w, h.log, "list join requests", err)
		return
	}

	result, err := h.joinService.List(r.Context(), actorFrom(r), serverID, page)
	if err != nil {
		respondError(w, h.log, "list join requests", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *JoinRequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.joinService.ListMine(r.Context(), actorFrom(r))
	if err != nil {
		respondError(w, h.log, "list own join requests", err)
		return
	}

	if reqs == nil {
		reqs = []domain.ServerJoinRequest{}
	}

	writeJSON(w, http.StatusOK, reqs)
}

func (h *JoinRequestHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, "accept join request", h.joinService.Accept)
}

func (h *JoinRequestHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, "decline join request", h.joinService.Decline)
}

func (h *JoinRequestHandler) resolve(w http.ResponseWriter, r *http.Request, op string, fn requestAction) {
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
