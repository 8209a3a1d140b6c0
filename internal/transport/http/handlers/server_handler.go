package handlers

import (
	"net/http"

	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/service"
	"go.uber.org/zap"
)

type ServerHandler struct {
	serverService *service.ServerService
	log           *zap.Logger
}

func NewServerHandler(serverService *service.ServerService, log *zap.Logger) *ServerHandler {
	return &ServerHandler{serverService: serverService, log: log}
}

func (h *ServerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateServerInput
	if !decodeJSON(w, r, &input) {
		return
	}

	server, err := h.serverService.Create(r.Context(), actorFrom(r), input)
	if err != nil {
		respondError(w, h.log, "create server", err)
		return
	}

	writeJSON(w, http.StatusCreated, server)
}

func (h *ServerHandler) List(w http.ResponseWriter, r *http.Request) {
	servers, err := h.serverService.ListMine(r.Context(), actorFrom(r))
	if err != nil {
		respondError(w, h.log, "list servers", err)
		return
	}

	if servers == nil {
		servers = []domain.Server{}
	}

	writeJSON(w, http.StatusOK, servers)
}

func (h *ServerHandler) Discover(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		respondError(w, h.log, "discover servers", err)
		return
	}

	q := r.URL.Query()
	result, err := h.serverService.Discover(r.Context(), actorFrom(r), q.Get("q"), q.Get("filter"), page)
	if err != nil {
		respondError(w, h.log, "discover servers", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ServerHandler) Get(w http.ResponseWriter, r *http.Request) {
	serverID, ok := pathID(w, r, "id", "server")
	if !ok {
		return
	}

	server, err := h.serverService.Get(r.Context(), actorFrom(r), serverID)
	if err != nil {
		respondError(w, h.log, "get server", err)
		return
	}

	writeJSON(w, http.StatusOK, server)
}

func (h *ServerHandler) Update(w http.ResponseWriter, r *http.Request) {
	serverID, ok := pathID(w, r, "id", "server")
	if !ok {
		return
	}

	var input service.UpdateServerInput
	if !decodeJSON(w, r, &input) {
		return
	}

	server, err := h.serverService.Update(r.Context(), actorFrom(r), serverID, input)
	if err != nil {
		respondError(w, h.log, "update server", err)
		return
	}

	writeJSON(w, http.StatusOK, server)
}

func (h *ServerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	serverID, ok := pathID(w, r, "id", "server")
	if !ok {
		return
	}

	if err := h.serverService.Remove(r.Context(), actorFrom(r), serverID); err != nil {
		respondError(w, h.log, "delete server", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ServerHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	serverID, ok := pathID(w, r, "id", "server")
	if !ok {
		return
	}

	members, err := h.serverService.ListMembers(r.Context(), actorFrom(r), serverID)
	if err != nil {
		respondError(w, h.log, "list server members", err)
		return
	}

	writeJSON(w, http.StatusOK, members)
}

func (h *ServerHandler) Leave(w http.ResponseWriter, r *http.Request) {
	serverID, ok := pathID(w, r, "id", "server")
	if !ok {
		return
	}

	if err := h.serverService.Leave(r.Context(), actorFrom(r), serverID); err != nil {
		respondError(w, h.log, "leave server", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ServerHandler) Ban(w http.ResponseWriter, r *http.Request) {
	serverID, ok := pathID(w, r, "id", "server")
	if !ok {
		return
	}
	targetID, ok := pathID(w, r, "userId", "user")
	if !ok {
		return
	}

	if err := h.serverService.Ban(r.Context(), actorFrom(r), serverID, targetID); err != nil {
		respondError(w, h.log, "ban member", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
