package handlers

import (
	"net/http"

	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/service"
	"go.uber.org/zap"
)

type ChannelHandler struct {
	channelService *service.ChannelService
	log            *zap.Logger
}

func NewChannelHandler(channelService *service.ChannelService, log *zap.Logger) *ChannelHandler {
	return &ChannelHandler{channelService: channelService, log: log}
}

func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	serverID, ok := pathID(w, r, "id", "server")
	if !ok {
		return
	}

	var input service.CreateChannelInput
	if !decodeJSON(w, r, &input) {
		return
	}

	ch, err := h.channelService.Create(r.Context(), actorFrom(r), serverID, input)
	if err != nil {
		respondError(w, h.log, "create channel", err)
		return
	}

	writeJSON(w, http.StatusCreated, ch)
}

func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	serverID, ok := pathID(w, r, "id", "server")
	if !ok {
		return
	}

	channels, err := h.channelService.List(r.Context(), serverID)
	if err != nil {
		respondError(w, h.log, "list channels", err)
		return
	}

	if channels == nil {
		channels = []domain.Channel{}
	}

	writeJSON(w, http.StatusOK, channels)
}

func (h *ChannelHandler) Update(w http.ResponseWriter, r *http.Request) {
	channelID, ok := pathID(w, r, "id", "channel")
	if !ok {
		return
	}

	var input service.UpdateChannelInput
	if !decodeJSON(w, r, &input) {
		return
	}

	ch, err := h.channelService.Update(r.Context(), actorFrom(r), channelID, input)
	if err != nil {
		respondError(w, h.log, "update channel", err)
		return
	}

	writeJSON(w, http.StatusOK, ch)
}

func (h *ChannelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	channelID, ok := pathID(w, r, "id", "channel")
	if !ok {
		return
	}

	if err := h.channelService.Delete(r.Context(), actorFrom(r), channelID); err != nil {
		respondError(w, h.log, "delete channel", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
