package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dgnsrekt/asciitv/internal/channel"
)

type handlers struct {
	registry *channel.Registry
	logger   *zap.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Channels int    `json:"channels"`
	Live     int    `json:"live"`
	Viewers  int    `json:"viewers"`
}

// health reports "degraded" while any broadcaster has failed.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Channels: h.registry.Len()}
	for _, info := range h.registry.Infos() {
		resp.Viewers += info.Viewers
		switch info.Status {
		case channel.StatusLive:
			resp.Live++
		case channel.StatusFailed:
			resp.Status = "degraded"
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) listChannels(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.registry.Infos())
}

func (h *handlers) getChannel(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "channel index must be a number"})
		return
	}
	ch, ok := h.registry.Get(idx)
	if !ok {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no such channel"})
		return
	}
	h.writeJSON(w, http.StatusOK, ch.Info())
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Debug("writing response", zap.Error(err))
	}
}
