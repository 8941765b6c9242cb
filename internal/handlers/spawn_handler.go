package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dweebe/backend/internal/models"
	"github.com/dweebe/backend/internal/services"
)

type SpawnHandler struct {
	spawns  *services.SpawnService
	timeout time.Duration
}

func NewSpawnHandler(spawns *services.SpawnService, timeout time.Duration) *SpawnHandler {
	return &SpawnHandler{spawns: spawns, timeout: timeout}
}

// CreateSpawn records a chat submission and acknowledges it.
func (h *SpawnHandler) CreateSpawn(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	req, err := models.ParseSpawnRequest(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Message is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.spawns.Create(ctx, req)
	if err != nil {
		if errors.Is(err, services.ErrMessageRequired) {
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Message is required"))
			return
		}
		log.Error().Err(err).Msg("[DWEEBE-SPAWN] insert failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, models.SpawnResponse{
		Success:      true,
		ResponseText: res.ResponseText,
		Dweebe:       res.Event,
	})
}
