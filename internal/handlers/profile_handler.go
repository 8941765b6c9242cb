package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/dweebe/backend/internal/models"
	"github.com/dweebe/backend/internal/services"
)

type ProfileHandler struct {
	profiles *services.ProfileService
	timeout  time.Duration
}

func NewProfileHandler(profiles *services.ProfileService, timeout time.Duration) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, timeout: timeout}
}

// GetUser returns the stored profile for {oid}.
func (h *ProfileHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	oid := chi.URLParam(r, "oid")

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	prof, err := h.profiles.Get(ctx, oid)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewMessageResponse("User not found"))
			return
		}
		log.Error().Err(err).Str("externalId", oid).Msg("[GetUser] store error")
		writeJSON(w, http.StatusInternalServerError, models.NewMessageResponse("Internal server error"))
		return
	}
	writeJSON(w, http.StatusOK, prof)
}

// UpsertUser creates or merges a profile from a partial body carrying externalId.
func (h *ProfileHandler) UpsertUser(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewMessageResponse("Invalid request body"))
		return
	}
	upd, err := models.ParseProfileUpdate(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewMessageResponse("Invalid request body"))
		return
	}
	if upd.ExternalID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewMessageResponse("externalId is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	prof, err := h.profiles.Upsert(ctx, upd)
	if err != nil {
		if errors.Is(err, services.ErrExternalIDRequired) {
			writeJSON(w, http.StatusBadRequest, models.NewMessageResponse("externalId is required"))
			return
		}
		log.Error().Err(err).Str("externalId", upd.ExternalID).Msg("[UpsertUser] store error")
		writeJSON(w, http.StatusInternalServerError, models.NewMessageResponse("Internal server error"))
		return
	}
	log.Info().Str("externalId", prof.ExternalID).Strs("supplied", upd.Supplied()).Msg("[UpsertUser] upsert complete")
	writeJSON(w, http.StatusOK, prof)
}

// PatchRoles replaces the roles of {oid}.
func (h *ProfileHandler) PatchRoles(w http.ResponseWriter, r *http.Request) {
	oid := chi.URLParam(r, "oid")

	body, err := readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewMessageResponse("Invalid request body"))
		return
	}
	roles, err := models.ParseRolesPatch(body)
	if err != nil || !roles.Present() {
		writeJSON(w, http.StatusBadRequest, models.NewMessageResponse("roles must be an array"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	prof, err := h.profiles.PatchRoles(ctx, oid, roles)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRolesNotArray):
			writeJSON(w, http.StatusBadRequest, models.NewMessageResponse("roles must be an array"))
		case errors.Is(err, services.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, models.NewMessageResponse("User not found"))
		default:
			log.Error().Err(err).Str("externalId", oid).Msg("[PatchRoles] store error")
			writeJSON(w, http.StatusInternalServerError, models.NewMessageResponse("Internal server error"))
		}
		return
	}
	log.Info().Str("externalId", oid).Strs("roles", prof.Roles).Msg("[PatchRoles] roles updated")
	writeJSON(w, http.StatusOK, prof)
}
