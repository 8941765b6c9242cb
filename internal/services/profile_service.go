package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dweebe/backend/internal/models"
	"github.com/dweebe/backend/internal/storage"
)

// ProfileService reads and writes user profiles in the users container.
//
// Upsert is read-merge-write without any concurrency token: two concurrent
// upserts for the same externalId both merge against the same stored version
// and the later write silently discards the earlier one's changes. A
// conditional write on the document etag would close this.
type ProfileService struct {
	users storage.Container
	clock Clock
}

func NewProfileService(users storage.Container, clock Clock) *ProfileService {
	return &ProfileService{users: users, clock: clock}
}

// Get returns the stored profile or ErrUserNotFound.
func (s *ProfileService) Get(ctx context.Context, externalID string) (*models.Profile, error) {
	var prof models.Profile
	if err := s.users.Read(ctx, externalID, &prof); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return &prof, nil
}

// Upsert merges the update over the stored profile (if any) and persists the
// result. A missing stored profile is not an error.
func (s *ProfileService) Upsert(ctx context.Context, upd *models.ProfileUpdate) (*models.Profile, error) {
	if upd == nil || upd.ExternalID == "" {
		return nil, ErrExternalIDRequired
	}

	existing, err := s.Get(ctx, upd.ExternalID)
	switch {
	case errors.Is(err, ErrUserNotFound):
		log.Debug().Str("externalId", upd.ExternalID).Msg("[UpsertUser] no existing user, creating")
		existing = nil
	case err != nil:
		return nil, err
	}

	next := MergeProfile(existing, upd, s.clock.now())

	log.Debug().
		Str("externalId", upd.ExternalID).
		Strs("supplied", upd.Supplied()).
		Strs("roles", next.Roles).
		Msg("[UpsertUser] upserting")

	if err := s.users.Upsert(ctx, next.ID, next); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return next, nil
}

// PatchRoles replaces the roles of an existing profile wholesale. It skips
// MergeProfile: role assignment is an admin action, not a self-edit.
func (s *ProfileService) PatchRoles(ctx context.Context, externalID string, roles models.Field[[]string]) (*models.Profile, error) {
	if !roles.Present() {
		return nil, ErrRolesNotArray
	}

	prof, err := s.Get(ctx, externalID)
	if err != nil {
		return nil, err
	}

	prof.Roles = nonNil(roles.Value)
	if now := s.clock.now(); now.After(prof.UpdatedAt) {
		prof.UpdatedAt = now
	}

	if err := s.users.Upsert(ctx, externalID, prof); err != nil {
		return nil, fmt.Errorf("patch roles: %w", err)
	}
	return prof, nil
}
