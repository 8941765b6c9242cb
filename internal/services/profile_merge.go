package services

import (
	"time"

	"github.com/dweebe/backend/internal/models"
)

// MergeProfile computes the next version of a profile from the stored one
// (nil when none exists) and a partial update. It performs no I/O.
//
// Field groups (address, billing, subscription, person) are replaced whole:
// an update carrying address.city alone drops every other stored address
// subfield. Existing clients depend on this, so it is kept as is; a per-subfield
// deep merge would be a behaviour change.
//
// A group is taken whenever it is a JSON object, with whatever subfields it
// has. Emails are taken verbatim; several entries may be flagged primary.
// Stored top-level keys outside the model are kept.
func MergeProfile(existing *models.Profile, in *models.ProfileUpdate, now time.Time) *models.Profile {
	prev := existing
	if prev == nil {
		prev = &models.Profile{}
	}

	next := &models.Profile{
		ID:           in.ExternalID,
		ExternalID:   in.ExternalID,
		Email:        mergeScalar(in.Email, prev.Email),
		UserName:     mergeScalar(in.UserName, prev.UserName),
		Phones:       nonNil(in.Phones.Or(prev.Phones)),
		Emails:       nonNil(in.Emails.Or(prev.Emails)),
		Roles:        nonNil(in.Roles.Or(prev.Roles)),
		Address:      nonNilGroup(in.Address.Or(prev.Address)),
		Billing:      nonNilGroup(in.Billing.Or(prev.Billing)),
		Subscription: nonNilGroup(in.Subscription.Or(prev.Subscription)),
		Person:       nonNilGroup(in.Person.Or(prev.Person)),
		CreatedAt:    prev.CreatedAt,
		UpdatedAt:    now,
		Extra:        prev.Extra,
	}

	if next.CreatedAt.IsZero() {
		next.CreatedAt = now
	}
	// updatedAt never moves backwards, even if the clock does.
	if now.Before(prev.UpdatedAt) {
		next.UpdatedAt = prev.UpdatedAt
	}
	return next
}

func mergeScalar(in models.Field[string], prev *string) *string {
	if in.Present() {
		v := in.Value
		return &v
	}
	if prev == nil || *prev == "" {
		return nil
	}
	return prev
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func nonNilGroup(g models.Group) models.Group {
	if g == nil {
		return models.Group{}
	}
	return g
}
