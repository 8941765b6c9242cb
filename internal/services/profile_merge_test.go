package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dweebe/backend/internal/models"
)

var t0 = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func strPtr(s string) *string { return &s }

func parseUpdate(t *testing.T, body string) *models.ProfileUpdate {
	t.Helper()
	upd, err := models.ParseProfileUpdate([]byte(body))
	require.NoError(t, err)
	return upd
}

func storedProfile() *models.Profile {
	return &models.Profile{
		ID:         "u1",
		ExternalID: "u1",
		Email:      strPtr("alice@example.com"),
		UserName:   strPtr("alice"),
		Phones:     []string{"+15550001", "+15550002"},
		Emails:     []models.EmailEntry{{Email: "alice@example.com", Primary: true}},
		Address:    models.Group{"street": "1 Main St", "city": "Boston"},
		Billing:    models.Group{"cardNumber": "4111", "expiry": "12/30"},
		Subscription: models.Group{
			"subscriptionType": "pro",
			"autoRenew":        true,
		},
		Person:    models.Group{"firstName": "Alice", "lastName": "Liddell"},
		Roles:     []string{"user"},
		CreatedAt: t0,
		UpdatedAt: t0,
		Extra:     map[string]interface{}{"theme": "dark"},
	}
}

func TestMergeProfileKeepsAbsentGroups(t *testing.T) {
	existing := storedProfile()
	now := t0.Add(time.Hour)

	got := MergeProfile(existing, parseUpdate(t, `{"externalId":"u1"}`), now)

	assert.Equal(t, existing.Email, got.Email)
	assert.Equal(t, existing.UserName, got.UserName)
	assert.Equal(t, existing.Phones, got.Phones)
	assert.Equal(t, existing.Emails, got.Emails)
	assert.Equal(t, existing.Address, got.Address)
	assert.Equal(t, existing.Billing, got.Billing)
	assert.Equal(t, existing.Subscription, got.Subscription)
	assert.Equal(t, existing.Person, got.Person)
	assert.Equal(t, existing.Roles, got.Roles)
	assert.Equal(t, t0, got.CreatedAt)
	assert.Equal(t, now, got.UpdatedAt)
}

func TestMergeProfileWrongShapeFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		check func(t *testing.T, want, got *models.Profile)
	}{
		{
			name: "address as string",
			body: `{"externalId":"u1","address":"1 Main St"}`,
			check: func(t *testing.T, want, got *models.Profile) {
				assert.Equal(t, want.Address, got.Address)
			},
		},
		{
			name: "billing as array",
			body: `{"externalId":"u1","billing":["4111"]}`,
			check: func(t *testing.T, want, got *models.Profile) {
				assert.Equal(t, want.Billing, got.Billing)
			},
		},
		{
			name: "person as number",
			body: `{"externalId":"u1","person":5}`,
			check: func(t *testing.T, want, got *models.Profile) {
				assert.Equal(t, want.Person, got.Person)
			},
		},
		{
			name: "phones as string",
			body: `{"externalId":"u1","phones":"+15559999"}`,
			check: func(t *testing.T, want, got *models.Profile) {
				assert.Equal(t, want.Phones, got.Phones)
			},
		},
		{
			name: "emails as object",
			body: `{"externalId":"u1","emails":{"email":"x@example.com"}}`,
			check: func(t *testing.T, want, got *models.Profile) {
				assert.Equal(t, want.Emails, got.Emails)
			},
		},
		{
			name: "roles as string",
			body: `{"externalId":"u1","roles":"admin"}`,
			check: func(t *testing.T, want, got *models.Profile) {
				assert.Equal(t, want.Roles, got.Roles)
			},
		},
		{
			name: "email as number",
			body: `{"externalId":"u1","email":42}`,
			check: func(t *testing.T, want, got *models.Profile) {
				assert.Equal(t, want.Email, got.Email)
			},
		},
		{
			name: "null groups",
			body: `{"externalId":"u1","address":null,"phones":null,"userName":null}`,
			check: func(t *testing.T, want, got *models.Profile) {
				assert.Equal(t, want.Address, got.Address)
				assert.Equal(t, want.Phones, got.Phones)
				assert.Equal(t, want.UserName, got.UserName)
			},
		},
		{
			name: "empty scalar strings",
			body: `{"externalId":"u1","email":"","userName":""}`,
			check: func(t *testing.T, want, got *models.Profile) {
				assert.Equal(t, want.Email, got.Email)
				assert.Equal(t, want.UserName, got.UserName)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := storedProfile()
			got := MergeProfile(existing, parseUpdate(t, tt.body), t0.Add(time.Minute))
			tt.check(t, storedProfile(), got)
		})
	}
}

func TestMergeProfileReplacesWholeGroup(t *testing.T) {
	got := MergeProfile(storedProfile(), parseUpdate(t, `{"externalId":"u1","address":{"city":"NYC"}}`), t0.Add(time.Minute))

	assert.Equal(t, models.Group{"city": "NYC"}, got.Address)
	assert.NotContains(t, got.Address, "street", "stored street is dropped by whole-group replacement")
}

func TestMergeProfileTakesAnyObjectGroup(t *testing.T) {
	body := `{
		"externalId": "u1",
		"person": {"firstName": "A", "lastName": "B", "prefix": "", "moniker": "", "suffex": "Jr"},
		"subscription": {"subscriptionCost": 9.99, "autoRenew": true}
	}`
	got := MergeProfile(storedProfile(), parseUpdate(t, body), t0.Add(time.Minute))

	assert.Equal(t, models.Group{"firstName": "A", "lastName": "B", "prefix": "", "moniker": "", "suffex": "Jr"}, got.Person)
	assert.Equal(t, models.Group{"subscriptionCost": 9.99, "autoRenew": true}, got.Subscription)
}

func TestMergeProfileKeepsStoredExtraKeys(t *testing.T) {
	got := MergeProfile(storedProfile(), parseUpdate(t, `{"externalId":"u1","userName":"al","theme":"light"}`), t0.Add(time.Minute))
	assert.Equal(t, map[string]interface{}{"theme": "dark"}, got.Extra)

	created := MergeProfile(nil, parseUpdate(t, `{"externalId":"u2","theme":"light"}`), t0)
	assert.Nil(t, created.Extra)
}

func TestMergeProfileTakesSuppliedValues(t *testing.T) {
	body := `{
		"externalId": "u1",
		"email": "new@example.com",
		"phones": [],
		"roles": ["admin", "user"],
		"person": {"firstName": "Al", "moniker": "al"}
	}`
	got := MergeProfile(storedProfile(), parseUpdate(t, body), t0.Add(time.Minute))

	require.NotNil(t, got.Email)
	assert.Equal(t, "new@example.com", *got.Email)
	assert.Equal(t, []string{}, got.Phones)
	assert.Equal(t, []string{"admin", "user"}, got.Roles)
	assert.Equal(t, models.Group{"firstName": "Al", "moniker": "al"}, got.Person)
	assert.Equal(t, "alice", *got.UserName)
}

func TestMergeProfileCreate(t *testing.T) {
	got := MergeProfile(nil, parseUpdate(t, `{"externalId":"u1","userName":"alice"}`), t0)

	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "u1", got.ExternalID)
	assert.Nil(t, got.Email)
	assert.Equal(t, "alice", *got.UserName)
	assert.NotNil(t, got.Phones)
	assert.Empty(t, got.Phones)
	assert.NotNil(t, got.Emails)
	assert.Empty(t, got.Emails)
	assert.NotNil(t, got.Roles)
	assert.Equal(t, models.Group{}, got.Address)
	assert.Equal(t, models.Group{}, got.Billing)
	assert.Equal(t, models.Group{}, got.Subscription)
	assert.Equal(t, models.Group{}, got.Person)
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
	assert.Equal(t, t0, got.CreatedAt)
}

func TestMergeProfileTimestamps(t *testing.T) {
	prof := MergeProfile(nil, parseUpdate(t, `{"externalId":"u1"}`), t0)
	created := prof.CreatedAt

	steps := []time.Duration{time.Second, time.Second, 0, time.Minute}
	now := t0
	for i, step := range steps {
		now = now.Add(step)
		prev := prof.UpdatedAt
		prof = MergeProfile(prof, parseUpdate(t, `{"externalId":"u1","userName":"n"}`), now)
		assert.Equal(t, created, prof.CreatedAt, "step %d", i)
		assert.False(t, prof.UpdatedAt.Before(prev), "step %d", i)
	}

	// Clock moving backwards keeps the stored updatedAt.
	last := prof.UpdatedAt
	prof = MergeProfile(prof, parseUpdate(t, `{"externalId":"u1"}`), t0.Add(-time.Hour))
	assert.Equal(t, last, prof.UpdatedAt)
	assert.Equal(t, created, prof.CreatedAt)
}

func TestMergeProfileLegacyDocumentWithoutCreatedAt(t *testing.T) {
	existing := storedProfile()
	existing.CreatedAt = time.Time{}
	existing.UpdatedAt = time.Time{}

	got := MergeProfile(existing, parseUpdate(t, `{"externalId":"u1"}`), t0)
	assert.Equal(t, t0, got.CreatedAt)
}

func TestMergeProfileAllowsSeveralPrimaryEmails(t *testing.T) {
	body := `{"externalId":"u1","emails":[
		{"email":"a@example.com","primary":true},
		{"email":"b@example.com","primary":true},
		{"email":"c@example.com","primary":false}
	]}`
	got := MergeProfile(storedProfile(), parseUpdate(t, body), t0.Add(time.Minute))

	assert.Len(t, got.Emails, 3)
	assert.Len(t, got.PrimaryEmails(), 2)
}

func TestMergeProfileEmptyStoredEmailBecomesNull(t *testing.T) {
	existing := storedProfile()
	existing.Email = strPtr("")

	got := MergeProfile(existing, parseUpdate(t, `{"externalId":"u1"}`), t0.Add(time.Minute))
	assert.Nil(t, got.Email)
}
