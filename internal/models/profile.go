package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Profile is the user document stored in the users container and keyed by the
// identity provider's subject id (externalId). ID always equals ExternalID.
//
// Extra holds top-level keys written by other clients. They are carried
// through every read-modify-write untouched.
type Profile struct {
	ID           string       `json:"id" bson:"_id"`
	ExternalID   string       `json:"externalId" bson:"externalId"`
	Email        *string      `json:"email" bson:"email"`
	UserName     *string      `json:"userName" bson:"userName"`
	Phones       []string     `json:"phones" bson:"phones"`
	Emails       []EmailEntry `json:"emails" bson:"emails"`
	Address      Group        `json:"address" bson:"address"`
	Billing      Group        `json:"billing" bson:"billing"`
	Subscription Group        `json:"subscription" bson:"subscription"`
	Person       Group        `json:"person" bson:"person"`
	Roles        []string     `json:"roles" bson:"roles"`
	CreatedAt    time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt" bson:"updatedAt"`

	Extra map[string]interface{} `json:"-" bson:",inline"`
}

// EmailEntry is one address in the profile's email list. Nothing enforces a
// single primary entry.
type EmailEntry struct {
	Email   string `json:"email" bson:"email"`
	Primary bool   `json:"primary" bson:"primary"`
}

// Group is one of the profile's field groups (address, billing, subscription,
// person). It is stored exactly as the client sent it.
//
// The account form writes street/city/state/postalCode/country,
// cardNumber/expiry/cvv, inviteCode/subscriptionType/subscriptionCost/
// autoRenew/expDate/nextBilling and firstName/lastName/prefix/suffix/moniker,
// but any other subfield is kept too.
type Group map[string]interface{}

// TimestampLayout is the wire format of createdAt/updatedAt: UTC with exactly
// three fractional digits.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

var profileKeys = map[string]bool{
	"id": true, "externalId": true, "email": true, "userName": true,
	"phones": true, "emails": true, "address": true, "billing": true,
	"subscription": true, "person": true, "roles": true,
	"createdAt": true, "updatedAt": true,
}

type plainProfile Profile

func (p Profile) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(struct {
		plainProfile
		CreatedAt string `json:"createdAt"`
		UpdatedAt string `json:"updatedAt"`
	}{
		plainProfile: plainProfile(p),
		CreatedAt:    FormatTimestamp(p.CreatedAt),
		UpdatedAt:    FormatTimestamp(p.UpdatedAt),
	})
	if err != nil || len(p.Extra) == 0 {
		return known, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	out := make(map[string]interface{}, len(fields)+len(p.Extra))
	for k, v := range p.Extra {
		if !profileKeys[k] {
			out[k] = v
		}
	}
	for k, v := range fields {
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON fills the known fields and collects every other key into
// Extra. Store system properties (leading underscore, e.g. _etag, _ts) are
// dropped; the store sets them again on write.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var plain plainProfile
	if err := json.Unmarshal(data, &plain); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var extra map[string]interface{}
	for k, raw := range fields {
		if profileKeys[k] || strings.HasPrefix(k, "_") {
			continue
		}
		var v interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		if extra == nil {
			extra = make(map[string]interface{})
		}
		extra[k] = v
	}

	*p = Profile(plain)
	p.Extra = extra
	return nil
}

// PrimaryEmails returns every entry flagged primary. Callers that need the
// single-primary invariant must check len() themselves.
func (p *Profile) PrimaryEmails() []EmailEntry {
	var out []EmailEntry
	for _, e := range p.Emails {
		if e.Primary {
			out = append(out, e)
		}
	}
	return out
}
