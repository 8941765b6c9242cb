package models

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrInvalidBody is returned when a request body is not a JSON object.
var ErrInvalidBody = errors.New("invalid request body")

// FieldState tells how a field arrived in an update request.
type FieldState int

const (
	// FieldAbsent: key missing, null, or an empty string scalar.
	FieldAbsent FieldState = iota
	// FieldMismatch: key present with the wrong JSON shape.
	FieldMismatch
	// FieldPresent: key present with the expected shape.
	FieldPresent
)

func (s FieldState) String() string {
	switch s {
	case FieldAbsent:
		return "absent"
	case FieldMismatch:
		return "mismatch"
	case FieldPresent:
		return "present"
	}
	return "unknown"
}

// Field is one field of a partial update together with how it arrived.
// Value is only meaningful when State is FieldPresent.
type Field[T any] struct {
	State FieldState
	Value T
}

// Present reports whether the field carries a usable value.
func (f Field[T]) Present() bool { return f.State == FieldPresent }

// Or returns the field value when present, otherwise fallback. Absent and
// mismatched fields are treated the same way.
func (f Field[T]) Or(fallback T) T {
	if f.State == FieldPresent {
		return f.Value
	}
	return fallback
}

// ProfileUpdate is a partial profile as posted by the account form.
type ProfileUpdate struct {
	ExternalID   string
	Email        Field[string]
	UserName     Field[string]
	Phones       Field[[]string]
	Emails       Field[[]EmailEntry]
	Roles        Field[[]string]
	Address      Field[Group]
	Billing      Field[Group]
	Subscription Field[Group]
	Person       Field[Group]
}

// Supplied lists the names of the fields that will be taken from the update.
// Used for logging instead of the field contents.
func (u *ProfileUpdate) Supplied() []string {
	var out []string
	add := func(name string, present bool) {
		if present {
			out = append(out, name)
		}
	}
	add("email", u.Email.Present())
	add("userName", u.UserName.Present())
	add("phones", u.Phones.Present())
	add("emails", u.Emails.Present())
	add("roles", u.Roles.Present())
	add("address", u.Address.Present())
	add("billing", u.Billing.Present())
	add("subscription", u.Subscription.Present())
	add("person", u.Person.Present())
	return out
}

// ParseProfileUpdate classifies every known key of a JSON object body.
// Field groups are taken whenever they are JSON objects, whatever subfields
// they carry. Unknown top-level keys are ignored.
func ParseProfileUpdate(body []byte) (*ProfileUpdate, error) {
	fields, err := objectFields(body)
	if err != nil {
		return nil, err
	}

	u := &ProfileUpdate{
		Email:        stringField(fields, "email"),
		UserName:     stringField(fields, "userName"),
		Phones:       decodeField[[]string](fields, "phones", kindArray),
		Emails:       decodeField[[]EmailEntry](fields, "emails", kindArray),
		Roles:        decodeField[[]string](fields, "roles", kindArray),
		Address:      decodeField[Group](fields, "address", kindObject),
		Billing:      decodeField[Group](fields, "billing", kindObject),
		Subscription: decodeField[Group](fields, "subscription", kindObject),
		Person:       decodeField[Group](fields, "person", kindObject),
	}
	if id := stringField(fields, "externalId"); id.Present() {
		u.ExternalID = id.Value
	}
	return u, nil
}

// ParseRolesPatch extracts the roles field of a roles-patch body. A null or
// missing roles key is reported as FieldAbsent.
func ParseRolesPatch(body []byte) (Field[[]string], error) {
	fields, err := objectFields(body)
	if err != nil {
		return Field[[]string]{}, err
	}
	return decodeField[[]string](fields, "roles", kindArray), nil
}

// ParseSpawnRequest reads a spawn body. A message or identity hint that is not
// a string counts as absent, so a bad hint falls back to the default instead
// of failing the request.
func ParseSpawnRequest(body []byte) (SpawnRequest, error) {
	fields, err := objectFields(body)
	if err != nil {
		return SpawnRequest{}, err
	}
	return SpawnRequest{
		Message:  stringField(fields, "message").Or(""),
		UserID:   stringField(fields, "userId").Or(""),
		UserName: stringField(fields, "userName").Or(""),
	}, nil
}

type jsonKind int

const (
	kindNull jsonKind = iota
	kindObject
	kindArray
	kindString
	kindOther
)

func kindOf(raw json.RawMessage) jsonKind {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 {
		return kindNull
	}
	switch b[0] {
	case '{':
		return kindObject
	case '[':
		return kindArray
	case '"':
		return kindString
	case 'n':
		return kindNull
	}
	return kindOther
}

func objectFields(body []byte) (map[string]json.RawMessage, error) {
	if kindOf(body) != kindObject {
		return nil, ErrInvalidBody
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, ErrInvalidBody
	}
	return fields, nil
}

func decodeField[T any](fields map[string]json.RawMessage, key string, want jsonKind) Field[T] {
	raw, ok := fields[key]
	if !ok {
		return Field[T]{State: FieldAbsent}
	}
	kind := kindOf(raw)
	if kind == kindNull {
		return Field[T]{State: FieldAbsent}
	}
	if kind != want {
		return Field[T]{State: FieldMismatch}
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return Field[T]{State: FieldMismatch}
	}
	return Field[T]{State: FieldPresent, Value: v}
}

func stringField(fields map[string]json.RawMessage, key string) Field[string] {
	f := decodeField[string](fields, key, kindString)
	if f.Present() && f.Value == "" {
		return Field[string]{State: FieldAbsent}
	}
	return f
}
