package models

import (
	"encoding/json"
	"time"
)

const (
	// SpawnEventType tags every record in the spawn container.
	SpawnEventType = "DWEEBESpawnEvent"
	// SpawnOrigin is the surface that produces spawn events.
	SpawnOrigin         = "chatbox"
	SpawnIDPrefix       = "dweebe_"
	SpawnResonanceGlyph = "🗣️✨"

	AnonymousUserID = "anonymous"
	UnknownUserName = "unknown"
)

// SpawnEvent is an immutable log record of one chat submission.
type SpawnEvent struct {
	ID        string        `json:"id" bson:"_id"`
	Type      string        `json:"type" bson:"type"`
	Message   string        `json:"message" bson:"message"`
	CreatedAt time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt" bson:"updatedAt"`
	Metadata  SpawnMetadata `json:"metadata" bson:"metadata"`
}

type plainSpawnEvent SpawnEvent

func (e SpawnEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		plainSpawnEvent
		CreatedAt string `json:"createdAt"`
		UpdatedAt string `json:"updatedAt"`
	}{
		plainSpawnEvent: plainSpawnEvent(e),
		CreatedAt:       FormatTimestamp(e.CreatedAt),
		UpdatedAt:       FormatTimestamp(e.UpdatedAt),
	})
}

type SpawnMetadata struct {
	Origin         string `json:"origin" bson:"origin"`
	UserID         string `json:"userId" bson:"userId"`
	UserName       string `json:"userName" bson:"userName"`
	ResonanceGlyph string `json:"resonanceGlyph" bson:"resonanceGlyph"`
}

// SpawnRequest is the body of POST /api/dweebe-spawn, see ParseSpawnRequest.
// UserID and UserName are identity hints from the client and are not verified.
type SpawnRequest struct {
	Message  string
	UserID   string
	UserName string
}

// SpawnResult is what the spawn service hands back after a successful insert.
type SpawnResult struct {
	ResponseText string
	Event        *SpawnEvent
}

// SpawnResponse is the success body of POST /api/dweebe-spawn.
type SpawnResponse struct {
	Success      bool        `json:"success"`
	ResponseText string      `json:"responseText"`
	Dweebe       *SpawnEvent `json:"dweebe"`
}
