package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dweebe/backend/internal/models"
	"github.com/dweebe/backend/internal/storage"
)

// SpawnPublisher fans a created spawn event out to other consumers.
type SpawnPublisher interface {
	PublishSpawn(ctx context.Context, ev *models.SpawnEvent) error
}

// SpawnService records chat submissions in the spawn container.
type SpawnService struct {
	events    storage.Container
	publisher SpawnPublisher
	clock     Clock

	mu     sync.Mutex
	lastID int64
}

// NewSpawnService wires the spawn container. publisher may be nil.
func NewSpawnService(events storage.Container, publisher SpawnPublisher, clock Clock) *SpawnService {
	return &SpawnService{events: events, publisher: publisher, clock: clock}
}

// Create inserts a new spawn event. It never merges or checks for an existing
// record, and does not retry a failed insert.
func (s *SpawnService) Create(ctx context.Context, req models.SpawnRequest) (*models.SpawnResult, error) {
	if req.Message == "" {
		return nil, ErrMessageRequired
	}

	now := s.clock.now()
	ev := &models.SpawnEvent{
		ID:        s.nextID(now),
		Type:      models.SpawnEventType,
		Message:   req.Message,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata: models.SpawnMetadata{
			Origin:         models.SpawnOrigin,
			UserID:         orDefault(req.UserID, models.AnonymousUserID),
			UserName:       orDefault(req.UserName, models.UnknownUserName),
			ResonanceGlyph: models.SpawnResonanceGlyph,
		},
	}

	log.Info().Str("id", ev.ID).Str("userId", ev.Metadata.UserID).Msg("[DWEEBE-SPAWN] inserting")
	if err := s.events.Create(ctx, ev.ID, ev); err != nil {
		return nil, fmt.Errorf("insert spawn event: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishSpawn(ctx, ev); err != nil {
			log.Warn().Err(err).Str("id", ev.ID).Msg("[DWEEBE-SPAWN] publish failed")
		}
	}

	return &models.SpawnResult{
		ResponseText: fmt.Sprintf(`DWEEBE received your message: "%s"`, req.Message),
		Event:        ev,
	}, nil
}

// nextID derives the id from the creation instant in milliseconds. Two calls
// landing in the same millisecond get consecutive values so ids stay distinct.
func (s *SpawnService) nextID(now time.Time) string {
	ms := now.UnixMilli()

	s.mu.Lock()
	if ms <= s.lastID {
		ms = s.lastID + 1
	}
	s.lastID = ms
	s.mu.Unlock()

	return models.SpawnIDPrefix + strconv.FormatInt(ms, 10)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
