package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dweebe/backend/internal/models"
	"github.com/dweebe/backend/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.SpawnEvent
	err    error
}

func (p *recordingPublisher) PublishSpawn(ctx context.Context, ev *models.SpawnEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func fixedClock(at time.Time) Clock {
	return func() time.Time { return at }
}

func TestSpawnServiceCreate(t *testing.T) {
	events := storage.NewMemoryContainer()
	pub := &recordingPublisher{}
	svc := NewSpawnService(events, pub, fixedClock(t0))

	res, err := svc.Create(context.Background(), models.SpawnRequest{Message: "hi"})
	require.NoError(t, err)

	assert.Equal(t, `DWEEBE received your message: "hi"`, res.ResponseText)
	ev := res.Event
	assert.Equal(t, "dweebe_1741964966000", ev.ID)
	assert.Equal(t, models.SpawnEventType, ev.Type)
	assert.Equal(t, "hi", ev.Message)
	assert.Equal(t, ev.CreatedAt, ev.UpdatedAt)
	assert.Equal(t, models.SpawnMetadata{
		Origin:         "chatbox",
		UserID:         "anonymous",
		UserName:       "unknown",
		ResonanceGlyph: "🗣️✨",
	}, ev.Metadata)

	var stored models.SpawnEvent
	require.NoError(t, events.Read(context.Background(), ev.ID, &stored))
	assert.Equal(t, *ev, stored)

	require.Len(t, pub.events, 1)
	assert.Equal(t, ev.ID, pub.events[0].ID)
}

func TestSpawnServiceKeepsIdentityHints(t *testing.T) {
	svc := NewSpawnService(storage.NewMemoryContainer(), nil, fixedClock(t0))

	res, err := svc.Create(context.Background(), models.SpawnRequest{Message: "yo", UserID: "oid-1", UserName: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "oid-1", res.Event.Metadata.UserID)
	assert.Equal(t, "alice@example.com", res.Event.Metadata.UserName)
}

func TestSpawnServiceRequiresMessage(t *testing.T) {
	events := storage.NewMemoryContainer()
	svc := NewSpawnService(events, nil, fixedClock(t0))

	_, err := svc.Create(context.Background(), models.SpawnRequest{UserID: "oid-1"})
	assert.ErrorIs(t, err, ErrMessageRequired)
	assert.Equal(t, 0, events.Len())
}

func TestSpawnServiceDistinctIDsForSameInstant(t *testing.T) {
	events := storage.NewMemoryContainer()
	svc := NewSpawnService(events, nil, fixedClock(t0))

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		res, err := svc.Create(context.Background(), models.SpawnRequest{Message: "same text"})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(res.Event.ID, models.SpawnIDPrefix))
		assert.False(t, seen[res.Event.ID], "duplicate id %s", res.Event.ID)
		seen[res.Event.ID] = true
	}
	assert.Equal(t, 5, events.Len())
}

func TestSpawnServiceConcurrentCreates(t *testing.T) {
	events := storage.NewMemoryContainer()
	svc := NewSpawnService(events, nil, fixedClock(t0))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), models.SpawnRequest{Message: "burst"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, events.Len())
}

func TestSpawnServicePublishFailureIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewSpawnService(storage.NewMemoryContainer(), pub, fixedClock(t0))

	res, err := svc.Create(context.Background(), models.SpawnRequest{Message: "hi"})
	require.NoError(t, err)
	assert.NotNil(t, res.Event)
	assert.Len(t, pub.events, 1)
}

func TestSpawnServiceInsertFailure(t *testing.T) {
	boom := errors.New("request rate too large")
	pub := &recordingPublisher{}
	svc := NewSpawnService(&faultyContainer{writeErr: boom}, pub, fixedClock(t0))

	_, err := svc.Create(context.Background(), models.SpawnRequest{Message: "hi"})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, pub.events, "nothing is published for a failed insert")
}
