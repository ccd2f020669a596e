package store

import (
	"context"
	"testing"
	"time"

	"planchat/internal/models"
	"planchat/internal/notify"
	"planchat/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() (*Store, *storage.Memory, *notify.Notifier) {
	backend := storage.NewMemory()
	notifier := notify.New()
	return New(backend, notifier, DefaultKey), backend, notifier
}

func TestLoadEmptyStore(t *testing.T) {
	st, _, _ := newTestStore()

	rooms := st.Load(context.Background())
	assert.NotNil(t, rooms)
	assert.Empty(t, rooms)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	st, _, _ := newTestStore()

	created := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	rooms := []models.Room{
		{
			ID:        "r1",
			Title:     "Standup",
			CreatedAt: created,
			CreatedBy: "PlanBot",
			Messages: []models.Message{
				{ID: "m1", SenderName: "Ana", Text: "hi", Timestamp: "10:00", Type: models.MessageTypeText},
			},
			Memos:  []models.Memo{{ID: "p1", Title: "Plan A", Content: "Details", CreatedAt: created}},
			Typing: map[string]bool{"Ana": true},
		},
		{ID: "r2", Title: "Secret", Password: "xyz", Messages: []models.Message{}, Memos: []models.Memo{}},
	}

	require.NoError(t, st.Save(ctx, rooms))

	loaded := st.Load(ctx)
	require.Len(t, loaded, 2)
	assert.Equal(t, "r1", loaded[0].ID)
	assert.Equal(t, "Standup", loaded[0].Title)
	assert.True(t, created.Equal(loaded[0].CreatedAt))
	assert.Equal(t, rooms[0].Messages, loaded[0].Messages)
	assert.Equal(t, "Plan A", loaded[0].Memos[0].Title)
	assert.Equal(t, "xyz", loaded[1].Password)

	// save(load()) keeps the document semantically identical
	require.NoError(t, st.Save(ctx, loaded))
	again := st.Load(ctx)
	assert.Equal(t, loaded, again)
}

func TestLoadCorruptedDocument(t *testing.T) {
	ctx := context.Background()
	st, backend, _ := newTestStore()

	require.NoError(t, backend.Set(ctx, DefaultKey, []byte("{not json")))

	rooms := st.Load(ctx)
	assert.NotNil(t, rooms)
	assert.Empty(t, rooms, "corrupted document degrades to an empty collection")
}

func TestSaveNotifies(t *testing.T) {
	ctx := context.Background()
	st, _, notifier := newTestStore()

	var events []models.Event
	unsubscribe := notifier.Subscribe(func(ev models.Event) {
		events = append(events, ev)
	})
	defer unsubscribe()

	require.NoError(t, st.Save(ctx, []models.Room{{ID: "r1", Title: "A"}}))
	require.Len(t, events, 1)
	assert.Equal(t, models.EventRoomsChanged, events[0].Name)
	assert.Equal(t, notifier.Origin(), events[0].Origin)
}
