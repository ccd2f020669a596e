package store

import (
	"context"
	"encoding/json"
	"fmt"

	"planchat/internal/models"
	"planchat/internal/notify"
	"planchat/internal/storage"
	"planchat/pkg/logger"
)

// DefaultKey is the fixed document key the room collection lives under.
const DefaultKey = "planchat_rooms"

// Store serializes the full room collection into a single document. The
// unit of durability is "all rooms": every Save rewrites the whole blob
// and every Load reads it back.
type Store struct {
	backend  storage.Backend
	notifier *notify.Notifier
	key      string
}

func New(backend storage.Backend, notifier *notify.Notifier, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		backend:  backend,
		notifier: notifier,
		key:      key,
	}
}

// Load returns the persisted rooms. It never fails: an absent document
// means no rooms yet, and a corrupted one degrades to an empty collection
// instead of taking the whole application down.
func (s *Store) Load(ctx context.Context) []models.Room {
	data, found, err := s.backend.Get(ctx, s.key)
	if err != nil {
		logger.Error("Failed to read room collection: %v", err)
		return []models.Room{}
	}
	if !found {
		return []models.Room{}
	}

	var rooms []models.Room
	if err := json.Unmarshal(data, &rooms); err != nil {
		logger.Error("Corrupted room collection, starting empty: %v", err)
		return []models.Room{}
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	return rooms
}

// Save overwrites the persisted collection in a single write and then
// notifies every observer. Room order is preserved as given.
func (s *Store) Save(ctx context.Context, rooms []models.Room) error {
	data, err := json.Marshal(rooms)
	if err != nil {
		return fmt.Errorf("failed to serialize room collection: %w", err)
	}

	if err := s.backend.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to persist room collection: %w", err)
	}

	s.notifier.Publish(models.EventRoomsChanged)
	return nil
}

// Notifier exposes the change channel so callers can subscribe to both
// local and cross-process updates.
func (s *Store) Notifier() *notify.Notifier {
	return s.notifier
}
