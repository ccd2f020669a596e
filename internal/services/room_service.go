package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"planchat/internal/models"
	"planchat/internal/store"
	"planchat/pkg/logger"

	"github.com/google/uuid"
)

// BotName is the identity that owns created rooms and signs generated
// replies.
const BotName = "PlanBot"

var ErrEmptyTitle = errors.New("room title is required")

// ReplyGenerator produces a short reply from the conversation so far. It
// never fails; implementations return a fallback string instead.
type ReplyGenerator interface {
	Complete(ctx context.Context, history []models.Message, roomTitle string) string
}

// RoomService is the business layer over the room store. Every mutation
// follows the same shape: load the full collection, find the target room
// by id, mutate it, save the full collection back.
//
// A missing room or memo is a benign race (another process may have
// deleted it between our load and theirs) and degrades to a silent no-op,
// never an error.
type RoomService struct {
	store *store.Store
	ai    ReplyGenerator
}

func NewRoomService(st *store.Store, ai ReplyGenerator) *RoomService {
	return &RoomService{store: st, ai: ai}
}

// CreateRoom persists a new room seeded with a date-banner system message.
// An empty password leaves the room public.
func (s *RoomService) CreateRoom(ctx context.Context, title, password string) (*models.Room, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyTitle
	}

	now := time.Now()
	room := models.Room{
		ID:       newID(),
		Title:    title,
		Password: password,
		Messages: []models.Message{
			{
				ID:        newID(),
				Text:      now.Format("January 2, 2006"),
				Timestamp: now.Format("15:04"),
				Type:      models.MessageTypeSystem,
			},
		},
		Memos:     []models.Memo{},
		CreatedAt: now,
		CreatedBy: BotName,
		Typing:    map[string]bool{},
	}

	rooms := s.store.Load(ctx)
	rooms = append(rooms, room)
	if err := s.store.Save(ctx, rooms); err != nil {
		return nil, err
	}

	return &room, nil
}

// DeleteRoom removes the room with the given id. Absent rooms are a no-op.
func (s *RoomService) DeleteRoom(ctx context.Context, roomID string) error {
	rooms := s.store.Load(ctx)

	kept := rooms[:0]
	for _, r := range rooms {
		if !sameID(r.ID, roomID) {
			kept = append(kept, r)
		}
	}

	if len(kept) == len(rooms) {
		return nil
	}
	return s.store.Save(ctx, kept)
}

// AddMessage appends to the room's history. Append order is display order;
// messages are never reordered or edited afterwards.
func (s *RoomService) AddMessage(ctx context.Context, roomID string, msg models.Message) error {
	if msg.ID == "" {
		msg.ID = newID()
	}
	if msg.Timestamp == "" {
		msg.Timestamp = time.Now().Format("15:04")
	}
	if msg.Type == "" {
		msg.Type = models.MessageTypeText
	}

	return s.mutateRoom(ctx, roomID, func(r *models.Room) {
		r.Messages = append(r.Messages, msg)
	})
}

// AddMemo appends a plan memo to the room.
func (s *RoomService) AddMemo(ctx context.Context, roomID string, memo models.Memo) error {
	if memo.ID == "" {
		memo.ID = newID()
	}
	if memo.CreatedAt.IsZero() {
		memo.CreatedAt = time.Now()
	}

	return s.mutateRoom(ctx, roomID, func(r *models.Room) {
		r.Memos = append(r.Memos, memo)
	})
}

// DeleteMemo filters a memo out of the room. Deleting a memo that is
// already gone changes nothing, so the call is idempotent.
func (s *RoomService) DeleteMemo(ctx context.Context, roomID, memoID string) error {
	return s.mutateRoom(ctx, roomID, func(r *models.Room) {
		kept := r.Memos[:0]
		for _, m := range r.Memos {
			if !sameID(m.ID, memoID) {
				kept = append(kept, m)
			}
		}
		r.Memos = kept
	})
}

// SetTypingStatus upserts the best-effort typing flag for a username.
// This is the only ephemeral field in the model; losing a write is fine.
func (s *RoomService) SetTypingStatus(ctx context.Context, roomID, username string, isTyping bool) error {
	key := sanitizeTypingKey(username)
	if key == "" {
		return nil
	}

	return s.mutateRoom(ctx, roomID, func(r *models.Room) {
		if r.Typing == nil {
			r.Typing = map[string]bool{}
		}
		r.Typing[key] = isTyping
	})
}

// AppendAIReply asks the reply generator for a response to the room's
// conversation and appends it as a bot message. Generator failures have
// already been folded into the reply text, so the history always receives
// a reply-shaped message.
func (s *RoomService) AppendAIReply(ctx context.Context, roomID string) error {
	room, ok := s.GetRoom(ctx, roomID)
	if !ok {
		logger.Debug("AI reply requested for missing room %s", roomID)
		return nil
	}

	reply := s.ai.Complete(ctx, room.Messages, room.Title)

	return s.AddMessage(ctx, roomID, models.Message{
		SenderName: BotName,
		Role:       models.RoleAdmin,
		Text:       reply,
		Type:       models.MessageTypeText,
	})
}

// ListRooms returns the current collection.
func (s *RoomService) ListRooms(ctx context.Context) []models.Room {
	return s.store.Load(ctx)
}

// GetRoom re-finds a room by id in a fresh load of the collection.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*models.Room, bool) {
	rooms := s.store.Load(ctx)
	for i := range rooms {
		if sameID(rooms[i].ID, roomID) {
			return &rooms[i], true
		}
	}
	return nil, false
}

func (s *RoomService) mutateRoom(ctx context.Context, roomID string, mutate func(*models.Room)) error {
	rooms := s.store.Load(ctx)

	for i := range rooms {
		if sameID(rooms[i].ID, roomID) {
			mutate(&rooms[i])
			return s.store.Save(ctx, rooms)
		}
	}

	logger.Debug("Room %s not found, ignoring mutation", roomID)
	return nil
}

func sameID(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

// newID returns a random unique id, falling back to a timestamp plus
// random suffix if the system randomness source is unavailable.
func newID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Sprintf("%d-%04d", time.Now().UnixMilli(), rand.Intn(10000))
	}
	return id.String()
}

// sanitizeTypingKey strips characters that are unsafe in the storage key
// namespace the typing map is persisted under.
func sanitizeTypingKey(username string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '#', '$', '[', ']', '/':
			return -1
		}
		return r
	}, strings.TrimSpace(username))
}
