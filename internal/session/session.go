package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"planchat/internal/models"
	"planchat/internal/services"
)

type State int

const (
	// Browsing: no active room.
	Browsing State = iota
	// JoiningPrivate: a room is chosen, nickname (and password, if the
	// room has one) not yet supplied.
	JoiningPrivate
	// InRoom: an active session bound to one room.
	InRoom
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrEmptyNickname = errors.New("nickname is required")
	ErrWrongPassword = errors.New("wrong room password")
	ErrNotJoining    = errors.New("no room selected")
	ErrNotInRoom     = errors.New("not in a room")
)

// Manager drives one participant's journey through the rooms: Browsing ->
// JoiningPrivate -> InRoom -> Browsing. One Manager corresponds to what a
// single browser tab would hold; several may run concurrently against the
// same store, even with the same nickname.
type Manager struct {
	svc       *services.RoomService
	secret    string
	typingTTL time.Duration

	mu          sync.Mutex
	state       State
	roomID      string
	pendingRoom string
	user        models.UserSession
	elevated    bool
	typingTimer *time.Timer
}

func NewManager(svc *services.RoomService, adminSecret string, typingTTL time.Duration) *Manager {
	if typingTTL <= 0 {
		typingTTL = 3 * time.Second
	}
	return &Manager{
		svc:       svc,
		secret:    adminSecret,
		typingTTL: typingTTL,
		state:     Browsing,
	}
}

// Unlock compares the supplied secret against the shared admin secret.
// This is a plain cleartext equality check and deliberately not a
// security boundary.
func (m *Manager) Unlock(secret string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if secret != m.secret {
		return false
	}
	m.elevated = true
	return true
}

func (m *Manager) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elevated = false
}

func (m *Manager) Elevated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.elevated
}

// Select picks a room while browsing. In elevated mode a passwordless
// room is entered directly as the bot identity with the admin role;
// otherwise the session waits in JoiningPrivate for a nickname (and
// password when the room is private).
func (m *Manager) Select(ctx context.Context, roomID string) (State, error) {
	room, ok := m.svc.GetRoom(ctx, roomID)
	if !ok {
		return Browsing, ErrRoomNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.elevated && !room.IsPrivate() {
		m.state = InRoom
		m.roomID = room.ID
		m.user = models.UserSession{Username: services.BotName, Role: models.RoleAdmin}
		return m.state, nil
	}

	m.state = JoiningPrivate
	m.pendingRoom = room.ID
	return m.state, nil
}

// Join completes a pending selection with a nickname and, for private
// rooms, the password. Password comparison is case-sensitive equality
// against the stored cleartext value.
func (m *Manager) Join(ctx context.Context, nickname, password string) error {
	m.mu.Lock()
	if m.state != JoiningPrivate {
		m.mu.Unlock()
		return ErrNotJoining
	}
	pending := m.pendingRoom
	m.mu.Unlock()

	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return ErrEmptyNickname
	}

	room, ok := m.svc.GetRoom(ctx, pending)
	if !ok {
		// Deleted while the prompt was open; fall back to browsing.
		m.mu.Lock()
		m.state = Browsing
		m.pendingRoom = ""
		m.mu.Unlock()
		return ErrRoomNotFound
	}

	if room.IsPrivate() && room.Password != password {
		return ErrWrongPassword
	}

	m.mu.Lock()
	m.state = InRoom
	m.roomID = room.ID
	m.pendingRoom = ""
	m.user = models.UserSession{Username: nickname, Role: models.RoleParticipant}
	m.mu.Unlock()
	return nil
}

// Send appends a text message from the current session.
func (m *Manager) Send(ctx context.Context, text string) error {
	m.mu.Lock()
	if m.state != InRoom {
		m.mu.Unlock()
		return ErrNotInRoom
	}
	roomID, user := m.roomID, m.user
	m.mu.Unlock()

	return m.svc.AddMessage(ctx, roomID, models.Message{
		SenderName: user.Username,
		Role:       user.Role,
		Text:       text,
		Type:       models.MessageTypeText,
	})
}

// Typing marks the session as typing and arms a timer that clears the
// flag after the inactivity window. The signal is best effort; a lost
// write is never reported.
func (m *Manager) Typing(ctx context.Context) {
	m.mu.Lock()
	if m.state != InRoom {
		m.mu.Unlock()
		return
	}
	roomID, username := m.roomID, m.user.Username

	if m.typingTimer != nil {
		m.typingTimer.Stop()
	}
	m.typingTimer = time.AfterFunc(m.typingTTL, func() {
		_ = m.svc.SetTypingStatus(context.Background(), roomID, username, false)
	})
	m.mu.Unlock()

	_ = m.svc.SetTypingStatus(ctx, roomID, username, true)
}

// Exit leaves the current room, unconditionally clearing the typing flag
// so other observers never see a stale "is typing" signal.
func (m *Manager) Exit(ctx context.Context) {
	m.mu.Lock()
	if m.state == Browsing {
		m.mu.Unlock()
		return
	}
	roomID, username := m.roomID, m.user.Username
	wasInRoom := m.state == InRoom
	if m.typingTimer != nil {
		m.typingTimer.Stop()
		m.typingTimer = nil
	}
	m.state = Browsing
	m.roomID = ""
	m.pendingRoom = ""
	m.user = models.UserSession{}
	m.mu.Unlock()

	if wasInRoom {
		_ = m.svc.SetTypingStatus(ctx, roomID, username, false)
	}
}

// PendingRoom returns the room a join prompt is open for, if any.
func (m *Manager) PendingRoom(ctx context.Context) (*models.Room, bool) {
	m.mu.Lock()
	if m.state != JoiningPrivate {
		m.mu.Unlock()
		return nil, false
	}
	pending := m.pendingRoom
	m.mu.Unlock()

	return m.svc.GetRoom(ctx, pending)
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) User() models.UserSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// CurrentRoom re-derives the active room from a fresh load, the way an
// observer recomputes its view after a change event. The second return is
// false when the session is not in a room or the room has been deleted
// concurrently.
func (m *Manager) CurrentRoom(ctx context.Context) (*models.Room, bool) {
	m.mu.Lock()
	if m.state != InRoom {
		m.mu.Unlock()
		return nil, false
	}
	roomID := m.roomID
	m.mu.Unlock()

	return m.svc.GetRoom(ctx, roomID)
}
