package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"planchat/internal/models"
	"planchat/internal/notify"
	"planchat/internal/storage"
	"planchat/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	reply string
}

func (g *stubGenerator) Complete(_ context.Context, _ []models.Message, _ string) string {
	return g.reply
}

func newTestService() *RoomService {
	st := store.New(storage.NewMemory(), notify.New(), store.DefaultKey)
	return NewRoomService(st, &stubGenerator{reply: "sounds good"})
}

func TestCreateRoomIDsAreDistinct(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		room, err := svc.CreateRoom(ctx, fmt.Sprintf("room-%d", i), "")
		require.NoError(t, err)
		assert.False(t, seen[room.ID], "room id %s repeated", room.ID)
		seen[room.ID] = true
	}
}

func TestCreateRoomSeedsSystemBanner(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	room, err := svc.CreateRoom(ctx, "Standup", "")
	require.NoError(t, err)

	assert.Equal(t, "Standup", room.Title)
	assert.False(t, room.IsPrivate())
	assert.Equal(t, BotName, room.CreatedBy)
	assert.Empty(t, room.Memos)

	require.Len(t, room.Messages, 1)
	banner := room.Messages[0]
	assert.Equal(t, models.MessageTypeSystem, banner.Type)
	assert.Contains(t, banner.Text, time.Now().Format("January 2, 2006"))

	// The created room is persisted, not just returned.
	loaded, ok := svc.GetRoom(ctx, room.ID)
	require.True(t, ok)
	assert.Equal(t, room.ID, loaded.ID)
}

func TestCreateRoomEmptyTitle(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateRoom(context.Background(), "   ", "")
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Empty(t, svc.ListRooms(context.Background()))
}

func TestAddMessageAppendOnly(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	room, err := svc.CreateRoom(ctx, "Standup", "")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		err := svc.AddMessage(ctx, room.ID, models.Message{
			SenderName: "Ana",
			Text:       fmt.Sprintf("msg-%d", i),
		})
		require.NoError(t, err)
	}

	loaded, ok := svc.GetRoom(ctx, room.ID)
	require.True(t, ok)
	require.Len(t, loaded.Messages, 6) // banner + 5

	// Prior messages unchanged, in append order
	assert.Equal(t, models.MessageTypeSystem, loaded.Messages[0].Type)
	for i := 0; i < 5; i++ {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), loaded.Messages[i+1].Text)
	}

	last := loaded.Messages[len(loaded.Messages)-1]
	assert.Equal(t, "Ana", last.SenderName)
	assert.Equal(t, "msg-4", last.Text)
	assert.Equal(t, models.MessageTypeText, last.Type)
	assert.NotEmpty(t, last.ID)
	assert.NotEmpty(t, last.Timestamp)
}

func TestAddMessageMissingRoomIsNoop(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.CreateRoom(ctx, "Standup", "")
	require.NoError(t, err)

	err = svc.AddMessage(ctx, "no-such-room", models.Message{Text: "hi"})
	assert.NoError(t, err, "missing room is a benign race, not an error")
}

func TestMemoLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	room, err := svc.CreateRoom(ctx, "Standup", "")
	require.NoError(t, err)

	require.NoError(t, svc.AddMemo(ctx, room.ID, models.Memo{Title: "Plan A", Content: "Details"}))

	loaded, _ := svc.GetRoom(ctx, room.ID)
	require.Len(t, loaded.Memos, 1)
	memo := loaded.Memos[0]
	assert.Equal(t, "Plan A", memo.Title)
	assert.Equal(t, "Details", memo.Content)
	assert.NotEmpty(t, memo.ID)
	assert.False(t, memo.CreatedAt.IsZero())

	require.NoError(t, svc.DeleteMemo(ctx, room.ID, memo.ID))
	loaded, _ = svc.GetRoom(ctx, room.ID)
	assert.Empty(t, loaded.Memos)

	// Deleting again is idempotent
	require.NoError(t, svc.DeleteMemo(ctx, room.ID, memo.ID))
	loaded, _ = svc.GetRoom(ctx, room.ID)
	assert.Empty(t, loaded.Memos)
}

func TestDeleteMemoPreservesOrder(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	room, err := svc.CreateRoom(ctx, "Standup", "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.AddMemo(ctx, room.ID, models.Memo{Title: fmt.Sprintf("p%d", i)}))
	}

	loaded, _ := svc.GetRoom(ctx, room.ID)
	require.Len(t, loaded.Memos, 3)
	require.NoError(t, svc.DeleteMemo(ctx, room.ID, loaded.Memos[1].ID))

	loaded, _ = svc.GetRoom(ctx, room.ID)
	require.Len(t, loaded.Memos, 2)
	assert.Equal(t, "p0", loaded.Memos[0].Title)
	assert.Equal(t, "p2", loaded.Memos[1].Title)
}

func TestDeleteRoom(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	room, err := svc.CreateRoom(ctx, "Standup", "")
	require.NoError(t, err)
	other, err := svc.CreateRoom(ctx, "Other", "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRoom(ctx, room.ID))

	_, ok := svc.GetRoom(ctx, room.ID)
	assert.False(t, ok)
	_, ok = svc.GetRoom(ctx, other.ID)
	assert.True(t, ok)

	// Deleting a room that never existed is a no-op
	require.NoError(t, svc.DeleteRoom(ctx, "ghost"))
	assert.Len(t, svc.ListRooms(ctx), 1)
}

func TestDeleteRoomNormalizesID(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	room, err := svc.CreateRoom(ctx, "Standup", "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRoom(ctx, "  "+room.ID+" "))
	_, ok := svc.GetRoom(ctx, room.ID)
	assert.False(t, ok)
}

func TestSetTypingStatus(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	room, err := svc.CreateRoom(ctx, "Standup", "")
	require.NoError(t, err)

	require.NoError(t, svc.SetTypingStatus(ctx, room.ID, "Ana", true))
	loaded, _ := svc.GetRoom(ctx, room.ID)
	assert.True(t, loaded.Typing["Ana"])

	require.NoError(t, svc.SetTypingStatus(ctx, room.ID, "Ana", false))
	loaded, _ = svc.GetRoom(ctx, room.ID)
	assert.False(t, loaded.Typing["Ana"])
}

func TestSetTypingStatusSanitizesKey(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	room, err := svc.CreateRoom(ctx, "Standup", "")
	require.NoError(t, err)

	require.NoError(t, svc.SetTypingStatus(ctx, room.ID, "an.a#[x]/$", true))
	loaded, _ := svc.GetRoom(ctx, room.ID)
	assert.True(t, loaded.Typing["anax"])

	// A name reduced to nothing is dropped entirely
	require.NoError(t, svc.SetTypingStatus(ctx, room.ID, "...", true))
	loaded, _ = svc.GetRoom(ctx, room.ID)
	_, present := loaded.Typing["..."]
	assert.False(t, present)
}

func TestAppendAIReply(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	room, err := svc.CreateRoom(ctx, "Standup", "")
	require.NoError(t, err)
	require.NoError(t, svc.AddMessage(ctx, room.ID, models.Message{SenderName: "Ana", Text: "thoughts?"}))

	require.NoError(t, svc.AppendAIReply(ctx, room.ID))

	loaded, _ := svc.GetRoom(ctx, room.ID)
	last := loaded.Messages[len(loaded.Messages)-1]
	assert.Equal(t, BotName, last.SenderName)
	assert.Equal(t, models.RoleAdmin, last.Role)
	assert.Equal(t, "sounds good", last.Text)
	assert.Equal(t, models.MessageTypeText, last.Type)
}

func TestAppendAIReplyMissingRoom(t *testing.T) {
	svc := newTestService()
	assert.NoError(t, svc.AppendAIReply(context.Background(), "ghost"))
}

func TestSanitizeTypingKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain name", in: "Ana", want: "Ana"},
		{name: "trims whitespace", in: "  Ana ", want: "Ana"},
		{name: "strips reserved characters", in: "a.b#c$d[e]f/g", want: "abcdefg"},
		{name: "only reserved characters", in: "#$/", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeTypingKey(tt.in))
		})
	}
}
