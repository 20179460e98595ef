package notification

import (
	"context"
	"sync"
	"testing"

	"smarttrack/internal/database"
	"smarttrack/internal/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type emitted struct {
	event string
	rooms []string
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (r *recordingEmitter) Emit(_ context.Context, event string, _ interface{}, rooms ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{event: event, rooms: rooms})
}

type panickingEmitter struct{}

func (panickingEmitter) Emit(context.Context, string, interface{}, ...string) {
	panic("socket layer down")
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, &Notification{}))
	return db
}

func TestNotify_PersistsUnreadAndPushes(t *testing.T) {
	db := newTestDB(t)
	em := &recordingEmitter{}
	svc := NewService(NewRepository(db), em)

	n, err := svc.Notify(context.Background(), 5, "  Trip accepted ", "Your trip was accepted", KindTrip, "/trips/1")
	require.NoError(t, err)

	var stored Notification
	require.NoError(t, db.First(&stored, n.ID).Error)
	assert.Equal(t, int64(5), stored.UserID)
	assert.Equal(t, "Trip accepted", stored.Title)
	assert.False(t, stored.IsRead)
	assert.Nil(t, stored.ReadAt)

	require.Len(t, em.events, 2)
	assert.Equal(t, "notification:new", em.events[0].event)
	assert.Equal(t, "notification", em.events[1].event)
	assert.Equal(t, []string{"user_5"}, em.events[0].rooms)
}

func TestNotify_DefaultsKind(t *testing.T) {
	svc := NewService(NewRepository(newTestDB(t)), nil)
	n, err := svc.Notify(context.Background(), 1, "Hello", "World", "", "")
	require.NoError(t, err)
	assert.Equal(t, KindInfo, n.Type)
}

func TestNotify_ValidatesInput(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepository(db), nil)
	ctx := context.Background()

	cases := []struct {
		name string
		p    Payload
		want error
	}{
		{"no recipient", Payload{Title: "a", Message: "b"}, ErrMissingRecipient},
		{"blank title", Payload{UserID: 1, Title: "  ", Message: "b"}, ErrMissingTitle},
		{"blank message", Payload{UserID: 1, Title: "a"}, ErrMissingMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.NotifyWithMeta(ctx, tc.p)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}

	var count int64
	db.Model(&Notification{}).Count(&count)
	assert.Zero(t, count)
}

func TestNotify_PushFailureIsSwallowed(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepository(db), panickingEmitter{})

	n, err := svc.Notify(context.Background(), 9, "Title", "Body", KindInfo, "")
	require.NoError(t, err)
	require.NotZero(t, n.ID)

	var count int64
	db.Model(&Notification{}).Where("user_id = ?", 9).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestNotifyBulk_PartialFailureKeepsEarlierRows(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepository(db), nil)

	created, errs := svc.NotifyBulk(context.Background(), []Payload{
		{UserID: 1, Title: "A", Message: "m"},
		{UserID: 2, Title: "", Message: "m"},
		{UserID: 3, Title: "C", Message: "m"},
	})

	require.Len(t, errs, 3)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], ErrMissingTitle)
	assert.NoError(t, errs[2])
	assert.Len(t, created, 2)

	var ids []int64
	db.Model(&Notification{}).Order("id").Pluck("user_id", &ids)
	assert.Equal(t, []int64{1, 3}, ids)
}

func TestCreateTx_RolledBackWithCaller(t *testing.T) {
	db := newTestDB(t)
	em := &recordingEmitter{}
	svc := NewService(NewRepository(db), em)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.CreateTx(tx, Payload{UserID: 1, Title: "t", Message: "m"})
		require.NoError(t, err)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var count int64
	db.Model(&Notification{}).Count(&count)
	assert.Zero(t, count)
	assert.Empty(t, em.events)
}

func TestMarkRead_TouchesOnlyOneOwnedRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepository(db), nil)
	ctx := context.Background()

	a, _ := svc.Notify(ctx, 1, "a", "m", "", "")
	b, _ := svc.Notify(ctx, 1, "b", "m", "", "")
	other, _ := svc.Notify(ctx, 2, "c", "m", "", "")

	require.NoError(t, svc.MarkRead(ctx, 1, a.ID))
	// repeat is a no-op
	require.NoError(t, svc.MarkRead(ctx, 1, a.ID))

	err := svc.MarkRead(ctx, 1, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var rows []Notification
	db.Order("id").Find(&rows)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].IsRead)
	assert.NotNil(t, rows[0].ReadAt)
	assert.Equal(t, b.ID, rows[1].ID)
	assert.False(t, rows[1].IsRead)
	assert.False(t, rows[2].IsRead)
}

func TestMarkAllRead_OnlyCallersRows(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepository(db), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = svc.Notify(ctx, 1, "mine", "m", "", "")
	}
	_, _ = svc.Notify(ctx, 2, "theirs", "m", "", "")

	n, err := svc.MarkAllRead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	unread, err := svc.UnreadCount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	n, err = svc.MarkAllRead(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestList_NewestFirstWithUnreadCount(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepository(db), nil)
	ctx := context.Background()

	first, _ := svc.Notify(ctx, 1, "first", "m", "", "")
	second, _ := svc.Notify(ctx, 1, "second", "m", "", "")
	require.NoError(t, svc.MarkRead(ctx, 1, first.ID))

	items, total, unread, err := svc.List(ctx, 1, false, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, int64(1), unread)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)

	items, total, _, err = svc.List(ctx, 1, true, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, second.ID, items[0].ID)
}

func TestDeleteAndClear(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepository(db), nil)
	ctx := context.Background()

	a, _ := svc.Notify(ctx, 1, "a", "m", "", "")
	_, _ = svc.Notify(ctx, 1, "b", "m", "", "")
	theirs, _ := svc.Notify(ctx, 2, "c", "m", "", "")

	assert.ErrorIs(t, svc.Delete(ctx, 1, theirs.ID), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, 1, a.ID))

	n, err := svc.Clear(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var left int64
	db.Model(&Notification{}).Count(&left)
	assert.Equal(t, int64(1), left)
}
