package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"smarttrack/internal/database"
	"smarttrack/internal/domain/company"
	"smarttrack/internal/domain/notification"
	"smarttrack/internal/domain/user"
	"smarttrack/internal/realtime"
	"smarttrack/internal/tenant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type roomRecorder struct {
	rooms map[string][]string
}

func (r *roomRecorder) Emit(_ context.Context, event string, _ interface{}, rooms ...string) {
	for _, room := range rooms {
		r.rooms[room] = append(r.rooms[room], event)
	}
}

type chatEnv struct {
	db       *gorm.DB
	svc      *Service
	account  *user.User
	alice    *user.User
	bob      *user.User
	outsider *user.User
	emitted  *roomRecorder
}

func newChatEnv(t *testing.T) *chatEnv {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db,
		&user.User{}, &user.CustomerCompany{}, &company.Company{}, &Message{}, &notification.Notification{},
	))

	acme := &company.Company{Name: "Acme", Email: "a@example.com", Tier: company.TierFree, BillingStatus: company.BillingTrial, IsActive: true}
	rival := &company.Company{Name: "Rival", Email: "r@example.com", Tier: company.TierFree, BillingStatus: company.BillingTrial, IsActive: true}
	require.NoError(t, db.Create(acme).Error)
	require.NoError(t, db.Create(rival).Error)

	mk := func(email string, role user.Role, companyID int64) *user.User {
		u := &user.User{Email: email, PasswordHash: "x", Name: strings.Split(email, "@")[0], Role: role,
			CompanyID: &companyID, IsActive: true, ApprovalStatus: user.ApprovalApproved}
		require.NoError(t, db.Create(u).Error)
		return u
	}
	env := &chatEnv{db: db, emitted: &roomRecorder{rooms: map[string][]string{}}}
	env.account = mk("account@acme.example", user.RoleCompany, acme.ID)
	env.alice = mk("alice@acme.example", user.RoleManager, acme.ID)
	env.bob = mk("bob@acme.example", user.RoleManager, acme.ID)
	env.outsider = mk("eve@rival.example", user.RoleManager, rival.ID)
	require.NoError(t, db.Model(acme).Update("owner_user_id", env.account.ID).Error)

	users := user.NewRepository(db)
	companies := company.NewRepository(db)
	env.svc = NewService(NewRepository(db), users, companies, tenant.NewResolver(companies, users),
		notification.NewService(notification.NewRepository(db), nil), env.emitted)
	return env
}

func TestConversation_BothSides(t *testing.T) {
	env := newChatEnv(t)
	ctx := context.Background()

	_, err := env.svc.SendFromManager(ctx, env.alice, "Driver is late on order 17")
	require.NoError(t, err)
	_, err = env.svc.SendFromCompany(ctx, env.account, env.alice.ID, "Call the customer please")
	require.NoError(t, err)

	msgs, err := env.svc.ManagerThread(ctx, env.alice, 50, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, user.RoleManager, msgs[0].SenderRole)
	assert.Equal(t, user.RoleCompany, msgs[1].SenderRole)

	var notes int64
	env.db.Model(&notification.Notification{}).Where("user_id = ? AND type = ?", env.account.ID, notification.KindChat).Count(&notes)
	assert.Equal(t, int64(1), notes)

	// bob's thread is separate
	msgs, err = env.svc.ManagerThread(ctx, env.bob, 50, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestThreads_UnreadAndOrdering(t *testing.T) {
	env := newChatEnv(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	env.svc.now = func() time.Time { return base }
	_, err := env.svc.SendFromManager(ctx, env.alice, "first")
	require.NoError(t, err)
	env.svc.now = func() time.Time { return base.Add(time.Minute) }
	_, err = env.svc.SendFromManager(ctx, env.bob, "second")
	require.NoError(t, err)
	_, err = env.svc.SendFromManager(ctx, env.bob, "third")
	require.NoError(t, err)

	threads, err := env.svc.Threads(ctx, env.account)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, env.bob.ID, threads[0].ManagerID)
	assert.Equal(t, int64(2), threads[0].Unread)
	assert.Equal(t, "third", threads[0].LastMessage.Text)
	assert.Equal(t, int64(1), threads[1].Unread)

	_, err = env.svc.CompanyThread(ctx, env.account, env.bob.ID, 50, 0)
	require.NoError(t, err)

	threads, err = env.svc.Threads(ctx, env.account)
	require.NoError(t, err)
	assert.Zero(t, threads[0].Unread)
}

func TestSendFromCompany_RejectsForeignManager(t *testing.T) {
	env := newChatEnv(t)
	ctx := context.Background()

	_, err := env.svc.SendFromCompany(ctx, env.account, env.outsider.ID, "hello")
	assert.ErrorIs(t, err, ErrManagerNotFound)

	_, err = env.svc.CompanyThread(ctx, env.account, env.outsider.ID, 50, 0)
	assert.ErrorIs(t, err, ErrManagerNotFound)

	var n int64
	env.db.Model(&Message{}).Count(&n)
	assert.Zero(t, n)
}

func TestSend_ValidatesText(t *testing.T) {
	env := newChatEnv(t)
	ctx := context.Background()

	_, err := env.svc.SendFromManager(ctx, env.alice, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = env.svc.SendFromManager(ctx, env.alice, strings.Repeat("ж", maxTextLength+1))
	assert.ErrorIs(t, err, ErrMessageTooLong)

	_, err = env.svc.SendFromManager(ctx, env.alice, strings.Repeat("ж", maxTextLength))
	assert.NoError(t, err)
}

func TestSend_StaysInsideThread(t *testing.T) {
	env := newChatEnv(t)
	ctx := context.Background()

	_, err := env.svc.SendFromManager(ctx, env.alice, "Private note for the office")
	require.NoError(t, err)
	_, err = env.svc.SendFromCompany(ctx, env.account, env.alice.ID, "Noted")
	require.NoError(t, err)

	assert.Contains(t, env.emitted.rooms[realtime.UserRoom(env.alice.ID)], realtime.EventChatManagerCompanyNew)
	assert.Contains(t, env.emitted.rooms[realtime.UserRoom(env.account.ID)], realtime.EventChatManagerCompanyNew)
	for _, room := range realtime.RoomsFor(env.bob) {
		assert.NotContains(t, env.emitted.rooms[room], realtime.EventChatManagerCompanyNew, "room %s", room)
	}
}
