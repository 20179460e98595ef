package trip

import (
	"context"
	"sync"
	"testing"
	"time"

	"smarttrack/internal/database"
	"smarttrack/internal/domain/company"
	"smarttrack/internal/domain/notification"
	"smarttrack/internal/domain/user"
	"smarttrack/internal/outbox"
	"smarttrack/internal/pkg/apperr"
	"smarttrack/internal/tenant"

	"github.com/bwmarrin/snowflake"
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

func (r *recordingEmitter) find(event string) *emitted {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.events {
		if r.events[i].event == event {
			return &r.events[i]
		}
	}
	return nil
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	emitter  *recordingEmitter
	account  *user.User
	manager  *user.User
	driver   *user.User
	driver2  *user.User
	customer *user.User
	// rival tenant
	otherManager *user.User
	companyID    int64
}

func ptr[T any](v T) *T { return &v }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db,
		&user.User{}, &user.CustomerCompany{}, &company.Company{},
		&Trip{}, &notification.Notification{}, &outbox.Event{},
	))

	f := &fixture{db: db, emitter: &recordingEmitter{}}

	acme := &company.Company{Name: "Acme", Email: "acme@example.com", Tier: company.TierFree, BillingStatus: company.BillingTrial, IsActive: true}
	rival := &company.Company{Name: "Rival", Email: "rival@example.com", Tier: company.TierFree, BillingStatus: company.BillingTrial, IsActive: true}
	require.NoError(t, db.Create(acme).Error)
	require.NoError(t, db.Create(rival).Error)
	f.companyID = acme.ID

	mk := func(email string, role user.Role, companyID *int64) *user.User {
		u := &user.User{
			Email: email, PasswordHash: "x", Name: email, Role: role,
			CompanyID: companyID, IsActive: true, ApprovalStatus: user.ApprovalApproved,
		}
		require.NoError(t, db.Create(u).Error)
		return u
	}
	f.account = mk("acme-account@example.com", user.RoleCompany, &acme.ID)
	f.manager = mk("manager@example.com", user.RoleManager, &acme.ID)
	f.driver = mk("driver@example.com", user.RoleDriver, &acme.ID)
	f.driver2 = mk("driver2@example.com", user.RoleDriver, &acme.ID)
	f.otherManager = mk("rival-manager@example.com", user.RoleManager, &rival.ID)
	f.customer = mk("customer@example.com", user.RoleCustomer, nil)
	f.customer.ActiveCompanyID = &acme.ID
	require.NoError(t, db.Model(f.customer).Update("active_company_id", acme.ID).Error)
	require.NoError(t, db.Create(&user.CustomerCompany{UserID: f.customer.ID, CompanyID: acme.ID, JoinedAt: time.Now()}).Error)
	require.NoError(t, db.Model(acme).Update("owner_user_id", f.account.ID).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	users := user.NewRepository(db)
	companies := company.NewRepository(db)
	f.svc = NewService(Deps{
		DB:        db,
		Repo:      NewRepository(db),
		Users:     users,
		Companies: companies,
		Resolver:  tenant.NewResolver(companies, users),
		Notifier:  notification.NewService(notification.NewRepository(db), f.emitter),
		Emitter:   f.emitter,
		Pricing:   Pricing{BaseFee: 2.5, PerKm: 0.9, TaxRate: 0.12},
		IDs:       node,
	})
	return f
}

func (f *fixture) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func createRequest() CreateRequest {
	return CreateRequest{
		Pickup:             LocationInput{Address: "Abay Ave 10", Lat: ptr(43.238949), Lng: ptr(76.889709)},
		Dropoff:            LocationInput{Address: "Dostyk Ave 5", Lat: ptr(43.256542), Lng: ptr(76.928640)},
		PackageDescription: "Documents",
		Subtotal:           15,
	}
}

// placeAndAssign walks a trip to assigned with f.driver.
func (f *fixture) placeAndAssign(t *testing.T) *Trip {
	t.Helper()
	ctx := context.Background()
	tr, err := f.svc.Create(ctx, f.customer, createRequest())
	require.NoError(t, err)
	tr, err = f.svc.UpdateStatus(ctx, f.manager, tr.ID, StatusRequest{Status: StatusAccepted})
	require.NoError(t, err)
	tr, err = f.svc.UpdateStatus(ctx, f.manager, tr.ID, StatusRequest{Status: StatusAssigned, DriverID: &f.driver.ID})
	require.NoError(t, err)
	return tr
}

func TestCreate_RoundTripAndFanOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.customer, createRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, created.OrderNumber)
	assert.NotEmpty(t, created.ConfirmationCode)
	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, int64(1), created.Version)
	assert.Greater(t, created.Financials.Total, created.Financials.Subtotal)

	got, err := f.svc.Get(ctx, f.customer, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 43.238949, got.Pickup.Lat)
	assert.Equal(t, 76.889709, got.Pickup.Lng)
	assert.Equal(t, 43.256542, got.Dropoff.Lat)
	assert.Equal(t, 76.928640, got.Dropoff.Lng)
	assert.Equal(t, f.companyID, got.CompanyID)
	require.Len(t, got.Timeline, 1)
	assert.Equal(t, StatusPending, got.Timeline[0].Status)

	assert.Equal(t, int64(1), f.count(t, &notification.Notification{}, "user_id = ?", f.account.ID))
	assert.Equal(t, int64(1), f.count(t, &notification.Notification{}, "user_id = ?", f.manager.ID))
	assert.Equal(t, int64(1), f.count(t, &outbox.Event{}, "event_type = ?", outbox.TripCreated))

	ev := f.emitter.find("trip:status_update")
	require.NotNil(t, ev)
	assert.ElementsMatch(t, []string{"company_1", "manager_1"}, ev.rooms)
}

func TestCreate_RequiresActiveCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	loner := &user.User{Email: "loner@example.com", PasswordHash: "x", Name: "Loner", Role: user.RoleCustomer, IsActive: true, ApprovalStatus: user.ApprovalApproved}
	require.NoError(t, f.db.Create(loner).Error)

	_, err := f.svc.Create(ctx, loner, createRequest())
	assert.ErrorIs(t, err, tenant.ErrNoActiveCompany)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	// selected but never joined
	loner.ActiveCompanyID = &f.companyID
	_, err = f.svc.Create(ctx, loner, createRequest())
	assert.ErrorIs(t, err, tenant.ErrNotMember)

	assert.Zero(t, f.count(t, &Trip{}, ""))
}

func TestCreate_SuspendedCompany(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&company.Company{}).Where("id = ?", f.companyID).Update("is_active", false).Error)

	_, err := f.svc.Create(context.Background(), f.customer, createRequest())
	assert.ErrorIs(t, err, tenant.ErrCompanySuspended)
	assert.Zero(t, f.count(t, &Trip{}, ""))
}

func TestDriverWrites_SuspendedCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.placeAndAssign(t)
	stored, err := f.svc.repo.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&company.Company{}).Where("id = ?", f.companyID).Update("is_active", false).Error)
	emits := len(f.emitter.events)

	_, err = f.svc.UpdateStatus(ctx, f.driver, tr.ID, StatusRequest{Status: StatusDelivering})
	assert.ErrorIs(t, err, tenant.ErrCompanySuspended)
	_, err = f.svc.UpdateLocation(ctx, f.driver, tr.ID, 43.25, 76.9)
	assert.ErrorIs(t, err, tenant.ErrCompanySuspended)
	_, err = f.svc.ConfirmDelivery(ctx, f.driver, tr.ID, stored.ConfirmationCode)
	assert.ErrorIs(t, err, tenant.ErrCompanySuspended)
	_, err = f.svc.Get(ctx, f.driver, tr.ID)
	assert.ErrorIs(t, err, tenant.ErrCompanySuspended)

	after, err := f.svc.repo.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAssigned, after.Status)
	assert.Equal(t, stored.Version, after.Version)
	assert.False(t, after.CustomerConfirmed)
	assert.Nil(t, after.LastLat)
	assert.Equal(t, emits, len(f.emitter.events))
}

func TestUpdateStatus_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tr, err := f.svc.Create(ctx, f.customer, createRequest())
	require.NoError(t, err)
	gross := tr.Financials.Total

	tr, err = f.svc.UpdateStatus(ctx, f.manager, tr.ID, StatusRequest{Status: StatusAccepted, Discount: ptr(1.5)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), tr.Version)
	assert.Equal(t, 1.5, tr.Financials.Discount)
	assert.InDelta(t, gross-1.5, tr.Financials.Total, 0.001)

	vehicle := "KZ-777"
	tr, err = f.svc.UpdateStatus(ctx, f.account, tr.ID, StatusRequest{Status: StatusAssigned, DriverID: &f.driver.ID, VehicleID: &vehicle})
	require.NoError(t, err)
	require.NotNil(t, tr.DriverID)
	assert.Equal(t, f.driver.ID, *tr.DriverID)

	tr, err = f.svc.UpdateStatus(ctx, f.driver, tr.ID, StatusRequest{Status: StatusDelivering})
	require.NoError(t, err)

	stored, err := f.svc.repo.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	tr, err = f.svc.ConfirmDelivery(ctx, f.driver, tr.ID, stored.ConfirmationCode)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, tr.Status)
	assert.True(t, tr.CustomerConfirmed)
	assert.NotNil(t, tr.ConfirmationTime)

	stored, err = f.svc.repo.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, stored.Status)
	assert.Equal(t, int64(5), stored.Version)
	assert.Len(t, stored.Timeline, 5)
	assert.Equal(t, "KZ-777", *stored.VehicleID)

	// accepted, assigned, delivering, delivered
	assert.Equal(t, int64(4), f.count(t, &notification.Notification{}, "user_id = ?", f.customer.ID))
	assert.Equal(t, int64(1), f.count(t, &notification.Notification{}, "user_id = ?", f.driver.ID))
	assert.Equal(t, int64(1), f.count(t, &outbox.Event{}, "event_type = ?", outbox.TripDelivered))
	assert.NotNil(t, f.emitter.find("driver:new_notification"))
	assert.NotNil(t, f.emitter.find("trip:delivered"))
}

func TestUpdateStatus_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr, err := f.svc.Create(ctx, f.customer, createRequest())
	require.NoError(t, err)

	cases := []struct {
		name  string
		actor *user.User
		req   StatusRequest
		want  error
	}{
		{"unknown status", f.manager, StatusRequest{Status: "shipped"}, ErrInvalidStatus},
		{"delivered via status", f.manager, StatusRequest{Status: StatusDelivered}, ErrUseConfirmation},
		{"customer accepts", f.customer, StatusRequest{Status: StatusAccepted}, ErrRoleTransition},
		{"assign without driver", f.manager, StatusRequest{Status: StatusAssigned}, nil},
		{"stale version", f.manager, StatusRequest{Status: StatusAccepted, Version: ptr(int64(9))}, ErrVersionConflict},
		{"unassigned driver", f.driver, StatusRequest{Status: StatusDelivering}, ErrNotAssignedDriver},
		{"other tenant", f.otherManager, StatusRequest{Status: StatusAccepted}, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.UpdateStatus(ctx, tc.actor, tr.ID, tc.req)
			require.Error(t, err)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			} else {
				assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
			}
		})
	}

	stored, err := f.svc.repo.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Equal(t, int64(1), stored.Version)
}

func TestUpdateStatus_AssignRequiresCompanyDriver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr, err := f.svc.Create(ctx, f.customer, createRequest())
	require.NoError(t, err)
	tr, err = f.svc.UpdateStatus(ctx, f.manager, tr.ID, StatusRequest{Status: StatusAccepted})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.manager, tr.ID, StatusRequest{Status: StatusAssigned})
	assert.ErrorIs(t, err, ErrDriverRequired)

	_, err = f.svc.UpdateStatus(ctx, f.manager, tr.ID, StatusRequest{Status: StatusAssigned, DriverID: &f.otherManager.ID})
	assert.ErrorIs(t, err, ErrDriverUnavailable)

	require.NoError(t, f.db.Model(f.driver2).Update("approval_status", user.ApprovalPending).Error)
	_, err = f.svc.UpdateStatus(ctx, f.manager, tr.ID, StatusRequest{Status: StatusAssigned, DriverID: &f.driver2.ID})
	assert.ErrorIs(t, err, ErrDriverUnavailable)
}

func TestUpdateStatus_TerminalIsImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr, err := f.svc.Create(ctx, f.customer, createRequest())
	require.NoError(t, err)

	tr, err = f.svc.UpdateStatus(ctx, f.customer, tr.ID, StatusRequest{Status: StatusCancelled, Reason: "changed my mind"})
	require.NoError(t, err)
	assert.Equal(t, "changed my mind", tr.CancelReason)

	_, err = f.svc.UpdateStatus(ctx, f.manager, tr.ID, StatusRequest{Status: StatusAccepted})
	assert.ErrorIs(t, err, ErrTerminal)

	stored, err := f.svc.repo.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)
	assert.Equal(t, int64(2), stored.Version)
}

func TestUpdateVersioned_LostRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr, err := f.svc.Create(ctx, f.customer, createRequest())
	require.NoError(t, err)

	repo := f.svc.repo
	require.NoError(t, repo.UpdateVersioned(ctx, tr.ID, 1, map[string]interface{}{"status": StatusAccepted}))
	err = repo.UpdateVersioned(ctx, tr.ID, 1, map[string]interface{}{"status": StatusCancelled})
	assert.ErrorIs(t, err, ErrVersionConflict)

	stored, err := repo.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, stored.Status)
	assert.Equal(t, int64(2), stored.Version)
}

func TestConfirmDelivery_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.placeAndAssign(t)
	stored, err := f.svc.repo.GetByID(ctx, tr.ID)
	require.NoError(t, err)

	first, err := f.svc.ConfirmDelivery(ctx, f.driver, tr.ID, stored.ConfirmationCode)
	require.NoError(t, err)

	notes := f.count(t, &notification.Notification{}, "")
	events := f.count(t, &outbox.Event{}, "")
	emits := len(f.emitter.events)

	second, err := f.svc.ConfirmDelivery(ctx, f.driver, tr.ID, stored.ConfirmationCode)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, second.Status)
	assert.Equal(t, first.Version, second.Version)
	assert.WithinDuration(t, *first.ConfirmationTime, *second.ConfirmationTime, time.Millisecond)

	assert.Equal(t, notes, f.count(t, &notification.Notification{}, ""))
	assert.Equal(t, events, f.count(t, &outbox.Event{}, ""))
	assert.Equal(t, emits, len(f.emitter.events))
}

func TestConfirmDelivery_WrongDriver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.placeAndAssign(t)
	stored, err := f.svc.repo.GetByID(ctx, tr.ID)
	require.NoError(t, err)

	_, err = f.svc.ConfirmDelivery(ctx, f.driver2, tr.ID, stored.ConfirmationCode)
	assert.ErrorIs(t, err, ErrNotAssignedDriver)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	after, err := f.svc.repo.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAssigned, after.Status)
	assert.False(t, after.CustomerConfirmed)
	assert.Equal(t, stored.Version, after.Version)
}

func TestConfirmDelivery_BadCodeOrState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tr := f.placeAndAssign(t)
	_, err := f.svc.ConfirmDelivery(ctx, f.driver, tr.ID, "not-the-code")
	assert.ErrorIs(t, err, ErrInvalidCode)

	pending, err := f.svc.Create(ctx, f.customer, createRequest())
	require.NoError(t, err)
	_, err = f.svc.ConfirmDelivery(ctx, f.driver, pending.ID, pending.ConfirmationCode)
	assert.ErrorIs(t, err, ErrNotAssignedDriver)

	_, err = f.svc.ConfirmDelivery(ctx, f.driver, 9999, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateLocation_KeepsVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.placeAndAssign(t)

	_, err := f.svc.UpdateLocation(ctx, f.driver, tr.ID, 43.25, 76.9)
	require.NoError(t, err)

	stored, err := f.svc.repo.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.Version, stored.Version)
	require.NotNil(t, stored.LastLat)
	assert.Equal(t, 43.25, *stored.LastLat)

	ev := f.emitter.find("trip:location_update")
	require.NotNil(t, ev)
	assert.Contains(t, ev.rooms, "trip_1")

	_, err = f.svc.UpdateLocation(ctx, f.driver2, tr.ID, 1, 1)
	assert.ErrorIs(t, err, ErrNotAssignedDriver)
}

func TestTenantIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr, err := f.svc.Create(ctx, f.customer, createRequest())
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.otherManager, tr.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	items, total, err := f.svc.List(ctx, f.otherManager, "", 20, 0)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)

	items, total, err = f.svc.List(ctx, f.manager, StatusPending, 20, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int64(1), total)

	// an unassigned driver sees neither the list entry nor the trip
	items, _, err = f.svc.List(ctx, f.driver, "", 20, 0)
	require.NoError(t, err)
	assert.Empty(t, items)
	_, err = f.svc.Get(ctx, f.driver, tr.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.svc.CanJoinTrip(ctx, f.otherManager, tr.ID), ErrNoTripAccess)
	assert.NoError(t, f.svc.CanJoinTrip(ctx, f.manager, tr.ID))
	assert.NoError(t, f.svc.CanJoinTrip(ctx, f.customer, tr.ID))
}

func TestQR(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr, err := f.svc.Create(ctx, f.customer, createRequest())
	require.NoError(t, err)

	qr, err := f.svc.QR(ctx, f.customer, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.ConfirmationCode, qr.Code)
	assert.Contains(t, qr.Content, qr.Code)

	stranger := &user.User{ID: 999, Role: user.RoleCustomer}
	_, err = f.svc.QR(ctx, stranger, tr.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
