package trip

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"time"

	"smarttrack/internal/domain/notification"
	"smarttrack/internal/domain/user"
	"smarttrack/internal/outbox"
	"smarttrack/internal/realtime"
	"smarttrack/internal/tenant"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OwnerLookup interface {
	OwnerUserID(ctx context.Context, companyID int64) (int64, error)
}

type Service struct {
	db        *gorm.DB
	repo      *Repository
	users     *user.Repository
	companies OwnerLookup
	resolver  *tenant.Resolver
	notifier  *notification.Service
	emitter   realtime.Emitter
	pricing   Pricing
	ids       *snowflake.Node
	now       func() time.Time
}

type Deps struct {
	DB        *gorm.DB
	Repo      *Repository
	Users     *user.Repository
	Companies OwnerLookup
	Resolver  *tenant.Resolver
	Notifier  *notification.Service
	Emitter   realtime.Emitter
	Pricing   Pricing
	IDs       *snowflake.Node
}

func NewService(d Deps) *Service {
	emitter := d.Emitter
	if emitter == nil {
		emitter = realtime.Nop{}
	}
	return &Service{
		db:        d.DB,
		repo:      d.Repo,
		users:     d.Users,
		companies: d.Companies,
		resolver:  d.Resolver,
		notifier:  d.Notifier,
		emitter:   emitter,
		pricing:   d.Pricing,
		ids:       d.IDs,
		now:       time.Now,
	}
}

// Create places a trip with the customer's active company.
func (s *Service) Create(ctx context.Context, customer *user.User, req CreateRequest) (*Trip, error) {
	companyID, err := s.resolver.CompanyID(ctx, customer)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	pickup, dropoff := req.Pickup.location(), req.Dropoff.location()
	t := &Trip{
		OrderNumber:        s.ids.Generate().String(),
		CompanyID:          companyID,
		CustomerID:         customer.ID,
		Pickup:             pickup,
		Dropoff:            dropoff,
		PackageDescription: req.PackageDescription,
		Notes:              req.Notes,
		Status:             StatusPending,
		Timeline:           Timeline{{Status: StatusPending, Timestamp: now, ActorID: customer.ID}},
		Financials:         s.pricing.Quote(req.Subtotal, 0, pickup, dropoff),
		ConfirmationCode:   uuid.NewString(),
		Version:            1,
	}

	recipients := s.companyRecipients(ctx, companyID)
	var created []*notification.Notification
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, t); err != nil {
			return err
		}
		for _, uid := range recipients {
			n, err := s.notifier.CreateTx(tx, notification.Payload{
				UserID:  uid,
				Title:   "New order",
				Message: fmt.Sprintf("Order %s was placed and awaits acceptance.", t.OrderNumber),
				Kind:    notification.KindTrip,
				Link:    fmt.Sprintf("/company/orders/%d", t.ID),
				Meta:    map[string]interface{}{"tripId": t.ID},
			})
			if err != nil {
				return err
			}
			created = append(created, n)
		}
		return outbox.Record(tx, outbox.TripCreated, "trip", t.ID, s.eventPayload(t, customer.ID))
	})
	if err != nil {
		return nil, err
	}

	for _, n := range created {
		s.notifier.Push(ctx, n)
	}
	s.emitter.Emit(ctx, realtime.EventTripStatusUpdate, s.statusEvent(t),
		realtime.CompanyRoom(companyID), realtime.ManagerRoom(companyID))

	log.Printf("[trip] created trip_id=%d order=%s company_id=%d customer_id=%d", t.ID, t.OrderNumber, companyID, customer.ID)
	return t, nil
}

// companyRecipients is the company account plus its approved managers.
func (s *Service) companyRecipients(ctx context.Context, companyID int64) []int64 {
	var ids []int64
	if owner, err := s.companies.OwnerUserID(ctx, companyID); err == nil && owner != 0 {
		ids = append(ids, owner)
	}
	managers, err := s.users.ListStaff(ctx, user.StaffFilter{
		CompanyID:      companyID,
		Role:           user.RoleManager,
		ApprovalStatus: user.ApprovalApproved,
	})
	if err != nil {
		log.Printf("[trip] list managers company_id=%d: %v", companyID, err)
		return ids
	}
	for _, m := range managers {
		if m.IsActive {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// load fetches a trip the actor may act on.
// Staff see their tenant only; drivers and customers see their own trips.
func (s *Service) load(ctx context.Context, actor *user.User, id int64) (*Trip, error) {
	switch actor.Role {
	case user.RoleCompany, user.RoleManager:
		companyID, err := s.resolver.CompanyID(ctx, actor)
		if err != nil {
			return nil, err
		}
		return s.repo.GetScoped(ctx, companyID, id)
	case user.RoleDriver:
		t, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !t.AssignedTo(actor.ID) {
			return nil, ErrNotAssignedDriver
		}
		if err := s.resolver.RequireActive(ctx, t.CompanyID); err != nil {
			return nil, err
		}
		return t, nil
	case user.RoleCustomer:
		t, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if t.CustomerID != actor.ID {
			return nil, ErrNotFound
		}
		return t, nil
	}
	return nil, tenant.ErrPlatformScope
}

// Get returns a trip visible to actor.
func (s *Service) Get(ctx context.Context, actor *user.User, id int64) (*Trip, error) {
	t, err := s.load(ctx, actor, id)
	if errors.Is(err, ErrNotAssignedDriver) {
		return nil, ErrNotFound
	}
	return t, err
}

// List returns the trips visible to actor, newest first.
func (s *Service) List(ctx context.Context, actor *user.User, status Status, limit, offset int) ([]Trip, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	f := ListFilter{Status: status, Limit: limit, Offset: offset}

	switch actor.Role {
	case user.RoleCompany, user.RoleManager:
		companyID, err := s.resolver.CompanyID(ctx, actor)
		if err != nil {
			return nil, 0, err
		}
		f.CompanyID = companyID
	case user.RoleDriver:
		companyID, err := s.resolver.CompanyID(ctx, actor)
		if err != nil {
			return nil, 0, err
		}
		f.CompanyID = companyID
		f.DriverID = actor.ID
	case user.RoleCustomer:
		f.CustomerID = actor.ID
	default:
		return nil, 0, tenant.ErrPlatformScope
	}
	return s.repo.List(ctx, f)
}

// UpdateStatus moves a trip along the state machine on behalf of actor.
func (s *Service) UpdateStatus(ctx context.Context, actor *user.User, id int64, req StatusRequest) (*Trip, error) {
	if !req.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	t, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.Version != nil && *req.Version != t.Version {
		return nil, ErrVersionConflict
	}
	if t.Status.Terminal() {
		return nil, ErrTerminal
	}

	from, to := t.Status, req.Status
	if to == StatusDelivered {
		return nil, ErrUseConfirmation
	}
	if !CanTransition(from, to) {
		return nil, transitionError(from, to)
	}
	if !RoleAllows(actor.Role, from, to) {
		return nil, ErrRoleTransition
	}

	now := s.now().UTC()
	entry := TimelineEntry{Status: to, Timestamp: now, ActorID: actor.ID, Note: req.Reason}
	fields := map[string]interface{}{
		"status":     to,
		"timeline":   append(append(Timeline{}, t.Timeline...), entry),
		"updated_at": now,
	}

	var driver *user.User
	switch to {
	case StatusAssigned:
		if req.DriverID == nil {
			return nil, ErrDriverRequired
		}
		driver, err = s.assignableDriver(ctx, t.CompanyID, *req.DriverID)
		if err != nil {
			return nil, err
		}
		fields["driver_id"] = driver.ID
		if req.VehicleID != nil {
			fields["vehicle_id"] = *req.VehicleID
		}
	case StatusAccepted:
		if req.Discount != nil {
			fin := t.Financials.WithDiscount(*req.Discount)
			fields["discount"] = fin.Discount
			fields["total"] = fin.Total
			t.Financials = fin
		}
	case StatusCancelled:
		fields["cancel_reason"] = req.Reason
	}

	var pending []*notification.Notification
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateVersioned(ctx, t.ID, t.Version, fields); err != nil {
			return err
		}
		if actor.ID != t.CustomerID {
			n, err := s.notifier.CreateTx(tx, notification.Payload{
				UserID:  t.CustomerID,
				Title:   "Order update",
				Message: fmt.Sprintf("Order %s is now %s.", t.OrderNumber, to),
				Kind:    notification.KindTrip,
				Link:    fmt.Sprintf("/customer/trips/%d", t.ID),
				Meta:    map[string]interface{}{"tripId": t.ID, "status": string(to)},
			})
			if err != nil {
				return err
			}
			pending = append(pending, n)
		}
		if driver != nil {
			n, err := s.notifier.CreateTx(tx, notification.Payload{
				UserID:  driver.ID,
				Title:   "New delivery assigned",
				Message: fmt.Sprintf("Order %s was assigned to you.", t.OrderNumber),
				Kind:    notification.KindTrip,
				Link:    fmt.Sprintf("/driver/trips/%d", t.ID),
				Meta:    map[string]interface{}{"tripId": t.ID},
			})
			if err != nil {
				return err
			}
			pending = append(pending, n)
		}
		return outbox.Record(tx, outbox.TripStatusChanged, "trip", t.ID, map[string]interface{}{
			"tripId":    t.ID,
			"companyId": t.CompanyID,
			"from":      from,
			"to":        to,
			"actorId":   actor.ID,
			"version":   t.Version + 1,
		})
	})
	if err != nil {
		return nil, err
	}

	t.Status = to
	t.Timeline = fields["timeline"].(Timeline)
	t.Version++
	t.UpdatedAt = now
	if driver != nil {
		driverID := driver.ID
		t.DriverID = &driverID
		if req.VehicleID != nil {
			v := *req.VehicleID
			t.VehicleID = &v
		}
	}
	if to == StatusCancelled {
		t.CancelReason = req.Reason
	}

	for _, n := range pending {
		s.notifier.Push(ctx, n)
	}
	s.emitter.Emit(ctx, realtime.EventTripStatusUpdate, s.statusEvent(t),
		realtime.TripRoom(t.ID),
		realtime.CompanyRoom(t.CompanyID),
		realtime.ManagerRoom(t.CompanyID),
		realtime.UserRoom(t.CustomerID),
	)
	if driver != nil {
		s.emitter.Emit(ctx, realtime.EventDriverNotification, map[string]interface{}{
			"tripId":      t.ID,
			"orderNumber": t.OrderNumber,
			"pickup":      t.Pickup,
			"dropoff":     t.Dropoff,
		}, realtime.UserRoom(driver.ID))
	}

	log.Printf("[trip] status trip_id=%d %s->%s actor=%d version=%d", t.ID, from, to, actor.ID, t.Version)
	return t, nil
}

func (s *Service) assignableDriver(ctx context.Context, companyID, driverID int64) (*user.User, error) {
	d, err := s.users.GetByID(ctx, driverID)
	if err != nil {
		return nil, ErrDriverUnavailable
	}
	if d.Role != user.RoleDriver || d.TenantID() != companyID ||
		d.ApprovalStatus != user.ApprovalApproved || !d.IsActive {
		return nil, ErrDriverUnavailable
	}
	return d, nil
}

// ConfirmDelivery marks a trip delivered after the driver scanned the
// customer's code. Confirming an already confirmed trip succeeds without
// writing anything.
func (s *Service) ConfirmDelivery(ctx context.Context, driver *user.User, id int64, code string) (*Trip, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if driver.Role != user.RoleDriver || !t.AssignedTo(driver.ID) {
		return nil, ErrNotAssignedDriver
	}
	if err := s.resolver.RequireActive(ctx, t.CompanyID); err != nil {
		return nil, err
	}
	if t.CustomerConfirmed {
		return t, nil
	}
	if t.Status != StatusAssigned && t.Status != StatusDelivering {
		return nil, ErrNotConfirmable
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(t.ConfirmationCode)) != 1 {
		return nil, ErrInvalidCode
	}

	now := s.now().UTC()
	timeline := append(append(Timeline{}, t.Timeline...), TimelineEntry{Status: StatusDelivered, Timestamp: now, ActorID: driver.ID})
	fields := map[string]interface{}{
		"status":             StatusDelivered,
		"customer_confirmed": true,
		"confirmation_time":  now,
		"timeline":           timeline,
		"updated_at":         now,
	}

	var n *notification.Notification
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateVersioned(ctx, t.ID, t.Version, fields); err != nil {
			return err
		}
		var err error
		n, err = s.notifier.CreateTx(tx, notification.Payload{
			UserID:  t.CustomerID,
			Title:   "Order delivered",
			Message: fmt.Sprintf("Order %s was delivered.", t.OrderNumber),
			Kind:    notification.KindTrip,
			Link:    fmt.Sprintf("/customer/trips/%d", t.ID),
			Meta:    map[string]interface{}{"tripId": t.ID, "status": string(StatusDelivered)},
		})
		if err != nil {
			return err
		}
		return outbox.Record(tx, outbox.TripDelivered, "trip", t.ID, map[string]interface{}{
			"tripId":           t.ID,
			"companyId":        t.CompanyID,
			"driverId":         driver.ID,
			"confirmationTime": now,
		})
	})
	if errors.Is(err, ErrVersionConflict) {
		// A concurrent confirm may have won; that is still a success.
		if latest, gerr := s.repo.GetByID(ctx, id); gerr == nil && latest.CustomerConfirmed {
			return latest, nil
		}
	}
	if err != nil {
		return nil, err
	}

	t.Status = StatusDelivered
	t.CustomerConfirmed = true
	t.ConfirmationTime = &now
	t.Timeline = timeline
	t.Version++
	t.UpdatedAt = now

	s.notifier.Push(ctx, n)
	s.emitter.Emit(ctx, realtime.EventTripDelivered, s.statusEvent(t),
		realtime.CompanyRoom(t.CompanyID),
		realtime.ManagerRoom(t.CompanyID),
		realtime.UserRoom(t.CustomerID),
		realtime.TripRoom(t.ID),
	)

	log.Printf("[trip] delivered trip_id=%d driver_id=%d", t.ID, driver.ID)
	return t, nil
}

// UpdateLocation stores the assigned driver's position and broadcasts it.
func (s *Service) UpdateLocation(ctx context.Context, driver *user.User, id int64, lat, lng float64) (*Trip, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if driver.Role != user.RoleDriver || !t.AssignedTo(driver.ID) {
		return nil, ErrNotAssignedDriver
	}
	if err := s.resolver.RequireActive(ctx, t.CompanyID); err != nil {
		return nil, err
	}
	if t.Status.Terminal() {
		return nil, ErrTerminal
	}

	now := s.now().UTC()
	if err := s.repo.UpdateLocation(ctx, t.ID, lat, lng, now); err != nil {
		return nil, err
	}
	t.LastLat, t.LastLng, t.LastLocationAt = &lat, &lng, &now

	s.emitter.Emit(ctx, realtime.EventTripLocationUpdate, map[string]interface{}{
		"tripId":    t.ID,
		"driverId":  driver.ID,
		"lat":       lat,
		"lng":       lng,
		"timestamp": now,
	}, realtime.TripRoom(t.ID), realtime.UserRoom(t.CustomerID))
	return t, nil
}

// QR returns the confirmation payload for the trip's customer.
func (s *Service) QR(ctx context.Context, customer *user.User, id int64) (*QRPayload, error) {
	t, err := s.load(ctx, customer, id)
	if err != nil {
		return nil, err
	}
	return &QRPayload{
		TripID:      t.ID,
		OrderNumber: t.OrderNumber,
		Code:        t.ConfirmationCode,
		Content:     fmt.Sprintf("smarttrack:trip:%d:%s", t.ID, t.ConfirmationCode),
	}, nil
}

// CanJoinTrip lets the trip's tenant staff, customer and driver follow it
// live.
func (s *Service) CanJoinTrip(ctx context.Context, u *user.User, tripID int64) error {
	t, err := s.repo.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	switch u.Role {
	case user.RoleCompany, user.RoleManager:
		if u.TenantID() == t.CompanyID {
			return nil
		}
	case user.RoleDriver:
		if t.AssignedTo(u.ID) {
			return nil
		}
	case user.RoleCustomer:
		if t.CustomerID == u.ID {
			return nil
		}
	}
	return ErrNoTripAccess
}

func (s *Service) statusEvent(t *Trip) map[string]interface{} {
	return map[string]interface{}{
		"tripId":            t.ID,
		"orderNumber":       t.OrderNumber,
		"companyId":         t.CompanyID,
		"customerId":        t.CustomerID,
		"driverId":          t.DriverID,
		"status":            t.Status,
		"customerConfirmed": t.CustomerConfirmed,
		"version":           t.Version,
		"updatedAt":         t.UpdatedAt,
	}
}

func (s *Service) eventPayload(t *Trip, actorID int64) map[string]interface{} {
	return map[string]interface{}{
		"tripId":      t.ID,
		"orderNumber": t.OrderNumber,
		"companyId":   t.CompanyID,
		"customerId":  t.CustomerID,
		"total":       t.Financials.Total,
		"actorId":     actorID,
	}
}
