package support

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"smarttrack/internal/domain/notification"
	"smarttrack/internal/domain/user"
	"smarttrack/internal/outbox"
	"smarttrack/internal/realtime"
	"smarttrack/internal/tenant"

	"gorm.io/gorm"
)

type OwnerLookup interface {
	OwnerUserID(ctx context.Context, companyID int64) (int64, error)
}

type Service struct {
	db        *gorm.DB
	repo      *Repository
	companies OwnerLookup
	resolver  *tenant.Resolver
	notifier  *notification.Service
	emitter   realtime.Emitter
	now       func() time.Time
}

func NewService(db *gorm.DB, repo *Repository, companies OwnerLookup, resolver *tenant.Resolver, notifier *notification.Service, emitter realtime.Emitter) *Service {
	if emitter == nil {
		emitter = realtime.Nop{}
	}
	return &Service{db: db, repo: repo, companies: companies, resolver: resolver, notifier: notifier, emitter: emitter, now: time.Now}
}

// Create files a support message with the sender's company.
func (s *Service) Create(ctx context.Context, sender *user.User, req CreateRequest) (*Message, error) {
	companyID, err := s.resolver.CompanyID(ctx, sender)
	if err != nil {
		return nil, err
	}

	m := &Message{
		CompanyID:  companyID,
		SenderID:   sender.ID,
		SenderRole: sender.Role,
		Subject:    strings.TrimSpace(req.Subject),
		Message:    strings.TrimSpace(req.Message),
		Status:     StatusOpen,
	}

	owner, err := s.companies.OwnerUserID(ctx, companyID)
	if err != nil {
		log.Printf("[support] owner lookup company_id=%d: %v", companyID, err)
	}

	var n *notification.Notification
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, m); err != nil {
			return err
		}
		if owner != 0 {
			var err error
			n, err = s.notifier.CreateTx(tx, notification.Payload{
				UserID:  owner,
				Title:   "New support request",
				Message: fmt.Sprintf("%s (%s): %s", sender.Name, sender.Role, m.Subject),
				Kind:    notification.KindSupport,
				Link:    "/company/support",
				Meta:    map[string]interface{}{"supportId": m.ID},
			})
			if err != nil {
				return err
			}
		}
		return outbox.Record(tx, outbox.SupportOpened, "support", m.ID, map[string]interface{}{
			"supportId":  m.ID,
			"companyId":  companyID,
			"senderId":   sender.ID,
			"senderRole": sender.Role,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Push(ctx, n)
	s.emitter.Emit(ctx, realtime.EventSupportNew, m, realtime.CompanyRoom(companyID), realtime.ManagerRoom(companyID))
	log.Printf("[support] opened id=%d company_id=%d sender=%d", m.ID, companyID, sender.ID)
	return m, nil
}

func (s *Service) Mine(ctx context.Context, sender *user.User, limit, offset int) ([]Message, int64, error) {
	return s.repo.ListBySender(ctx, sender.ID, limit, offset)
}

func (s *Service) ListForCompany(ctx context.Context, staff *user.User, status Status, limit, offset int) ([]Message, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	companyID, err := s.resolver.CompanyID(ctx, staff)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.ListByCompany(ctx, companyID, status, limit, offset)
}

// UpdateStatus moves a message forward; setting the current status again is
// a no-op.
func (s *Service) UpdateStatus(ctx context.Context, staff *user.User, id int64, to Status) (*Message, error) {
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}
	companyID, err := s.resolver.CompanyID(ctx, staff)
	if err != nil {
		return nil, err
	}
	m, err := s.repo.GetScoped(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if to == m.Status {
		return m, nil
	}
	if to.rank() < m.Status.rank() {
		return nil, ErrStatusBackward
	}

	now := s.now().UTC()
	fields := map[string]interface{}{"status": to}
	if m.ReviewedAt == nil {
		fields["reviewed_at"] = now
		m.ReviewedAt = &now
	}
	if to == StatusResolved {
		fields["resolved_at"] = now
		m.ResolvedAt = &now
	}
	if err := s.repo.UpdateStatus(ctx, m.ID, m.Status, fields); err != nil {
		return nil, err
	}
	m.Status = to

	if _, err := s.notifier.Notify(ctx, m.SenderID, "Support request updated",
		fmt.Sprintf("Your request %q is now %s.", m.Subject, to), notification.KindSupport, ""); err != nil {
		log.Printf("[support] notify sender=%d failed: %v", m.SenderID, err)
	}
	return m, nil
}
