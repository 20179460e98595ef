package notification

import (
	"context"
	"log"
	"strings"
	"time"

	"smarttrack/internal/realtime"

	"gorm.io/gorm"
)

type Service struct {
	repo    *Repository
	emitter realtime.Emitter
	now     func() time.Time
}

func NewService(repo *Repository, emitter realtime.Emitter) *Service {
	if emitter == nil {
		emitter = realtime.Nop{}
	}
	return &Service{repo: repo, emitter: emitter, now: time.Now}
}

// Notify persists an unread notification for userID and pushes it to the
// user's room. A failed push never fails the call.
func (s *Service) Notify(ctx context.Context, userID int64, title, message string, kind Kind, link string) (*Notification, error) {
	return s.NotifyWithMeta(ctx, Payload{UserID: userID, Title: title, Message: message, Kind: kind, Link: link})
}

func (s *Service) NotifyWithMeta(ctx context.Context, p Payload) (*Notification, error) {
	n, err := s.build(p)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	s.Push(ctx, n)
	return n, nil
}

// CreateTx persists inside tx without pushing. Call Push after commit.
func (s *Service) CreateTx(tx *gorm.DB, p Payload) (*Notification, error) {
	n, err := s.build(p)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateTx(tx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Push emits n to its recipient's room.
func (s *Service) Push(ctx context.Context, n *Notification) {
	if n == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[notification] push panic notification_id=%d: %v", n.ID, r)
		}
	}()
	room := realtime.UserRoom(n.UserID)
	s.emitter.Emit(ctx, realtime.EventNotificationNew, n, room)
	s.emitter.Emit(ctx, realtime.EventNotification, n, room)
}

// NotifyBulk notifies each payload in order. Earlier notifications are kept
// when a later one fails; errs[i] belongs to payloads[i].
func (s *Service) NotifyBulk(ctx context.Context, payloads []Payload) ([]*Notification, []error) {
	created := make([]*Notification, 0, len(payloads))
	errs := make([]error, len(payloads))
	for i, p := range payloads {
		n, err := s.NotifyWithMeta(ctx, p)
		if err != nil {
			log.Printf("[notification] bulk item %d user_id=%d failed: %v", i, p.UserID, err)
			errs[i] = err
			continue
		}
		created = append(created, n)
	}
	return created, errs
}

func (s *Service) List(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]Notification, int64, int64, error) {
	items, total, err := s.repo.List(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, 0, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, 0, err
	}
	return items, total, unread, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, id int64) error {
	return s.repo.MarkRead(ctx, id, userID, s.now().UTC())
}

func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID, s.now().UTC())
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.Delete(ctx, id, userID)
}

func (s *Service) Clear(ctx context.Context, userID int64) (int64, error) {
	return s.repo.Clear(ctx, userID)
}

func (s *Service) build(p Payload) (*Notification, error) {
	if p.UserID <= 0 {
		return nil, ErrMissingRecipient
	}
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, ErrMissingTitle
	}
	message := strings.TrimSpace(p.Message)
	if message == "" {
		return nil, ErrMissingMessage
	}
	kind := p.Kind
	if kind == "" {
		kind = KindInfo
	}
	return &Notification{
		UserID:    p.UserID,
		Type:      kind,
		Title:     title,
		Message:   message,
		Link:      strings.TrimSpace(p.Link),
		Meta:      p.Meta,
		IsRead:    false,
		CreatedAt: s.now().UTC(),
	}, nil
}
