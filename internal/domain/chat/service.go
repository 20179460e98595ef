package chat

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"smarttrack/internal/domain/notification"
	"smarttrack/internal/domain/user"
	"smarttrack/internal/realtime"
	"smarttrack/internal/tenant"
)

const maxTextLength = 4000

type OwnerLookup interface {
	OwnerUserID(ctx context.Context, companyID int64) (int64, error)
}

// Service handles chat business logic
type Service struct {
	repo      Repository
	users     *user.Repository
	companies OwnerLookup
	resolver  *tenant.Resolver
	notifier  *notification.Service
	emitter   realtime.Emitter
	now       func() time.Time
}

func NewService(repo Repository, users *user.Repository, companies OwnerLookup, resolver *tenant.Resolver, notifier *notification.Service, emitter realtime.Emitter) *Service {
	if emitter == nil {
		emitter = realtime.Nop{}
	}
	return &Service{
		repo:      repo,
		users:     users,
		companies: companies,
		resolver:  resolver,
		notifier:  notifier,
		emitter:   emitter,
		now:       time.Now,
	}
}

// ---- Manager side ----

// ManagerThread returns the manager's conversation with their company and
// marks the company's messages read.
func (s *Service) ManagerThread(ctx context.Context, manager *user.User, limit, offset int) ([]Message, error) {
	companyID, err := s.resolver.CompanyID(ctx, manager)
	if err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListThread(ctx, companyID, manager.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.MarkRead(ctx, companyID, manager.ID, user.RoleCompany, s.now().UTC()); err != nil {
		log.Printf("[chat] mark read company_id=%d manager_id=%d: %v", companyID, manager.ID, err)
	}
	return msgs, nil
}

func (s *Service) SendFromManager(ctx context.Context, manager *user.User, text string) (*Message, error) {
	companyID, err := s.resolver.CompanyID(ctx, manager)
	if err != nil {
		return nil, err
	}
	m, err := s.send(ctx, companyID, manager.ID, manager, text)
	if err != nil {
		return nil, err
	}

	if owner, err := s.companies.OwnerUserID(ctx, companyID); err == nil && owner != 0 {
		s.notifyRecipient(ctx, owner, fmt.Sprintf("New message from %s", manager.Name), m, "/company/chat/"+fmt.Sprint(manager.ID))
	}
	return m, nil
}

// ---- Company side ----

// Threads lists one entry per manager of the company, most recent first.
func (s *Service) Threads(ctx context.Context, account *user.User) ([]Thread, error) {
	companyID, err := s.resolver.CompanyID(ctx, account)
	if err != nil {
		return nil, err
	}
	managers, err := s.users.ListStaff(ctx, user.StaffFilter{
		CompanyID:      companyID,
		Role:           user.RoleManager,
		ApprovalStatus: user.ApprovalApproved,
	})
	if err != nil {
		return nil, err
	}

	threads := make([]Thread, 0, len(managers))
	for _, mgr := range managers {
		last, err := s.repo.LastMessage(ctx, companyID, mgr.ID)
		if err != nil {
			return nil, err
		}
		unread, err := s.repo.CountUnread(ctx, companyID, mgr.ID, user.RoleManager)
		if err != nil {
			return nil, err
		}
		t := Thread{ManagerID: mgr.ID, ManagerName: mgr.Name, LastMessage: last, Unread: unread}
		if last != nil {
			at := last.CreatedAt
			t.LastAt = &at
		}
		threads = append(threads, t)
	}
	sortThreads(threads)
	return threads, nil
}

func (s *Service) CompanyThread(ctx context.Context, account *user.User, managerID int64, limit, offset int) ([]Message, error) {
	companyID, err := s.resolver.CompanyID(ctx, account)
	if err != nil {
		return nil, err
	}
	if _, err := s.manager(ctx, companyID, managerID); err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListThread(ctx, companyID, managerID, limit, offset)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.MarkRead(ctx, companyID, managerID, user.RoleManager, s.now().UTC()); err != nil {
		log.Printf("[chat] mark read company_id=%d manager_id=%d: %v", companyID, managerID, err)
	}
	return msgs, nil
}

func (s *Service) SendFromCompany(ctx context.Context, account *user.User, managerID int64, text string) (*Message, error) {
	companyID, err := s.resolver.CompanyID(ctx, account)
	if err != nil {
		return nil, err
	}
	if _, err := s.manager(ctx, companyID, managerID); err != nil {
		return nil, err
	}
	m, err := s.send(ctx, companyID, managerID, account, text)
	if err != nil {
		return nil, err
	}
	s.notifyRecipient(ctx, managerID, "New message from your company", m, "/manager/chat")
	return m, nil
}

// ---- helpers ----

func (s *Service) manager(ctx context.Context, companyID, managerID int64) (*user.User, error) {
	u, err := s.users.GetByID(ctx, managerID)
	if err != nil || u.Role != user.RoleManager || u.TenantID() != companyID {
		return nil, ErrManagerNotFound
	}
	return u, nil
}

func (s *Service) send(ctx context.Context, companyID, managerID int64, sender *user.User, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > maxTextLength {
		return nil, ErrMessageTooLong
	}

	m := &Message{
		CompanyID:  companyID,
		ManagerID:  managerID,
		SenderID:   sender.ID,
		SenderRole: sender.Role,
		Text:       text,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	// threads are private to one manager; the company room also holds
	// every other manager of the tenant
	rooms := []string{realtime.UserRoom(managerID)}
	if owner, err := s.companies.OwnerUserID(ctx, companyID); err == nil && owner != 0 {
		rooms = append(rooms, realtime.UserRoom(owner))
	} else if err != nil {
		log.Printf("[chat] owner lookup company_id=%d: %v", companyID, err)
	}
	s.emitter.Emit(ctx, realtime.EventChatManagerCompanyNew, m, rooms...)
	return m, nil
}

func (s *Service) notifyRecipient(ctx context.Context, userID int64, title string, m *Message, link string) {
	preview := m.Text
	if utf8.RuneCountInString(preview) > 120 {
		preview = string([]rune(preview)[:120]) + "…"
	}
	_, err := s.notifier.NotifyWithMeta(ctx, notification.Payload{
		UserID:  userID,
		Title:   title,
		Message: preview,
		Kind:    notification.KindChat,
		Link:    link,
		Meta:    map[string]interface{}{"messageId": m.ID, "managerId": m.ManagerID},
	})
	if err != nil {
		log.Printf("[chat] notify user_id=%d failed: %v", userID, err)
	}
}

// sortThreads orders by last activity, silent threads last.
func sortThreads(ts []Thread) {
	sort.SliceStable(ts, func(i, j int) bool {
		a, b := ts[i].LastAt, ts[j].LastAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})
}
