package chat

import (
	"context"
	"errors"
	"time"

	"smarttrack/internal/domain/user"
	"smarttrack/internal/tenant"

	"gorm.io/gorm"
)

// Repository handles all DB operations for the chat domain
type Repository interface {
	Create(ctx context.Context, m *Message) error
	ListThread(ctx context.Context, companyID, managerID int64, limit, offset int) ([]Message, error)
	LastMessage(ctx context.Context, companyID, managerID int64) (*Message, error)
	CountUnread(ctx context.Context, companyID, managerID int64, from user.Role) (int64, error)
	MarkRead(ctx context.Context, companyID, managerID int64, from user.Role, at time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) thread(ctx context.Context, companyID, managerID int64) *gorm.DB {
	return r.db.WithContext(ctx).Model(&Message{}).
		Scopes(tenant.Scope(companyID)).
		Where("manager_id = ?", managerID)
}

func (r *repository) Create(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// ListThread returns messages oldest first.
func (r *repository) ListThread(ctx context.Context, companyID, managerID int64, limit, offset int) ([]Message, error) {
	var out []Message
	err := r.thread(ctx, companyID, managerID).
		Order("created_at ASC, id ASC").
		Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

func (r *repository) LastMessage(ctx context.Context, companyID, managerID int64) (*Message, error) {
	var m Message
	err := r.thread(ctx, companyID, managerID).Order("created_at DESC, id DESC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) CountUnread(ctx context.Context, companyID, managerID int64, from user.Role) (int64, error) {
	var n int64
	err := r.thread(ctx, companyID, managerID).
		Where("sender_role = ? AND read_at IS NULL", from).
		Count(&n).Error
	return n, err
}

// MarkRead stamps unread messages sent by the other side.
func (r *repository) MarkRead(ctx context.Context, companyID, managerID int64, from user.Role, at time.Time) (int64, error) {
	res := r.thread(ctx, companyID, managerID).
		Where("sender_role = ? AND read_at IS NULL", from).
		Update("read_at", at)
	return res.RowsAffected, res.Error
}
