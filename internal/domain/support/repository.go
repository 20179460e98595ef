package support

import (
	"context"
	"errors"

	"smarttrack/internal/tenant"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *Repository) GetScoped(ctx context.Context, companyID, id int64) (*Message, error) {
	var m Message
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(companyID)).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *Repository) ListBySender(ctx context.Context, senderID int64, limit, offset int) ([]Message, int64, error) {
	q := r.db.WithContext(ctx).Model(&Message{}).Where("sender_id = ?", senderID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []Message
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, total, err
}

func (r *Repository) ListByCompany(ctx context.Context, companyID int64, status Status, limit, offset int) ([]Message, int64, error) {
	q := r.db.WithContext(ctx).Model(&Message{}).Scopes(tenant.Scope(companyID))
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []Message
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, total, err
}

// UpdateStatus only moves forward from the given current status.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from Status, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&Message{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusBackward
	}
	return nil
}
