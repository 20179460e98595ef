package trip

import (
	"context"
	"errors"
	"time"

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

func (r *Repository) Create(ctx context.Context, t *Trip) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// GetByID loads a trip without tenant scope. Callers check ownership.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Trip, error) {
	var t Trip
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// GetScoped loads a trip of companyID; other tenants' trips are not found.
func (r *Repository) GetScoped(ctx context.Context, companyID, id int64) (*Trip, error) {
	var t Trip
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(companyID)).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

type ListFilter struct {
	CompanyID  int64
	CustomerID int64
	DriverID   int64
	Status     Status
	Limit      int
	Offset     int
}

// List needs at least one owner key; an empty filter lists nothing.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Trip, int64, error) {
	q := r.db.WithContext(ctx).Model(&Trip{})
	switch {
	case f.CompanyID > 0:
		q = q.Scopes(tenant.Scope(f.CompanyID))
		if f.DriverID > 0 {
			q = q.Where("driver_id = ?", f.DriverID)
		}
		if f.CustomerID > 0 {
			q = q.Where("customer_id = ?", f.CustomerID)
		}
	case f.CustomerID > 0:
		q = q.Where("customer_id = ?", f.CustomerID)
	case f.DriverID > 0:
		q = q.Where("driver_id = ?", f.DriverID)
	default:
		return []Trip{}, 0, nil
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []Trip
	err := q.Order("created_at DESC, id DESC").Limit(f.Limit).Offset(f.Offset).Find(&out).Error
	return out, total, err
}

// UpdateVersioned applies fields only if the row still has version and bumps
// it. A lost race returns ErrVersionConflict.
func (r *Repository) UpdateVersioned(ctx context.Context, id, version int64, fields map[string]interface{}) error {
	fields["version"] = version + 1
	res := r.db.WithContext(ctx).Model(&Trip{}).
		Where("id = ? AND version = ?", id, version).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// UpdateLocation records a position ping. It does not bump version.
func (r *Repository) UpdateLocation(ctx context.Context, id int64, lat, lng float64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&Trip{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"last_lat":         lat,
			"last_lng":         lng,
			"last_location_at": at,
		}).Error
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Trip{}).Count(&n).Error
	return n, err
}
