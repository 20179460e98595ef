package company

import (
	"context"
	"errors"

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

func (r *Repository) Create(ctx context.Context, c *Company) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Company, error) {
	var c Company
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// CompanyActive implements tenant.CompanyStatus.
func (r *Repository) CompanyActive(ctx context.Context, id int64) (bool, bool, error) {
	var c Company
	err := r.db.WithContext(ctx).Select("id", "is_active").First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return true, c.IsActive, nil
}

// OwnerUserID returns the company account's user id.
func (r *Repository) OwnerUserID(ctx context.Context, id int64) (int64, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return c.OwnerUserID, nil
}

type ListFilter struct {
	Active *bool
	Search string
	Limit  int
	Offset int
}

func (r *Repository) List(ctx context.Context, f ListFilter) ([]Company, int64, error) {
	q := r.db.WithContext(ctx).Model(&Company{})
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}
	if f.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+f.Search+"%")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []Company
	err := q.Order("name").Limit(f.Limit).Offset(f.Offset).Find(&out).Error
	return out, total, err
}

func (r *Repository) ListByIDs(ctx context.Context, ids []int64) ([]Company, error) {
	var out []Company
	if len(ids) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name").Find(&out).Error
	return out, err
}

func (r *Repository) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&Company{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&Company{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) CreateApplication(ctx context.Context, a *Application) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *Repository) GetApplication(ctx context.Context, id int64) (*Application, error) {
	var a Application
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *Repository) PendingApplicationExists(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Application{}).
		Where("email = ? AND status = ?", email, ApplicationPending).
		Count(&n).Error
	return n > 0, err
}

func (r *Repository) ListApplications(ctx context.Context, status ApplicationStatus, limit, offset int) ([]Application, int64, error) {
	q := r.db.WithContext(ctx).Model(&Application{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []Application
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, total, err
}

// UpdateApplicationIfPending changes a pending application only, so two
// reviewers cannot both act on it.
func (r *Repository) UpdateApplicationIfPending(ctx context.Context, id int64, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&Application{}).
		Where("id = ? AND status = ?", id, ApplicationPending).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrApplicationReviewed
	}
	return nil
}
