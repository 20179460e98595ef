package customer

import (
	"context"
	"testing"

	"smarttrack/internal/database"
	"smarttrack/internal/domain/company"
	"smarttrack/internal/domain/user"
	"smarttrack/internal/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinAndSelect(t *testing.T) {
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, &user.User{}, &user.CustomerCompany{}, &company.Company{}))

	mkCompany := func(name string, active bool) *company.Company {
		c := &company.Company{Name: name, Email: name + "@example.com", Tier: company.TierFree, BillingStatus: company.BillingTrial, IsActive: true}
		require.NoError(t, db.Create(c).Error)
		if !active {
			require.NoError(t, db.Model(c).Update("is_active", false).Error)
		}
		return c
	}
	alpha := mkCompany("alpha", true)
	beta := mkCompany("beta", true)
	closed := mkCompany("closed", false)

	cust := &user.User{Email: "c@example.com", PasswordHash: "x", Name: "C", Role: user.RoleCustomer, IsActive: true, ApprovalStatus: user.ApprovalApproved}
	require.NoError(t, db.Create(cust).Error)

	users := user.NewRepository(db)
	svc := NewService(users, company.NewRepository(db))
	ctx := context.Background()

	list, err := svc.ListCompanies(ctx, cust)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].Joined)

	_, err = svc.SelectActive(ctx, cust, alpha.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = svc.Join(ctx, cust, closed.ID)
	assert.ErrorIs(t, err, ErrCompanyUnavailable)

	u, err := svc.Join(ctx, cust, alpha.ID)
	require.NoError(t, err)
	assert.Equal(t, alpha.ID, *u.ActiveCompanyID)

	// second join is a no-op, second company does not steal the selection
	_, err = svc.Join(ctx, cust, alpha.ID)
	require.NoError(t, err)
	u, err = svc.Join(ctx, cust, beta.ID)
	require.NoError(t, err)
	assert.Equal(t, alpha.ID, *u.ActiveCompanyID)

	memberships, err := users.Memberships(ctx, cust.ID)
	require.NoError(t, err)
	assert.Len(t, memberships, 2)

	u, err = svc.SelectActive(ctx, cust, beta.ID)
	require.NoError(t, err)
	assert.Equal(t, beta.ID, *u.ActiveCompanyID)

	stored, err := users.GetByID(ctx, cust.ID)
	require.NoError(t, err)
	assert.Equal(t, beta.ID, *stored.ActiveCompanyID)

	list, err = svc.ListCompanies(ctx, stored)
	require.NoError(t, err)
	for _, e := range list {
		assert.True(t, e.Joined)
		assert.Equal(t, e.ID == beta.ID, e.Active)
	}
}
