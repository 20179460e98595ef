package tenant

import (
	"context"
	"errors"
	"testing"

	"smarttrack/internal/database"
	"smarttrack/internal/domain/user"
	"smarttrack/internal/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubCompanies map[int64]bool

func (s stubCompanies) CompanyActive(_ context.Context, id int64) (bool, bool, error) {
	active, ok := s[id]
	return ok, active, nil
}

type stubMembers map[[2]int64]bool

func (s stubMembers) IsMember(_ context.Context, userID, companyID int64) (bool, error) {
	return s[[2]int64{userID, companyID}], nil
}

func id(v int64) *int64 { return &v }

func TestResolver_CompanyID(t *testing.T) {
	r := NewResolver(
		stubCompanies{1: true, 2: false},
		stubMembers{{10, 1}: true, {10, 2}: true},
	)

	cases := []struct {
		name     string
		u        *user.User
		want     int64
		wantErr  error
		wantKind apperr.Kind
	}{
		{"manager", &user.User{Role: user.RoleManager, CompanyID: id(1)}, 1, nil, 0},
		{"driver without company", &user.User{Role: user.RoleDriver}, 0, ErrNoCompany, apperr.KindForbidden},
		{"company suspended", &user.User{Role: user.RoleCompany, CompanyID: id(2)}, 0, ErrCompanySuspended, apperr.KindForbidden},
		{"company missing", &user.User{Role: user.RoleCompany, CompanyID: id(3)}, 0, ErrNoCompany, apperr.KindForbidden},
		{"customer member", &user.User{ID: 10, Role: user.RoleCustomer, ActiveCompanyID: id(1)}, 1, nil, 0},
		{"customer no selection", &user.User{ID: 10, Role: user.RoleCustomer}, 0, ErrNoActiveCompany, apperr.KindValidation},
		{"customer not member", &user.User{ID: 11, Role: user.RoleCustomer, ActiveCompanyID: id(1)}, 0, ErrNotMember, apperr.KindForbidden},
		{"customer suspended company", &user.User{ID: 10, Role: user.RoleCustomer, ActiveCompanyID: id(2)}, 0, ErrCompanySuspended, apperr.KindForbidden},
		{"owner", &user.User{Role: user.RoleOwner}, 0, ErrPlatformScope, apperr.KindForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.CompanyID(context.Background(), tc.u)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, tc.wantKind, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

type mockCompanies struct {
	mock.Mock
}

func (m *mockCompanies) CompanyActive(ctx context.Context, id int64) (bool, bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Bool(1), args.Error(2)
}

type mockMembers struct {
	mock.Mock
}

func (m *mockMembers) IsMember(ctx context.Context, userID, companyID int64) (bool, error) {
	args := m.Called(ctx, userID, companyID)
	return args.Bool(0), args.Error(1)
}

func TestResolver_StaffSkipsMembership(t *testing.T) {
	companies := new(mockCompanies)
	members := new(mockMembers)
	companies.On("CompanyActive", mock.Anything, int64(4)).Return(true, true, nil)

	got, err := NewResolver(companies, members).CompanyID(context.Background(), &user.User{ID: 7, Role: user.RoleDriver, CompanyID: id(4)})
	require.NoError(t, err)
	assert.Equal(t, int64(4), got)
	companies.AssertExpectations(t)
	members.AssertNotCalled(t, "IsMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolver_StoreErrors(t *testing.T) {
	boom := errors.New("connection reset")

	members := new(mockMembers)
	members.On("IsMember", mock.Anything, int64(10), int64(1)).Return(false, boom)
	companies := new(mockCompanies)

	_, err := NewResolver(companies, members).CompanyID(context.Background(), &user.User{ID: 10, Role: user.RoleCustomer, ActiveCompanyID: id(1)})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	companies.AssertNotCalled(t, "CompanyActive", mock.Anything, mock.Anything)

	companies = new(mockCompanies)
	companies.On("CompanyActive", mock.Anything, int64(1)).Return(false, false, boom)
	_, err = NewResolver(companies, new(mockMembers)).CompanyID(context.Background(), &user.User{Role: user.RoleManager, CompanyID: id(1)})
	assert.ErrorIs(t, err, boom)
}

type scopedRow struct {
	ID        int64 `gorm:"primaryKey"`
	CompanyID int64
}

func TestScope(t *testing.T) {
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, &scopedRow{}))
	require.NoError(t, db.Create(&[]scopedRow{{CompanyID: 1}, {CompanyID: 1}, {CompanyID: 2}}).Error)

	var rows []scopedRow
	require.NoError(t, db.Scopes(Scope(1)).Find(&rows).Error)
	assert.Len(t, rows, 2)

	rows = nil
	err = db.Scopes(Scope(0)).Find(&rows).Error
	assert.ErrorIs(t, err, ErrUnscopedQuery)
	assert.Empty(t, rows)
}
