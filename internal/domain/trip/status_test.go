package trip

import (
	"testing"

	"smarttrack/internal/domain/user"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusAssigned, false},
		{StatusAccepted, StatusAssigned, true},
		{StatusPreparing, StatusDelivering, true},
		{StatusAssigned, StatusDelivered, true},
		{StatusDelivering, StatusCancelled, false},
		{StatusDelivering, StatusCompleted, true},
		{StatusDelivered, StatusCompleted, false},
		{StatusCancelled, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestTerminalStatesHaveNoEdges(t *testing.T) {
	for _, s := range []Status{StatusDelivered, StatusCompleted, StatusCancelled} {
		assert.True(t, s.Terminal())
		assert.Empty(t, transitions[s], s)
	}
	assert.False(t, StatusDelivering.Terminal())
	assert.False(t, Status("shipped").Valid())
}

func TestRoleAllows(t *testing.T) {
	assert.True(t, RoleAllows(user.RoleManager, StatusPending, StatusAccepted))
	assert.True(t, RoleAllows(user.RoleCompany, StatusAccepted, StatusCancelled))
	assert.False(t, RoleAllows(user.RoleCompany, StatusAssigned, StatusCancelled))

	assert.True(t, RoleAllows(user.RoleDriver, StatusAssigned, StatusDelivering))
	assert.False(t, RoleAllows(user.RoleDriver, StatusPending, StatusAccepted))

	assert.True(t, RoleAllows(user.RoleCustomer, StatusPending, StatusCancelled))
	assert.False(t, RoleAllows(user.RoleCustomer, StatusAccepted, StatusCancelled))

	assert.False(t, RoleAllows(user.RoleOwner, StatusPending, StatusAccepted))
}
