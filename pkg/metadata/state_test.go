package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAssetState(t *testing.T) {
	for _, value := range []string{"AVAILABLE", "ASSIGNED", "NOT_AVAILABLE", "WAITING_FOR_RECYCLING", "RECYCLED"} {
		state, err := NewAssetState(value)
		assert.NoError(t, err)
		assert.Equal(t, AssetState(value), state)
	}

	_, err := NewAssetState("available")
	assert.EqualError(t, err, "invalid asset state: available")
}

func TestNewAssignmentState(t *testing.T) {
	state, err := NewAssignmentState("WAITING_FOR_ACCEPTANCE")
	assert.NoError(t, err)
	assert.Equal(t, AssignmentWaitingForAcceptance, state)

	_, err = NewAssignmentState("RETURNED")
	assert.EqualError(t, err, "invalid assignment state: RETURNED")
}

func TestActiveAssignmentStates(t *testing.T) {
	assert.Equal(t, []string{"WAITING_FOR_ACCEPTANCE", "ACCEPTED"}, ActiveAssignmentStates())
}

func TestNewReturnState(t *testing.T) {
	state, err := NewReturnState("COMPLETED")
	assert.NoError(t, err)
	assert.Equal(t, ReturnCompleted, state)

	_, err = NewReturnState("CANCELLED")
	assert.EqualError(t, err, "invalid return state: CANCELLED")
}

func TestNewLocation(t *testing.T) {
	for _, value := range []string{"HANOI", "DANANG", "HOCHIMINH"} {
		location, err := NewLocation(value)
		assert.NoError(t, err)
		assert.Equal(t, Location(value), location)
	}

	_, err := NewLocation("HUE")
	assert.Error(t, err)
}

func TestNewRole(t *testing.T) {
	role, err := NewRole("ADMIN")
	assert.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	_, err = NewRole("MANAGER")
	assert.Error(t, err)
}
