package metadata

import "fmt"

type AssetState string

const (
	AssetAvailable           AssetState = "AVAILABLE"
	AssetAssigned            AssetState = "ASSIGNED"
	AssetNotAvailable        AssetState = "NOT_AVAILABLE"
	AssetWaitingForRecycling AssetState = "WAITING_FOR_RECYCLING"
	AssetRecycled            AssetState = "RECYCLED"
)

func NewAssetState(value string) (AssetState, error) {
	state := AssetState(value)
	if !state.isValid() {
		return "", fmt.Errorf("invalid asset state: %s", value)
	}
	return state, nil
}

func (s AssetState) isValid() bool {
	switch s {
	case AssetAvailable, AssetAssigned, AssetNotAvailable, AssetWaitingForRecycling, AssetRecycled:
		return true
	default:
		return false
	}
}

type AssignmentState string

const (
	AssignmentWaitingForAcceptance AssignmentState = "WAITING_FOR_ACCEPTANCE"
	AssignmentAccepted             AssignmentState = "ACCEPTED"
	AssignmentDeclined             AssignmentState = "DECLINED"
)

func NewAssignmentState(value string) (AssignmentState, error) {
	state := AssignmentState(value)
	if !state.isValid() {
		return "", fmt.Errorf("invalid assignment state: %s", value)
	}
	return state, nil
}

func (s AssignmentState) isValid() bool {
	switch s {
	case AssignmentWaitingForAcceptance, AssignmentAccepted, AssignmentDeclined:
		return true
	default:
		return false
	}
}

// ActiveAssignmentStates are the states in which an assignment still binds
// its asset and assignee.
func ActiveAssignmentStates() []string {
	return []string{string(AssignmentWaitingForAcceptance), string(AssignmentAccepted)}
}

type ReturnState string

const (
	ReturnWaitingForReturning ReturnState = "WAITING_FOR_RETURNING"
	ReturnCompleted           ReturnState = "COMPLETED"
)

func NewReturnState(value string) (ReturnState, error) {
	state := ReturnState(value)
	if !state.isValid() {
		return "", fmt.Errorf("invalid return state: %s", value)
	}
	return state, nil
}

func (s ReturnState) isValid() bool {
	switch s {
	case ReturnWaitingForReturning, ReturnCompleted:
		return true
	default:
		return false
	}
}
