package models

import (
	"time"

	"assetdesk/pkg/metadata"
)

// Assignment binds one asset to one user. Asset code/name and the assignee's
// username are denormalized so list views need no joins.
type Assignment struct {
	ID                 int                      `json:"id"`
	AssetID            int                      `json:"assetId"`
	AssetCode          string                   `json:"assetCode"`
	AssetName          string                   `json:"assetName"`
	AssignedByID       int                      `json:"assignedById"`
	AssignedToID       int                      `json:"assignedToId"`
	AssignedToUsername string                   `json:"assignedToUsername"`
	AssignedDate       time.Time                `json:"assignedDate"`
	Note               *string                  `json:"note,omitempty"`
	State              metadata.AssignmentState `json:"state"`
	Location           metadata.Location        `json:"location"`
	IsRemoved          bool                     `json:"isRemoved"`
}

// IsActive reports whether the assignment still binds its asset and assignee.
func (a *Assignment) IsActive() bool {
	if a.IsRemoved {
		return false
	}
	return a.State == metadata.AssignmentWaitingForAcceptance || a.State == metadata.AssignmentAccepted
}

type FlatAssignmentRecord struct {
	ID                 int       `db:"assignment_id"`
	AssetID            int       `db:"asset_id"`
	AssetCode          string    `db:"asset_code"`
	AssetName          string    `db:"asset_name"`
	AssignedByID       int       `db:"assigned_by_id"`
	AssignedToID       int       `db:"assigned_to_id"`
	AssignedToUsername string    `db:"assigned_to_username"`
	AssignedDate       time.Time `db:"assigned_date"`
	Note               *string   `db:"note"`
	State              string    `db:"state"`
	Location           string    `db:"location"`
	IsRemoved          bool      `db:"is_removed"`
}

func (fa *FlatAssignmentRecord) TransformToAssignment() Assignment {
	return Assignment{
		ID:                 fa.ID,
		AssetID:            fa.AssetID,
		AssetCode:          fa.AssetCode,
		AssetName:          fa.AssetName,
		AssignedByID:       fa.AssignedByID,
		AssignedToID:       fa.AssignedToID,
		AssignedToUsername: fa.AssignedToUsername,
		AssignedDate:       fa.AssignedDate,
		Note:               fa.Note,
		State:              metadata.AssignmentState(fa.State),
		Location:           metadata.Location(fa.Location),
		IsRemoved:          fa.IsRemoved,
	}
}

type CreateAssignmentRequest struct {
	AssetID      int     `json:"assetId" binding:"required"`
	AssignedToID int     `json:"assignedToId" binding:"required"`
	AssignedDate string  `json:"assignedDate" binding:"required"`
	Note         *string `json:"note"`
}

type RespondAssignmentRequest struct {
	State string `json:"state" binding:"required"`
}

// AssignmentFilter carries the findAll query parameters. States empty means
// no state filter; Query is matched word by word across asset name, asset
// code and assignee username; AssignedDate is an exact-date filter.
type AssignmentFilter struct {
	States       []string
	Query        string
	AssignedDate string
	Page         int
	Limit        int
}

type AssignmentPage struct {
	PageInfo
	Data []Assignment `json:"data"`
}
