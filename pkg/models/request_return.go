package models

import (
	"time"

	"assetdesk/pkg/metadata"
)

type RequestReturn struct {
	ID            int                  `json:"id"`
	AssetID       int                  `json:"assetId"`
	AssignmentID  int                  `json:"assignmentId"`
	RequestedByID int                  `json:"requestedById"`
	AcceptedByID  *int                 `json:"acceptedById,omitempty"`
	AssignedDate  time.Time            `json:"assignedDate"`
	ReturnedDate  *time.Time           `json:"returnedDate,omitempty"`
	State         metadata.ReturnState `json:"state"`
	Location      metadata.Location    `json:"location"`
	IsRemoved     bool                 `json:"isRemoved"`
}

type FlatRequestReturnRecord struct {
	ID            int        `db:"request_return_id"`
	AssetID       int        `db:"asset_id"`
	AssignmentID  int        `db:"assignment_id"`
	RequestedByID int        `db:"requested_by_id"`
	AcceptedByID  *int       `db:"accepted_by_id"`
	AssignedDate  time.Time  `db:"assigned_date"`
	ReturnedDate  *time.Time `db:"returned_date"`
	State         string     `db:"state"`
	Location      string     `db:"location"`
	IsRemoved     bool       `db:"is_removed"`
}

func (fr *FlatRequestReturnRecord) TransformToRequestReturn() RequestReturn {
	return RequestReturn{
		ID:            fr.ID,
		AssetID:       fr.AssetID,
		AssignmentID:  fr.AssignmentID,
		RequestedByID: fr.RequestedByID,
		AcceptedByID:  fr.AcceptedByID,
		AssignedDate:  fr.AssignedDate,
		ReturnedDate:  fr.ReturnedDate,
		State:         metadata.ReturnState(fr.State),
		Location:      metadata.Location(fr.Location),
		IsRemoved:     fr.IsRemoved,
	}
}

// RequestReturnResponse renders date fields as ISO-8601 strings, null-safe
// for returns that have not completed yet.
type RequestReturnResponse struct {
	ID            int     `json:"id"`
	AssetID       int     `json:"assetId"`
	AssignmentID  int     `json:"assignmentId"`
	RequestedByID int     `json:"requestedById"`
	AcceptedByID  *int    `json:"acceptedById,omitempty"`
	AssignedDate  string  `json:"assignedDate"`
	ReturnedDate  *string `json:"returnedDate"`
	State         string  `json:"state"`
	IsRemoved     bool    `json:"isRemoved"`
}

func (rr *RequestReturn) TransformToResponse() RequestReturnResponse {
	res := RequestReturnResponse{
		ID:            rr.ID,
		AssetID:       rr.AssetID,
		AssignmentID:  rr.AssignmentID,
		RequestedByID: rr.RequestedByID,
		AcceptedByID:  rr.AcceptedByID,
		AssignedDate:  rr.AssignedDate.Format(time.RFC3339),
		State:         string(rr.State),
		IsRemoved:     rr.IsRemoved,
	}

	if rr.ReturnedDate != nil {
		returned := rr.ReturnedDate.Format(time.RFC3339)
		res.ReturnedDate = &returned
	}

	return res
}

type CreateRequestReturnRequest struct {
	AssetID      int `json:"assetId" binding:"required"`
	AssignmentID int `json:"assignmentId" binding:"required"`
}

type RequestReturnFilter struct {
	States       []string
	ReturnedDate string
	Page         int
	Limit        int
}

type RequestReturnPage struct {
	PageInfo
	Data []RequestReturnResponse `json:"data"`
}
