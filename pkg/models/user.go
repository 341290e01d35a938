package models

import (
	"time"

	"assetdesk/pkg/metadata"
)

type User struct {
	ID           int               `json:"id"`
	StaffCode    string            `json:"staffCode"`
	FirstName    string            `json:"firstName"`
	LastName     string            `json:"lastName"`
	Username     string            `json:"username"`
	PasswordHash string            `json:"-"`
	Gender       metadata.Gender   `json:"gender"`
	DateOfBirth  time.Time         `json:"dateOfBirth"`
	JoinedDate   time.Time         `json:"joinedDate"`
	Role         metadata.Role     `json:"type"`
	Location     metadata.Location `json:"location"`
	IsAssigned   bool              `json:"isAssigned"`
	IsDisabled   bool              `json:"isDisabled"`
}

type FlatUserRecord struct {
	ID           int       `db:"user_id"`
	StaffCode    string    `db:"staff_code"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Gender       string    `db:"gender"`
	DateOfBirth  time.Time `db:"date_of_birth"`
	JoinedDate   time.Time `db:"joined_date"`
	Role         string    `db:"role"`
	Location     string    `db:"location"`
	IsAssigned   bool      `db:"is_assigned"`
	IsDisabled   bool      `db:"is_disabled"`
}

func (fu *FlatUserRecord) TransformToUser() User {
	return User{
		ID:           fu.ID,
		StaffCode:    fu.StaffCode,
		FirstName:    fu.FirstName,
		LastName:     fu.LastName,
		Username:     fu.Username,
		PasswordHash: fu.PasswordHash,
		Gender:       metadata.Gender(fu.Gender),
		DateOfBirth:  fu.DateOfBirth,
		JoinedDate:   fu.JoinedDate,
		Role:         metadata.Role(fu.Role),
		Location:     metadata.Location(fu.Location),
		IsAssigned:   fu.IsAssigned,
		IsDisabled:   fu.IsDisabled,
	}
}

type CreateUserRequest struct {
	FirstName   string `json:"firstName" binding:"required"`
	LastName    string `json:"lastName" binding:"required"`
	Gender      string `json:"gender" binding:"required"`
	DateOfBirth string `json:"dateOfBirth" binding:"required"`
	JoinedDate  string `json:"joinedDate" binding:"required"`
	Role        string `json:"type" binding:"required"`
	Location    string `json:"location"`
}

type UpdateUserRequest struct {
	DateOfBirth *string `json:"dateOfBirth"`
	Gender      *string `json:"gender"`
	JoinedDate  *string `json:"joinedDate"`
	Role        *string `json:"type"`
}

// CreatedUser is returned from the create path so the caller can hand the
// derived credentials over to the new employee. The raw password appears
// nowhere else.
type CreatedUser struct {
	User
	RawPassword string `json:"rawPassword"`
}
