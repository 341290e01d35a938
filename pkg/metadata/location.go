package metadata

import "fmt"

// Location is one of the fixed office sites. It scopes which records a user
// can see and which assets/users are eligible for an assignment.
type Location string

const (
	LocationHanoi  Location = "HANOI"
	LocationDanang Location = "DANANG"
	LocationHCM    Location = "HOCHIMINH"
)

func NewLocation(value string) (Location, error) {
	location := Location(value)
	if !location.isValid() {
		return "", fmt.Errorf("invalid location: %s", value)
	}
	return location, nil
}

func (l Location) isValid() bool {
	switch l {
	case LocationHanoi, LocationDanang, LocationHCM:
		return true
	default:
		return false
	}
}

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

func NewRole(value string) (Role, error) {
	role := Role(value)
	if role != RoleAdmin && role != RoleUser {
		return "", fmt.Errorf("invalid role: %s", value)
	}
	return role, nil
}

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

func NewGender(value string) (Gender, error) {
	gender := Gender(value)
	switch gender {
	case GenderMale, GenderFemale, GenderOther:
		return gender, nil
	default:
		return "", fmt.Errorf("invalid gender: %s", value)
	}
}
