package users

import (
	"fmt"
	"time"

	"assetdesk/internal/repository"
	"assetdesk/pkg/apperrors"
	"assetdesk/pkg/metadata"
	"assetdesk/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minimumAge = 18

// ActiveAssignmentCounter reports how many active assignments reference a
// user; the directory consults it before disabling an account.
type ActiveAssignmentCounter interface {
	CountActiveAssignmentsForUser(userID int) (int, error)
}

type UserService struct {
	repo        UserRepository
	assignments ActiveAssignmentCounter
	runner      repository.TransactionRunner
	log         *zap.Logger
}

func NewUserService(repo UserRepository, assignments ActiveAssignmentCounter, runner repository.TransactionRunner, log *zap.Logger) *UserService {
	return &UserService{
		repo:        repo,
		assignments: assignments,
		runner:      runner,
		log:         log,
	}
}

// CreateUser registers a new employee. Staff code, username and the initial
// password are derived explicitly here, never inside the persistence layer.
func (s *UserService) CreateUser(req models.CreateUserRequest, actor models.Actor) (*models.CreatedUser, error) {
	gender, err := metadata.NewGender(req.Gender)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	role, err := metadata.NewRole(req.Role)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	location := actor.Location
	if req.Location != "" {
		location, err = metadata.NewLocation(req.Location)
		if err != nil {
			return nil, apperrors.Validation(err.Error())
		}
	}

	dateOfBirth, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, apperrors.Validation("date of birth is invalid")
	}

	joinedDate, err := time.Parse("2006-01-02", req.JoinedDate)
	if err != nil {
		return nil, apperrors.Validation("joined date is invalid")
	}

	if err := validateAge(dateOfBirth, joinedDate); err != nil {
		return nil, err
	}

	username, err := s.uniqueUsername(DeriveUsername(req.FirstName, req.LastName))
	if err != nil {
		return nil, err
	}

	rawPassword := DeriveInitialPassword(username, dateOfBirth)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(rawPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// the staff code derives from the assigned id, so insert and stamp run
	// in one transaction
	var id int
	err = s.runner.InTransaction(func(tx *goqu.TxDatabase) error {
		id, err = s.repo.PersistUser(tx, goqu.Record{
			"first_name":    req.FirstName,
			"last_name":     req.LastName,
			"username":      username,
			"password_hash": string(passwordHash),
			"gender":        string(gender),
			"date_of_birth": dateOfBirth,
			"joined_date":   joinedDate,
			"role":          string(role),
			"location":      string(location),
			"is_assigned":   false,
			"is_disabled":   false,
		})
		if err != nil {
			return err
		}

		return s.repo.SetStaffCode(tx, id, DeriveStaffCode(id))
	})
	if err != nil {
		return nil, err
	}

	staffCode := DeriveStaffCode(id)

	s.log.Info("user created",
		zap.Int("user_id", id),
		zap.String("staff_code", staffCode),
		zap.String("location", string(location)),
	)

	return &models.CreatedUser{
		User: models.User{
			ID:          id,
			StaffCode:   staffCode,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Username:    username,
			Gender:      gender,
			DateOfBirth: dateOfBirth,
			JoinedDate:  joinedDate,
			Role:        role,
			Location:    location,
		},
		RawPassword: rawPassword,
	}, nil
}

func (s *UserService) GetUser(id int, actor models.Actor) (*models.User, error) {
	user, err := s.repo.GetUser(id)
	if err != nil {
		return nil, err
	}

	if user.Location != actor.Location {
		return nil, apperrors.NotFound("user")
	}

	return user, nil
}

func (s *UserService) GetUsersByLocation(actor models.Actor) ([]models.User, error) {
	return s.repo.GetUsersByLocation(actor.Location)
}

func (s *UserService) UpdateUser(id int, req models.UpdateUserRequest, actor models.Actor) (*models.User, error) {
	user, err := s.GetUser(id, actor)
	if err != nil {
		return nil, err
	}

	dateOfBirth := user.DateOfBirth
	joinedDate := user.JoinedDate
	changes := goqu.Record{}

	if req.DateOfBirth != nil {
		dateOfBirth, err = time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			return nil, apperrors.Validation("date of birth is invalid")
		}
		changes["date_of_birth"] = dateOfBirth
	}
	if req.JoinedDate != nil {
		joinedDate, err = time.Parse("2006-01-02", *req.JoinedDate)
		if err != nil {
			return nil, apperrors.Validation("joined date is invalid")
		}
		changes["joined_date"] = joinedDate
	}
	if req.DateOfBirth != nil || req.JoinedDate != nil {
		if err := validateAge(dateOfBirth, joinedDate); err != nil {
			return nil, err
		}
	}
	if req.Gender != nil {
		gender, err := metadata.NewGender(*req.Gender)
		if err != nil {
			return nil, apperrors.Validation(err.Error())
		}
		changes["gender"] = string(gender)
	}
	if req.Role != nil {
		role, err := metadata.NewRole(*req.Role)
		if err != nil {
			return nil, apperrors.Validation(err.Error())
		}
		changes["role"] = string(role)
	}

	if len(changes) == 0 {
		return user, nil
	}

	if err := s.repo.UpdateUser(id, changes); err != nil {
		return nil, err
	}

	return s.repo.GetUser(id)
}

// DisableUser blocks further logins. A user still holding assets keeps their
// account until everything is returned.
func (s *UserService) DisableUser(id int, actor models.Actor) error {
	user, err := s.GetUser(id, actor)
	if err != nil {
		return err
	}

	count, err := s.assignments.CountActiveAssignmentsForUser(user.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.Conflict("cannot disable a user with active assignments")
	}

	if err := s.repo.UpdateUser(user.ID, goqu.Record{"is_disabled": true}); err != nil {
		return err
	}

	s.log.Info("user disabled", zap.Int("user_id", user.ID), zap.String("staff_code", user.StaffCode))
	return nil
}

// uniqueUsername appends a numeric suffix when the derived base username is
// already taken: binhnv, binhnv1, binhnv2, ...
func (s *UserService) uniqueUsername(base string) (string, error) {
	taken, err := s.repo.CountUsernamesWithPrefix(base)
	if err != nil {
		return "", err
	}

	if taken == 0 {
		return base, nil
	}
	return fmt.Sprintf("%s%d", base, taken), nil
}

// validateAge enforces the hiring rules: employees are at least 18 both at
// their joined date and today, and the joined date follows the birth date.
func validateAge(dateOfBirth, joinedDate time.Time) error {
	if !joinedDate.After(dateOfBirth) {
		return apperrors.Validation("joined date must be later than date of birth")
	}
	if ageAt(dateOfBirth, joinedDate) < minimumAge {
		return apperrors.Validation("user must be at least 18 years old at the joined date")
	}
	if ageAt(dateOfBirth, time.Now()) < minimumAge {
		return apperrors.Validation("user must be at least 18 years old")
	}
	return nil
}

func ageAt(dateOfBirth, at time.Time) int {
	age := at.Year() - dateOfBirth.Year()
	if at.YearDay() < dateOfBirth.YearDay() {
		age--
	}
	return age
}
