package users

import (
	"testing"
	"time"

	"assetdesk/pkg/apperrors"
	"assetdesk/pkg/metadata"
	"assetdesk/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type stubRunner struct{}

func (stubRunner) InTransaction(fn func(tx *goqu.TxDatabase) error) error {
	return fn(nil)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) PersistUser(tx *goqu.TxDatabase, rec goqu.Record) (int, error) {
	args := m.Called(tx, rec)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) SetStaffCode(tx *goqu.TxDatabase, id int, staffCode string) error {
	args := m.Called(tx, id, staffCode)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateUser(id int, rec goqu.Record) error {
	args := m.Called(id, rec)
	return args.Error(0)
}

func (m *MockUserRepository) GetUser(id int) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUsersByLocation(location metadata.Location) ([]models.User, error) {
	args := m.Called(location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) GetForUpdate(tx *goqu.TxDatabase, id int) (*models.User, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateIsAssigned(tx *goqu.TxDatabase, id int, assigned bool) error {
	args := m.Called(tx, id, assigned)
	return args.Error(0)
}

func (m *MockUserRepository) CountUsernamesWithPrefix(base string) (int, error) {
	args := m.Called(base)
	return args.Int(0), args.Error(1)
}

type MockAssignmentCounter struct {
	mock.Mock
}

func (m *MockAssignmentCounter) CountActiveAssignmentsForUser(userID int) (int, error) {
	args := m.Called(userID)
	return args.Int(0), args.Error(1)
}

func adminActor() models.Actor {
	return models.Actor{ID: 1, Username: "admin", Role: metadata.RoleAdmin, Location: metadata.LocationHanoi}
}

func validCreateRequest() models.CreateUserRequest {
	return models.CreateUserRequest{
		FirstName:   "Binh",
		LastName:    "Nguyen Van",
		Gender:      "MALE",
		Role:        "USER",
		DateOfBirth: "2000-01-20",
		JoinedDate:  "2024-03-04",
	}
}

func TestCreateUser(t *testing.T) {
	t.Run("derives credentials and staff code", func(t *testing.T) {
		repo := new(MockUserRepository)
		counter := new(MockAssignmentCounter)
		service := NewUserService(repo, counter, stubRunner{}, zap.NewNop())

		repo.On("CountUsernamesWithPrefix", "binhnv").Return(0, nil)
		repo.On("PersistUser", mock.Anything, mock.MatchedBy(func(rec goqu.Record) bool {
			return rec["username"] == "binhnv" && rec["location"] == "HANOI" && rec["is_assigned"] == false
		})).Return(12, nil)
		repo.On("SetStaffCode", mock.Anything, 12, "SD0012").Return(nil)

		created, err := service.CreateUser(validCreateRequest(), adminActor())

		assert.NoError(t, err)
		assert.Equal(t, "SD0012", created.StaffCode)
		assert.Equal(t, "binhnv", created.Username)
		assert.Equal(t, "binhnv@20012000", created.RawPassword)
		assert.Equal(t, metadata.LocationHanoi, created.Location)
		repo.AssertExpectations(t)
	})

	t.Run("staff code is stamped in the insert transaction, never inserted", func(t *testing.T) {
		repo := new(MockUserRepository)
		service := NewUserService(repo, new(MockAssignmentCounter), stubRunner{}, zap.NewNop())

		repo.On("CountUsernamesWithPrefix", "binhnv").Return(0, nil)
		repo.On("PersistUser", mock.Anything, mock.MatchedBy(func(rec goqu.Record) bool {
			_, present := rec["staff_code"]
			return !present
		})).Return(12, nil)
		repo.On("SetStaffCode", mock.Anything, 12, "SD0012").Return(nil)

		_, err := service.CreateUser(validCreateRequest(), adminActor())

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("failed insert never stamps a staff code", func(t *testing.T) {
		repo := new(MockUserRepository)
		service := NewUserService(repo, new(MockAssignmentCounter), stubRunner{}, zap.NewNop())

		repo.On("CountUsernamesWithPrefix", "binhnv").Return(0, nil)
		repo.On("PersistUser", mock.Anything, mock.Anything).Return(0, assert.AnError)

		_, err := service.CreateUser(validCreateRequest(), adminActor())

		assert.Error(t, err)
		repo.AssertNotCalled(t, "SetStaffCode", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stores a bcrypt hash of the derived password", func(t *testing.T) {
		repo := new(MockUserRepository)
		service := NewUserService(repo, new(MockAssignmentCounter), stubRunner{}, zap.NewNop())

		var storedHash string
		repo.On("CountUsernamesWithPrefix", "binhnv").Return(0, nil)
		repo.On("PersistUser", mock.Anything, mock.MatchedBy(func(rec goqu.Record) bool {
			storedHash, _ = rec["password_hash"].(string)
			return storedHash != ""
		})).Return(12, nil)
		repo.On("SetStaffCode", mock.Anything, 12, "SD0012").Return(nil)

		_, err := service.CreateUser(validCreateRequest(), adminActor())

		assert.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("binhnv@20012000")))
	})

	t.Run("appends suffix when username is taken", func(t *testing.T) {
		repo := new(MockUserRepository)
		service := NewUserService(repo, new(MockAssignmentCounter), stubRunner{}, zap.NewNop())

		repo.On("CountUsernamesWithPrefix", "binhnv").Return(2, nil)
		repo.On("PersistUser", mock.Anything, mock.MatchedBy(func(rec goqu.Record) bool {
			return rec["username"] == "binhnv2"
		})).Return(13, nil)
		repo.On("SetStaffCode", mock.Anything, 13, "SD0013").Return(nil)

		created, err := service.CreateUser(validCreateRequest(), adminActor())

		assert.NoError(t, err)
		assert.Equal(t, "binhnv2", created.Username)
	})

	t.Run("rejects a minor", func(t *testing.T) {
		service := NewUserService(new(MockUserRepository), new(MockAssignmentCounter), stubRunner{}, zap.NewNop())

		req := validCreateRequest()
		req.DateOfBirth = "2015-01-01"
		_, err := service.CreateUser(req, adminActor())

		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("rejects joined date before date of birth", func(t *testing.T) {
		service := NewUserService(new(MockUserRepository), new(MockAssignmentCounter), stubRunner{}, zap.NewNop())

		req := validCreateRequest()
		req.JoinedDate = "1999-01-01"
		_, err := service.CreateUser(req, adminActor())

		assert.EqualError(t, err, "joined date must be later than date of birth")
	})

	t.Run("rejects under 18 at joined date", func(t *testing.T) {
		service := NewUserService(new(MockUserRepository), new(MockAssignmentCounter), stubRunner{}, zap.NewNop())

		req := validCreateRequest()
		req.JoinedDate = "2016-06-01"
		_, err := service.CreateUser(req, adminActor())

		assert.EqualError(t, err, "user must be at least 18 years old at the joined date")
	})

	t.Run("rejects unknown gender", func(t *testing.T) {
		service := NewUserService(new(MockUserRepository), new(MockAssignmentCounter), stubRunner{}, zap.NewNop())

		req := validCreateRequest()
		req.Gender = "UNKNOWN"
		_, err := service.CreateUser(req, adminActor())

		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})
}

func TestGetUser(t *testing.T) {
	t.Run("other location reads as missing", func(t *testing.T) {
		repo := new(MockUserRepository)
		service := NewUserService(repo, new(MockAssignmentCounter), stubRunner{}, zap.NewNop())

		repo.On("GetUser", 5).Return(&models.User{ID: 5, Location: metadata.LocationDanang}, nil)

		_, err := service.GetUser(5, adminActor())

		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})
}

func TestUpdateUser(t *testing.T) {
	existing := func() *models.User {
		return &models.User{
			ID:          5,
			Location:    metadata.LocationHanoi,
			DateOfBirth: time.Date(2000, 1, 20, 0, 0, 0, 0, time.UTC),
			JoinedDate:  time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		}
	}

	t.Run("revalidates age against the stored joined date", func(t *testing.T) {
		repo := new(MockUserRepository)
		service := NewUserService(repo, new(MockAssignmentCounter), stubRunner{}, zap.NewNop())

		repo.On("GetUser", 5).Return(existing(), nil)

		dob := "2010-01-01"
		_, err := service.UpdateUser(5, models.UpdateUserRequest{DateOfBirth: &dob}, adminActor())

		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		repo.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
	})

	t.Run("no changes returns the stored user", func(t *testing.T) {
		repo := new(MockUserRepository)
		service := NewUserService(repo, new(MockAssignmentCounter), stubRunner{}, zap.NewNop())

		repo.On("GetUser", 5).Return(existing(), nil)

		user, err := service.UpdateUser(5, models.UpdateUserRequest{}, adminActor())

		assert.NoError(t, err)
		assert.Equal(t, 5, user.ID)
		repo.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
	})
}

func TestDisableUser(t *testing.T) {
	t.Run("blocked while assignments are active", func(t *testing.T) {
		repo := new(MockUserRepository)
		counter := new(MockAssignmentCounter)
		service := NewUserService(repo, counter, stubRunner{}, zap.NewNop())

		repo.On("GetUser", 5).Return(&models.User{ID: 5, Location: metadata.LocationHanoi}, nil)
		counter.On("CountActiveAssignmentsForUser", 5).Return(2, nil)

		err := service.DisableUser(5, adminActor())

		assert.EqualError(t, err, "cannot disable a user with active assignments")
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
		repo.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
	})

	t.Run("disables when nothing is held", func(t *testing.T) {
		repo := new(MockUserRepository)
		counter := new(MockAssignmentCounter)
		service := NewUserService(repo, counter, stubRunner{}, zap.NewNop())

		repo.On("GetUser", 5).Return(&models.User{ID: 5, Location: metadata.LocationHanoi}, nil)
		counter.On("CountActiveAssignmentsForUser", 5).Return(0, nil)
		repo.On("UpdateUser", 5, goqu.Record{"is_disabled": true}).Return(nil)

		err := service.DisableUser(5, adminActor())

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})
}
