package assignments

import (
	"testing"

	"assetdesk/internal/auditlog"
	"assetdesk/pkg/apperrors"
	"assetdesk/pkg/metadata"
	"assetdesk/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type stubRunner struct{}

func (stubRunner) InTransaction(fn func(tx *goqu.TxDatabase) error) error {
	return fn(nil)
}

type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) Insert(tx *goqu.TxDatabase, assignment models.Assignment) (int, error) {
	args := m.Called(tx, assignment)
	return args.Int(0), args.Error(1)
}

func (m *MockAssignmentRepository) GetAssignment(id int) (*models.Assignment, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) GetForUpdate(tx *goqu.TxDatabase, id int) (*models.Assignment, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) SetState(tx *goqu.TxDatabase, id int, state metadata.AssignmentState) error {
	args := m.Called(tx, id, state)
	return args.Error(0)
}

func (m *MockAssignmentRepository) SoftRemove(tx *goqu.TxDatabase, id int) error {
	args := m.Called(tx, id)
	return args.Error(0)
}

func (m *MockAssignmentRepository) CountActiveForUser(tx *goqu.TxDatabase, userID int, excludeAssignmentID int) (int, error) {
	args := m.Called(tx, userID, excludeAssignmentID)
	return args.Int(0), args.Error(1)
}

func (m *MockAssignmentRepository) CountActiveAssignmentsForUser(userID int) (int, error) {
	args := m.Called(userID)
	return args.Int(0), args.Error(1)
}

func (m *MockAssignmentRepository) Search(filter SearchConditions, location metadata.Location) ([]models.Assignment, int64, error) {
	args := m.Called(filter, location)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Assignment), args.Get(1).(int64), args.Error(2)
}

type MockAssetStore struct {
	mock.Mock
}

func (m *MockAssetStore) GetForUpdate(tx *goqu.TxDatabase, id int) (*models.Asset, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Asset), args.Error(1)
}

func (m *MockAssetStore) UpdateState(tx *goqu.TxDatabase, id int, state metadata.AssetState) error {
	args := m.Called(tx, id, state)
	return args.Error(0)
}

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetForUpdate(tx *goqu.TxDatabase, id int) (*models.User, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) UpdateIsAssigned(tx *goqu.TxDatabase, id int, assigned bool) error {
	args := m.Called(tx, id, assigned)
	return args.Error(0)
}

type stubAudit struct {
	entries []auditlog.Entry
}

func (s *stubAudit) Record(tx *goqu.TxDatabase, entry auditlog.Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func newTestService(repo *MockAssignmentRepository, assets *MockAssetStore, users *MockUserStore) *AssignmentService {
	return NewAssignmentService(repo, assets, users, new(stubAudit), stubRunner{}, zap.NewNop())
}

func availableAsset() *models.Asset {
	return &models.Asset{
		ID:        1,
		AssetCode: "LA000001",
		Name:      "Laptop HP 450",
		State:     metadata.AssetAvailable,
		Location:  metadata.LocationHanoi,
	}
}

func freeUser() *models.User {
	return &models.User{
		ID:       2,
		Username: "binhnv",
		Location: metadata.LocationHanoi,
	}
}

func admin() models.Actor {
	return models.Actor{ID: 9, Username: "admin", Role: metadata.RoleAdmin, Location: metadata.LocationHanoi}
}

func TestCreateAssignment(t *testing.T) {
	validRequest := models.CreateAssignmentRequest{
		AssetID:      1,
		AssignedToID: 2,
		AssignedDate: "2026-08-01",
	}

	t.Run("success", func(t *testing.T) {
		repo := new(MockAssignmentRepository)
		assets := new(MockAssetStore)
		users := new(MockUserStore)

		assets.On("GetForUpdate", mock.Anything, 1).Return(availableAsset(), nil)
		users.On("GetForUpdate", mock.Anything, 2).Return(freeUser(), nil)
		repo.On("Insert", mock.Anything, mock.Anything).Return(42, nil)
		assets.On("UpdateState", mock.Anything, 1, metadata.AssetAssigned).Return(nil)
		users.On("UpdateIsAssigned", mock.Anything, 2, true).Return(nil)

		assignment, err := newTestService(repo, assets, users).Create(validRequest, admin())

		assert.NoError(t, err)
		assert.Equal(t, 42, assignment.ID)
		assert.Equal(t, metadata.AssignmentWaitingForAcceptance, assignment.State)
		assert.Equal(t, "LA000001", assignment.AssetCode)
		assert.Equal(t, "binhnv", assignment.AssignedToUsername)
		assert.Equal(t, 9, assignment.AssignedByID)
		repo.AssertExpectations(t)
		assets.AssertExpectations(t)
		users.AssertExpectations(t)
	})

	t.Run("asset already assigned", func(t *testing.T) {
		repo := new(MockAssignmentRepository)
		assets := new(MockAssetStore)
		users := new(MockUserStore)

		asset := availableAsset()
		asset.State = metadata.AssetAssigned
		assets.On("GetForUpdate", mock.Anything, 1).Return(asset, nil)

		_, err := newTestService(repo, assets, users).Create(validRequest, admin())

		assert.EqualError(t, err, "Asset is already assigned for another user")
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
		repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("user already assigned", func(t *testing.T) {
		repo := new(MockAssignmentRepository)
		assets := new(MockAssetStore)
		users := new(MockUserStore)

		user := freeUser()
		user.IsAssigned = true
		assets.On("GetForUpdate", mock.Anything, 1).Return(availableAsset(), nil)
		users.On("GetForUpdate", mock.Anything, 2).Return(user, nil)

		_, err := newTestService(repo, assets, users).Create(validRequest, admin())

		assert.EqualError(t, err, "User is already assigned")
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
		repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("asset in another location", func(t *testing.T) {
		repo := new(MockAssignmentRepository)
		assets := new(MockAssetStore)
		users := new(MockUserStore)

		asset := availableAsset()
		asset.Location = metadata.LocationDanang
		assets.On("GetForUpdate", mock.Anything, 1).Return(asset, nil)
		users.On("GetForUpdate", mock.Anything, 2).Return(freeUser(), nil)

		_, err := newTestService(repo, assets, users).Create(validRequest, admin())

		assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	})

	t.Run("user in another location", func(t *testing.T) {
		repo := new(MockAssignmentRepository)
		assets := new(MockAssetStore)
		users := new(MockUserStore)

		user := freeUser()
		user.Location = metadata.LocationHCM
		assets.On("GetForUpdate", mock.Anything, 1).Return(availableAsset(), nil)
		users.On("GetForUpdate", mock.Anything, 2).Return(user, nil)

		_, err := newTestService(repo, assets, users).Create(validRequest, admin())

		assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	})

	t.Run("invalid assigned date", func(t *testing.T) {
		repo := new(MockAssignmentRepository)
		assets := new(MockAssetStore)
		users := new(MockUserStore)

		assets.On("GetForUpdate", mock.Anything, 1).Return(availableAsset(), nil)
		users.On("GetForUpdate", mock.Anything, 2).Return(freeUser(), nil)

		badDate := validRequest
		badDate.AssignedDate = "01-08-2026"
		_, err := newTestService(repo, assets, users).Create(badDate, admin())

		assert.EqualError(t, err, "assigned date is invalid")
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("asset not found", func(t *testing.T) {
		repo := new(MockAssignmentRepository)
		assets := new(MockAssetStore)
		users := new(MockUserStore)

		assets.On("GetForUpdate", mock.Anything, 1).Return(nil, apperrors.NotFound("asset"))

		_, err := newTestService(repo, assets, users).Create(validRequest, admin())

		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})
}

func TestRespondAssignment(t *testing.T) {
	pending := func() *models.Assignment {
		return &models.Assignment{
			ID:           7,
			AssetID:      1,
			AssignedToID: 2,
			State:        metadata.AssignmentWaitingForAcceptance,
			Location:     metadata.LocationHanoi,
		}
	}
	assignee := models.Actor{ID: 2, Username: "binhnv", Role: metadata.RoleUser, Location: metadata.LocationHanoi}

	t.Run("accept", func(t *testing.T) {
		repo := new(MockAssignmentRepository)
		assets := new(MockAssetStore)
		users := new(MockUserStore)

		repo.On("GetForUpdate", mock.Anything, 7).Return(pending(), nil)
		repo.On("SetState", mock.Anything, 7, metadata.AssignmentAccepted).Return(nil)

		assignment, err := newTestService(repo, assets, users).Respond(7, models.RespondAssignmentRequest{State: "ACCEPTED"}, assignee)

		assert.NoError(t, err)
		assert.Equal(t, metadata.AssignmentAccepted, assignment.State)
		assets.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("decline releases asset and user", func(t *testing.T) {
		repo := new(MockAssignmentRepository)
		assets := new(MockAssetStore)
		users := new(MockUserStore)

		repo.On("GetForUpdate", mock.Anything, 7).Return(pending(), nil)
		repo.On("SetState", mock.Anything, 7, metadata.AssignmentDeclined).Return(nil)
		assets.On("UpdateState", mock.Anything, 1, metadata.AssetAvailable).Return(nil)
		repo.On("CountActiveForUser", mock.Anything, 2, 7).Return(0, nil)
		users.On("UpdateIsAssigned", mock.Anything, 2, false).Return(nil)

		assignment, err := newTestService(repo, assets, users).Respond(7, models.RespondAssignmentRequest{State: "DECLINED"}, assignee)

		assert.NoError(t, err)
		assert.Equal(t, metadata.AssignmentDeclined, assignment.State)
		assets.AssertExpectations(t)
		users.AssertExpectations(t)
	})

	t.Run("only assignee may respond", func(t *testing.T) {
		repo := new(MockAssignmentRepository)
		assets := new(MockAssetStore)
		users := new(MockUserStore)

		repo.On("GetForUpdate", mock.Anything, 7).Return(pending(), nil)

		stranger := models.Actor{ID: 3, Role: metadata.RoleUser, Location: metadata.LocationHanoi}
		_, err := newTestService(repo, assets, users).Respond(7, models.RespondAssignmentRequest{State: "ACCEPTED"}, stranger)

		assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	})

	t.Run("already responded", func(t *testing.T) {
		repo := new(MockAssignmentRepository)
		assets := new(MockAssetStore)
		users := new(MockUserStore)

		accepted := pending()
		accepted.State = metadata.AssignmentAccepted
		repo.On("GetForUpdate", mock.Anything, 7).Return(accepted, nil)

		_, err := newTestService(repo, assets, users).Respond(7, models.RespondAssignmentRequest{State: "DECLINED"}, assignee)

		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	})

	t.Run("invalid response state", func(t *testing.T) {
		repo := new(MockAssignmentRepository)
		assets := new(MockAssetStore)
		users := new(MockUserStore)

		_, err := newTestService(repo, assets, users).Respond(7, models.RespondAssignmentRequest{State: "WAITING_FOR_ACCEPTANCE"}, assignee)

		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})
}

func TestFindAllAssignments(t *testing.T) {
	t.Run("defaults and pagination math", func(t *testing.T) {
		repo := new(MockAssignmentRepository)
		assets := new(MockAssetStore)
		users := new(MockUserStore)

		repo.On("Search", mock.MatchedBy(func(c SearchConditions) bool {
			return c.Offset == 0 && c.Limit == 20
		}), metadata.LocationHanoi).Return([]models.Assignment{{ID: 1}}, int64(45), nil)

		result, err := newTestService(repo, assets, users).FindAll(models.AssignmentFilter{}, admin())

		assert.NoError(t, err)
		assert.Equal(t, 1, result.Page)
		assert.Equal(t, 20, result.Limit)
		assert.Equal(t, int64(45), result.Total)
		assert.Equal(t, 3, result.TotalPages)
	})

	t.Run("invalid assigned date filter", func(t *testing.T) {
		repo := new(MockAssignmentRepository)
		assets := new(MockAssetStore)
		users := new(MockUserStore)

		_, err := newTestService(repo, assets, users).FindAll(models.AssignmentFilter{AssignedDate: "not-a-date"}, admin())

		assert.EqualError(t, err, "assigned date is invalid")
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	})

	t.Run("invalid state filter", func(t *testing.T) {
		repo := new(MockAssignmentRepository)
		assets := new(MockAssetStore)
		users := new(MockUserStore)

		_, err := newTestService(repo, assets, users).FindAll(models.AssignmentFilter{States: []string{"RETURNED"}}, admin())

		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("multi word query splits into words", func(t *testing.T) {
		repo := new(MockAssignmentRepository)
		assets := new(MockAssetStore)
		users := new(MockUserStore)

		repo.On("Search", mock.MatchedBy(func(c SearchConditions) bool {
			return len(c.QueryWords) == 2 && c.QueryWords[0] == "laptop" && c.QueryWords[1] == "hp"
		}), metadata.LocationHanoi).Return([]models.Assignment{}, int64(0), nil)

		_, err := newTestService(repo, assets, users).FindAll(models.AssignmentFilter{Query: "laptop hp"}, admin())

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestAssignmentAuditTrail(t *testing.T) {
	t.Run("create is recorded", func(t *testing.T) {
		repo := new(MockAssignmentRepository)
		assets := new(MockAssetStore)
		users := new(MockUserStore)
		audit := new(stubAudit)

		assets.On("GetForUpdate", mock.Anything, 1).Return(availableAsset(), nil)
		users.On("GetForUpdate", mock.Anything, 2).Return(freeUser(), nil)
		repo.On("Insert", mock.Anything, mock.Anything).Return(42, nil)
		assets.On("UpdateState", mock.Anything, 1, metadata.AssetAssigned).Return(nil)
		users.On("UpdateIsAssigned", mock.Anything, 2, true).Return(nil)

		service := NewAssignmentService(repo, assets, users, audit, stubRunner{}, zap.NewNop())
		_, err := service.Create(models.CreateAssignmentRequest{
			AssetID:      1,
			AssignedToID: 2,
			AssignedDate: "2026-08-01",
		}, admin())

		assert.NoError(t, err)
		assert.Equal(t, []auditlog.Entry{{
			EntityType: auditlog.EntityAssignment,
			EntityID:   42,
			Action:     auditlog.ActionCreate,
			ActorID:    9,
		}}, audit.entries)
	})

	t.Run("decline is recorded", func(t *testing.T) {
		repo := new(MockAssignmentRepository)
		assets := new(MockAssetStore)
		users := new(MockUserStore)
		audit := new(stubAudit)

		pending := &models.Assignment{
			ID:           7,
			AssetID:      1,
			AssignedToID: 2,
			State:        metadata.AssignmentWaitingForAcceptance,
			Location:     metadata.LocationHanoi,
		}
		repo.On("GetForUpdate", mock.Anything, 7).Return(pending, nil)
		repo.On("SetState", mock.Anything, 7, metadata.AssignmentDeclined).Return(nil)
		assets.On("UpdateState", mock.Anything, 1, metadata.AssetAvailable).Return(nil)
		repo.On("CountActiveForUser", mock.Anything, 2, 7).Return(0, nil)
		users.On("UpdateIsAssigned", mock.Anything, 2, false).Return(nil)

		service := NewAssignmentService(repo, assets, users, audit, stubRunner{}, zap.NewNop())
		assignee := models.Actor{ID: 2, Username: "binhnv", Role: metadata.RoleUser, Location: metadata.LocationHanoi}
		_, err := service.Respond(7, models.RespondAssignmentRequest{State: "DECLINED"}, assignee)

		assert.NoError(t, err)
		assert.Equal(t, []auditlog.Entry{{
			EntityType: auditlog.EntityAssignment,
			EntityID:   7,
			Action:     auditlog.ActionDecline,
			ActorID:    2,
		}}, audit.entries)
	})
}
