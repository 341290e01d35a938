package assignments

import (
	"time"

	"assetdesk/internal/auditlog"
	"assetdesk/internal/repository"
	"assetdesk/pkg/apperrors"
	"assetdesk/pkg/metadata"
	"assetdesk/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"go.uber.org/zap"
)

// AssetStore and UserStore are the registry capabilities the lifecycle
// needs. Only this package and the return lifecycle mutate asset state and
// the is_assigned flag.
type AssetStore interface {
	GetForUpdate(tx *goqu.TxDatabase, id int) (*models.Asset, error)
	UpdateState(tx *goqu.TxDatabase, id int, state metadata.AssetState) error
}

type UserStore interface {
	GetForUpdate(tx *goqu.TxDatabase, id int) (*models.User, error)
	UpdateIsAssigned(tx *goqu.TxDatabase, id int, assigned bool) error
}

type AssignmentService struct {
	repo   AssignmentRepository
	assets AssetStore
	users  UserStore
	audit  auditlog.Recorder
	runner repository.TransactionRunner
	log    *zap.Logger
}

func NewAssignmentService(repo AssignmentRepository, assets AssetStore, users UserStore, audit auditlog.Recorder, runner repository.TransactionRunner, log *zap.Logger) *AssignmentService {
	return &AssignmentService{
		repo:   repo,
		assets: assets,
		users:  users,
		audit:  audit,
		runner: runner,
		log:    log,
	}
}

// Create validates the preconditions in their fixed order and persists the
// assignment together with the asset/user flag flips in one transaction.
// The row locks taken by GetForUpdate serialize concurrent creates on the
// same asset or user, so both can never pass the availability checks.
func (s *AssignmentService) Create(req models.CreateAssignmentRequest, actor models.Actor) (*models.Assignment, error) {
	var assignment *models.Assignment

	err := s.runner.InTransaction(func(tx *goqu.TxDatabase) error {
		asset, err := s.assets.GetForUpdate(tx, req.AssetID)
		if err != nil {
			return err
		}
		if asset.State == metadata.AssetAssigned {
			return apperrors.Conflict("Asset is already assigned for another user")
		}
		if asset.State != metadata.AssetAvailable {
			return apperrors.Conflict("Asset is not available")
		}

		user, err := s.users.GetForUpdate(tx, req.AssignedToID)
		if err != nil {
			return err
		}
		if user.IsAssigned {
			return apperrors.Conflict("User is already assigned")
		}

		if asset.Location != actor.Location {
			return apperrors.Forbidden("asset does not belong to your location")
		}
		if user.Location != actor.Location {
			return apperrors.Forbidden("user does not belong to your location")
		}

		assignedDate, err := time.Parse("2006-01-02", req.AssignedDate)
		if err != nil {
			return apperrors.Validation("assigned date is invalid")
		}

		assignment = &models.Assignment{
			AssetID:            asset.ID,
			AssetCode:          asset.AssetCode,
			AssetName:          asset.Name,
			AssignedByID:       actor.ID,
			AssignedToID:       user.ID,
			AssignedToUsername: user.Username,
			AssignedDate:       assignedDate,
			Note:               req.Note,
			State:              metadata.AssignmentWaitingForAcceptance,
			Location:           actor.Location,
		}

		id, err := s.repo.Insert(tx, *assignment)
		if err != nil {
			return err
		}
		assignment.ID = id

		if err := s.assets.UpdateState(tx, asset.ID, metadata.AssetAssigned); err != nil {
			return err
		}
		if err := s.users.UpdateIsAssigned(tx, user.ID, true); err != nil {
			return err
		}

		return s.audit.Record(tx, auditlog.Entry{
			EntityType: auditlog.EntityAssignment,
			EntityID:   id,
			Action:     auditlog.ActionCreate,
			ActorID:    actor.ID,
		})
	})

	if err != nil {
		return nil, err
	}

	s.log.Info("assignment created",
		zap.Int("assignment_id", assignment.ID),
		zap.Int("asset_id", assignment.AssetID),
		zap.Int("assigned_to_id", assignment.AssignedToID),
	)

	return assignment, nil
}

// Respond lets the assignee accept or decline a pending assignment.
// Declining releases the asset and recomputes the assignee's flag.
func (s *AssignmentService) Respond(id int, req models.RespondAssignmentRequest, actor models.Actor) (*models.Assignment, error) {
	state, err := metadata.NewAssignmentState(req.State)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if state != metadata.AssignmentAccepted && state != metadata.AssignmentDeclined {
		return nil, apperrors.Validation("response state must be ACCEPTED or DECLINED")
	}

	var assignment *models.Assignment

	err = s.runner.InTransaction(func(tx *goqu.TxDatabase) error {
		current, err := s.repo.GetForUpdate(tx, id)
		if err != nil {
			return err
		}
		if current.IsRemoved {
			return apperrors.NotFound("assignment")
		}
		if current.AssignedToID != actor.ID {
			return apperrors.Forbidden("only the assignee can respond to an assignment")
		}
		if current.State != metadata.AssignmentWaitingForAcceptance {
			return apperrors.Conflict("assignment has already been responded to")
		}

		if err := s.repo.SetState(tx, id, state); err != nil {
			return err
		}

		if state == metadata.AssignmentDeclined {
			if err := s.assets.UpdateState(tx, current.AssetID, metadata.AssetAvailable); err != nil {
				return err
			}

			remaining, err := s.repo.CountActiveForUser(tx, current.AssignedToID, current.ID)
			if err != nil {
				return err
			}
			if err := s.users.UpdateIsAssigned(tx, current.AssignedToID, remaining > 0); err != nil {
				return err
			}
		}

		action := auditlog.ActionAccept
		if state == metadata.AssignmentDeclined {
			action = auditlog.ActionDecline
		}
		if err := s.audit.Record(tx, auditlog.Entry{
			EntityType: auditlog.EntityAssignment,
			EntityID:   current.ID,
			Action:     action,
			ActorID:    actor.ID,
		}); err != nil {
			return err
		}

		current.State = state
		assignment = current
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.log.Info("assignment responded",
		zap.Int("assignment_id", assignment.ID),
		zap.String("state", string(assignment.State)),
	)

	return assignment, nil
}

// FindAll pages through the assignments visible at the acting user's
// location.
func (s *AssignmentService) FindAll(filter models.AssignmentFilter, actor models.Actor) (*models.AssignmentPage, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	limit := filter.Limit
	if limit == 0 {
		limit = models.DefaultPageLimit
	}
	if limit < 0 {
		return nil, apperrors.Validation("limit must be greater than zero")
	}

	conditions := SearchConditions{
		QueryWords: queryWords(filter.Query),
		Offset:     uint((page - 1) * limit),
		Limit:      uint(limit),
	}

	for _, state := range filter.States {
		if _, err := metadata.NewAssignmentState(state); err != nil {
			return nil, apperrors.Validation(err.Error())
		}
		conditions.States = append(conditions.States, state)
	}

	if filter.AssignedDate != "" {
		assignedDate, err := time.Parse("2006-01-02", filter.AssignedDate)
		if err != nil {
			return nil, apperrors.Validation("assigned date is invalid")
		}
		conditions.AssignedDate = &assignedDate
	}

	data, total, err := s.repo.Search(conditions, actor.Location)
	if err != nil {
		return nil, err
	}

	return &models.AssignmentPage{
		PageInfo: models.NewPageInfo(page, limit, total),
		Data:     data,
	}, nil
}

func (s *AssignmentService) FindOne(id int, actor models.Actor) (*models.Assignment, error) {
	assignment, err := s.repo.GetAssignment(id)
	if err != nil {
		return nil, err
	}
	if assignment.IsRemoved || assignment.Location != actor.Location {
		return nil, apperrors.NotFound("assignment")
	}
	return assignment, nil
}
