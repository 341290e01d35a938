package returns

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

type AssignmentStore interface {
	GetForUpdate(tx *goqu.TxDatabase, id int) (*models.Assignment, error)
	SoftRemove(tx *goqu.TxDatabase, id int) error
	CountActiveForUser(tx *goqu.TxDatabase, userID int, excludeAssignmentID int) (int, error)
}

type AssetStore interface {
	UpdateState(tx *goqu.TxDatabase, id int, state metadata.AssetState) error
}

type UserStore interface {
	UpdateIsAssigned(tx *goqu.TxDatabase, id int, assigned bool) error
}

type ReturnService struct {
	repo        ReturnRepository
	assignments AssignmentStore
	assets      AssetStore
	users       UserStore
	audit       auditlog.Recorder
	runner      repository.TransactionRunner
	log         *zap.Logger
	now         func() time.Time
}

func NewReturnService(repo ReturnRepository, assignments AssignmentStore, assets AssetStore, users UserStore, audit auditlog.Recorder, runner repository.TransactionRunner, log *zap.Logger) *ReturnService {
	return &ReturnService{
		repo:        repo,
		assignments: assignments,
		assets:      assets,
		users:       users,
		audit:       audit,
		runner:      runner,
		log:         log,
		now:         time.Now,
	}
}

// Create opens a return request against an accepted assignment. Every check
// shares one transaction with the insert. The assignment row is locked
// before the duplicate count, so concurrent creates for the same assignment
// serialize on the lock and the second one sees the first one's insert; for
// a single caller a duplicate still surfaces before any other conflict.
func (s *ReturnService) Create(req models.CreateRequestReturnRequest, actor models.Actor) (*models.RequestReturn, error) {
	var requestReturn *models.RequestReturn

	err := s.runner.InTransaction(func(tx *goqu.TxDatabase) error {
		assignment, err := s.assignments.GetForUpdate(tx, req.AssignmentID)
		if err != nil {
			return err
		}

		exists, err := s.repo.ActiveExistsForAssignment(tx, req.AssignmentID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.Conflict("a return request for this assignment already exists")
		}

		if assignment.IsRemoved {
			return apperrors.NotFound("assignment")
		}
		if assignment.Location != actor.Location {
			return apperrors.Forbidden("assignment does not belong to your location")
		}
		if assignment.State != metadata.AssignmentAccepted {
			return apperrors.Conflict("assignment has not been accepted")
		}
		if assignment.AssetID != req.AssetID {
			return apperrors.Validation("asset does not match the assignment")
		}

		requestReturn = &models.RequestReturn{
			AssetID:       assignment.AssetID,
			AssignmentID:  assignment.ID,
			RequestedByID: actor.ID,
			AssignedDate:  assignment.AssignedDate,
			State:         metadata.ReturnWaitingForReturning,
			Location:      assignment.Location,
		}

		id, err := s.repo.Insert(tx, *requestReturn)
		if err != nil {
			return err
		}
		requestReturn.ID = id

		return s.audit.Record(tx, auditlog.Entry{
			EntityType: auditlog.EntityRequestReturn,
			EntityID:   id,
			Action:     auditlog.ActionCreate,
			ActorID:    actor.ID,
		})
	})

	if err != nil {
		return nil, err
	}

	s.log.Info("return request created",
		zap.Int("request_return_id", requestReturn.ID),
		zap.Int("assignment_id", requestReturn.AssignmentID),
	)

	return requestReturn, nil
}

// Cancel soft-removes a pending return request. Asset, user and assignment
// are untouched; a cancelled request never happened from their perspective.
func (s *ReturnService) Cancel(id int, actor models.Actor) error {
	err := s.runner.InTransaction(func(tx *goqu.TxDatabase) error {
		requestReturn, err := s.fetchPending(tx, id, actor.Location)
		if err != nil {
			return err
		}

		if err := s.repo.SoftRemove(tx, requestReturn.ID); err != nil {
			return err
		}

		return s.audit.Record(tx, auditlog.Entry{
			EntityType: auditlog.EntityRequestReturn,
			EntityID:   requestReturn.ID,
			Action:     auditlog.ActionCancel,
			ActorID:    actor.ID,
		})
	})

	if err != nil {
		return err
	}

	s.log.Info("return request cancelled", zap.Int("request_return_id", id))
	return nil
}

// Complete finishes the return as one consistent unit: the request is
// stamped COMPLETED, the asset becomes available, the assignment is
// soft-removed and the assignee's flag is recomputed.
func (s *ReturnService) Complete(id int, actor models.Actor) (*models.RequestReturn, error) {
	var requestReturn *models.RequestReturn

	err := s.runner.InTransaction(func(tx *goqu.TxDatabase) error {
		pending, err := s.fetchPending(tx, id, actor.Location)
		if err != nil {
			return err
		}

		assignment, err := s.assignments.GetForUpdate(tx, pending.AssignmentID)
		if err != nil {
			return err
		}

		returnedDate := s.now()
		if err := s.repo.Complete(tx, pending.ID, actor.ID, returnedDate); err != nil {
			return err
		}
		if err := s.assets.UpdateState(tx, pending.AssetID, metadata.AssetAvailable); err != nil {
			return err
		}
		if err := s.assignments.SoftRemove(tx, assignment.ID); err != nil {
			return err
		}

		remaining, err := s.assignments.CountActiveForUser(tx, assignment.AssignedToID, assignment.ID)
		if err != nil {
			return err
		}
		if err := s.users.UpdateIsAssigned(tx, assignment.AssignedToID, remaining > 0); err != nil {
			return err
		}

		pending.State = metadata.ReturnCompleted
		pending.ReturnedDate = &returnedDate
		pending.AcceptedByID = &actor.ID
		requestReturn = pending

		return s.audit.Record(tx, auditlog.Entry{
			EntityType: auditlog.EntityRequestReturn,
			EntityID:   pending.ID,
			Action:     auditlog.ActionComplete,
			ActorID:    actor.ID,
		})
	})

	if err != nil {
		return nil, err
	}

	s.log.Info("return request completed",
		zap.Int("request_return_id", requestReturn.ID),
		zap.Int("asset_id", requestReturn.AssetID),
	)

	return requestReturn, nil
}

// FindAll pages through the return requests visible at the acting user's
// location. Persistence failures surface as validation failures here, so
// a bad filter and a failed lookup read the same to the client.
func (s *ReturnService) FindAll(filter models.RequestReturnFilter, actor models.Actor) (*models.RequestReturnPage, error) {
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
		Offset: uint((page - 1) * limit),
		Limit:  uint(limit),
	}

	for _, state := range filter.States {
		if _, err := metadata.NewReturnState(state); err != nil {
			return nil, apperrors.Validation(err.Error())
		}
		conditions.States = append(conditions.States, state)
	}

	if filter.ReturnedDate != "" {
		returnedDate, err := time.Parse("2006-01-02", filter.ReturnedDate)
		if err != nil {
			return nil, apperrors.Validation("returned date is invalid")
		}
		conditions.ReturnedDate = &returnedDate
	}

	data, total, err := s.repo.Search(conditions, actor.Location)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	responses := make([]models.RequestReturnResponse, 0, len(data))
	for i := range data {
		responses = append(responses, data[i].TransformToResponse())
	}

	return &models.RequestReturnPage{
		PageInfo: models.NewPageInfo(page, limit, total),
		Data:     responses,
	}, nil
}

func (s *ReturnService) FindOne(id int, actor models.Actor) (*models.RequestReturn, error) {
	requestReturn, err := s.repo.GetRequestReturn(id)
	if err != nil {
		return nil, err
	}

	if requestReturn.IsRemoved || requestReturn.Location != actor.Location {
		return nil, apperrors.NotFound("return request")
	}

	return requestReturn, nil
}

// fetchPending loads and locks a return request that is still open: it
// exists at the caller's location, has not been cancelled and has not been
// completed. Cancel and Complete share these preconditions.
func (s *ReturnService) fetchPending(tx *goqu.TxDatabase, id int, location metadata.Location) (*models.RequestReturn, error) {
	requestReturn, err := s.repo.GetForUpdate(tx, id)
	if err != nil {
		return nil, err
	}

	if requestReturn.Location != location {
		return nil, apperrors.NotFound("return request")
	}
	if requestReturn.IsRemoved {
		return nil, apperrors.Conflict("return request has already been cancelled")
	}
	if requestReturn.State != metadata.ReturnWaitingForReturning {
		return nil, apperrors.Conflict("return request has already been completed")
	}

	return requestReturn, nil
}
