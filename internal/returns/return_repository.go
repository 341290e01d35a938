package returns

import (
	"fmt"
	"time"

	"assetdesk/internal/repository"
	"assetdesk/pkg/apperrors"
	"assetdesk/pkg/metadata"
	"assetdesk/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

type ReturnRepository interface {
	Insert(tx *goqu.TxDatabase, requestReturn models.RequestReturn) (int, error)
	GetRequestReturn(id int) (*models.RequestReturn, error)
	GetForUpdate(tx *goqu.TxDatabase, id int) (*models.RequestReturn, error)
	ActiveExistsForAssignment(tx *goqu.TxDatabase, assignmentID int) (bool, error)
	Complete(tx *goqu.TxDatabase, id int, acceptedByID int, returnedDate time.Time) error
	SoftRemove(tx *goqu.TxDatabase, id int) error
	Search(filter SearchConditions, location metadata.Location) ([]models.RequestReturn, int64, error)
}

// SearchConditions is the validated findRequestReturns filter.
type SearchConditions struct {
	States       []string
	ReturnedDate *time.Time
	Offset       uint
	Limit        uint
}

type returnRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) ReturnRepository {
	return &returnRepository{repository: r}
}

const requestReturnsTable = "request_returns"

var requestReturnColumns = []interface{}{
	goqu.I("id").As("request_return_id"),
	"asset_id", "assignment_id", "requested_by_id", "accepted_by_id",
	"assigned_date", "returned_date", "state", "location", "is_removed",
}

func (r *returnRepository) Insert(tx *goqu.TxDatabase, requestReturn models.RequestReturn) (int, error) {
	var id int

	query := tx.Insert(requestReturnsTable).
		Rows(goqu.Record{
			"asset_id":        requestReturn.AssetID,
			"assignment_id":   requestReturn.AssignmentID,
			"requested_by_id": requestReturn.RequestedByID,
			"assigned_date":   requestReturn.AssignedDate,
			"state":           string(requestReturn.State),
			"location":        string(requestReturn.Location),
			"is_removed":      false,
		}).
		Returning("id")

	if _, err := query.Executor().ScanVal(&id); err != nil {
		return 0, apperrors.WrapDBError(err)
	}

	return id, nil
}

func (r *returnRepository) GetRequestReturn(id int) (*models.RequestReturn, error) {
	var record models.FlatRequestReturnRecord

	found, err := r.repository.GoquDBWrapper.
		Select(requestReturnColumns...).
		From(requestReturnsTable).
		Where(goqu.Ex{"id": id}).
		Executor().
		ScanStruct(&record)

	if err != nil {
		return nil, fmt.Errorf("unable to select return request from database: %w", err)
	}
	if !found {
		return nil, apperrors.NotFound("return request")
	}

	requestReturn := record.TransformToRequestReturn()
	return &requestReturn, nil
}

func (r *returnRepository) GetForUpdate(tx *goqu.TxDatabase, id int) (*models.RequestReturn, error) {
	var record models.FlatRequestReturnRecord

	found, err := tx.
		Select(requestReturnColumns...).
		From(requestReturnsTable).
		Where(goqu.Ex{"id": id}).
		ForUpdate(exp.Wait).
		Executor().
		ScanStruct(&record)

	if err != nil {
		return nil, fmt.Errorf("unable to lock return request row: %w", err)
	}
	if !found {
		return nil, apperrors.NotFound("return request")
	}

	requestReturn := record.TransformToRequestReturn()
	return &requestReturn, nil
}

// ActiveExistsForAssignment is the duplicate-request guard: a live return
// request already referencing the assignment blocks a second one.
func (r *returnRepository) ActiveExistsForAssignment(tx *goqu.TxDatabase, assignmentID int) (bool, error) {
	var count int

	_, err := tx.
		Select(goqu.COUNT("*")).
		From(requestReturnsTable).
		Where(goqu.Ex{"assignment_id": assignmentID, "is_removed": false}).
		Where(goqu.C("state").Neq(string(metadata.ReturnCompleted))).
		Executor().
		ScanVal(&count)

	if err != nil {
		return false, fmt.Errorf("failed to check existing return requests: %w", err)
	}

	return count > 0, nil
}

func (r *returnRepository) Complete(tx *goqu.TxDatabase, id int, acceptedByID int, returnedDate time.Time) error {
	result, err := tx.Update(requestReturnsTable).
		Set(goqu.Record{
			"state":          string(metadata.ReturnCompleted),
			"accepted_by_id": acceptedByID,
			"returned_date":  returnedDate,
		}).
		Where(goqu.Ex{"id": id, "is_removed": false}).
		Executor().
		Exec()

	if err != nil {
		return fmt.Errorf("failed to complete return request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFound("return request")
	}

	return nil
}

func (r *returnRepository) SoftRemove(tx *goqu.TxDatabase, id int) error {
	result, err := tx.Update(requestReturnsTable).
		Set(goqu.Record{"is_removed": true}).
		Where(goqu.Ex{"id": id}).
		Executor().
		Exec()

	if err != nil {
		return fmt.Errorf("failed to cancel return request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFound("return request")
	}

	return nil
}

func (r *returnRepository) Search(filter SearchConditions, location metadata.Location) ([]models.RequestReturn, int64, error) {
	base := r.repository.GoquDBWrapper.
		From(requestReturnsTable).
		Where(goqu.Ex{"location": string(location), "is_removed": false})

	if len(filter.States) > 0 {
		base = base.Where(goqu.C("state").In(filter.States))
	}

	if filter.ReturnedDate != nil {
		day := filter.ReturnedDate.Truncate(24 * time.Hour)
		base = base.Where(
			goqu.C("returned_date").Gte(day),
			goqu.C("returned_date").Lt(day.Add(24*time.Hour)),
		)
	}

	var total int64
	if _, err := base.Select(goqu.COUNT("*")).Executor().ScanVal(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count return requests: %w", err)
	}

	var records []models.FlatRequestReturnRecord
	err := base.
		Select(requestReturnColumns...).
		Order(goqu.I("id").Asc()).
		Offset(filter.Offset).
		Limit(filter.Limit).
		Executor().
		ScanStructs(&records)

	if err != nil {
		return nil, 0, fmt.Errorf("unable to select return requests from database: %w", err)
	}

	requestReturns := make([]models.RequestReturn, 0, len(records))
	for _, record := range records {
		requestReturns = append(requestReturns, record.TransformToRequestReturn())
	}

	return requestReturns, total, nil
}
