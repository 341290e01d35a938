package assignments

import (
	"fmt"
	"strings"
	"time"

	"assetdesk/internal/repository"
	"assetdesk/pkg/apperrors"
	"assetdesk/pkg/metadata"
	"assetdesk/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

type AssignmentRepository interface {
	Insert(tx *goqu.TxDatabase, assignment models.Assignment) (int, error)
	GetAssignment(id int) (*models.Assignment, error)
	GetForUpdate(tx *goqu.TxDatabase, id int) (*models.Assignment, error)
	SetState(tx *goqu.TxDatabase, id int, state metadata.AssignmentState) error
	SoftRemove(tx *goqu.TxDatabase, id int) error
	CountActiveForUser(tx *goqu.TxDatabase, userID int, excludeAssignmentID int) (int, error)
	CountActiveAssignmentsForUser(userID int) (int, error)
	Search(filter SearchConditions, location metadata.Location) ([]models.Assignment, int64, error)
}

// SearchConditions is the validated form of models.AssignmentFilter: dates
// parsed, paging resolved.
type SearchConditions struct {
	States       []string
	QueryWords   []string
	AssignedDate *time.Time
	Offset       uint
	Limit        uint
}

type assignmentRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) AssignmentRepository {
	return &assignmentRepository{repository: r}
}

const assignmentsTable = "assignments"

var assignmentColumns = []interface{}{
	goqu.I("id").As("assignment_id"),
	"asset_id", "asset_code", "asset_name",
	"assigned_by_id", "assigned_to_id", "assigned_to_username",
	"assigned_date", "note", "state", "location", "is_removed",
}

func (r *assignmentRepository) Insert(tx *goqu.TxDatabase, assignment models.Assignment) (int, error) {
	var id int

	query := tx.Insert(assignmentsTable).
		Rows(goqu.Record{
			"asset_id":             assignment.AssetID,
			"asset_code":           assignment.AssetCode,
			"asset_name":           assignment.AssetName,
			"assigned_by_id":       assignment.AssignedByID,
			"assigned_to_id":       assignment.AssignedToID,
			"assigned_to_username": assignment.AssignedToUsername,
			"assigned_date":        assignment.AssignedDate,
			"note":                 assignment.Note,
			"state":                string(assignment.State),
			"location":             string(assignment.Location),
			"is_removed":           false,
		}).
		Returning("id")

	if _, err := query.Executor().ScanVal(&id); err != nil {
		return 0, apperrors.WrapDBError(err)
	}

	return id, nil
}

func (r *assignmentRepository) GetAssignment(id int) (*models.Assignment, error) {
	var record models.FlatAssignmentRecord

	found, err := r.repository.GoquDBWrapper.
		Select(assignmentColumns...).
		From(assignmentsTable).
		Where(goqu.Ex{"id": id, "is_removed": false}).
		Executor().
		ScanStruct(&record)

	if err != nil {
		return nil, fmt.Errorf("unable to select assignment from database: %w", err)
	}
	if !found {
		return nil, apperrors.NotFound("assignment")
	}

	assignment := record.TransformToAssignment()
	return &assignment, nil
}

func (r *assignmentRepository) GetForUpdate(tx *goqu.TxDatabase, id int) (*models.Assignment, error) {
	var record models.FlatAssignmentRecord

	found, err := tx.
		Select(assignmentColumns...).
		From(assignmentsTable).
		Where(goqu.Ex{"id": id}).
		ForUpdate(exp.Wait).
		Executor().
		ScanStruct(&record)

	if err != nil {
		return nil, fmt.Errorf("unable to lock assignment row: %w", err)
	}
	if !found {
		return nil, apperrors.NotFound("assignment")
	}

	assignment := record.TransformToAssignment()
	return &assignment, nil
}

func (r *assignmentRepository) SetState(tx *goqu.TxDatabase, id int, state metadata.AssignmentState) error {
	result, err := tx.Update(assignmentsTable).
		Set(goqu.Record{"state": string(state)}).
		Where(goqu.Ex{"id": id, "is_removed": false}).
		Executor().
		Exec()

	if err != nil {
		return fmt.Errorf("failed to update assignment state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFound("assignment")
	}

	return nil
}

func (r *assignmentRepository) SoftRemove(tx *goqu.TxDatabase, id int) error {
	result, err := tx.Update(assignmentsTable).
		Set(goqu.Record{"is_removed": true}).
		Where(goqu.Ex{"id": id}).
		Executor().
		Exec()

	if err != nil {
		return fmt.Errorf("failed to remove assignment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFound("assignment")
	}

	return nil
}

func activeStateCondition() goqu.Expression {
	return goqu.And(
		goqu.C("is_removed").Eq(false),
		goqu.C("state").In(metadata.ActiveAssignmentStates()),
	)
}

// CountActiveForUser counts active assignments held by the user, skipping
// the one being transitioned. Runs inside the cascade transaction.
func (r *assignmentRepository) CountActiveForUser(tx *goqu.TxDatabase, userID int, excludeAssignmentID int) (int, error) {
	var count int

	_, err := tx.
		Select(goqu.COUNT("*")).
		From(assignmentsTable).
		Where(activeStateCondition()).
		Where(goqu.C("assigned_to_id").Eq(userID)).
		Where(goqu.C("id").Neq(excludeAssignmentID)).
		Executor().
		ScanVal(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count active assignments: %w", err)
	}

	return count, nil
}

func (r *assignmentRepository) CountActiveAssignmentsForUser(userID int) (int, error) {
	var count int

	_, err := r.repository.GoquDBWrapper.
		Select(goqu.COUNT("*")).
		From(assignmentsTable).
		Where(activeStateCondition()).
		Where(goqu.C("assigned_to_id").Eq(userID)).
		Executor().
		ScanVal(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count active assignments: %w", err)
	}

	return count, nil
}

// Search runs the paginated findAll query. Free-text words AND together,
// each matching any of asset name, asset code or assignee username.
func (r *assignmentRepository) Search(filter SearchConditions, location metadata.Location) ([]models.Assignment, int64, error) {
	base := r.repository.GoquDBWrapper.
		From(assignmentsTable).
		Where(goqu.Ex{"location": string(location), "is_removed": false})

	if len(filter.States) > 0 {
		base = base.Where(goqu.C("state").In(filter.States))
	}

	for _, word := range filter.QueryWords {
		pattern := "%" + word + "%"
		base = base.Where(goqu.Or(
			goqu.C("asset_name").ILike(pattern),
			goqu.C("asset_code").ILike(pattern),
			goqu.C("assigned_to_username").ILike(pattern),
		))
	}

	if filter.AssignedDate != nil {
		base = base.Where(goqu.C("assigned_date").Eq(filter.AssignedDate.Format("2006-01-02")))
	}

	var total int64
	if _, err := base.Select(goqu.COUNT("*")).Executor().ScanVal(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count assignments: %w", err)
	}

	var records []models.FlatAssignmentRecord
	err := base.
		Select(assignmentColumns...).
		Order(goqu.I("id").Asc()).
		Offset(filter.Offset).
		Limit(filter.Limit).
		Executor().
		ScanStructs(&records)

	if err != nil {
		return nil, 0, fmt.Errorf("unable to select assignments from database: %w", err)
	}

	assignments := make([]models.Assignment, 0, len(records))
	for _, record := range records {
		assignments = append(assignments, record.TransformToAssignment())
	}

	return assignments, total, nil
}

// queryWords splits the free-text query; empty input yields no conditions.
func queryWords(query string) []string {
	return strings.Fields(query)
}
