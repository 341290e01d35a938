package users

import (
	"fmt"

	"assetdesk/internal/repository"
	"assetdesk/pkg/apperrors"
	"assetdesk/pkg/metadata"
	"assetdesk/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

type UserRepository interface {
	PersistUser(tx *goqu.TxDatabase, rec goqu.Record) (int, error)
	SetStaffCode(tx *goqu.TxDatabase, id int, staffCode string) error
	UpdateUser(id int, rec goqu.Record) error
	GetUser(id int) (*models.User, error)
	GetUsersByLocation(location metadata.Location) ([]models.User, error)
	GetForUpdate(tx *goqu.TxDatabase, id int) (*models.User, error)
	UpdateIsAssigned(tx *goqu.TxDatabase, id int, assigned bool) error
	CountUsernamesWithPrefix(base string) (int, error)
}

type userRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) UserRepository {
	return &userRepository{repository: r}
}

func (r *userRepository) userQuery() *goqu.SelectDataset {
	return r.repository.GoquDBWrapper.
		Select(
			goqu.I("id").As("user_id"),
			"staff_code", "first_name", "last_name", "username", "password_hash",
			"gender", "date_of_birth", "joined_date", "role", "location",
			"is_assigned", "is_disabled",
		).
		From("users")
}

func (r *userRepository) PersistUser(tx *goqu.TxDatabase, rec goqu.Record) (int, error) {
	var id int

	query := tx.Insert("users").
		Rows(rec).
		Returning("id")

	if _, err := query.Executor().ScanVal(&id); err != nil {
		return 0, apperrors.WrapDBError(err)
	}

	return id, nil
}

// SetStaffCode stamps the derived code onto a freshly inserted row. Runs in
// the same transaction as the insert; no committed user exists without one.
func (r *userRepository) SetStaffCode(tx *goqu.TxDatabase, id int, staffCode string) error {
	result, err := tx.Update("users").
		Set(goqu.Record{"staff_code": staffCode}).
		Where(goqu.Ex{"id": id}).
		Executor().
		Exec()

	if err != nil {
		return apperrors.WrapDBError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFound("user")
	}

	return nil
}

func (r *userRepository) UpdateUser(id int, rec goqu.Record) error {
	result, err := r.repository.GoquDBWrapper.
		Update("users").
		Set(rec).
		Where(goqu.Ex{"id": id}).
		Executor().
		Exec()

	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFound("user")
	}

	return nil
}

func (r *userRepository) GetUser(id int) (*models.User, error) {
	var record models.FlatUserRecord

	found, err := r.userQuery().
		Where(goqu.Ex{"id": id}).
		Executor().
		ScanStruct(&record)

	if err != nil {
		return nil, fmt.Errorf("unable to select user from database: %w", err)
	}
	if !found {
		return nil, apperrors.NotFound("user")
	}

	user := record.TransformToUser()
	return &user, nil
}

func (r *userRepository) GetUsersByLocation(location metadata.Location) ([]models.User, error) {
	var records []models.FlatUserRecord

	err := r.userQuery().
		Where(goqu.Ex{"location": string(location), "is_disabled": false}).
		Order(goqu.I("staff_code").Asc()).
		Executor().
		ScanStructs(&records)

	if err != nil {
		return nil, fmt.Errorf("unable to select users from database: %w", err)
	}

	users := make([]models.User, 0, len(records))
	for _, record := range records {
		users = append(users, record.TransformToUser())
	}

	return users, nil
}

// GetForUpdate locks the user row so concurrent assignment creates cannot
// both see is_assigned = false.
func (r *userRepository) GetForUpdate(tx *goqu.TxDatabase, id int) (*models.User, error) {
	var record models.FlatUserRecord

	found, err := tx.
		Select(
			goqu.I("id").As("user_id"),
			"staff_code", "first_name", "last_name", "username", "password_hash",
			"gender", "date_of_birth", "joined_date", "role", "location",
			"is_assigned", "is_disabled",
		).
		From("users").
		Where(goqu.Ex{"id": id, "is_disabled": false}).
		ForUpdate(exp.Wait).
		Executor().
		ScanStruct(&record)

	if err != nil {
		return nil, fmt.Errorf("unable to lock user row: %w", err)
	}
	if !found {
		return nil, apperrors.NotFound("user")
	}

	user := record.TransformToUser()
	return &user, nil
}

func (r *userRepository) UpdateIsAssigned(tx *goqu.TxDatabase, id int, assigned bool) error {
	result, err := tx.Update("users").
		Set(goqu.Record{"is_assigned": assigned}).
		Where(goqu.Ex{"id": id}).
		Executor().
		Exec()

	if err != nil {
		return fmt.Errorf("failed to update user is_assigned: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFound("user")
	}

	return nil
}

func (r *userRepository) CountUsernamesWithPrefix(base string) (int, error) {
	var count int

	_, err := r.repository.GoquDBWrapper.
		Select(goqu.COUNT("*")).
		From("users").
		Where(goqu.Or(
			goqu.C("username").Eq(base),
			goqu.C("username").RegexpLike("^"+base+"[0-9]+$"),
		)).
		Executor().
		ScanVal(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count usernames: %w", err)
	}

	return count, nil
}
