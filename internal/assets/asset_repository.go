package assets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"assetdesk/internal/repository"
	"assetdesk/pkg/apperrors"
	"assetdesk/pkg/metadata"
	"assetdesk/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

type AssetsRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *AssetsRepository {
	return &AssetsRepository{repository: r}
}

func (r *AssetsRepository) getAssetQuery() *goqu.SelectDataset {
	return r.repository.GoquDBWrapper.
		Select(
			goqu.I("a.id").As("asset_id"),
			goqu.I("a.asset_code").As("asset_code"),
			goqu.I("a.name").As("asset_name"),
			goqu.I("a.installed_date").As("installed_date"),
			goqu.I("a.specification").As("specification"),
			goqu.I("a.state").As("state"),
			goqu.I("a.location").As("location"),
			goqu.I("a.is_removed").As("is_removed"),
			goqu.I("c.id").As("category_id"),
			goqu.I("c.name").As("category_name"),
			goqu.I("c.prefix").As("category_prefix"),
		).
		From(goqu.T("assets").As("a")).
		LeftJoin(
			goqu.T("categories").As("c"),
			goqu.On(goqu.Ex{"a.category_id": goqu.I("c.id")}),
		)
}

func (r *AssetsRepository) GetAsset(id int) (*models.Asset, error) {
	return r.fetchFlatAssetByCondition(goqu.Ex{"a.id": id, "a.is_removed": false})
}

func (r *AssetsRepository) GetAssetsBy(conditions repository.QueryBuilder) ([]models.Asset, error) {
	aliases := map[string]string{
		"location":    "a.location",
		"state":       "a.state",
		"category_id": "a.category_id",
	}

	query := r.getAssetQuery().
		Where(goqu.Ex{"a.is_removed": false}).
		Where(conditions.BuildConditions(aliases)).
		Order(goqu.I("a.id").Asc())

	var flatAssets []models.FlatAssetRecord
	if err := query.Executor().ScanStructs(&flatAssets); err != nil {
		return nil, fmt.Errorf("unable to select assets from database: %w", err)
	}

	assets := make([]models.Asset, 0, len(flatAssets))
	for _, flatAsset := range flatAssets {
		assets = append(assets, flatAsset.TransformToAsset())
	}

	return assets, nil
}

// GetForUpdate locks the asset row for the remainder of the transaction so
// concurrent assignment creates serialize on it.
func (r *AssetsRepository) GetForUpdate(tx *goqu.TxDatabase, id int) (*models.Asset, error) {
	var record struct {
		ID            int       `db:"id"`
		AssetCode     string    `db:"asset_code"`
		Name          string    `db:"name"`
		CategoryID    int       `db:"category_id"`
		InstalledDate time.Time `db:"installed_date"`
		Specification *string   `db:"specification"`
		State         string    `db:"state"`
		Location      string    `db:"location"`
		IsRemoved     bool      `db:"is_removed"`
	}

	found, err := tx.
		Select("id", "asset_code", "name", "category_id", "installed_date",
			"specification", "state", "location", "is_removed").
		From("assets").
		Where(goqu.Ex{"id": id, "is_removed": false}).
		ForUpdate(exp.Wait).
		Executor().
		ScanStruct(&record)

	if err != nil {
		return nil, fmt.Errorf("unable to lock asset row: %w", err)
	}
	if !found {
		return nil, apperrors.NotFound("asset")
	}

	return &models.Asset{
		ID:            record.ID,
		AssetCode:     record.AssetCode,
		Name:          record.Name,
		Category:      models.Category{ID: record.CategoryID},
		InstalledDate: record.InstalledDate,
		Specification: record.Specification,
		State:         metadata.AssetState(record.State),
		Location:      metadata.Location(record.Location),
		IsRemoved:     record.IsRemoved,
	}, nil
}

// UpdateState mutates the asset lifecycle state. Only the registry and the
// lifecycle services go through here.
func (r *AssetsRepository) UpdateState(tx *goqu.TxDatabase, id int, state metadata.AssetState) error {
	result, err := tx.Update("assets").
		Set(goqu.Record{"state": string(state)}).
		Where(goqu.Ex{"id": id}).
		Executor().
		Exec()

	if err != nil {
		return fmt.Errorf("failed to update asset state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFound("asset")
	}

	return nil
}

func (r *AssetsRepository) PersistAsset(tx *goqu.TxDatabase, rec goqu.Record) (int, error) {
	var id int

	query := tx.Insert("assets").Rows(rec).Returning("id")
	if _, err := query.Executor().ScanVal(&id); err != nil {
		return 0, apperrors.WrapDBError(err)
	}

	return id, nil
}

// NextAssetCode derives the next code for the category prefix from the
// highest code already issued. Runs inside the create transaction, so two
// concurrent creates cannot draw the same sequence number.
func (r *AssetsRepository) NextAssetCode(tx *goqu.TxDatabase, prefix string) (string, error) {
	var lastCode string

	found, err := tx.
		Select("asset_code").
		From("assets").
		Where(goqu.C("asset_code").Like(prefix + "%")).
		Order(goqu.I("asset_code").Desc()).
		Limit(1).
		ForUpdate(exp.Wait).
		Executor().
		ScanVal(&lastCode)

	if err != nil {
		return "", fmt.Errorf("failed to look up last asset code: %w", err)
	}

	sequence := 1
	if found {
		if n, err := strconv.Atoi(strings.TrimPrefix(lastCode, prefix)); err == nil {
			sequence = n + 1
		}
	}

	return metadata.NewAssetCode(prefix, sequence).String(), nil
}

func (r *AssetsRepository) UpdateAsset(id int, rec goqu.Record) error {
	result, err := r.repository.GoquDBWrapper.
		Update("assets").
		Set(rec).
		Where(goqu.Ex{"id": id, "is_removed": false}).
		Executor().
		Exec()

	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFound("asset")
	}

	return nil
}

func (r *AssetsRepository) SoftRemoveAsset(id int) error {
	return r.UpdateAsset(id, goqu.Record{"is_removed": true})
}

// HasActiveAssignment guards deletion: an asset with assignment history in
// flight cannot be removed.
func (r *AssetsRepository) HasActiveAssignment(id int) (bool, error) {
	var count int

	_, err := r.repository.GoquDBWrapper.
		Select(goqu.COUNT("*")).
		From("assignments").
		Where(goqu.Ex{"asset_id": id, "is_removed": false}).
		Where(goqu.C("state").In(metadata.ActiveAssignmentStates())).
		Executor().
		ScanVal(&count)

	if err != nil {
		return false, fmt.Errorf("failed to check asset assignments: %w", err)
	}

	return count > 0, nil
}

func (r *AssetsRepository) fetchFlatAssetByCondition(condition goqu.Expression) (*models.Asset, error) {
	query := r.getAssetQuery().Where(condition)

	var flatAsset models.FlatAssetRecord
	found, err := query.Executor().ScanStruct(&flatAsset)
	if err != nil {
		return nil, fmt.Errorf("unable to select asset from database: %w", err)
	}
	if !found {
		return nil, apperrors.NotFound("asset")
	}

	asset := flatAsset.TransformToAsset()
	return &asset, nil
}
