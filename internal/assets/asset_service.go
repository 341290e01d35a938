package assets

import (
	"time"

	"assetdesk/internal/repository"
	"assetdesk/pkg/apperrors"
	"assetdesk/pkg/metadata"
	"assetdesk/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"go.uber.org/zap"
)

type CategoryStore interface {
	GetCategory(id int) (*models.Category, error)
}

// AssetRepository is the registry persistence surface the service needs.
// *AssetsRepository implements it.
type AssetRepository interface {
	GetAsset(id int) (*models.Asset, error)
	GetAssetsBy(conditions repository.QueryBuilder) ([]models.Asset, error)
	PersistAsset(tx *goqu.TxDatabase, rec goqu.Record) (int, error)
	NextAssetCode(tx *goqu.TxDatabase, prefix string) (string, error)
	UpdateAsset(id int, rec goqu.Record) error
	SoftRemoveAsset(id int) error
	HasActiveAssignment(id int) (bool, error)
}

type AssetService struct {
	assetsRepo AssetRepository
	categories CategoryStore
	runner     repository.TransactionRunner
	log        *zap.Logger
}

func NewAssetService(assetsRepo AssetRepository, categories CategoryStore, runner repository.TransactionRunner, log *zap.Logger) *AssetService {
	return &AssetService{
		assetsRepo: assetsRepo,
		categories: categories,
		runner:     runner,
		log:        log,
	}
}

// CreateAsset persists a new asset and derives its unique code inside one
// transaction.
func (s *AssetService) CreateAsset(req models.CreateAssetRequest, actor models.Actor) (*models.Asset, error) {
	installedDate, err := time.Parse("2006-01-02", req.InstalledDate)
	if err != nil {
		return nil, apperrors.Validation("installed date is invalid")
	}

	state := metadata.AssetAvailable
	if req.State != "" {
		state, err = metadata.NewAssetState(req.State)
		if err != nil {
			return nil, apperrors.Validation(err.Error())
		}
		if state != metadata.AssetAvailable && state != metadata.AssetNotAvailable {
			return nil, apperrors.Validation("new asset state must be AVAILABLE or NOT_AVAILABLE")
		}
	}

	category, err := s.categories.GetCategory(req.CategoryID)
	if err != nil {
		return nil, err
	}

	var asset *models.Asset

	err = s.runner.InTransaction(func(tx *goqu.TxDatabase) error {
		assetCode, err := s.assetsRepo.NextAssetCode(tx, category.Prefix)
		if err != nil {
			return err
		}

		id, err := s.assetsRepo.PersistAsset(tx, goqu.Record{
			"asset_code":     assetCode,
			"name":           req.Name,
			"category_id":    category.ID,
			"installed_date": installedDate,
			"specification":  req.Specification,
			"state":          string(state),
			"location":       string(actor.Location),
			"is_removed":     false,
		})
		if err != nil {
			return err
		}

		asset = &models.Asset{
			ID:            id,
			AssetCode:     assetCode,
			Name:          req.Name,
			Category:      *category,
			InstalledDate: installedDate,
			Specification: req.Specification,
			State:         state,
			Location:      actor.Location,
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.log.Info("asset created",
		zap.Int("asset_id", asset.ID),
		zap.String("asset_code", asset.AssetCode),
		zap.String("location", string(asset.Location)),
	)

	return asset, nil
}

func (s *AssetService) GetAsset(id int, actor models.Actor) (*models.Asset, error) {
	asset, err := s.assetsRepo.GetAsset(id)
	if err != nil {
		return nil, err
	}

	if asset.Location != actor.Location {
		return nil, apperrors.NotFound("asset")
	}

	return asset, nil
}

func (s *AssetService) GetAssets(filter map[string]interface{}, actor models.Actor) ([]models.Asset, error) {
	conditions := repository.NewQueryBuilder()
	conditions.AddCondition("location", string(actor.Location))
	for key, value := range filter {
		conditions.AddCondition(key, value)
	}

	return s.assetsRepo.GetAssetsBy(conditions)
}

// UpdateAsset applies partial edits. Assets already handed out stay frozen
// until they come back.
func (s *AssetService) UpdateAsset(id int, req models.UpdateAssetRequest, actor models.Actor) (*models.Asset, error) {
	asset, err := s.GetAsset(id, actor)
	if err != nil {
		return nil, err
	}

	if asset.State == metadata.AssetAssigned {
		return nil, apperrors.Conflict("cannot edit an assigned asset")
	}

	changes := goqu.Record{}
	if req.Name != nil {
		changes["name"] = *req.Name
	}
	if req.Specification != nil {
		changes["specification"] = *req.Specification
	}
	if req.InstalledDate != nil {
		installedDate, err := time.Parse("2006-01-02", *req.InstalledDate)
		if err != nil {
			return nil, apperrors.Validation("installed date is invalid")
		}
		changes["installed_date"] = installedDate
	}
	if req.State != nil {
		state, err := metadata.NewAssetState(*req.State)
		if err != nil {
			return nil, apperrors.Validation(err.Error())
		}
		if state == metadata.AssetAssigned {
			return nil, apperrors.Validation("asset state ASSIGNED is set by the assignment lifecycle")
		}
		changes["state"] = string(state)
	}

	if len(changes) == 0 {
		return asset, nil
	}

	if err := s.assetsRepo.UpdateAsset(id, changes); err != nil {
		return nil, err
	}

	return s.assetsRepo.GetAsset(id)
}

// DeleteAsset soft-removes the record; history stays queryable.
func (s *AssetService) DeleteAsset(id int, actor models.Actor) error {
	asset, err := s.GetAsset(id, actor)
	if err != nil {
		return err
	}

	hasAssignment, err := s.assetsRepo.HasActiveAssignment(asset.ID)
	if err != nil {
		return err
	}
	if hasAssignment {
		return apperrors.Conflict("cannot delete an asset with an active assignment")
	}

	if err := s.assetsRepo.SoftRemoveAsset(asset.ID); err != nil {
		return err
	}

	s.log.Info("asset removed", zap.Int("asset_id", asset.ID), zap.String("asset_code", asset.AssetCode))
	return nil
}
