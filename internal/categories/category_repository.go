package categories

import (
	"fmt"

	"assetdesk/internal/repository"
	"assetdesk/pkg/apperrors"
	"assetdesk/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

type CategoryRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *CategoryRepository {
	return &CategoryRepository{repository: r}
}

func (r *CategoryRepository) GetCategory(id int) (*models.Category, error) {
	var category models.Category

	found, err := r.repository.GoquDBWrapper.
		Select("id", "name", "prefix").
		From("categories").
		Where(goqu.Ex{"id": id}).
		Executor().
		ScanStruct(&category)

	if err != nil {
		return nil, fmt.Errorf("unable to select category: %w", err)
	}
	if !found {
		return nil, apperrors.NotFound("category")
	}

	return &category, nil
}

func (r *CategoryRepository) GetCategories() ([]models.Category, error) {
	var categories []models.Category

	err := r.repository.GoquDBWrapper.
		Select("id", "name", "prefix").
		From("categories").
		Order(goqu.I("name").Asc()).
		Executor().
		ScanStructs(&categories)

	if err != nil {
		return nil, fmt.Errorf("unable to select categories: %w", err)
	}

	return categories, nil
}

func (r *CategoryRepository) PersistCategory(req models.CreateCategoryRequest) (*models.Category, error) {
	var id int

	query := r.repository.GoquDBWrapper.
		Insert("categories").
		Rows(goqu.Record{
			"name":   req.Name,
			"prefix": req.Prefix,
		}).
		Returning("id")

	if _, err := query.Executor().ScanVal(&id); err != nil {
		return nil, apperrors.WrapDBError(err)
	}

	return &models.Category{ID: id, Name: req.Name, Prefix: req.Prefix}, nil
}
