package models

import (
	"time"

	"assetdesk/pkg/metadata"
)

type Asset struct {
	ID            int                 `json:"id"`
	AssetCode     string              `json:"assetCode"`
	Name          string              `json:"name"`
	Category      Category            `json:"category"`
	InstalledDate time.Time           `json:"installedDate"`
	Specification *string             `json:"specification,omitempty"`
	State         metadata.AssetState `json:"state"`
	Location      metadata.Location   `json:"location"`
	IsRemoved     bool                `json:"isRemoved"`
}

type FlatAssetRecord struct {
	ID             int       `db:"asset_id"`
	AssetCode      string    `db:"asset_code"`
	Name           string    `db:"asset_name"`
	InstalledDate  time.Time `db:"installed_date"`
	Specification  *string   `db:"specification"`
	State          string    `db:"state"`
	Location       string    `db:"location"`
	IsRemoved      bool      `db:"is_removed"`
	CategoryID     int       `db:"category_id"`
	CategoryName   string    `db:"category_name"`
	CategoryPrefix string    `db:"category_prefix"`
}

func (fa *FlatAssetRecord) TransformToAsset() Asset {
	return Asset{
		ID:            fa.ID,
		AssetCode:     fa.AssetCode,
		Name:          fa.Name,
		InstalledDate: fa.InstalledDate,
		Specification: fa.Specification,
		State:         metadata.AssetState(fa.State),
		Location:      metadata.Location(fa.Location),
		IsRemoved:     fa.IsRemoved,
		Category: Category{
			ID:     fa.CategoryID,
			Name:   fa.CategoryName,
			Prefix: fa.CategoryPrefix,
		},
	}
}

type CreateAssetRequest struct {
	Name          string  `json:"name" binding:"required"`
	CategoryID    int     `json:"categoryId" binding:"required"`
	InstalledDate string  `json:"installedDate" binding:"required"`
	Specification *string `json:"specification"`
	State         string  `json:"state"`
}

type UpdateAssetRequest struct {
	Name          *string `json:"name"`
	Specification *string `json:"specification"`
	InstalledDate *string `json:"installedDate"`
	State         *string `json:"state"`
}
