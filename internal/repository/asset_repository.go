package repository

import (
	"noted_backend/internal/model"

	"gorm.io/gorm"
)

type AssetRepository struct {
	DB *gorm.DB
}

func NewAssetRepository(db *gorm.DB) *AssetRepository {
	return &AssetRepository{DB: db}
}

func (r *AssetRepository) Create(asset *model.Asset) error {
	return r.DB.Create(asset).Error
}

func (r *AssetRepository) FindByID(id uint) (*model.Asset, error) {
	var asset model.Asset
	err := r.DB.First(&asset, id).Error
	return &asset, err
}

func (r *AssetRepository) FindBySession(sessionID uint) ([]model.Asset, error) {
	var assets []model.Asset
	err := r.DB.Where("session_id = ?", sessionID).Order("id ASC").Find(&assets).Error
	return assets, err
}
