package repositories

import (
	"context"

	"flyingbus/models"

	"gorm.io/gorm"
)

type ArticleVersionRepository interface {
	GetVersions(ctx context.Context, articleID string) ([]models.ArticleVersion, error)
	DeleteVersionsByArticleID(ctx context.Context, articleID string) error
}

type articleVersionRepository struct {
	db *gorm.DB
}

func NewArticleVersionRepository(db *gorm.DB) ArticleVersionRepository {
	return &articleVersionRepository{db: db}
}

func (r *articleVersionRepository) GetVersions(ctx context.Context, articleID string) ([]models.ArticleVersion, error) {
	var versions []models.ArticleVersion
	err := r.db.WithContext(ctx).
		Where("article_id = ?", articleID).
		Order("version_number desc").
		Find(&versions).Error
	return versions, err
}

func (r *articleVersionRepository) DeleteVersionsByArticleID(ctx context.Context, articleID string) error {
	return r.db.WithContext(ctx).Where("article_id = ?", articleID).Delete(&models.ArticleVersion{}).Error
}
