package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flyingbus/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id string) (*models.Article, error)
	GetList(ctx context.Context, params models.ArticleListParams, isPublic bool) ([]models.Article, int64, error)
	Delete(ctx context.Context, id string) error
	UpdateDraft(ctx context.Context, article *models.Article) (bool, error)
	TransitionStatus(ctx context.Context, id string, from []models.ArticleStatus, updates map[string]interface{}) (bool, error)
	CountPublishedByCategory(ctx context.Context) (map[string]int, error)
}

type articleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

var sortableColumns = map[string]string{
	"created_at":   "articles.created_at",
	"updated_at":   "articles.updated_at",
	"submitted_at": "articles.submitted_at",
	"published_at": "articles.published_at",
	"title":        "articles.title",
}

// draftColumns are the columns an author's save may write. Status, review and
// publication columns only change through TransitionStatus.
var draftColumns = []string{
	"title", "content", "excerpt", "category_id", "image_url", "article_type",
	"debate_settings", "video_url", "storyboard_episodes",
}

var editableStatuses = []models.ArticleStatus{models.StatusDraft, models.StatusRejected}

// Create inserts a new draft together with its first version.
func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(article).Error; err != nil {
			return err
		}
		return snapshotVersion(tx, article)
	})
}

func (r *articleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	var article models.Article
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		Where("articles.id = ?", id).
		First(&article).Error
	return &article, err
}

func (r *articleRepository) GetList(ctx context.Context, params models.ArticleListParams, isPublic bool) ([]models.Article, int64, error) {
	var articles []models.Article
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Article{}).Preload("Author").Preload("Category")

	if isPublic {
		query = query.Where("articles.status = ?", models.StatusPublished)
	} else if params.Status != "" {
		query = query.Where("articles.status = ?", params.Status)
	}

	if params.AuthorID > 0 {
		query = query.Where("articles.author_id = ?", params.AuthorID)
	}

	if params.CategoryID != "" {
		query = query.Where("articles.category_id = ?", params.CategoryID)
	}

	if params.Type != "" {
		query = query.Where("articles.article_type = ?", params.Type)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortableColumns[params.SortBy]
	if !ok {
		column = sortableColumns["created_at"]
	}
	order := "desc"
	if params.SortOrder == "asc" {
		order = "asc"
	}
	query = query.Order(fmt.Sprintf("%s %s", column, order))

	offset := (params.Page - 1) * params.Limit
	err := query.Offset(offset).Limit(params.Limit).Find(&articles).Error

	return articles, total, err
}

func (r *articleRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Article{}).Error
}

// UpdateDraft writes the draft columns of an existing article, only while it
// is still editable by its author. It reports whether a row changed, so a
// save that lost the race with a submission or moderation leaves the row as
// it is.
func (r *articleRepository) UpdateDraft(ctx context.Context, article *models.Article) (bool, error) {
	updated := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Article{}).
			Where("id = ? AND author_id = ? AND status IN ?", article.ID, article.AuthorID, editableStatuses).
			Omit(clause.Associations).
			Select(draftColumns).
			Updates(article)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		updated = true
		return snapshotVersion(tx, article)
	})
	return updated, err
}

// snapshotVersion records a version when title or content changed since the
// latest one.
func snapshotVersion(tx *gorm.DB, article *models.Article) error {
	hash := models.ContentHash(article.Title, article.Content)

	var latest models.ArticleVersion
	err := tx.Where("article_id = ?", article.ID).Order("version_number desc").First(&latest).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil && latest.ContentHash == hash {
		return nil
	}

	version := &models.ArticleVersion{
		ArticleID:     article.ID,
		VersionNumber: latest.VersionNumber + 1,
		Title:         article.Title,
		Content:       article.Content,
		ContentHash:   hash,
		SavedAt:       time.Now(),
	}
	return tx.Create(version).Error
}

// TransitionStatus applies updates only if the article is currently in one of
// the from statuses. It reports whether a row changed.
func (r *articleRepository) TransitionStatus(ctx context.Context, id string, from []models.ArticleStatus, updates map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Article{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *articleRepository) CountPublishedByCategory(ctx context.Context) (map[string]int, error) {
	var results []struct {
		CategoryID string
		Count      int
	}

	query := `
		SELECT
			a.category_id,
			COUNT(*) as count
		FROM articles a
		WHERE a.status = 'published' AND a.deleted_at IS NULL AND a.category_id IS NOT NULL
		GROUP BY a.category_id
	`

	err := r.db.WithContext(ctx).Raw(query).Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, result := range results {
		counts[result.CategoryID] = result.Count
	}

	return counts, nil
}
