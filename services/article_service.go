package services

import (
	"context"
	"errors"
	"time"

	"flyingbus/editor"
	"flyingbus/logger"
	"flyingbus/models"
	"flyingbus/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ArticleService interface {
	SaveDraft(ctx context.Context, authorID uint, record models.DraftRecord) (string, error)
	SubmitForReview(ctx context.Context, authorID uint, id string) error
	GetDraft(ctx context.Context, id string, userID uint) (models.DraftRecord, error)
	GetArticle(ctx context.Context, id string, userID uint, role models.UserRole, isPublic bool) (*models.Article, error)
	GetArticles(ctx context.Context, params models.ArticleListParams, userID uint, isPublic bool) ([]models.Article, int64, error)
	DeleteArticle(ctx context.Context, id string, userID uint, role models.UserRole) error
	GetArticleVersions(ctx context.Context, id string, userID uint, role models.UserRole) ([]models.ArticleVersion, error)
	GetReviewQueue(ctx context.Context, params models.ArticleListParams) ([]models.Article, int64, error)
	Approve(ctx context.Context, id string, reviewerID uint, note string) (*models.Article, error)
	Reject(ctx context.Context, id string, reviewerID uint, note string) (*models.Article, error)
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
}

type articleService struct {
	articleRepo  repositories.ArticleRepository
	versionRepo  repositories.ArticleVersionRepository
	categoryRepo repositories.CategoryRepository
	events       EventPublisher
	search       SearchIndexer
	validator    *editor.Validator
	log          *logger.Logger
	now          func() time.Time
}

func NewArticleService(
	articleRepo repositories.ArticleRepository,
	versionRepo repositories.ArticleVersionRepository,
	categoryRepo repositories.CategoryRepository,
	events EventPublisher,
	search SearchIndexer,
	log *logger.Logger,
) ArticleService {
	if events == nil {
		events = NoopPublisher{}
	}
	if search == nil {
		search = NoopSearch{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &articleService{
		articleRepo:  articleRepo,
		versionRepo:  versionRepo,
		categoryRepo: categoryRepo,
		events:       events,
		search:       search,
		validator:    editor.NewValidator(),
		log:          log,
		now:          time.Now,
	}
}

// SaveDraft creates the article on first save and updates it afterwards.
// Only the author may save, and only while the article is editable.
func (s *articleService) SaveDraft(ctx context.Context, authorID uint, record models.DraftRecord) (string, error) {
	record = record.Normalize()

	if record.CategoryID != "" {
		if err := s.checkCategory(ctx, record.CategoryID); err != nil {
			return "", err
		}
	}

	if record.ID == "" {
		article := &models.Article{AuthorID: authorID, Status: models.StatusDraft}
		article.ApplyDraft(record)
		if err := s.articleRepo.Create(ctx, article); err != nil {
			return "", err
		}
		s.log.WithArticle(article.ID).WithField("author_id", authorID).Debug("draft created")
		return article.ID, nil
	}

	article, err := s.ownedArticle(ctx, record.ID, authorID)
	if err != nil {
		return "", err
	}
	if !article.Status.Editable() {
		return "", models.ErrorConflict{Message: "article is " + string(article.Status) + " and can no longer be edited"}
	}

	article.ApplyDraft(record)
	updated, err := s.articleRepo.UpdateDraft(ctx, article)
	if err != nil {
		return "", err
	}
	if !updated {
		return "", models.ErrorConflict{Message: "article left draft while it was being saved"}
	}

	s.log.WithArticle(article.ID).WithField("author_id", authorID).Debug("draft saved")
	return article.ID, nil
}

// SubmitForReview moves a draft or rejected article into the moderation
// queue. The move is conditional on the current status, so concurrent
// submissions of one article transition it once.
func (s *articleService) SubmitForReview(ctx context.Context, authorID uint, id string) error {
	article, err := s.ownedArticle(ctx, id, authorID)
	if err != nil {
		return err
	}
	if !article.Status.Editable() {
		return models.ErrorConflict{Message: "article is already " + string(article.Status)}
	}
	if err := s.validator.Validate(article.Draft()); err != nil {
		return err
	}

	now := s.now()
	ok, err := s.articleRepo.TransitionStatus(ctx, id,
		[]models.ArticleStatus{models.StatusDraft, models.StatusRejected},
		map[string]interface{}{
			"status":       models.StatusPendingReview,
			"submitted_at": now,
			"review_note":  "",
		})
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrorConflict{Message: "article changed status during submission"}
	}

	s.publish(ctx, models.ArticleEvent{
		Type:       models.EventArticleSubmitted,
		ArticleID:  id,
		AuthorID:   authorID,
		Title:      article.Title,
		Status:     models.StatusPendingReview,
		OccurredAt: now,
	})
	return nil
}

// GetDraft loads an article for an editing session.
func (s *articleService) GetDraft(ctx context.Context, id string, userID uint) (models.DraftRecord, error) {
	article, err := s.ownedArticle(ctx, id, userID)
	if err != nil {
		return models.DraftRecord{}, err
	}
	if !article.Status.Editable() {
		return models.DraftRecord{}, models.ErrorConflict{Message: "article is " + string(article.Status) + " and can no longer be edited"}
	}
	return article.Draft(), nil
}

func (s *articleService) GetArticle(ctx context.Context, id string, userID uint, role models.UserRole, isPublic bool) (*models.Article, error) {
	article, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if isPublic {
		if article.Status != models.StatusPublished {
			return nil, models.ErrorNotFound{Message: "article not found"}
		}
		return article, nil
	}

	if article.AuthorID != userID && !role.CanModerate() {
		return nil, models.ErrorForbidden{Message: "you do not have access to this article"}
	}
	return article, nil
}

// GetArticles lists published articles, or the caller's own articles.
func (s *articleService) GetArticles(ctx context.Context, params models.ArticleListParams, userID uint, isPublic bool) ([]models.Article, int64, error) {
	if !isPublic {
		params.AuthorID = userID
	}
	return s.articleRepo.GetList(ctx, params, isPublic)
}

func (s *articleService) DeleteArticle(ctx context.Context, id string, userID uint, role models.UserRole) error {
	article, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if article.AuthorID != userID && role != models.RoleAdmin {
		return models.ErrorForbidden{Message: "only the author or an admin can delete this article"}
	}

	if err := s.versionRepo.DeleteVersionsByArticleID(ctx, id); err != nil {
		return err
	}
	if err := s.articleRepo.Delete(ctx, id); err != nil {
		return err
	}

	if article.Status == models.StatusPublished {
		if err := s.search.DeleteArticle(ctx, id); err != nil {
			s.log.WithArticle(id).WithError(err).Warn("failed to remove article from search index")
		}
		s.updateCategoryCounts(ctx)
	}
	return nil
}

func (s *articleService) GetArticleVersions(ctx context.Context, id string, userID uint, role models.UserRole) ([]models.ArticleVersion, error) {
	if _, err := s.GetArticle(ctx, id, userID, role, false); err != nil {
		return nil, err
	}
	return s.versionRepo.GetVersions(ctx, id)
}

// GetReviewQueue lists pending submissions, oldest first.
func (s *articleService) GetReviewQueue(ctx context.Context, params models.ArticleListParams) ([]models.Article, int64, error) {
	params.Status = string(models.StatusPendingReview)
	params.SortBy = "submitted_at"
	params.SortOrder = "asc"
	return s.articleRepo.GetList(ctx, params, false)
}

func (s *articleService) Approve(ctx context.Context, id string, reviewerID uint, note string) (*models.Article, error) {
	now := s.now()
	article, err := s.moderate(ctx, id, map[string]interface{}{
		"status":       models.StatusPublished,
		"published_at": now,
		"reviewed_by":  reviewerID,
		"review_note":  note,
	})
	if err != nil {
		return nil, err
	}

	s.updateCategoryCounts(ctx)
	if err := s.search.IndexArticle(ctx, article); err != nil {
		s.log.WithArticle(id).WithError(err).Warn("failed to index published article")
	}

	s.publish(ctx, models.ArticleEvent{
		Type:       models.EventArticlePublished,
		ArticleID:  id,
		AuthorID:   article.AuthorID,
		Title:      article.Title,
		Status:     models.StatusPublished,
		Note:       note,
		OccurredAt: now,
	})
	return article, nil
}

// Reject sends the article back to its author, who may edit and resubmit.
func (s *articleService) Reject(ctx context.Context, id string, reviewerID uint, note string) (*models.Article, error) {
	if note == "" {
		return nil, models.ErrorConflict{Message: "a review note is required to reject an article"}
	}

	article, err := s.moderate(ctx, id, map[string]interface{}{
		"status":      models.StatusRejected,
		"reviewed_by": reviewerID,
		"review_note": note,
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, models.ArticleEvent{
		Type:       models.EventArticleRejected,
		ArticleID:  id,
		AuthorID:   article.AuthorID,
		Title:      article.Title,
		Status:     models.StatusRejected,
		Note:       note,
		OccurredAt: s.now(),
	})
	return article, nil
}

func (s *articleService) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if query == "" {
		return []SearchHit{}, nil
	}
	return s.search.Search(ctx, query, limit)
}

func (s *articleService) moderate(ctx context.Context, id string, updates map[string]interface{}) (*models.Article, error) {
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}

	ok, err := s.articleRepo.TransitionStatus(ctx, id, []models.ArticleStatus{models.StatusPendingReview}, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrorConflict{Message: "article is not awaiting review"}
	}
	return s.find(ctx, id)
}

func (s *articleService) find(ctx context.Context, id string) (*models.Article, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrorNotFound{Message: "article not found"}
	}
	article, err := s.articleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrorNotFound{Message: "article not found"}
		}
		return nil, err
	}
	return article, nil
}

func (s *articleService) ownedArticle(ctx context.Context, id string, authorID uint) (*models.Article, error) {
	article, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if article.AuthorID != authorID {
		return nil, models.ErrorForbidden{Message: "you are not the author of this article"}
	}
	return article, nil
}

func (s *articleService) checkCategory(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrorNotFound{Message: "category not found"}
	}
	if _, err := s.categoryRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrorNotFound{Message: "category not found"}
		}
		return err
	}
	return nil
}

func (s *articleService) publish(ctx context.Context, event models.ArticleEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.WithArticle(event.ArticleID).WithError(err).WithField("event", event.Type).Warn("failed to publish article event")
	}
}

// updateCategoryCounts recomputes article_count from published articles.
func (s *articleService) updateCategoryCounts(ctx context.Context) {
	counts, err := s.articleRepo.CountPublishedByCategory(ctx)
	if err != nil {
		s.log.WithError(err).Warn("failed to count published articles")
		return
	}

	categories, err := s.categoryRepo.GetAll(ctx)
	if err != nil {
		s.log.WithError(err).Warn("failed to load categories")
		return
	}

	for i := range categories {
		categories[i].ArticleCount = counts[categories[i].ID]
	}

	if err := s.categoryRepo.BulkUpdate(ctx, categories); err != nil {
		s.log.WithError(err).Warn("failed to update category counts")
	}
}
