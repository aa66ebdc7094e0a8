package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"flyingbus/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeArticleRepo struct {
	mu       sync.Mutex
	articles map[string]*models.Article
	versions map[string][]models.ArticleVersion

	// afterGet runs after GetByID has copied the row, outside the lock.
	afterGet func(id string)
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{
		articles: make(map[string]*models.Article),
		versions: make(map[string][]models.ArticleVersion),
	}
}

func (r *fakeArticleRepo) Create(ctx context.Context, article *models.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	cp := *article
	r.articles[article.ID] = &cp
	r.snapshot(article)
	return nil
}

func (r *fakeArticleRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	r.mu.Lock()
	a, ok := r.articles[id]
	var cp models.Article
	if ok {
		cp = *a
	}
	afterGet := r.afterGet
	r.mu.Unlock()

	if !ok {
		return &models.Article{}, gorm.ErrRecordNotFound
	}
	if afterGet != nil {
		afterGet(id)
	}
	return &cp, nil
}

func (r *fakeArticleRepo) GetList(ctx context.Context, params models.ArticleListParams, isPublic bool) ([]models.Article, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Article
	for _, a := range r.articles {
		if isPublic && a.Status != models.StatusPublished {
			continue
		}
		if params.Status != "" && string(a.Status) != params.Status {
			continue
		}
		if params.AuthorID > 0 && a.AuthorID != params.AuthorID {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeArticleRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.articles, id)
	return nil
}

func (r *fakeArticleRepo) UpdateDraft(ctx context.Context, article *models.Article) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.articles[article.ID]
	if !ok || a.AuthorID != article.AuthorID || !a.Status.Editable() {
		return false, nil
	}
	a.Title = article.Title
	a.Content = article.Content
	a.Excerpt = article.Excerpt
	a.CategoryID = article.CategoryID
	a.ImageURL = article.ImageURL
	a.ArticleType = article.ArticleType
	a.DebateSettings = article.DebateSettings
	a.VideoURL = article.VideoURL
	a.StoryboardEpisodes = article.StoryboardEpisodes
	r.snapshot(article)
	return true, nil
}

func (r *fakeArticleRepo) snapshot(article *models.Article) {
	hash := models.ContentHash(article.Title, article.Content)
	versions := r.versions[article.ID]
	if n := len(versions); n == 0 || versions[n-1].ContentHash != hash {
		r.versions[article.ID] = append(versions, models.ArticleVersion{
			ArticleID:     article.ID,
			VersionNumber: n + 1,
			Title:         article.Title,
			Content:       article.Content,
			ContentHash:   hash,
		})
	}
}

func (r *fakeArticleRepo) TransitionStatus(ctx context.Context, id string, from []models.ArticleStatus, updates map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.articles[id]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, s := range from {
		if a.Status == s {
			allowed = true
		}
	}
	if !allowed {
		return false, nil
	}

	if v, ok := updates["status"].(models.ArticleStatus); ok {
		a.Status = v
	}
	if v, ok := updates["review_note"].(string); ok {
		a.ReviewNote = v
	}
	if v, ok := updates["submitted_at"].(time.Time); ok {
		a.SubmittedAt = &v
	}
	return true, nil
}

func (r *fakeArticleRepo) CountPublishedByCategory(ctx context.Context) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, a := range r.articles {
		if a.Status == models.StatusPublished && a.CategoryID != nil {
			counts[*a.CategoryID]++
		}
	}
	return counts, nil
}

func (r *fakeArticleRepo) status(id string) models.ArticleStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.articles[id].Status
}

func (r *fakeArticleRepo) get(id string) models.Article {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.articles[id]
}

type fakeVersionRepo struct {
	articles *fakeArticleRepo
}

func (r *fakeVersionRepo) GetVersions(ctx context.Context, articleID string) ([]models.ArticleVersion, error) {
	r.articles.mu.Lock()
	defer r.articles.mu.Unlock()
	return append([]models.ArticleVersion(nil), r.articles.versions[articleID]...), nil
}

func (r *fakeVersionRepo) DeleteVersionsByArticleID(ctx context.Context, articleID string) error {
	r.articles.mu.Lock()
	defer r.articles.mu.Unlock()
	delete(r.articles.versions, articleID)
	return nil
}

type fakeCategoryRepo struct {
	mu         sync.Mutex
	categories map[string]*models.Category
}

func newFakeCategoryRepo(names ...string) *fakeCategoryRepo {
	r := &fakeCategoryRepo{categories: make(map[string]*models.Category)}
	for _, name := range names {
		id := uuid.NewString()
		r.categories[id] = &models.Category{ID: id, Name: name}
	}
	return r
}

func (r *fakeCategoryRepo) Create(ctx context.Context, category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	cp := *category
	r.categories[category.ID] = &cp
	return nil
}

func (r *fakeCategoryRepo) GetByName(ctx context.Context, name string) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.categories {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return &models.Category{}, gorm.ErrRecordNotFound
}

func (r *fakeCategoryRepo) GetByID(ctx context.Context, id string) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return &models.Category{}, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCategoryRepo) GetAll(ctx context.Context) ([]models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Category
	for _, c := range r.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeCategoryRepo) BulkUpdate(ctx context.Context, categories []models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range categories {
		cp := categories[i]
		r.categories[cp.ID] = &cp
	}
	return nil
}

func (r *fakeCategoryRepo) anyID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.categories {
		return id
	}
	return ""
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ArticleEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event models.ArticleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingSearch struct {
	NoopSearch
	indexed []string
	deleted []string
}

func (s *recordingSearch) IndexArticle(ctx context.Context, article *models.Article) error {
	s.indexed = append(s.indexed, article.ID)
	return nil
}

func (s *recordingSearch) DeleteArticle(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}
