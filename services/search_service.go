package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"flyingbus/editor"
	"flyingbus/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// SearchIndexer keeps published articles searchable.
type SearchIndexer interface {
	IndexArticle(ctx context.Context, article *models.Article) error
	DeleteArticle(ctx context.Context, id string) error
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
}

type SearchHit struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Excerpt     string             `json:"excerpt"`
	ArticleType models.ArticleType `json:"article_type"`
	CategoryID  string             `json:"category_id"`
	Score       float64            `json:"score"`
}

type articleDocument struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Excerpt     string             `json:"excerpt"`
	Body        string             `json:"body"`
	ArticleType models.ArticleType `json:"article_type"`
	CategoryID  string             `json:"category_id"`
	AuthorID    uint               `json:"author_id"`
	PublishedAt *time.Time         `json:"published_at"`
	IndexedAt   time.Time          `json:"indexed_at"`
}

type ElasticsearchService struct {
	es    *elasticsearch.Client
	index string
}

func NewElasticsearchService(url, index string) (*ElasticsearchService, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	res, err := es.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to get Elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch returned error: %s", res.String())
	}

	return &ElasticsearchService{es: es, index: index}, nil
}

func (s *ElasticsearchService) IndexArticle(ctx context.Context, article *models.Article) error {
	doc := articleDocument{
		ID:          article.ID,
		Title:       article.Title,
		Excerpt:     article.Excerpt,
		Body:        editor.PlainText(article.Content),
		ArticleType: article.ArticleType,
		CategoryID:  article.CategoryRef(),
		AuthorID:    article.AuthorID,
		PublishedAt: article.PublishedAt,
		IndexedAt:   time.Now(),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	res, err := s.es.Index(
		s.index,
		bytes.NewReader(body),
		s.es.Index.WithContext(ctx),
		s.es.Index.WithDocumentID(article.ID),
		s.es.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch returned error: %s", res.String())
	}
	return nil
}

func (s *ElasticsearchService) DeleteArticle(ctx context.Context, id string) error {
	res, err := s.es.Delete(s.index, id, s.es.Delete.WithContext(ctx), s.es.Delete.WithRefresh("true"))
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elasticsearch returned error: %s", res.String())
	}
	return nil
}

func (s *ElasticsearchService) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	payload := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^3", "excerpt^2", "body"},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch returned error: %s", res.String())
	}

	var decoded struct {
		Hits struct {
			Hits []struct {
				Score  float64         `json:"_score"`
				Source articleDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]SearchHit, 0, len(decoded.Hits.Hits))
	for _, h := range decoded.Hits.Hits {
		hits = append(hits, SearchHit{
			ID:          h.Source.ID,
			Title:       h.Source.Title,
			Excerpt:     h.Source.Excerpt,
			ArticleType: h.Source.ArticleType,
			CategoryID:  h.Source.CategoryID,
			Score:       h.Score,
		})
	}
	return hits, nil
}

// NoopSearch is used when Elasticsearch is not configured.
type NoopSearch struct{}

func (NoopSearch) IndexArticle(context.Context, *models.Article) error { return nil }

func (NoopSearch) DeleteArticle(context.Context, string) error { return nil }

func (NoopSearch) Search(context.Context, string, int) ([]SearchHit, error) {
	return nil, models.ErrorUnavailable{Message: "search is not configured"}
}
