package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ArticleType string

const (
	ArticleTypeStandard   ArticleType = "standard"
	ArticleTypeDebate     ArticleType = "debate"
	ArticleTypeVideo      ArticleType = "video"
	ArticleTypeStoryboard ArticleType = "storyboard"
)

type ArticleStatus string

const (
	StatusDraft         ArticleStatus = "draft"
	StatusPendingReview ArticleStatus = "pending_review"
	StatusPublished     ArticleStatus = "published"
	StatusRejected      ArticleStatus = "rejected"
)

// Editable reports whether an author may still change the article.
func (s ArticleStatus) Editable() bool {
	return s == "" || s == StatusDraft || s == StatusRejected
}

type Article struct {
	ID                 string              `json:"id" gorm:"type:uuid;primaryKey"`
	AuthorID           uint                `json:"author_id" gorm:"not null;index"`
	Author             User                `json:"author" gorm:"foreignKey:AuthorID"`
	CategoryID         *string             `json:"category_id" gorm:"type:uuid;index"`
	Category           *Category           `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Title              string              `json:"title"`
	Content            string              `json:"content" gorm:"type:text"`
	Excerpt            string              `json:"excerpt" gorm:"type:text"`
	ImageURL           string              `json:"image_url"`
	ArticleType        ArticleType         `json:"article_type" gorm:"default:'standard'"`
	Status             ArticleStatus       `json:"status" gorm:"default:'draft';index"`
	DebateSettings     *DebateSettings     `json:"debate_settings,omitempty" gorm:"serializer:json"`
	VideoURL           string              `json:"video_url,omitempty"`
	StoryboardEpisodes []StoryboardEpisode `json:"storyboard_episodes,omitempty" gorm:"serializer:json"`
	ReviewNote         string              `json:"review_note,omitempty" gorm:"type:text"`
	ReviewedBy         *uint               `json:"reviewed_by,omitempty"`
	SubmittedAt        *time.Time          `json:"submitted_at"`
	PublishedAt        *time.Time          `json:"published_at"`
	Versions           []ArticleVersion    `json:"versions,omitempty" gorm:"foreignKey:ArticleID"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	DeletedAt          gorm.DeletedAt      `json:"-" gorm:"index"`
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// ApplyDraft copies the editable fields of a draft record onto the article.
func (a *Article) ApplyDraft(rec DraftRecord) {
	a.Title = rec.Title
	a.Content = rec.Content
	a.Excerpt = rec.Excerpt
	a.CategoryID = nil
	if rec.CategoryID != "" {
		id := rec.CategoryID
		a.CategoryID = &id
	}
	a.ImageURL = rec.ImageURL
	a.ArticleType = rec.ArticleType
	a.DebateSettings = rec.DebateSettings
	a.VideoURL = rec.VideoURL
	a.StoryboardEpisodes = rec.StoryboardEpisodes
}

// Draft returns the editable view of the article.
func (a *Article) Draft() DraftRecord {
	rec := DraftRecord{
		ID:                 a.ID,
		Title:              a.Title,
		Content:            a.Content,
		Excerpt:            a.Excerpt,
		CategoryID:         a.CategoryRef(),
		ImageURL:           a.ImageURL,
		ArticleType:        a.ArticleType,
		Status:             a.Status,
		DebateSettings:     a.DebateSettings,
		VideoURL:           a.VideoURL,
		StoryboardEpisodes: a.StoryboardEpisodes,
	}
	return rec.Normalize()
}

// CategoryRef returns the category id, or "" for an uncategorized draft.
func (a *Article) CategoryRef() string {
	if a.CategoryID == nil {
		return ""
	}
	return *a.CategoryID
}
