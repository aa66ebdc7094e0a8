package models

import "time"

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type OpenSessionRequest struct {
	ArticleID string `json:"article_id"`
}

// SessionView is what clients see of an editing session.
type SessionView struct {
	SessionID       string      `json:"session_id"`
	Draft           DraftRecord `json:"draft"`
	Dirty           bool        `json:"dirty"`
	SaveStatus      string      `json:"save_status"`
	LastSavedAt     *time.Time  `json:"last_saved_at"`
	SubmissionState string      `json:"submission_state"`
	Submitted       bool        `json:"submitted"`
}

type ModerationRequest struct {
	Note string `json:"note" validate:"max=2000"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type ArticleListParams struct {
	Status     string `form:"status"`
	AuthorID   uint   `form:"author_id"`
	CategoryID string `form:"category_id"`
	Type       string `form:"type"`
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=10"`
	SortBy     string `form:"sort_by,default=created_at"`
	SortOrder  string `form:"sort_order,default=desc"`
}

type SubmitForReviewRequest struct {
	ID string `json:"id" validate:"required"`
}

// RPCResponse is the only response shape the draft RPC endpoints produce and
// the RPC gateway accepts.
type RPCResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ArticleEvent is published to the message queue on lifecycle changes.
type ArticleEvent struct {
	Type       string        `json:"type"`
	ArticleID  string        `json:"article_id"`
	AuthorID   uint          `json:"author_id"`
	Title      string        `json:"title"`
	Status     ArticleStatus `json:"status"`
	Note       string        `json:"note,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

const (
	EventArticleSubmitted = "article.submitted"
	EventArticlePublished = "article.published"
	EventArticleRejected  = "article.rejected"
)
