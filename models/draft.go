package models

import (
	"encoding/json"
	"time"
)

type DebateSettings struct {
	Question   string     `json:"question"`
	SideALabel string     `json:"side_a_label"`
	SideBLabel string     `json:"side_b_label"`
	ClosesAt   *time.Time `json:"closes_at,omitempty"`
}

type StoryboardEpisode struct {
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
}

// DraftRecord is the article as seen by the editor. Only the payload matching
// ArticleType is kept; see Normalize.
type DraftRecord struct {
	ID                 string              `json:"id,omitempty"`
	Title              string              `json:"title" validate:"required,max=255"`
	Content            string              `json:"content"`
	Excerpt            string              `json:"excerpt" validate:"max=500"`
	CategoryID         string              `json:"category_id" validate:"required"`
	ImageURL           string              `json:"image_url" validate:"omitempty,url"`
	ArticleType        ArticleType         `json:"article_type" validate:"oneof=standard debate video storyboard"`
	Status             ArticleStatus       `json:"status,omitempty"`
	DebateSettings     *DebateSettings     `json:"debate_settings,omitempty"`
	VideoURL           string              `json:"video_url,omitempty"`
	StoryboardEpisodes []StoryboardEpisode `json:"storyboard_episodes,omitempty"`
}

// Normalize defaults the article type and drops payloads that do not belong
// to it.
func (r DraftRecord) Normalize() DraftRecord {
	if r.ArticleType == "" {
		r.ArticleType = ArticleTypeStandard
	}
	if r.ArticleType != ArticleTypeDebate {
		r.DebateSettings = nil
	}
	if r.ArticleType != ArticleTypeVideo {
		r.VideoURL = ""
	}
	if r.ArticleType != ArticleTypeStoryboard {
		r.StoryboardEpisodes = nil
	}
	return r
}

// Clone returns a deep copy so snapshots never share slices or pointers with
// live editor state.
func (r DraftRecord) Clone() DraftRecord {
	if r.DebateSettings != nil {
		ds := *r.DebateSettings
		if ds.ClosesAt != nil {
			t := *ds.ClosesAt
			ds.ClosesAt = &t
		}
		r.DebateSettings = &ds
	}
	if r.StoryboardEpisodes != nil {
		eps := make([]StoryboardEpisode, len(r.StoryboardEpisodes))
		copy(eps, r.StoryboardEpisodes)
		r.StoryboardEpisodes = eps
	}
	return r
}

// FormSignature serializes every form field except content, id and status.
func (r DraftRecord) FormSignature() string {
	form := r.Normalize()
	form.ID = ""
	form.Content = ""
	form.Status = ""
	b, _ := json.Marshal(form)
	return string(b)
}

// DraftPatch carries a partial update; nil fields are left untouched.
type DraftPatch struct {
	Title              *string              `json:"title"`
	Content            *string              `json:"content"`
	Excerpt            *string              `json:"excerpt"`
	CategoryID         *string              `json:"category_id"`
	ImageURL           *string              `json:"image_url"`
	ArticleType        *ArticleType         `json:"article_type"`
	DebateSettings     *DebateSettings      `json:"debate_settings"`
	VideoURL           *string              `json:"video_url"`
	StoryboardEpisodes *[]StoryboardEpisode `json:"storyboard_episodes"`
}

// Empty reports whether the patch changes nothing.
func (p DraftPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Excerpt == nil && p.CategoryID == nil &&
		p.ImageURL == nil && p.ArticleType == nil && p.DebateSettings == nil &&
		p.VideoURL == nil && p.StoryboardEpisodes == nil
}
