package editor

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"flyingbus/models"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"golang.org/x/net/html"
	"gopkg.in/go-playground/validator.v9"
	en_translations "gopkg.in/go-playground/validator.v9/translations/en"
)

// ValidationError lists field-level problems keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator checks that a draft is complete enough to submit.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func NewValidator() *Validator {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		panic(fmt.Sprintf("editor: register translations: %v", err))
	}
	v.RegisterStructValidation(draftStructLevel, models.DraftRecord{})

	return &Validator{validate: v, trans: trans}
}

// Validate returns *ValidationError when required fields are missing.
func (v *Validator) Validate(rec models.DraftRecord) error {
	err := v.validate.Struct(rec.Normalize())
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = fe.Translate(v.trans)
	}
	return &ValidationError{Fields: fields}
}

// draftStructLevel requires the body that matches the article type.
func draftStructLevel(sl validator.StructLevel) {
	rec := sl.Current().Interface().(models.DraftRecord)

	switch rec.ArticleType {
	case models.ArticleTypeDebate:
		if rec.DebateSettings == nil || strings.TrimSpace(rec.DebateSettings.Question) == "" {
			sl.ReportError(rec.DebateSettings, "debate_settings", "DebateSettings", "required", "")
		}
	case models.ArticleTypeVideo:
		if strings.TrimSpace(rec.VideoURL) == "" {
			sl.ReportError(rec.VideoURL, "video_url", "VideoURL", "required", "")
		} else if err := sl.Validator().Var(rec.VideoURL, "url"); err != nil {
			sl.ReportError(rec.VideoURL, "video_url", "VideoURL", "url", "")
		}
	case models.ArticleTypeStoryboard:
		if len(rec.StoryboardEpisodes) == 0 {
			sl.ReportError(rec.StoryboardEpisodes, "storyboard_episodes", "StoryboardEpisodes", "required", "")
		}
	default:
		if PlainText(rec.Content) == "" {
			sl.ReportError(rec.Content, "content", "Content", "required", "")
		}
	}
}

// PlainText returns the visible text of rich content, so "<p></p>" counts as
// empty. Script and style bodies are not visible text.
func PlainText(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return ""
	}

	var words []string
	collectText(doc, &words)
	return strings.Join(words, " ")
}

func collectText(n *html.Node, words *[]string) {
	switch n.Type {
	case html.TextNode:
		*words = append(*words, strings.Fields(n.Data)...)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, words)
	}
}
