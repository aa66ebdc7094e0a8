package editor

import (
	"errors"
	"testing"

	"flyingbus/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorRequiredFields(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name   string
		record models.DraftRecord
		fields []string
	}{
		{
			name:   "complete standard article",
			record: models.DraftRecord{Title: "Hello", CategoryID: "c1", Content: "<p>World</p>"},
		},
		{
			name:   "missing category",
			record: models.DraftRecord{Title: "Hello", Content: "World"},
			fields: []string{"category_id"},
		},
		{
			name:   "empty markup counts as no content",
			record: models.DraftRecord{Title: "Hello", CategoryID: "c1", Content: "<p>&nbsp;</p>"},
			fields: []string{"content"},
		},
		{
			name:   "nothing filled in",
			record: models.DraftRecord{},
			fields: []string{"title", "category_id", "content"},
		},
		{
			name: "debate needs a question instead of content",
			record: models.DraftRecord{Title: "Hello", CategoryID: "c1", ArticleType: models.ArticleTypeDebate,
				DebateSettings: &models.DebateSettings{}},
			fields: []string{"debate_settings"},
		},
		{
			name: "debate with question",
			record: models.DraftRecord{Title: "Hello", CategoryID: "c1", ArticleType: models.ArticleTypeDebate,
				DebateSettings: &models.DebateSettings{Question: "Should school start later?"}},
		},
		{
			name:   "video url must be a url",
			record: models.DraftRecord{Title: "Hello", CategoryID: "c1", ArticleType: models.ArticleTypeVideo, VideoURL: "not a url"},
			fields: []string{"video_url"},
		},
		{
			name:   "storyboard needs an episode",
			record: models.DraftRecord{Title: "Hello", CategoryID: "c1", ArticleType: models.ArticleTypeStoryboard},
			fields: []string{"storyboard_episodes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.record)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Len(t, verr.Fields, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, verr.Fields, f)
			}
		})
	}
}

func TestValidatorMessagesAreTranslated(t *testing.T) {
	err := NewValidator().Validate(models.DraftRecord{Title: "Hello", Content: "World"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "category_id is a required field", verr.Fields["category_id"])
	assert.Contains(t, err.Error(), "category_id")
}

func TestPlainText(t *testing.T) {
	tests := map[string]string{
		"<p><br></p>":                          "",
		"<p>Hi &amp; bye</p>":                  "Hi & bye",
		"<p>Hi</p><p>there</p>":                "Hi there",
		"<p>&nbsp;</p>":                        "",
		`<p><img alt="1>0" src="x.png"></p>`:   "",
		"<p><script>var x = 1</script></p>":    "",
		"<p><style>p{}</style></p>":            "",
		"<p>Bus <b>stop</b><script>x</script>": "Bus stop",
		"plain words":                          "plain words",
	}

	for in, want := range tests {
		assert.Equal(t, want, PlainText(in), in)
	}
}

func TestValidatorRejectsInvisibleContent(t *testing.T) {
	v := NewValidator()

	for _, content := range []string{
		`<p><img alt="1>0" src="x.png"></p>`,
		"<p><script>var x = 1</script></p>",
		"<p><style>p{}</style></p>",
	} {
		err := v.Validate(models.DraftRecord{Title: "Hello", CategoryID: "C1", Content: content})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr, content)
		assert.Contains(t, verr.Fields, "content")
	}
}
