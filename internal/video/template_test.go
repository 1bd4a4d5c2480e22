package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyTemplate(t *testing.T) {
	fields := map[string]any{
		"title":   "Town Hall",
		"episode": 3,
		"part":    int64(12),
	}

	tests := []struct {
		tmpl string
		want string
	}{
		{"{title} - {episode:02}", "Town Hall - 03"},
		{"{title} {missing}", "Town Hall {missing}"},
		{"plain", "plain"},
		{"{part:4}/{episode}", "0012/3"},
		{"{title:05}", "Town Hall"},
		{"{{title}}", "{Town Hall}"},
	}
	for _, tt := range tests {
		t.Run(tt.tmpl, func(t *testing.T) {
			assert.Equal(t, tt.want, applyTemplate(tt.tmpl, fields))
		})
	}
}

func TestApplyTemplate_DefaultTemplate(t *testing.T) {
	r := &Record{
		Identifier:  "a1b2c3d4-0000-1111-2222-333344445555",
		Title:       "Town Hall",
		PublishDate: "2024-02-29",
	}

	assert.Equal(t, "Town Hall - 2024-02-29 #a1b2c3d4", applyTemplate(DefaultTemplate, r.Fields()))
}
