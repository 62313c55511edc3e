package submissions

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// StripHTML removes every tag from s and trims it. Entities bluemonday escapes are
// turned back into text, since the value is stored as plain text.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// Sanitize strips HTML from the free-text fields of a submission request.
func (r *CreateRequest) Sanitize() {
	r.Title = StripHTML(r.Title)
	r.Description = StripHTML(r.Description)
	r.Price = StripHTML(r.Price)
	r.CreatorName = StripHTML(r.CreatorName)
	r.SuggestedCategory = StripHTML(r.SuggestedCategory)
	tags := make([]string, 0, len(r.SuggestedTags))
	for _, t := range r.SuggestedTags {
		if t = StripHTML(t); t != "" {
			tags = append(tags, t)
		}
	}
	r.SuggestedTags = tags
	if r.Metadata != nil {
		r.Metadata.Notes = StripHTML(r.Metadata.Notes)
	}
}
