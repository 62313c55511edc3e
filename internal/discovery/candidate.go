package discovery

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/curricula/backend/internal/models"
	"github.com/curricula/backend/internal/submissions"
)

// Candidate is a resource proposed by a model, before an admin queues it.
type Candidate struct {
	Title             string              `json:"title" binding:"required"`
	URL               string              `json:"url" binding:"required,url"`
	Type              models.ResourceType `json:"type" binding:"required,oneof=BOOK COURSE YOUTUBE_SERIES PODCAST ARTICLE COHORT_PROGRAM"`
	Description       string              `json:"description"`
	Price             string              `json:"price"`
	CreatorName       string              `json:"creatorName" binding:"required"`
	CreatorURL        string              `json:"creatorUrl,omitempty" binding:"omitempty,url"`
	ImageURL          string              `json:"imageUrl,omitempty" binding:"omitempty,url"`
	SuggestedCategory string              `json:"suggestedCategory" binding:"required"`
	SuggestedTags     []string            `json:"suggestedTags"`
}

const unknownPrice = "Unknown"

// Normalize strips markup and coerces a candidate onto the catalog's vocabularies.
// It fails when the type, category or URLs cannot be used.
func (c *Candidate) Normalize() error {
	c.Title = submissions.StripHTML(c.Title)
	c.Description = submissions.StripHTML(c.Description)
	c.Price = submissions.StripHTML(c.Price)
	c.CreatorName = submissions.StripHTML(c.CreatorName)
	c.URL = strings.TrimSpace(c.URL)
	c.CreatorURL = strings.TrimSpace(c.CreatorURL)
	c.ImageURL = strings.TrimSpace(c.ImageURL)

	if c.Title == "" {
		return fmt.Errorf("missing title")
	}
	if c.CreatorName == "" {
		return fmt.Errorf("missing creator name")
	}
	if !isWebURL(c.URL) {
		return fmt.Errorf("invalid url %q", c.URL)
	}
	if c.CreatorURL != "" && !isWebURL(c.CreatorURL) {
		c.CreatorURL = ""
	}
	if c.ImageURL != "" && !isWebURL(c.ImageURL) {
		c.ImageURL = ""
	}

	c.Type = models.ResourceType(strings.ToUpper(strings.TrimSpace(string(c.Type))))
	if !c.Type.Valid() {
		return fmt.Errorf("unknown resource type %q", c.Type)
	}
	name := submissions.CanonicalCategoryName(submissions.StripHTML(c.SuggestedCategory))
	if name == "" {
		return fmt.Errorf("unknown category %q", c.SuggestedCategory)
	}
	c.SuggestedCategory = name

	if c.Price == "" {
		c.Price = unknownPrice
	}
	tags := make([]string, 0, len(c.SuggestedTags))
	for _, t := range c.SuggestedTags {
		if t = submissions.StripHTML(t); t != "" {
			tags = append(tags, t)
		}
	}
	c.SuggestedTags = tags
	return nil
}

// Submission converts the candidate into a pending submission tagged with meta.
func (c *Candidate) Submission(meta *models.Metadata) *models.PendingSubmission {
	return &models.PendingSubmission{
		Title:             c.Title,
		Description:       c.Description,
		URL:               c.URL,
		Type:              c.Type,
		Price:             c.Price,
		ImageURL:          c.ImageURL,
		CreatorName:       c.CreatorName,
		CreatorURL:        c.CreatorURL,
		SuggestedCategory: c.SuggestedCategory,
		SuggestedTags:     c.SuggestedTags,
		Metadata:          meta,
		Status:            models.SubmissionPending,
	}
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// candidateSchema is the JSON schema models must answer with for one resource.
func candidateSchema(withURL bool) map[string]any {
	types := make([]string, len(models.ResourceTypes))
	for i, t := range models.ResourceTypes {
		types[i] = string(t)
	}
	props := map[string]any{
		"title":             map[string]any{"type": "string", "description": "Name of the resource"},
		"description":       map[string]any{"type": "string", "description": "2-3 sentence description of what this resource offers"},
		"type":              map[string]any{"type": "string", "enum": types},
		"price":             map[string]any{"type": "string", "description": "Price like 'Free', '$49', '$199/year', or 'Unknown'"},
		"creatorName":       map[string]any{"type": "string", "description": "Person or organization who created this"},
		"creatorUrl":        map[string]any{"type": "string", "description": "URL to the creator's main website if known"},
		"suggestedCategory": map[string]any{"type": "string", "enum": submissions.CategoryNames},
		"suggestedTags":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	}
	required := []string{"title", "description", "type", "price", "creatorName", "suggestedCategory", "suggestedTags"}
	if withURL {
		props["url"] = map[string]any{"type": "string", "description": "Direct URL to the resource"}
		required = append(required, "url")
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func discoverySchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"resources": map[string]any{"type": "array", "items": candidateSchema(true)},
		},
		"required": []string{"resources"},
	}
}
