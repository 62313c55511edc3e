package models

import "time"

// ResourceType is the kind of educational resource.
type ResourceType string

const (
	ResourceTypeBook          ResourceType = "BOOK"
	ResourceTypeCourse        ResourceType = "COURSE"
	ResourceTypeYouTubeSeries ResourceType = "YOUTUBE_SERIES"
	ResourceTypePodcast       ResourceType = "PODCAST"
	ResourceTypeArticle       ResourceType = "ARTICLE"
	ResourceTypeCohortProgram ResourceType = "COHORT_PROGRAM"
)

// ResourceTypes lists every valid ResourceType in display order.
var ResourceTypes = []ResourceType{
	ResourceTypeBook,
	ResourceTypeCourse,
	ResourceTypeYouTubeSeries,
	ResourceTypePodcast,
	ResourceTypeArticle,
	ResourceTypeCohortProgram,
}

// Valid reports whether t is one of ResourceTypes.
func (t ResourceType) Valid() bool {
	for _, v := range ResourceTypes {
		if t == v {
			return true
		}
	}
	return false
}

// DefaultResourcePrice is the column default for resources.price.
const DefaultResourcePrice = "Free"

// Resource is a published, browsable item. It always references an existing Creator and Category.
type Resource struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Slug        string       `json:"slug"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url"`
	Type        ResourceType `json:"type"`
	Price       string       `json:"price"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	CreatorID   int64        `json:"creatorId"`
	CategoryID  int64        `json:"categoryId"`
	IsFeatured  bool         `json:"isFeatured"`
	Metadata    *Metadata    `json:"metadata,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// ResourceListing is a Resource joined with its Creator and Category, as shown on list pages.
type ResourceListing struct {
	Resource
	Creator  Creator  `json:"creator"`
	Category Category `json:"category"`
}

// ResourceDetail adds the resource's tags to a ResourceListing.
type ResourceDetail struct {
	ResourceListing
	Tags []Tag `json:"tags"`
}
