package models

// Tag is pre-seeded reference data attached to resources through resource_tags.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// TagCount is a Tag with the number of resources carrying it.
type TagCount struct {
	Tag
	ResourceCount int `json:"resourceCount"`
}

// ResourceTag links a resource to a tag.
type ResourceTag struct {
	ResourceID int64 `json:"resourceId"`
	TagID      int64 `json:"tagId"`
}
