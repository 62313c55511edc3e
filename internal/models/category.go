package models

// Category is pre-seeded reference data; the approval workflow never creates one.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

// CategoryCount is a Category with the number of published resources in it.
type CategoryCount struct {
	Category
	ResourceCount int `json:"resourceCount"`
}
