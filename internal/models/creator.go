package models

import "time"

// Creator is the person or organization credited for a Resource.
type Creator struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	Bio        string    `json:"bio,omitempty"`
	AvatarURL  string    `json:"avatarUrl,omitempty"`
	WebsiteURL string    `json:"websiteUrl,omitempty"`
	TwitterURL string    `json:"twitterUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
