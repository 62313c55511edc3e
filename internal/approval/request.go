package approval

import (
	"bytes"
	"encoding/json"
)

// NullableString distinguishes an absent JSON key from an explicit null.
// Set is false when the key was absent; Value is nil when it was null.
type NullableString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON is only called when the key is present.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// MarshalJSON writes null for both the absent and the null state.
func (n NullableString) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// NewCreator describes a creator to create during approval.
type NewCreator struct {
	Name       string `json:"name"`
	WebsiteURL string `json:"websiteUrl" binding:"omitempty,url"`
	Bio        string `json:"bio"`
}

// Request is an approval with the reviewer's overrides. Nil pointers keep the
// submission's value.
type Request struct {
	SubmissionID int64          `json:"-"`
	Title        *string        `json:"title"`
	Description  *string        `json:"description"`
	Price        *string        `json:"price"`
	ImageURL     NullableString `json:"imageUrl"`
	CreatorID    *int64         `json:"creatorId"`
	NewCreator   *NewCreator    `json:"newCreator"`
	CategorySlug string         `json:"categorySlug"`
	TagIDs       []int64        `json:"tagIds"`
	IsFeatured   bool           `json:"isFeatured"`
}

// RejectRequest is the optional body of a rejection.
type RejectRequest struct {
	Notes *string `json:"notes"`
}

// Result identifies the published resource.
type Result struct {
	ResourceID   int64  `json:"resourceId"`
	ResourceSlug string `json:"resourceSlug"`
}
