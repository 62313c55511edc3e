package models

import "time"

// SubmissionStatus is the review state of a PendingSubmission.
// pending moves exactly once to approved or rejected; both are terminal.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Terminal reports whether no further transition is allowed from s.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionApproved || s == SubmissionRejected
}

// DefaultSubmissionPrice is used when neither the submission nor the reviewer names a price.
const DefaultSubmissionPrice = "Unknown"

// PendingSubmission is an unvetted candidate resource. Creator and category are
// free text here and only resolved into references on approval.
type PendingSubmission struct {
	ID                int64            `json:"id"`
	Title             string           `json:"title"`
	Description       string           `json:"description,omitempty"`
	URL               string           `json:"url"`
	Type              ResourceType     `json:"type"`
	Price             string           `json:"price,omitempty"`
	ImageURL          string           `json:"imageUrl,omitempty"`
	CreatorName       string           `json:"creatorName"`
	CreatorURL        string           `json:"creatorUrl,omitempty"`
	SuggestedCategory string           `json:"suggestedCategory"`
	SuggestedTags     []string         `json:"suggestedTags"`
	Metadata          *Metadata        `json:"metadata,omitempty"`
	Status            SubmissionStatus `json:"status"`
	ReviewNotes       *string          `json:"reviewNotes"`
	ReviewedAt        *time.Time       `json:"reviewedAt"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}
