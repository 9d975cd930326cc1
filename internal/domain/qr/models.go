package qr

import "time"

type Token struct {
	ID         string    `json:"id"`
	Token      string    `json:"token"`
	TargetType string    `json:"targetType"`
	TargetID   string    `json:"targetId"`
	Label      string    `json:"label"`
	ExpiresAt  time.Time `json:"expiresAt"`
	IsActive   bool      `json:"isActive"`
	CreatedBy  string    `json:"createdBy,omitempty"`
	PNGKey     string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	PublicURL  string    `json:"publicUrl,omitempty"`
	ImageURL   string    `json:"imageUrl,omitempty"`
}

// Valid reports whether the token can still accept submissions at now.
func (t Token) Valid(now time.Time) bool {
	return t.IsActive && now.Before(t.ExpiresAt)
}

type GenerateInput struct {
	TargetType    string `json:"targetType"`
	TargetID      string `json:"targetId"`
	Label         string `json:"label"`
	ExpiresInDays int    `json:"expiresInDays"`
}

// PublicInfo is what the anonymous intake form needs to render.
type PublicInfo struct {
	Label      string    `json:"label"`
	TargetType string    `json:"targetType"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

type Submission struct {
	ID                     string    `json:"id"`
	TokenID                string    `json:"qrTokenId"`
	Category               string    `json:"category"`
	Message                string    `json:"message"`
	SubmitterName          string    `json:"submitterName,omitempty"`
	SubmitterEmail         string    `json:"submitterEmail,omitempty"`
	SubmitterPhone         string    `json:"submitterPhone,omitempty"`
	AttachmentURLs         []string  `json:"attachmentUrls"`
	RelatedInvestigationID string    `json:"relatedInvestigationId,omitempty"`
	IPAddress              string    `json:"-"`
	CreatedAt              time.Time `json:"createdAt"`
}

type SubmitInput struct {
	Category       string   `json:"category"`
	Message        string   `json:"message"`
	SubmitterName  string   `json:"submitterName"`
	SubmitterEmail string   `json:"submitterEmail"`
	SubmitterPhone string   `json:"submitterPhone"`
	AttachmentURLs []string `json:"attachmentUrls"`
}

type SubmitResult struct {
	SubmissionID string `json:"submissionId"`
	CaseID       string `json:"-"`
	Reference    string `json:"reference"`
}
