package model

import "time"

// EmailType classifies a message's business relevance category.
type EmailType string

const (
	EmailBusiness EmailType = "business"
	EmailFollowUp EmailType = "follow_up"
	EmailQuote    EmailType = "quote"
	EmailProject  EmailType = "project"
	EmailGeneral  EmailType = "general"
)

// Direction indicates whether a message was received or sent.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Email is one message in a company's interaction history. Emails are
// created at import time and immutable thereafter.
type Email struct {
	ID             string    `json:"id"`
	Date           time.Time `json:"date"`
	Subject        string    `json:"subject"`
	Type           EmailType `json:"type"`
	Keywords       []string  `json:"keywords"`
	Snippet        string    `json:"snippet,omitempty"`
	Direction      Direction `json:"direction"`
	HasAttachments bool      `json:"has_attachments"`
}

// FollowUpType is the relative schedule of a follow-up.
type FollowUpType string

const (
	FollowUpOneWeek  FollowUpType = "1_week"
	FollowUpTwoWeeks FollowUpType = "2_weeks"
	FollowUpOneMonth FollowUpType = "1_month"
	FollowUpCustom   FollowUpType = "custom"
)

// FollowUp is a scheduled future action tied to a company. Only
// Completed and JobID mutate after creation.
type FollowUp struct {
	ID          string       `json:"id"`
	CompanyID   string       `json:"company_id"`
	DueDate     time.Time    `json:"due_date"`
	Type        FollowUpType `json:"type"`
	Description string       `json:"description"`
	Completed   bool         `json:"completed"`
	JobID       string       `json:"job_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// QuoteStatus is the lifecycle state of a quote.
type QuoteStatus string

const (
	QuoteDraft    QuoteStatus = "draft"
	QuoteSent     QuoteStatus = "sent"
	QuoteAccepted QuoteStatus = "accepted"
	QuoteRejected QuoteStatus = "rejected"
	QuoteExpired  QuoteStatus = "expired"
)

// Quote is a priced offer attached to a company.
type Quote struct {
	ID          string      `json:"id"`
	Number      string      `json:"number"`
	Amount      float64     `json:"amount"`
	Description string      `json:"description"`
	Status      QuoteStatus `json:"status"`
	CreatedDate time.Time   `json:"created_date"`
	ValidUntil  *time.Time  `json:"valid_until,omitempty"`
	Items       []QuoteItem `json:"items"`
}

// QuoteItem is a single line of a quote.
type QuoteItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// Notification is one entry of the alert history shown in the dashboard.
type Notification struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	CompanyID   string    `json:"company_id,omitempty"`
	CompanyName string    `json:"company_name,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Read        bool      `json:"read"`
}
