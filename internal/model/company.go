package model

import "time"

// Status is the pipeline stage of a company.
type Status string

const (
	StatusLead      Status = "Lead"
	StatusQualified Status = "Qualified"
	StatusQuoted    Status = "Quoted"
	StatusWon       Status = "Won"
	StatusLost      Status = "Lost"
)

// Statuses lists the pipeline stages in funnel order.
var Statuses = []Status{StatusLead, StatusQualified, StatusQuoted, StatusWon, StatusLost}

// Priority is a coarse urgency tag, independent of pipeline status.
type Priority string

const (
	PriorityHot  Priority = "Hot"
	PriorityWarm Priority = "Warm"
	PriorityCold Priority = "Cold"
)

// Category labels the kind of business a prospect is.
type Category string

const (
	CategoryProspect      Category = "Business Prospect"
	CategoryService       Category = "Service Provider"
	CategoryConstruction  Category = "Construction"
	CategoryFood          Category = "Food Processing"
	CategoryManufacturing Category = "Industrial/Manufacturing"
)

// Contact is a person attached to a company. At most one contact per
// company carries IsPrimary; if none does, the first is primary by
// convention (see Company.PrimaryContact).
type Contact struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role,omitempty"`
	IsPrimary bool   `json:"is_primary"`
}

// Company is the central CRM entity: a tracked business prospect.
type Company struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Status   Status   `json:"status"`
	Priority Priority `json:"priority"`

	Contacts []Contact `json:"contacts"`
	Website  string    `json:"website,omitempty"`
	Industry string    `json:"industry,omitempty"`
	Address  string    `json:"address,omitempty"`

	TotalEmails       int `json:"total_emails"`
	BusinessScore     int `json:"business_score"`
	ConversationScore int `json:"conversation_score"`
	OverallScore      int `json:"overall_score"`

	FirstContact  time.Time `json:"first_contact"`
	LatestContact time.Time `json:"latest_contact"`

	Notes     string     `json:"notes"`
	Emails    []Email    `json:"emails"`
	FollowUps []FollowUp `json:"follow_ups"`
	Quotes    []Quote    `json:"quotes"`
	Tags      []string   `json:"tags"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CustomFields map[string]any `json:"custom_fields,omitempty"`
}

// PrimaryContact returns the contact marked primary, falling back to the
// first contact when none is marked. ok is false for an empty contact list.
func (c Company) PrimaryContact() (Contact, bool) {
	for _, ct := range c.Contacts {
		if ct.IsPrimary {
			return ct, true
		}
	}
	if len(c.Contacts) > 0 {
		return c.Contacts[0], true
	}
	return Contact{}, false
}

// HasTag reports whether the company carries the given tag.
func (c Company) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// NextFollowUp returns the earliest-due incomplete follow-up.
func (c Company) NextFollowUp() (FollowUp, bool) {
	var next FollowUp
	found := false
	for _, f := range c.FollowUps {
		if f.Completed {
			continue
		}
		if !found || f.DueDate.Before(next.DueDate) {
			next = f
			found = true
		}
	}
	return next, found
}

// Clone deep-copies the company so stored state is never aliased by
// callers. Slice and map fields get fresh backing storage.
func (c Company) Clone() Company {
	out := c
	out.Contacts = append([]Contact(nil), c.Contacts...)
	out.Emails = append([]Email(nil), c.Emails...)
	out.FollowUps = append([]FollowUp(nil), c.FollowUps...)
	out.Quotes = make([]Quote, len(c.Quotes))
	for i, q := range c.Quotes {
		out.Quotes[i] = q
		out.Quotes[i].Items = append([]QuoteItem(nil), q.Items...)
	}
	out.Tags = append([]string(nil), c.Tags...)
	if c.CustomFields != nil {
		out.CustomFields = make(map[string]any, len(c.CustomFields))
		for k, v := range c.CustomFields {
			out.CustomFields[k] = v
		}
	}
	for i, e := range c.Emails {
		out.Emails[i].Keywords = append([]string(nil), e.Keywords...)
	}
	return out
}
