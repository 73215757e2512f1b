package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimaryContact(t *testing.T) {
	tests := []struct {
		name     string
		contacts []Contact
		want     string
		wantOK   bool
	}{
		{
			name: "marked primary wins",
			contacts: []Contact{
				{ID: "a", LastName: "First"},
				{ID: "b", LastName: "Marked", IsPrimary: true},
			},
			want:   "b",
			wantOK: true,
		},
		{
			name: "falls back to first contact",
			contacts: []Contact{
				{ID: "a", LastName: "First"},
				{ID: "b", LastName: "Second"},
			},
			want:   "a",
			wantOK: true,
		},
		{
			name:   "no contacts",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Company{Contacts: tt.contacts}.PrimaryContact()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got.ID)
			}
		})
	}
}

func TestNextFollowUp(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	c := Company{FollowUps: []FollowUp{
		{ID: "done-early", DueDate: base, Completed: true},
		{ID: "late", DueDate: base.AddDate(0, 0, 10)},
		{ID: "soon", DueDate: base.AddDate(0, 0, 2)},
	}}

	next, ok := c.NextFollowUp()
	require.True(t, ok)
	assert.Equal(t, "soon", next.ID)

	_, ok = Company{}.NextFollowUp()
	assert.False(t, ok)
}

func TestHasTag(t *testing.T) {
	c := Company{Tags: []string{"epoxy", "priority"}}
	assert.True(t, c.HasTag("epoxy"))
	assert.False(t, c.HasTag("Epoxy"))
	assert.False(t, c.HasTag("missing"))
}

func TestCloneIsDeep(t *testing.T) {
	c := Company{
		ID:   "c1",
		Tags: []string{"one"},
		Emails: []Email{
			{ID: "e1", Keywords: []string{"quote"}},
		},
		Quotes: []Quote{
			{ID: "q1", Items: []QuoteItem{{ID: "i1"}}},
		},
		CustomFields: map[string]any{"region": "tx"},
	}

	clone := c.Clone()
	clone.Tags[0] = "changed"
	clone.Emails[0].Keywords[0] = "changed"
	clone.Quotes[0].Items[0].ID = "changed"
	clone.CustomFields["region"] = "fl"

	assert.Equal(t, "one", c.Tags[0])
	assert.Equal(t, "quote", c.Emails[0].Keywords[0])
	assert.Equal(t, "i1", c.Quotes[0].Items[0].ID)
	assert.Equal(t, "tx", c.CustomFields["region"])
}
