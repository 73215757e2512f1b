package model

import "time"

// TriggerType identifies the event class an automation rule reacts to.
type TriggerType string

const (
	TriggerEmailReceived TriggerType = "email_received"
	TriggerStatusChange  TriggerType = "status_change"
	TriggerTimeBased     TriggerType = "time_based"
	TriggerScoreChange   TriggerType = "score_change"
)

// ActionType identifies what a fired rule does to the affected company.
type ActionType string

const (
	ActionCreateFollowUp   ActionType = "create_follow_up"
	ActionUpdateScore      ActionType = "update_score"
	ActionSendNotification ActionType = "send_notification"
	ActionUpdateStatus     ActionType = "update_status"
)

// Trigger pairs a trigger type with its type-specific condition map.
// For status_change the recognized keys are "from" and "to" (Status
// strings); for score_change, "min_delta"; for email_received, "keyword".
type Trigger struct {
	Type       TriggerType    `json:"type"`
	Conditions map[string]any `json:"conditions"`
}

// Action is one step of a rule's action list. Recognized data keys per
// type: create_follow_up {type, description}; update_score
// {score_change}; update_status {new_status}; send_notification {message}.
type Action struct {
	Type ActionType     `json:"type"`
	Data map[string]any `json:"data"`
}

// AutomationRule is a declarative trigger→actions pair. Rules are
// configuration: the engine reads them and stamps LastTriggered, nothing
// else mutates them.
type AutomationRule struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Trigger       Trigger    `json:"trigger"`
	Actions       []Action   `json:"actions"`
	IsActive      bool       `json:"is_active"`
	LastTriggered *time.Time `json:"last_triggered,omitempty"`
}
