package model

import "strings"

// ActionType is the workflow operation a button value resolves to.
type ActionType string

const (
	ActionAssign   ActionType = "assign"
	ActionClaim    ActionType = "claim"
	ActionComplete ActionType = "complete"
	ActionReject   ActionType = "reject"
	ActionSave     ActionType = "save"
	ActionValidate ActionType = "validate"
	ActionCreate   ActionType = "create"
	ActionView     ActionType = "view"
)

var actionDescriptions = map[ActionType]string{
	ActionAssign:   "Assigned",
	ActionClaim:    "Claimed",
	ActionComplete: "Completed",
	ActionReject:   "Rejected",
	ActionSave:     "Saved",
	ActionValidate: "Validated",
	ActionCreate:   "Created",
	ActionView:     "Reviewed",
}

// Description returns the past-tense label used in history entries.
func (a ActionType) Description() string {
	return actionDescriptions[a]
}

// Valid reports whether a is one of the known action types.
func (a ActionType) Valid() bool {
	_, ok := actionDescriptions[a]
	return ok
}

// UnmarshalText normalises case so definitions may spell actions as
// "COMPLETE" or "Complete".
func (a *ActionType) UnmarshalText(text []byte) error {
	*a = ActionType(strings.ToLower(strings.TrimSpace(string(text))))
	return nil
}
