package models

import "time"

// Assignment is one persisted (student, test, period) placement with audit
// metadata. Reference values are stored by label, not by foreign key: a row
// stays valid even after its student or test disappears from the upstream
// roster.
type Assignment struct {
	ID       int64     `db:"id" json:"id"`
	Year     string    `db:"year" json:"year"`
	Period   string    `db:"period" json:"period"`
	TestID   string    `db:"test_id" json:"test_id"`
	Class    string    `db:"class" json:"class"`
	Student  string    `db:"student" json:"student"`
	EditedBy string    `db:"edited_by" json:"edited_by"`
	EditedAt time.Time `db:"edited_at" json:"edited_at"`
}

// AssignmentValues carries the mutable fields of a row. Updates replace all
// of them; id and edited_at are never set by the caller.
type AssignmentValues struct {
	Year    string `json:"year"`
	Period  string `json:"period"`
	TestID  string `json:"test_id"`
	Class   string `json:"class"`
	Student string `json:"student"`
}

// ClearConfirmation gates the destructive clear-all action: the token from
// the first step must come back within the window for the delete to run.
type ClearConfirmation struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
