package models

// RosterEntry pairs a student with their class, as read from the upstream
// roster tab. The local system never writes these back.
type RosterEntry struct {
	Student string `json:"student"`
	Class   string `json:"class"`
}

// Reference list names accepted by the fetcher.
const (
	ListTests   = "tests"
	ListPeriods = "periods"
	ListYears   = "years"
	ListClasses = "classes"
)

// KnownList reports whether name identifies a fetchable reference list.
func KnownList(name string) bool {
	switch name {
	case ListTests, ListPeriods, ListYears, ListClasses:
		return true
	}
	return false
}

// EditForm is the edit-view payload for one assignment: the stored row plus
// the current reference options. A stored value missing from its option list
// is replaced by the first available option and reported in StaleFields so
// the client forces the user to confirm before saving.
type EditForm struct {
	Assignment  Assignment       `json:"assignment"`
	Selected    AssignmentValues `json:"selected"`
	Options     EditOptions      `json:"options"`
	StaleFields []string         `json:"stale_fields,omitempty"`
}

// EditOptions holds the current reference lists for the edit selectors.
type EditOptions struct {
	Years    []string `json:"years"`
	Periods  []string `json:"periods"`
	Tests    []string `json:"tests"`
	Classes  []string `json:"classes"`
	Students []string `json:"students"`
}
