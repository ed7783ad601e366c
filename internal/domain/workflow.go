package domain

import "time"

// Workflow is the stored definition of an automation. Steps holds the
// ordered step sequence as a single JSON text column; it is decoded into
// the typed step model immediately on load and never interpreted raw.
type Workflow struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	Steps       string
	Active      bool
	Created     time.Time
	Modified    time.Time
}
