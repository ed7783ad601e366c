package domain

import "time"

// Script is user-supplied source executed by script steps. The source must
// define Run(inputs map[string]any) (map[string]any, error).
type Script struct {
	ID       string
	OwnerID  string
	Name     string
	Source   string
	Created  time.Time
	Modified time.Time
}
