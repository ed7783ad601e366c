package domain

import "time"

// Skill is AI-usable content referenced by skill steps, markdown with an
// optional YAML frontmatter block.
type Skill struct {
	ID       string
	OwnerID  string
	Name     string
	Content  string
	Created  time.Time
	Modified time.Time
}
