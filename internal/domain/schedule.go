package domain

import (
	"database/sql"
	"time"
)

// Schedule is a recurring cron trigger bound to one workflow. Timezone is an
// IANA zone name; next-fire computation happens in that zone so daily
// triggers stay correct across daylight-saving transitions.
type Schedule struct {
	ID         string
	WorkflowID string
	OwnerID    string
	CronExpr   string
	Timezone   string
	Active     bool
	LastRunAt  sql.NullTime
	NextRunAt  sql.NullTime
	Created    time.Time
	Modified   time.Time
}
