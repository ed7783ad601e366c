package domain

import (
	"database/sql"
	"time"
)

type User struct {
	ID           string
	Username     string
	PasswordHash string
	ApiKey       sql.NullString
	Enabled      bool
	Created      time.Time
}
