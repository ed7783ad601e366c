package domain

import "time"

// Identity is a user's linked address on a messaging channel, used to
// auto-detect the recipient of notify steps when none is declared.
type Identity struct {
	ID      string
	OwnerID string
	Channel string
	Address string
	Created time.Time
}
