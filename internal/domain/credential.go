package domain

import "time"

// Credential is a named secret owned by one user. Ciphertext is the sealed
// value; plaintext only ever exists in memory at the resolution moment.
type Credential struct {
	ID         string
	OwnerID    string
	Name       string
	Ciphertext string
	Created    time.Time
}
