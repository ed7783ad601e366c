package repository

import (
	"database/sql"
	"strings"

	"github.com/hiveflow/hiveflow/internal/core"
	"github.com/hiveflow/hiveflow/internal/domain"
)

type CredentialRepository struct {
	db    *sql.DB
	clock core.Clock
}

const CREDENTIAL_COLUMNS = ` id, owner_id, name, ciphertext, created `

func NewCredentialRepository(db *sql.DB, clock core.Clock) *CredentialRepository {
	return &CredentialRepository{db: db, clock: clock}
}

func (r *CredentialRepository) FindByName(ownerID string, name string) (*domain.Credential, error) {
	query := `
		SELECT ` + CREDENTIAL_COLUMNS + `
		FROM credentials WHERE owner_id = ` + placeholder(1) + ` AND name = ` + placeholder(2) + `
	`
	var c domain.Credential
	err := r.db.QueryRow(query, ownerID, name).Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&c.Ciphertext,
		&c.Created,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListNames returns credential names only, never ciphertext, for API listings.
func (r *CredentialRepository) ListNames(ownerID string) ([]string, error) {
	query := `
		SELECT name FROM credentials
		WHERE owner_id = ` + placeholder(1) + `
		ORDER BY name ASC
	`
	rows, err := r.db.Query(query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func (r *CredentialRepository) Save(c *domain.Credential) error {
	vals := []interface{}{c.ID, c.OwnerID, c.Name, c.Ciphertext, formatDateInDatabase(c.Created)}
	pps := make([]string, 0, len(vals))
	for i := range vals {
		pps = append(pps, placeholder(i+1))
	}
	query := `INSERT INTO credentials (
		id, owner_id, name, ciphertext, created
	) VALUES (` + strings.Join(pps, ", ") + `)`
	_, err := r.db.Exec(query, vals...)
	return err
}

func (r *CredentialRepository) Delete(ownerID string, name string) error {
	query := `DELETE FROM credentials WHERE owner_id = ` + placeholder(1) + ` AND name = ` + placeholder(2)
	_, err := r.db.Exec(query, ownerID, name)
	return err
}
