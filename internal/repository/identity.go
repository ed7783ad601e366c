package repository

import (
	"database/sql"
	"strings"

	"github.com/hiveflow/hiveflow/internal/core"
	"github.com/hiveflow/hiveflow/internal/domain"
)

type IdentityRepository struct {
	db    *sql.DB
	clock core.Clock
}

const IDENTITY_COLUMNS = ` id, owner_id, channel, address, created `

func NewIdentityRepository(db *sql.DB, clock core.Clock) *IdentityRepository {
	return &IdentityRepository{db: db, clock: clock}
}

func (r *IdentityRepository) FindByID(id string, ownerID string) (*domain.Identity, error) {
	query := `
		SELECT ` + IDENTITY_COLUMNS + `
		FROM identities WHERE id = ` + placeholder(1) + ` AND owner_id = ` + placeholder(2) + `
	`
	var ident domain.Identity
	err := r.db.QueryRow(query, id, ownerID).Scan(
		&ident.ID,
		&ident.OwnerID,
		&ident.Channel,
		&ident.Address,
		&ident.Created,
	)
	if err != nil {
		return nil, err
	}
	return &ident, nil
}

// FindByOwnerAndChannel lists an owner's identities. An empty channel means
// no channel filter, so listing without one returns every linked identity.
func (r *IdentityRepository) FindByOwnerAndChannel(ownerID string, channel string) ([]domain.Identity, error) {
	query := `
		SELECT ` + IDENTITY_COLUMNS + `
		FROM identities
		WHERE owner_id = ` + placeholder(1) + `
	`
	args := []interface{}{ownerID}
	if channel != "" {
		query += ` AND channel = ` + placeholder(2)
		args = append(args, channel)
	}
	query += ` ORDER BY created ASC`
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var identities []domain.Identity
	for rows.Next() {
		var ident domain.Identity
		err := rows.Scan(
			&ident.ID,
			&ident.OwnerID,
			&ident.Channel,
			&ident.Address,
			&ident.Created,
		)
		if err != nil {
			return nil, err
		}
		identities = append(identities, ident)
	}
	return identities, nil
}

func (r *IdentityRepository) Save(ident *domain.Identity) error {
	vals := []interface{}{ident.ID, ident.OwnerID, ident.Channel, ident.Address, formatDateInDatabase(ident.Created)}
	pps := make([]string, 0, len(vals))
	for i := range vals {
		pps = append(pps, placeholder(i+1))
	}
	query := `INSERT INTO identities (
		id, owner_id, channel, address, created
	) VALUES (` + strings.Join(pps, ", ") + `)`
	_, err := r.db.Exec(query, vals...)
	return err
}

func (r *IdentityRepository) Delete(id string, ownerID string) error {
	query := `DELETE FROM identities WHERE id = ` + placeholder(1) + ` AND owner_id = ` + placeholder(2)
	_, err := r.db.Exec(query, id, ownerID)
	return err
}
