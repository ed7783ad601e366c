package repository

import (
	"database/sql"
	"strings"

	"github.com/hiveflow/hiveflow/internal/core"
	"github.com/hiveflow/hiveflow/internal/domain"
)

type ScriptRepository struct {
	db    *sql.DB
	clock core.Clock
}

const SCRIPT_COLUMNS = ` id, owner_id, name, source, created, modified `

func NewScriptRepository(db *sql.DB, clock core.Clock) *ScriptRepository {
	return &ScriptRepository{db: db, clock: clock}
}

// FindByID is owner-scoped so one user can never execute another's script.
func (r *ScriptRepository) FindByID(id string, ownerID string) (*domain.Script, error) {
	query := `
		SELECT ` + SCRIPT_COLUMNS + `
		FROM scripts WHERE id = ` + placeholder(1) + ` AND owner_id = ` + placeholder(2) + `
	`
	var s domain.Script
	err := r.db.QueryRow(query, id, ownerID).Scan(
		&s.ID,
		&s.OwnerID,
		&s.Name,
		&s.Source,
		&s.Created,
		&s.Modified,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ScriptRepository) FindByOwner(ownerID string) (*[]domain.Script, error) {
	query := `
		SELECT ` + SCRIPT_COLUMNS + `
		FROM scripts
		WHERE owner_id = ` + placeholder(1) + `
		ORDER BY name ASC
	`
	rows, err := r.db.Query(query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scripts []domain.Script
	for rows.Next() {
		var s domain.Script
		err := rows.Scan(
			&s.ID,
			&s.OwnerID,
			&s.Name,
			&s.Source,
			&s.Created,
			&s.Modified,
		)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
	}
	return &scripts, nil
}

func (r *ScriptRepository) Save(s *domain.Script) error {
	vals := []interface{}{s.ID, s.OwnerID, s.Name, s.Source,
		formatDateInDatabase(s.Created), formatDateInDatabase(s.Modified)}
	pps := make([]string, 0, len(vals))
	for i := range vals {
		pps = append(pps, placeholder(i+1))
	}
	query := `INSERT INTO scripts (
		id, owner_id, name, source, created, modified
	) VALUES (` + strings.Join(pps, ", ") + `)`
	_, err := r.db.Exec(query, vals...)
	return err
}

func (r *ScriptRepository) Update(s *domain.Script) error {
	query := `
		UPDATE scripts
		SET name = ` + placeholder(1) + `, source = ` + placeholder(2) + `, modified = ` + nowFunc(r.clock) + `
		WHERE id = ` + placeholder(3) + ` AND owner_id = ` + placeholder(4) + `
	`
	_, err := r.db.Exec(query, s.Name, s.Source, s.ID, s.OwnerID)
	return err
}

func (r *ScriptRepository) Delete(id string, ownerID string) error {
	query := `DELETE FROM scripts WHERE id = ` + placeholder(1) + ` AND owner_id = ` + placeholder(2)
	_, err := r.db.Exec(query, id, ownerID)
	return err
}
