package repository

import (
	"database/sql"
	"strings"

	"github.com/hiveflow/hiveflow/internal/core"
	"github.com/hiveflow/hiveflow/internal/domain"
)

type UserRepository struct {
	db    *sql.DB
	clock core.Clock
}

const USER_COLUMNS = ` id, username, password_hash, api_key, enabled, created `

func NewUserRepository(db *sql.DB, clock core.Clock) *UserRepository {
	return &UserRepository{db: db, clock: clock}
}

func (r *UserRepository) FindByApiKey(apiKey string) (*domain.User, error) {
	query := `
		SELECT ` + USER_COLUMNS + `
		FROM users WHERE api_key = ` + placeholder(1) + ` AND enabled = ` + placeholder(2) + `
	`
	var u domain.User
	err := r.db.QueryRow(query, apiKey, true).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.ApiKey,
		&u.Enabled,
		&u.Created,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) FindByUsername(username string) (*domain.User, error) {
	query := `
		SELECT ` + USER_COLUMNS + `
		FROM users WHERE username = ` + placeholder(1) + `
	`
	var u domain.User
	err := r.db.QueryRow(query, username).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.ApiKey,
		&u.Enabled,
		&u.Created,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *UserRepository) Save(u *domain.User) error {
	vals := []interface{}{u.ID, u.Username, u.PasswordHash, u.ApiKey, u.Enabled, formatDateInDatabase(u.Created)}
	pps := make([]string, 0, len(vals))
	for i := range vals {
		pps = append(pps, placeholder(i+1))
	}
	query := `INSERT INTO users (
		id, username, password_hash, api_key, enabled, created
	) VALUES (` + strings.Join(pps, ", ") + `)`
	_, err := r.db.Exec(query, vals...)
	return err
}

func (r *UserRepository) UpdateApiKey(id string, apiKey string) error {
	query := `
		UPDATE users
		SET api_key = ` + placeholder(1) + `
		WHERE id = ` + placeholder(2) + `
	`
	_, err := r.db.Exec(query, apiKey, id)
	return err
}
