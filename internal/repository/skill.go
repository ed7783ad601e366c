package repository

import (
	"database/sql"
	"strings"

	"github.com/hiveflow/hiveflow/internal/core"
	"github.com/hiveflow/hiveflow/internal/domain"
)

type SkillRepository struct {
	db    *sql.DB
	clock core.Clock
}

const SKILL_COLUMNS = ` id, owner_id, name, content, created, modified `

func NewSkillRepository(db *sql.DB, clock core.Clock) *SkillRepository {
	return &SkillRepository{db: db, clock: clock}
}

func (r *SkillRepository) FindByName(name string, ownerID string) (*domain.Skill, error) {
	query := `
		SELECT ` + SKILL_COLUMNS + `
		FROM skills WHERE name = ` + placeholder(1) + ` AND owner_id = ` + placeholder(2) + `
	`
	var s domain.Skill
	err := r.db.QueryRow(query, name, ownerID).Scan(
		&s.ID,
		&s.OwnerID,
		&s.Name,
		&s.Content,
		&s.Created,
		&s.Modified,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SkillRepository) FindByOwner(ownerID string) (*[]domain.Skill, error) {
	query := `
		SELECT ` + SKILL_COLUMNS + `
		FROM skills
		WHERE owner_id = ` + placeholder(1) + `
		ORDER BY name ASC
	`
	rows, err := r.db.Query(query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skills []domain.Skill
	for rows.Next() {
		var s domain.Skill
		err := rows.Scan(
			&s.ID,
			&s.OwnerID,
			&s.Name,
			&s.Content,
			&s.Created,
			&s.Modified,
		)
		if err != nil {
			return nil, err
		}
		skills = append(skills, s)
	}
	return &skills, nil
}

func (r *SkillRepository) Save(s *domain.Skill) error {
	vals := []interface{}{s.ID, s.OwnerID, s.Name, s.Content,
		formatDateInDatabase(s.Created), formatDateInDatabase(s.Modified)}
	pps := make([]string, 0, len(vals))
	for i := range vals {
		pps = append(pps, placeholder(i+1))
	}
	query := `INSERT INTO skills (
		id, owner_id, name, content, created, modified
	) VALUES (` + strings.Join(pps, ", ") + `)`
	_, err := r.db.Exec(query, vals...)
	return err
}

func (r *SkillRepository) Update(s *domain.Skill) error {
	query := `
		UPDATE skills
		SET content = ` + placeholder(1) + `, modified = ` + nowFunc(r.clock) + `
		WHERE name = ` + placeholder(2) + ` AND owner_id = ` + placeholder(3) + `
	`
	_, err := r.db.Exec(query, s.Content, s.Name, s.OwnerID)
	return err
}

func (r *SkillRepository) Delete(name string, ownerID string) error {
	query := `DELETE FROM skills WHERE name = ` + placeholder(1) + ` AND owner_id = ` + placeholder(2)
	_, err := r.db.Exec(query, name, ownerID)
	return err
}
