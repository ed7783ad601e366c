package repository

import (
	"database/sql"
	"strings"

	"github.com/hiveflow/hiveflow/internal/core"
	"github.com/hiveflow/hiveflow/internal/domain"
)

type WorkflowRepository struct {
	db    *sql.DB
	clock core.Clock
}

const WORKFLOW_COLUMNS = ` id, owner_id, name, description, steps, active, created, modified `

func NewWorkflowRepository(db *sql.DB, clock core.Clock) *WorkflowRepository {
	return &WorkflowRepository{db: db, clock: clock}
}

func (r *WorkflowRepository) FindByID(id string) (*domain.Workflow, error) {
	query := `
		SELECT ` + WORKFLOW_COLUMNS + `
		FROM workflows WHERE id = ` + placeholder(1) + `
	`
	var wf domain.Workflow
	err := r.db.QueryRow(query, id).Scan(
		&wf.ID,
		&wf.OwnerID,
		&wf.Name,
		&wf.Description,
		&wf.Steps,
		&wf.Active,
		&wf.Created,
		&wf.Modified,
	)
	if err != nil {
		return nil, err
	}
	return &wf, nil
}

func (r *WorkflowRepository) FindByOwner(ownerID string) (*[]domain.Workflow, error) {
	query := `
		SELECT ` + WORKFLOW_COLUMNS + `
		FROM workflows
		WHERE owner_id = ` + placeholder(1) + `
		ORDER BY created DESC
	`
	rows, err := r.db.Query(query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workflows []domain.Workflow
	for rows.Next() {
		var wf domain.Workflow
		err := rows.Scan(
			&wf.ID,
			&wf.OwnerID,
			&wf.Name,
			&wf.Description,
			&wf.Steps,
			&wf.Active,
			&wf.Created,
			&wf.Modified,
		)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	return &workflows, nil
}

func (r *WorkflowRepository) Save(wf *domain.Workflow) error {
	vals := []interface{}{wf.ID, wf.OwnerID, wf.Name, wf.Description, wf.Steps, wf.Active,
		formatDateInDatabase(wf.Created), formatDateInDatabase(wf.Modified)}
	pps := make([]string, 0, len(vals))
	for i := range vals {
		pps = append(pps, placeholder(i+1))
	}
	query := `INSERT INTO workflows (
		id, owner_id, name, description, steps, active, created, modified
	) VALUES (` + strings.Join(pps, ", ") + `)`
	_, err := r.db.Exec(query, vals...)
	return err
}

func (r *WorkflowRepository) Update(wf *domain.Workflow) error {
	query := `
		UPDATE workflows
		SET name = ` + placeholder(1) + `, description = ` + placeholder(2) + `,
		    steps = ` + placeholder(3) + `, active = ` + placeholder(4) + `, modified = ` + nowFunc(r.clock) + `
		WHERE id = ` + placeholder(5) + `
	`
	_, err := r.db.Exec(query, wf.Name, wf.Description, wf.Steps, wf.Active, wf.ID)
	return err
}

func (r *WorkflowRepository) Delete(id string) error {
	query := `DELETE FROM workflows WHERE id = ` + placeholder(1)
	_, err := r.db.Exec(query, id)
	return err
}
