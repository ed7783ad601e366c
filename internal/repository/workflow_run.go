package repository

import (
	"database/sql"
	"strings"

	"github.com/hiveflow/hiveflow/internal/core"
	"github.com/hiveflow/hiveflow/internal/domain"
)

type WorkflowRunRepository struct {
	db    *sql.DB
	clock core.Clock
}

const RUN_COLUMNS = ` id, workflow_id, owner_id, status, step_results, started, completed, error `

func NewWorkflowRunRepository(db *sql.DB, clock core.Clock) *WorkflowRunRepository {
	return &WorkflowRunRepository{db: db, clock: clock}
}

func (r *WorkflowRunRepository) FindByID(id string) (*domain.WorkflowRun, error) {
	query := `
		SELECT ` + RUN_COLUMNS + `
		FROM workflow_runs WHERE id = ` + placeholder(1) + `
	`
	var run domain.WorkflowRun
	err := r.db.QueryRow(query, id).Scan(
		&run.ID,
		&run.WorkflowID,
		&run.OwnerID,
		&run.Status,
		&run.StepResults,
		&run.Started,
		&run.Completed,
		&run.Error,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *WorkflowRunRepository) FindByWorkflowID(workflowID string, limit int) (*[]domain.WorkflowRun, error) {
	query := `
		SELECT ` + RUN_COLUMNS + `
		FROM workflow_runs
		WHERE workflow_id = ` + placeholder(1) + `
		ORDER BY started DESC
		LIMIT ` + placeholder(2) + `
	`
	rows, err := r.db.Query(query, workflowID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.WorkflowRun
	for rows.Next() {
		var run domain.WorkflowRun
		err := rows.Scan(
			&run.ID,
			&run.WorkflowID,
			&run.OwnerID,
			&run.Status,
			&run.StepResults,
			&run.Started,
			&run.Completed,
			&run.Error,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return &runs, nil
}

// Save inserts the run record. Called once with status running before the
// first step executes so a crash mid-run leaves inspectable state.
func (r *WorkflowRunRepository) Save(run *domain.WorkflowRun) error {
	vals := []interface{}{run.ID, run.WorkflowID, run.OwnerID, run.Status, run.StepResults,
		formatDateInDatabase(run.Started), formatDateInDatabaseNull(run.Completed), run.Error}
	pps := make([]string, 0, len(vals))
	for i := range vals {
		pps = append(pps, placeholder(i+1))
	}
	query := `INSERT INTO workflow_runs (
		id, workflow_id, owner_id, status, step_results, started, completed, error
	) VALUES (` + strings.Join(pps, ", ") + `)`
	_, err := r.db.Exec(query, vals...)
	return err
}

// Update writes the terminal state of the run.
func (r *WorkflowRunRepository) Update(run *domain.WorkflowRun) error {
	query := `
		UPDATE workflow_runs
		SET status = ` + placeholder(1) + `, step_results = ` + placeholder(2) + `,
		    completed = ` + placeholder(3) + `, error = ` + placeholder(4) + `
		WHERE id = ` + placeholder(5) + `
	`
	_, err := r.db.Exec(query, run.Status, run.StepResults, formatDateInDatabaseNull(run.Completed), run.Error, run.ID)
	return err
}
