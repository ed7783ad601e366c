package repository

import (
	"database/sql"
	"strings"
	"time"

	"github.com/hiveflow/hiveflow/internal/core"
	"github.com/hiveflow/hiveflow/internal/domain"
)

type ScheduleRepository struct {
	db    *sql.DB
	clock core.Clock
}

const SCHEDULE_COLUMNS = ` id, workflow_id, owner_id, cron_expr, timezone, active, last_run_at, next_run_at, created, modified `

func NewScheduleRepository(db *sql.DB, clock core.Clock) *ScheduleRepository {
	return &ScheduleRepository{db: db, clock: clock}
}

func (r *ScheduleRepository) FindByID(id string) (*domain.Schedule, error) {
	query := `
		SELECT ` + SCHEDULE_COLUMNS + `
		FROM schedules WHERE id = ` + placeholder(1) + `
	`
	var s domain.Schedule
	err := r.db.QueryRow(query, id).Scan(
		&s.ID,
		&s.WorkflowID,
		&s.OwnerID,
		&s.CronExpr,
		&s.Timezone,
		&s.Active,
		&s.LastRunAt,
		&s.NextRunAt,
		&s.Created,
		&s.Modified,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ScheduleRepository) FindByOwner(ownerID string) (*[]domain.Schedule, error) {
	query := `
		SELECT ` + SCHEDULE_COLUMNS + `
		FROM schedules
		WHERE owner_id = ` + placeholder(1) + `
		ORDER BY created DESC
	`
	return r.queryMany(query, ownerID)
}

// FindAllActive returns every schedule that should have a live timer.
func (r *ScheduleRepository) FindAllActive() (*[]domain.Schedule, error) {
	query := `
		SELECT ` + SCHEDULE_COLUMNS + `
		FROM schedules
		WHERE active = ` + placeholder(1) + `
		ORDER BY created ASC
	`
	return r.queryMany(query, true)
}

func (r *ScheduleRepository) queryMany(query string, args ...interface{}) (*[]domain.Schedule, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []domain.Schedule
	for rows.Next() {
		var s domain.Schedule
		err := rows.Scan(
			&s.ID,
			&s.WorkflowID,
			&s.OwnerID,
			&s.CronExpr,
			&s.Timezone,
			&s.Active,
			&s.LastRunAt,
			&s.NextRunAt,
			&s.Created,
			&s.Modified,
		)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return &schedules, nil
}

func (r *ScheduleRepository) Save(s *domain.Schedule) error {
	vals := []interface{}{s.ID, s.WorkflowID, s.OwnerID, s.CronExpr, s.Timezone, s.Active,
		formatDateInDatabaseNull(s.LastRunAt), formatDateInDatabaseNull(s.NextRunAt),
		formatDateInDatabase(s.Created), formatDateInDatabase(s.Modified)}
	pps := make([]string, 0, len(vals))
	for i := range vals {
		pps = append(pps, placeholder(i+1))
	}
	query := `INSERT INTO schedules (
		id, workflow_id, owner_id, cron_expr, timezone, active, last_run_at, next_run_at, created, modified
	) VALUES (` + strings.Join(pps, ", ") + `)`
	_, err := r.db.Exec(query, vals...)
	return err
}

func (r *ScheduleRepository) Update(s *domain.Schedule) error {
	query := `
		UPDATE schedules
		SET cron_expr = ` + placeholder(1) + `, timezone = ` + placeholder(2) + `,
		    active = ` + placeholder(3) + `, next_run_at = ` + placeholder(4) + `, modified = ` + nowFunc(r.clock) + `
		WHERE id = ` + placeholder(5) + `
	`
	_, err := r.db.Exec(query, s.CronExpr, s.Timezone, s.Active, formatDateInDatabaseNull(s.NextRunAt), s.ID)
	return err
}

// UpdateRunTimes persists tick bookkeeping. nextRunAt may be invalid, in
// which case the stored value is left untouched rather than cleared.
func (r *ScheduleRepository) UpdateRunTimes(id string, lastRunAt time.Time, nextRunAt sql.NullTime) error {
	if !nextRunAt.Valid {
		query := `
			UPDATE schedules
			SET last_run_at = ` + placeholder(1) + `, modified = ` + nowFunc(r.clock) + `
			WHERE id = ` + placeholder(2) + `
		`
		_, err := r.db.Exec(query, formatDateInDatabase(lastRunAt), id)
		return err
	}
	query := `
		UPDATE schedules
		SET last_run_at = ` + placeholder(1) + `, next_run_at = ` + placeholder(2) + `, modified = ` + nowFunc(r.clock) + `
		WHERE id = ` + placeholder(3) + `
	`
	_, err := r.db.Exec(query, formatDateInDatabase(lastRunAt), formatDateInDatabaseNull(nextRunAt), id)
	return err
}

func (r *ScheduleRepository) Delete(id string) error {
	query := `DELETE FROM schedules WHERE id = ` + placeholder(1)
	_, err := r.db.Exec(query, id)
	return err
}
