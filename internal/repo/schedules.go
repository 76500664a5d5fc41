package repo

import (
	"context"
	"database/sql"

	"plantline/internal/domain"
)

const schedColumns = `id,machine_id,machine_name,task,frequency_days,last_done,created_at,created_by`

func scanSchedule(row scanner) (domain.Schedule, error) {
	var s domain.Schedule
	err := row.Scan(&s.ID, &s.MachineID, &s.MachineName, &s.Task, &s.FrequencyDays, &s.LastDone, &s.CreatedAt, &s.CreatedBy)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	return s, storage("scan schedule", err)
}

func (r Repo) InsertScheduleTx(ctx context.Context, tx *sql.Tx, s domain.Schedule) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO schedules(`+schedColumns+`) VALUES (?,?,?,?,?,?,?,?)`,
		s.ID, s.MachineID, s.MachineName, s.Task, s.FrequencyDays, s.LastDone, s.CreatedAt, s.CreatedBy)
	return storage("insert schedule", err)
}

func (r Repo) GetSchedule(ctx context.Context, id string) (domain.Schedule, error) {
	return scanSchedule(r.DB.QueryRowContext(ctx, `SELECT `+schedColumns+` FROM schedules WHERE id=?`, id))
}

// ListSchedules returns schedules in creation order. Due ordering is
// derived against the clock, so it is applied by the caller, not here.
func (r Repo) ListSchedules(ctx context.Context, machineID string) ([]domain.Schedule, error) {
	query := `SELECT ` + schedColumns + ` FROM schedules`
	var args []any
	if machineID != "" {
		query += ` WHERE machine_id=?`
		args = append(args, machineID)
	}
	query += ` ORDER BY created_at, id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storage("list schedules", err)
	}
	defer rows.Close()
	var res []domain.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, storage("list schedules", rows.Err())
}

// UpdateScheduleTx rewrites the mutable fields of a schedule.
func (r Repo) UpdateScheduleTx(ctx context.Context, tx *sql.Tx, s domain.Schedule) error {
	res, err := tx.ExecContext(ctx, `UPDATE schedules SET machine_id=?, machine_name=?, task=?, frequency_days=?, last_done=? WHERE id=?`,
		s.MachineID, s.MachineName, s.Task, s.FrequencyDays, s.LastDone, s.ID)
	if err != nil {
		return storage("update schedule", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteScheduleTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE id=?`, id)
	if err != nil {
		return storage("delete schedule", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
