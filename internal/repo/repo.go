package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"plantline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// StorageError marks a failure of the storage layer itself, as opposed
// to a domain outcome like a missing row or a rejected transition.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// storage wraps infrastructure errors and passes domain sentinels through.
func storage(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func (r Repo) InsertMachine(ctx context.Context, m domain.Machine) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO machines(id,code,name,type,location,install_date,status,created_at) VALUES (?,?,?,?,?,?,?,?)`,
		m.ID, m.Code, m.Name, m.Type, m.Location, m.InstallDate, m.Status, m.CreatedAt)
	return storage("insert machine", err)
}

func scanMachine(row *sql.Row) (domain.Machine, error) {
	var m domain.Machine
	err := row.Scan(&m.ID, &m.Code, &m.Name, &m.Type, &m.Location, &m.InstallDate, &m.Status, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	return m, storage("scan machine", err)
}

func (r Repo) GetMachine(ctx context.Context, id string) (domain.Machine, error) {
	return scanMachine(r.DB.QueryRowContext(ctx, `SELECT id,code,name,type,location,install_date,status,created_at FROM machines WHERE id=?`, id))
}

func (r Repo) GetMachineByCode(ctx context.Context, code string) (domain.Machine, error) {
	return scanMachine(r.DB.QueryRowContext(ctx, `SELECT id,code,name,type,location,install_date,status,created_at FROM machines WHERE code=?`, code))
}

func (r Repo) ListMachines(ctx context.Context) ([]domain.Machine, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,code,name,type,location,install_date,status,created_at FROM machines ORDER BY code`)
	if err != nil {
		return nil, storage("list machines", err)
	}
	defer rows.Close()
	var res []domain.Machine
	for rows.Next() {
		var m domain.Machine
		if err := rows.Scan(&m.ID, &m.Code, &m.Name, &m.Type, &m.Location, &m.InstallDate, &m.Status, &m.CreatedAt); err != nil {
			return nil, storage("scan machine", err)
		}
		res = append(res, m)
	}
	return res, storage("list machines", rows.Err())
}

func (r Repo) InsertComponent(ctx context.Context, c domain.Component) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO components(id,machine_id,code,name,status,notes,created_at) VALUES (?,?,?,?,?,?,?)`,
		c.ID, c.MachineID, c.Code, c.Name, c.Status, c.Notes, c.CreatedAt)
	return storage("insert component", err)
}

func (r Repo) GetComponent(ctx context.Context, id string) (domain.Component, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,machine_id,code,name,status,notes,created_at FROM components WHERE id=?`, id)
	var c domain.Component
	err := row.Scan(&c.ID, &c.MachineID, &c.Code, &c.Name, &c.Status, &c.Notes, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, storage("scan component", err)
}

func (r Repo) ListComponents(ctx context.Context, machineID string) ([]domain.Component, error) {
	query := `SELECT id,machine_id,code,name,status,notes,created_at FROM components`
	var args []any
	if machineID != "" {
		query += ` WHERE machine_id=?`
		args = append(args, machineID)
	}
	query += ` ORDER BY code`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storage("list components", err)
	}
	defer rows.Close()
	var res []domain.Component
	for rows.Next() {
		var c domain.Component
		if err := rows.Scan(&c.ID, &c.MachineID, &c.Code, &c.Name, &c.Status, &c.Notes, &c.CreatedAt); err != nil {
			return nil, storage("scan component", err)
		}
		res = append(res, c)
	}
	return res, storage("list components", rows.Err())
}

func (r Repo) CountMachines(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM machines`).Scan(&n)
	return n, storage("count machines", err)
}

func (r Repo) CountComponents(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM components`).Scan(&n)
	return n, storage("count components", err)
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}
