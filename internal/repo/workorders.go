package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"plantline/internal/domain"
)

const woColumns = `id,wo_number,machine_id,component_id,type,priority,description,status,assignee,assigned_at,created_at,created_by`

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkOrder(row scanner) (domain.WorkOrder, error) {
	var wo domain.WorkOrder
	var componentID, assignee, assignedAt sql.NullString
	err := row.Scan(&wo.ID, &wo.WONumber, &wo.MachineID, &componentID, &wo.Type, &wo.Priority,
		&wo.Description, &wo.Status, &assignee, &assignedAt, &wo.CreatedAt, &wo.CreatedBy)
	if err == sql.ErrNoRows {
		return wo, ErrNotFound
	}
	if err != nil {
		return wo, storage("scan workorder", err)
	}
	if componentID.Valid {
		wo.ComponentID = &componentID.String
	}
	if assignee.Valid {
		wo.Assignee = &assignee.String
	}
	if assignedAt.Valid {
		wo.AssignedAt = &assignedAt.String
	}
	return wo, nil
}

// InsertWorkOrderTx stores a new work order in the live partition.
func (r Repo) InsertWorkOrderTx(ctx context.Context, tx *sql.Tx, wo domain.WorkOrder) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO workorders(`+woColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		wo.ID, wo.WONumber, wo.MachineID, nullableStringPtr(wo.ComponentID), wo.Type, wo.Priority,
		wo.Description, wo.Status, nullableStringPtr(wo.Assignee), nullableStringPtr(wo.AssignedAt), wo.CreatedAt, wo.CreatedBy)
	return storage("insert workorder", err)
}

// GetWorkOrder looks the order up in the live partition first, then in
// the archive. archived reports which partition held it.
func (r Repo) GetWorkOrder(ctx context.Context, id string) (wo domain.WorkOrder, archived bool, err error) {
	wo, err = scanWorkOrder(r.DB.QueryRowContext(ctx, `SELECT `+woColumns+` FROM workorders WHERE id=?`, id))
	if err == nil {
		return wo, false, nil
	}
	if err != ErrNotFound {
		return wo, false, err
	}
	wo, err = scanWorkOrder(r.DB.QueryRowContext(ctx, `SELECT `+woColumns+` FROM workorders_archive WHERE id=?`, id))
	return wo, err == nil, err
}

func (r Repo) GetWorkOrderTx(ctx context.Context, tx *sql.Tx, id string) (domain.WorkOrder, error) {
	return scanWorkOrder(tx.QueryRowContext(ctx, `SELECT `+woColumns+` FROM workorders WHERE id=?`, id))
}

func (r Repo) GetArchivedWorkOrderTx(ctx context.Context, tx *sql.Tx, id string) (domain.WorkOrder, error) {
	return scanWorkOrder(tx.QueryRowContext(ctx, `SELECT `+woColumns+` FROM workorders_archive WHERE id=?`, id))
}

type WorkOrderFilters struct {
	Status    string
	MachineID string
	Assignee  string
	Limit     int
}

func (r Repo) listWorkOrders(ctx context.Context, table string, f WorkOrderFilters) ([]domain.WorkOrder, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.MachineID != "" {
		clauses = append(clauses, "machine_id=?")
		args = append(args, f.MachineID)
	}
	if f.Assignee != "" {
		clauses = append(clauses, "assignee=?")
		args = append(args, f.Assignee)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY created_at DESC, wo_number DESC LIMIT ?`,
		woColumns, table, strings.Join(clauses, " AND "))
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storage("list workorders", err)
	}
	defer rows.Close()
	var res []domain.WorkOrder
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, wo)
	}
	return res, storage("list workorders", rows.Err())
}

func (r Repo) ListWorkOrders(ctx context.Context, f WorkOrderFilters) ([]domain.WorkOrder, error) {
	return r.listWorkOrders(ctx, "workorders", f)
}

func (r Repo) ListArchivedWorkOrders(ctx context.Context, f WorkOrderFilters) ([]domain.WorkOrder, error) {
	return r.listWorkOrders(ctx, "workorders_archive", f)
}

// UpdateWorkOrderStatusTx moves a live order from one status to another.
// The from status is part of the predicate, so a concurrent writer that
// got there first makes this report ErrNotFound via zero rows.
func (r Repo) UpdateWorkOrderStatusTx(ctx context.Context, tx *sql.Tx, id, from, to string) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE workorders SET status=? WHERE id=? AND status=?`, to, id, from)
	if err != nil {
		return false, storage("update workorder status", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, storage("update workorder status", err)
	}
	return affected == 1, nil
}

// AssignWorkOrderTx sets the assignee fields on a live order.
func (r Repo) AssignWorkOrderTx(ctx context.Context, tx *sql.Tx, id, assignee, assignedAt string) error {
	_, err := tx.ExecContext(ctx, `UPDATE workorders SET assignee=?, assigned_at=? WHERE id=?`, assignee, assignedAt, id)
	return storage("assign workorder", err)
}

// ArchiveWorkOrderTx copies a live order to the archive partition and
// removes it from the live one. Both statements share the transaction,
// so the order is never in both partitions or in neither.
func (r Repo) ArchiveWorkOrderTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `INSERT INTO workorders_archive(`+woColumns+`) SELECT `+woColumns+` FROM workorders WHERE id=?`, id)
	if err != nil {
		return storage("archive workorder", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM workorders WHERE id=?`, id)
	return storage("archive workorder", err)
}

// RestoreWorkOrderTx moves an archived order back to the live partition.
func (r Repo) RestoreWorkOrderTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `INSERT INTO workorders(`+woColumns+`) SELECT `+woColumns+` FROM workorders_archive WHERE id=?`, id)
	if err != nil {
		return storage("restore workorder", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM workorders_archive WHERE id=?`, id)
	return storage("restore workorder", err)
}

// DeleteWorkOrderTx removes a live order and its history rows.
func (r Repo) DeleteWorkOrderTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM workorders WHERE id=?`, id)
	if err != nil {
		return storage("delete workorder", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM wo_history WHERE workorder_id=?`, id)
	return storage("delete workorder history", err)
}

// InsertHistoryTx appends one history entry for a work order.
func (r Repo) InsertHistoryTx(ctx context.Context, tx *sql.Tx, workorderID string, h domain.HistoryEntry) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO wo_history(workorder_id,status,actor,note,ts) VALUES (?,?,?,?,?)`,
		workorderID, h.Status, h.By, nullable(h.Note), h.Timestamp)
	return storage("insert history", err)
}

// ListHistory returns history entries in insertion order.
func (r Repo) ListHistory(ctx context.Context, workorderID string) ([]domain.HistoryEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status,actor,COALESCE(note,''),ts FROM wo_history WHERE workorder_id=? ORDER BY seq`, workorderID)
	if err != nil {
		return nil, storage("list history", err)
	}
	defer rows.Close()
	var res []domain.HistoryEntry
	for rows.Next() {
		var h domain.HistoryEntry
		if err := rows.Scan(&h.Status, &h.By, &h.Note, &h.Timestamp); err != nil {
			return nil, storage("scan history", err)
		}
		res = append(res, h)
	}
	return res, storage("list history", rows.Err())
}

// MaxWorkOrderSuffixTx returns the highest numeric suffix among orders in
// both partitions whose number starts with the given prefix. Used for
// per-month numbering; a deleted order never frees its slot.
func (r Repo) MaxWorkOrderSuffixTx(ctx context.Context, tx *sql.Tx, prefix string) (int, error) {
	var n int
	pos := len(prefix) + 1
	err := tx.QueryRowContext(ctx,
		`SELECT MAX(s) FROM (
			SELECT COALESCE(MAX(CAST(substr(wo_number, ?) AS INTEGER)), 0) AS s FROM workorders WHERE wo_number LIKE ?
			UNION ALL
			SELECT COALESCE(MAX(CAST(substr(wo_number, ?) AS INTEGER)), 0) FROM workorders_archive WHERE wo_number LIKE ?
		)`,
		pos, prefix+"%", pos, prefix+"%").Scan(&n)
	return n, storage("max workorder number", err)
}

// CountWorkOrdersByStatus counts live orders per status.
func (r Repo) CountWorkOrdersByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM workorders GROUP BY status`)
	if err != nil {
		return nil, storage("count workorders by status", err)
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, storage("count workorders by status", err)
		}
		res[status] = n
	}
	return res, storage("count workorders by status", rows.Err())
}
