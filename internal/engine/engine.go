package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"plantline/internal/config"
	"plantline/internal/domain"
	"plantline/internal/duedate"
	"plantline/internal/events"
	"plantline/internal/lifecycle"
	"plantline/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time

	locks *lockTable
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
		locks:  newLockTable(),
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// audit returns the event writer stamped with the engine clock, so
// audit rows and history entries agree on time.
func (e Engine) audit() events.Writer {
	w := e.Events
	if w.Now == nil {
		w.Now = e.now
	}
	return w
}

func (e Engine) numberPrefix() string {
	if e.Config != nil && e.Config.WorkOrders.NumberPrefix != "" {
		return e.Config.WorkOrders.NumberPrefix
	}
	return "WO"
}

func (e Engine) listLimit() int {
	if e.Config != nil && e.Config.WorkOrders.ListLimit > 0 {
		return e.Config.WorkOrders.ListLimit
	}
	return 50
}

func (e Engine) dueSoonDays() int {
	if e.Config != nil && e.Config.Schedules.DueSoonDays > 0 {
		return e.Config.Schedules.DueSoonDays
	}
	return duedate.DueSoonWindow
}

var validPriorities = map[string]bool{"low": true, "medium": true, "high": true, "emergency": true}
var validTypes = map[string]bool{"preventive": true, "corrective": true, "breakdown": true}

// WorkOrderCreateOptions are parameters for creating a work order.
type WorkOrderCreateOptions struct {
	MachineID   string
	ComponentID string
	Type        string
	Priority    string
	Description string
	Assignee    string
	ActorID     string
}

// CreateWorkOrder opens a new work order. The order starts in status
// open with a single history entry recording the creation.
func (e Engine) CreateWorkOrder(ctx context.Context, opts WorkOrderCreateOptions) (domain.WorkOrder, error) {
	if opts.MachineID == "" {
		return domain.WorkOrder{}, validationf("machine_id is required")
	}
	if opts.Type == "" && e.Config != nil {
		opts.Type = e.Config.WorkOrders.DefaultType
	}
	if opts.Priority == "" && e.Config != nil {
		opts.Priority = e.Config.WorkOrders.DefaultPriority
	}
	if !validTypes[opts.Type] {
		return domain.WorkOrder{}, validationf("unknown work order type %q", opts.Type)
	}
	if !validPriorities[opts.Priority] {
		return domain.WorkOrder{}, validationf("unknown priority %q", opts.Priority)
	}
	machine, err := e.Repo.GetMachine(ctx, opts.MachineID)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.WorkOrder{}, &MachineNotFoundError{MachineID: opts.MachineID}
	}
	if err != nil {
		return domain.WorkOrder{}, err
	}
	var componentName string
	if opts.ComponentID != "" {
		comp, err := e.Repo.GetComponent(ctx, opts.ComponentID)
		if errors.Is(err, repo.ErrNotFound) {
			return domain.WorkOrder{}, validationf("component %s not found", opts.ComponentID)
		}
		if err != nil {
			return domain.WorkOrder{}, err
		}
		if comp.MachineID != opts.MachineID {
			return domain.WorkOrder{}, validationf("component %s does not belong to machine %s", opts.ComponentID, opts.MachineID)
		}
		componentName = comp.Name
	}

	now := e.now().UTC()
	createdAt := now.Format(time.RFC3339)
	wo := domain.WorkOrder{
		ID:            uuid.NewString(),
		MachineID:     machine.ID,
		MachineName:   machine.Name,
		ComponentName: componentName,
		Type:          opts.Type,
		Priority:      opts.Priority,
		Description:   opts.Description,
		Status:        lifecycle.StatusOpen,
		CreatedAt:     createdAt,
		CreatedBy:     opts.ActorID,
	}
	if opts.ComponentID != "" {
		wo.ComponentID = &opts.ComponentID
	}
	if opts.Assignee != "" {
		wo.Assignee = &opts.Assignee
		wo.AssignedAt = &createdAt
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	defer tx.Rollback()

	wo.WONumber, err = e.nextWONumber(ctx, tx, now)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	if err := e.Repo.InsertWorkOrderTx(ctx, tx, wo); err != nil {
		return domain.WorkOrder{}, err
	}
	opened := domain.HistoryEntry{Status: lifecycle.StatusOpen, By: opts.ActorID, Timestamp: createdAt}
	if err := e.Repo.InsertHistoryTx(ctx, tx, wo.ID, opened); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := e.audit().Append(ctx, tx, "workorder.created", "workorder", wo.ID, opts.ActorID,
		events.Payload{"wo_number": wo.WONumber, "machine_id": wo.MachineID, "priority": wo.Priority}); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.WorkOrder{}, err
	}
	wo.History = []domain.HistoryEntry{opened}
	return wo, nil
}

// nextWONumber allocates the next number in the per-month sequence.
// It advances past the highest suffix seen in either partition, so
// archived orders keep their slot and deleted ones are never reissued.
func (e Engine) nextWONumber(ctx context.Context, tx *sql.Tx, now time.Time) (string, error) {
	prefix := fmt.Sprintf("%s-%s-", e.numberPrefix(), now.Format("2006-01"))
	n, err := e.Repo.MaxWorkOrderSuffixTx(ctx, tx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, n+1), nil
}

// SetWorkOrderStatus advances an order one step along the lifecycle.
// Concurrent callers racing on the same order are serialized; the loser
// of a lost store-level race gets an InvalidTransitionError carrying the
// status that actually won.
func (e Engine) SetWorkOrderStatus(ctx context.Context, id, newStatus, actorID, note string) (domain.WorkOrder, error) {
	if !lifecycle.IsValid(newStatus) {
		return domain.WorkOrder{}, validationf("unknown status %q", newStatus)
	}
	release := e.locks.Acquire(id)
	defer release()

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	defer tx.Rollback()

	wo, err := e.Repo.GetWorkOrderTx(ctx, tx, id)
	if errors.Is(err, repo.ErrNotFound) {
		if _, archErr := e.Repo.GetArchivedWorkOrderTx(ctx, tx, id); archErr == nil {
			return domain.WorkOrder{}, &ArchivedError{ID: id}
		}
		return domain.WorkOrder{}, repo.ErrNotFound
	}
	if err != nil {
		return domain.WorkOrder{}, err
	}
	if err := lifecycle.Validate(wo.Status, newStatus); err != nil {
		return domain.WorkOrder{}, err
	}
	ok, err := e.Repo.UpdateWorkOrderStatusTx(ctx, tx, id, wo.Status, newStatus)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	if !ok {
		// Lost a race: report the transition against the current status.
		current, err := e.Repo.GetWorkOrderTx(ctx, tx, id)
		if err != nil {
			return domain.WorkOrder{}, err
		}
		return domain.WorkOrder{}, &lifecycle.InvalidTransitionError{From: current.Status, To: newStatus}
	}
	ts := e.now().UTC().Format(time.RFC3339)
	entry := domain.HistoryEntry{Status: newStatus, By: actorID, Note: note, Timestamp: ts}
	if err := e.Repo.InsertHistoryTx(ctx, tx, id, entry); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := e.audit().Append(ctx, tx, "workorder.status", "workorder", id, actorID,
		events.Payload{"from": wo.Status, "to": newStatus}); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.WorkOrder{}, err
	}
	wo.Status = newStatus
	return e.loadWorkOrder(ctx, wo)
}

// ClaimWorkOrder assigns an open order to an actor and starts it.
func (e Engine) ClaimWorkOrder(ctx context.Context, id, actorID, note string) (domain.WorkOrder, error) {
	if actorID == "" {
		return domain.WorkOrder{}, validationf("actor is required to claim a work order")
	}
	release := e.locks.Acquire(id)
	defer release()

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	defer tx.Rollback()

	wo, err := e.Repo.GetWorkOrderTx(ctx, tx, id)
	if errors.Is(err, repo.ErrNotFound) {
		if _, archErr := e.Repo.GetArchivedWorkOrderTx(ctx, tx, id); archErr == nil {
			return domain.WorkOrder{}, &ArchivedError{ID: id}
		}
		return domain.WorkOrder{}, repo.ErrNotFound
	}
	if err != nil {
		return domain.WorkOrder{}, err
	}
	if wo.Status != lifecycle.StatusOpen {
		return domain.WorkOrder{}, &NotOpenError{Status: wo.Status}
	}
	if wo.Assignee != nil && *wo.Assignee != "" {
		return domain.WorkOrder{}, &AlreadyAssignedError{Assignee: *wo.Assignee}
	}
	ok, err := e.Repo.UpdateWorkOrderStatusTx(ctx, tx, id, lifecycle.StatusOpen, lifecycle.StatusInProgress)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	if !ok {
		current, err := e.Repo.GetWorkOrderTx(ctx, tx, id)
		if err != nil {
			return domain.WorkOrder{}, err
		}
		return domain.WorkOrder{}, &NotOpenError{Status: current.Status}
	}
	ts := e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.AssignWorkOrderTx(ctx, tx, id, actorID, ts); err != nil {
		return domain.WorkOrder{}, err
	}
	entry := domain.HistoryEntry{Status: lifecycle.StatusInProgress, By: actorID, Note: note, Timestamp: ts}
	if err := e.Repo.InsertHistoryTx(ctx, tx, id, entry); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := e.audit().Append(ctx, tx, "workorder.claimed", "workorder", id, actorID,
		events.Payload{"assignee": actorID}); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.WorkOrder{}, err
	}
	wo.Status = lifecycle.StatusInProgress
	wo.Assignee = &actorID
	wo.AssignedAt = &ts
	return e.loadWorkOrder(ctx, wo)
}

// ArchiveWorkOrder moves a closed order to the archive partition.
func (e Engine) ArchiveWorkOrder(ctx context.Context, id, actorID string) (domain.WorkOrder, error) {
	release := e.locks.Acquire(id)
	defer release()

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	defer tx.Rollback()

	wo, err := e.Repo.GetWorkOrderTx(ctx, tx, id)
	if errors.Is(err, repo.ErrNotFound) {
		if _, archErr := e.Repo.GetArchivedWorkOrderTx(ctx, tx, id); archErr == nil {
			return domain.WorkOrder{}, &ArchivedError{ID: id}
		}
		return domain.WorkOrder{}, repo.ErrNotFound
	}
	if err != nil {
		return domain.WorkOrder{}, err
	}
	if wo.Status != lifecycle.StatusClosed {
		return domain.WorkOrder{}, &NotClosedError{Status: wo.Status}
	}
	if err := e.Repo.ArchiveWorkOrderTx(ctx, tx, id); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := e.audit().Append(ctx, tx, "workorder.archived", "workorder", id, actorID, nil); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.WorkOrder{}, err
	}
	return e.loadWorkOrder(ctx, wo)
}

// RestoreWorkOrder moves an archived order back to the live partition.
// The order keeps its closed status; it does not re-enter the lifecycle.
func (e Engine) RestoreWorkOrder(ctx context.Context, id, actorID string) (domain.WorkOrder, error) {
	release := e.locks.Acquire(id)
	defer release()

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	defer tx.Rollback()

	wo, err := e.Repo.GetArchivedWorkOrderTx(ctx, tx, id)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	if err := e.Repo.RestoreWorkOrderTx(ctx, tx, id); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := e.audit().Append(ctx, tx, "workorder.restored", "workorder", id, actorID, nil); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.WorkOrder{}, err
	}
	return e.loadWorkOrder(ctx, wo)
}

// DeleteWorkOrder removes an open order along with its history. Orders
// that have progressed past open are never deleted, only archived.
func (e Engine) DeleteWorkOrder(ctx context.Context, id, actorID string) error {
	release := e.locks.Acquire(id)
	defer release()

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	wo, err := e.Repo.GetWorkOrderTx(ctx, tx, id)
	if errors.Is(err, repo.ErrNotFound) {
		if _, archErr := e.Repo.GetArchivedWorkOrderTx(ctx, tx, id); archErr == nil {
			return &ArchivedError{ID: id}
		}
		return repo.ErrNotFound
	}
	if err != nil {
		return err
	}
	if wo.Status != lifecycle.StatusOpen {
		return &NotOpenError{Status: wo.Status}
	}
	if err := e.Repo.DeleteWorkOrderTx(ctx, tx, id); err != nil {
		return err
	}
	if err := e.audit().Append(ctx, tx, "workorder.deleted", "workorder", id, actorID,
		events.Payload{"wo_number": wo.WONumber}); err != nil {
		return err
	}
	return tx.Commit()
}

// GetWorkOrder returns an order from either partition with its history
// and display names resolved.
func (e Engine) GetWorkOrder(ctx context.Context, id string) (domain.WorkOrder, bool, error) {
	wo, archived, err := e.Repo.GetWorkOrder(ctx, id)
	if err != nil {
		return domain.WorkOrder{}, false, err
	}
	wo, err = e.loadWorkOrder(ctx, wo)
	return wo, archived, err
}

// loadWorkOrder fills history and display names on a bare row.
func (e Engine) loadWorkOrder(ctx context.Context, wo domain.WorkOrder) (domain.WorkOrder, error) {
	history, err := e.Repo.ListHistory(ctx, wo.ID)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	wo.History = history
	if wo.MachineName == "" {
		if m, err := e.Repo.GetMachine(ctx, wo.MachineID); err == nil {
			wo.MachineName = m.Name
		}
	}
	if wo.ComponentID != nil && wo.ComponentName == "" {
		if c, err := e.Repo.GetComponent(ctx, *wo.ComponentID); err == nil {
			wo.ComponentName = c.Name
		}
	}
	return wo, nil
}

// ListWorkOrders returns live orders, newest first.
func (e Engine) ListWorkOrders(ctx context.Context, f repo.WorkOrderFilters) ([]domain.WorkOrder, error) {
	if f.Status != "" && !lifecycle.IsValid(f.Status) {
		return nil, validationf("unknown status %q", f.Status)
	}
	if f.Limit <= 0 {
		f.Limit = e.listLimit()
	}
	orders, err := e.Repo.ListWorkOrders(ctx, f)
	return e.decorate(ctx, orders, err)
}

// ListArchivedWorkOrders returns archived orders, newest first.
func (e Engine) ListArchivedWorkOrders(ctx context.Context, f repo.WorkOrderFilters) ([]domain.WorkOrder, error) {
	if f.Limit <= 0 {
		f.Limit = e.listLimit()
	}
	orders, err := e.Repo.ListArchivedWorkOrders(ctx, f)
	return e.decorate(ctx, orders, err)
}

func (e Engine) decorate(ctx context.Context, orders []domain.WorkOrder, err error) ([]domain.WorkOrder, error) {
	if err != nil {
		return nil, err
	}
	names := map[string]string{}
	for i := range orders {
		name, ok := names[orders[i].MachineID]
		if !ok {
			if m, err := e.Repo.GetMachine(ctx, orders[i].MachineID); err == nil {
				name = m.Name
			}
			names[orders[i].MachineID] = name
		}
		orders[i].MachineName = name
		history, err := e.Repo.ListHistory(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].History = history
	}
	return orders, nil
}
