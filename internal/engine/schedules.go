package engine

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"plantline/internal/domain"
	"plantline/internal/duedate"
	"plantline/internal/events"
	"plantline/internal/repo"
)

// ScheduleCreateOptions are parameters for creating a preventive
// maintenance schedule.
type ScheduleCreateOptions struct {
	MachineID     string
	Task          string
	FrequencyDays int
	LastDone      string
	ActorID       string
}

func (e Engine) CreateSchedule(ctx context.Context, opts ScheduleCreateOptions) (domain.ScheduleWithDue, error) {
	if opts.MachineID == "" {
		return domain.ScheduleWithDue{}, validationf("machine_id is required")
	}
	if opts.Task == "" {
		return domain.ScheduleWithDue{}, validationf("task is required")
	}
	if opts.FrequencyDays < 1 {
		return domain.ScheduleWithDue{}, validationf("frequency_days must be at least 1")
	}
	if opts.LastDone == "" {
		opts.LastDone = e.now().UTC().Format(duedate.DateLayout)
	}
	if err := e.checkLastDone(opts.LastDone); err != nil {
		return domain.ScheduleWithDue{}, err
	}
	machine, err := e.Repo.GetMachine(ctx, opts.MachineID)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.ScheduleWithDue{}, &MachineNotFoundError{MachineID: opts.MachineID}
	}
	if err != nil {
		return domain.ScheduleWithDue{}, err
	}

	s := domain.Schedule{
		ID:            uuid.NewString(),
		MachineID:     machine.ID,
		MachineName:   machine.Name,
		Task:          opts.Task,
		FrequencyDays: opts.FrequencyDays,
		LastDone:      opts.LastDone,
		CreatedAt:     e.now().UTC().Format(time.RFC3339),
		CreatedBy:     opts.ActorID,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ScheduleWithDue{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertScheduleTx(ctx, tx, s); err != nil {
		return domain.ScheduleWithDue{}, err
	}
	if err := e.audit().Append(ctx, tx, "schedule.created", "schedule", s.ID, opts.ActorID,
		events.Payload{"machine_id": s.MachineID, "task": s.Task, "frequency_days": s.FrequencyDays}); err != nil {
		return domain.ScheduleWithDue{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ScheduleWithDue{}, err
	}
	return e.withDue(s), nil
}

// checkLastDone rejects malformed and future completion dates.
func (e Engine) checkLastDone(lastDone string) error {
	ld, err := time.Parse(duedate.DateLayout, lastDone)
	if err != nil {
		return validationf("last_done must be a YYYY-MM-DD date")
	}
	if ld.After(e.now().UTC()) {
		return validationf("last_done must not be in the future")
	}
	return nil
}

// ScheduleUpdateOptions carries the mutable fields of a schedule. Nil
// means keep the stored value.
type ScheduleUpdateOptions struct {
	MachineID     *string
	Task          *string
	FrequencyDays *int
	LastDone      *string
	ActorID       string
}

func (e Engine) UpdateSchedule(ctx context.Context, id string, opts ScheduleUpdateOptions) (domain.ScheduleWithDue, error) {
	release := e.locks.Acquire(id)
	defer release()

	s, err := e.Repo.GetSchedule(ctx, id)
	if err != nil {
		return domain.ScheduleWithDue{}, err
	}
	if opts.MachineID != nil && *opts.MachineID != s.MachineID {
		machine, err := e.Repo.GetMachine(ctx, *opts.MachineID)
		if errors.Is(err, repo.ErrNotFound) {
			return domain.ScheduleWithDue{}, &MachineNotFoundError{MachineID: *opts.MachineID}
		}
		if err != nil {
			return domain.ScheduleWithDue{}, err
		}
		s.MachineID = machine.ID
		s.MachineName = machine.Name
	}
	if opts.Task != nil {
		if *opts.Task == "" {
			return domain.ScheduleWithDue{}, validationf("task must not be empty")
		}
		s.Task = *opts.Task
	}
	if opts.FrequencyDays != nil {
		if *opts.FrequencyDays < 1 {
			return domain.ScheduleWithDue{}, validationf("frequency_days must be at least 1")
		}
		s.FrequencyDays = *opts.FrequencyDays
	}
	if opts.LastDone != nil {
		if err := e.checkLastDone(*opts.LastDone); err != nil {
			return domain.ScheduleWithDue{}, err
		}
		s.LastDone = *opts.LastDone
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ScheduleWithDue{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateScheduleTx(ctx, tx, s); err != nil {
		return domain.ScheduleWithDue{}, err
	}
	if err := e.audit().Append(ctx, tx, "schedule.updated", "schedule", s.ID, opts.ActorID, nil); err != nil {
		return domain.ScheduleWithDue{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ScheduleWithDue{}, err
	}
	return e.withDue(s), nil
}

// MarkScheduleDone records a completion today, resetting the cycle.
func (e Engine) MarkScheduleDone(ctx context.Context, id, actorID string) (domain.ScheduleWithDue, error) {
	today := e.now().UTC().Format(duedate.DateLayout)
	return e.UpdateSchedule(ctx, id, ScheduleUpdateOptions{LastDone: &today, ActorID: actorID})
}

func (e Engine) DeleteSchedule(ctx context.Context, id, actorID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteScheduleTx(ctx, tx, id); err != nil {
		return err
	}
	if err := e.audit().Append(ctx, tx, "schedule.deleted", "schedule", id, actorID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

func (e Engine) GetSchedule(ctx context.Context, id string) (domain.ScheduleWithDue, error) {
	s, err := e.Repo.GetSchedule(ctx, id)
	if err != nil {
		return domain.ScheduleWithDue{}, err
	}
	return e.withDue(s), nil
}

// ListSchedules returns schedules annotated with due information and
// sorted most urgent first. dueFilter narrows to one bucket when set.
func (e Engine) ListSchedules(ctx context.Context, machineID, dueFilter string) ([]domain.ScheduleWithDue, error) {
	switch dueFilter {
	case "", duedate.StatusOverdue, duedate.StatusDueSoon, duedate.StatusOnTrack:
	default:
		return nil, validationf("unknown due status %q", dueFilter)
	}
	stored, err := e.Repo.ListSchedules(ctx, machineID)
	if err != nil {
		return nil, err
	}
	res := make([]domain.ScheduleWithDue, 0, len(stored))
	for _, s := range stored {
		sd := e.withDue(s)
		if dueFilter != "" && sd.Due != dueFilter {
			continue
		}
		res = append(res, sd)
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].DaysLeft < res[j].DaysLeft })
	return res, nil
}

// withDue derives next-due values against the engine clock. Values are
// computed on every read and never stored.
func (e Engine) withDue(s domain.Schedule) domain.ScheduleWithDue {
	lastDone, err := time.Parse(duedate.DateLayout, s.LastDone)
	if err != nil {
		// Stored dates are validated on write; treat a bad one as due now.
		lastDone = e.now().UTC().AddDate(0, 0, -s.FrequencyDays)
	}
	next := duedate.NextDue(lastDone, s.FrequencyDays)
	left := duedate.DaysLeft(next, e.now().UTC())
	return domain.ScheduleWithDue{
		Schedule: s,
		NextDue:  next.Format(duedate.DateLayout),
		DaysLeft: left,
		Due:      duedate.ClassifyWithin(left, e.dueSoonDays()),
	}
}

// Stats summarizes maintenance pressure for dashboards.
type Stats struct {
	SchedulesTotal   int            `json:"schedules_total"`
	Overdue          int            `json:"overdue"`
	DueToday         int            `json:"due_today"`
	UpcomingSoon     int            `json:"upcoming_soon"`
	WorkOrdersTotal  int            `json:"workorders_total"`
	WorkOrdersByStat map[string]int `json:"workorders_by_status"`
	MachinesTotal    int            `json:"machines_total"`
	ComponentsTotal  int            `json:"components_total"`
}

func (e Engine) GetStats(ctx context.Context) (Stats, error) {
	schedules, err := e.ListSchedules(ctx, "", "")
	if err != nil {
		return Stats{}, err
	}
	st := Stats{SchedulesTotal: len(schedules)}
	for _, s := range schedules {
		switch {
		case s.DaysLeft < 0:
			st.Overdue++
		case s.DaysLeft == 0:
			st.DueToday++
		case s.DaysLeft <= e.dueSoonDays():
			st.UpcomingSoon++
		}
	}
	st.WorkOrdersByStat, err = e.Repo.CountWorkOrdersByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	for _, n := range st.WorkOrdersByStat {
		st.WorkOrdersTotal += n
	}
	if st.MachinesTotal, err = e.Repo.CountMachines(ctx); err != nil {
		return Stats{}, err
	}
	if st.ComponentsTotal, err = e.Repo.CountComponents(ctx); err != nil {
		return Stats{}, err
	}
	return st, nil
}
