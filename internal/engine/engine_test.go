package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"plantline/internal/config"
	"plantline/internal/db"
	"plantline/internal/domain"
	"plantline/internal/engine"
	"plantline/internal/lifecycle"
	"plantline/internal/migrate"
	"plantline/internal/repo"
)

type testEnv struct {
	Engine  engine.Engine
	Ctx     context.Context
	Machine domain.Machine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, config.Default("plant-1"))
	eng.Now = func() time.Time { return time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	m, err := eng.CreateMachine(ctx, engine.MachineCreateOptions{Code: "CNC-01", Name: "CNC Mill", ActorID: "tester"})
	if err != nil {
		t.Fatalf("create machine: %v", err)
	}
	return &testEnv{Engine: eng, Ctx: ctx, Machine: m}
}

func (env *testEnv) createWO(t *testing.T) domain.WorkOrder {
	t.Helper()
	wo, err := env.Engine.CreateWorkOrder(env.Ctx, engine.WorkOrderCreateOptions{
		MachineID:   env.Machine.ID,
		Type:        "corrective",
		Priority:    "high",
		Description: "spindle vibration",
		ActorID:     "tester",
	})
	if err != nil {
		t.Fatalf("create work order: %v", err)
	}
	return wo
}

func TestCreateWorkOrder(t *testing.T) {
	env := newTestEnv(t)
	wo := env.createWO(t)
	if wo.Status != "open" {
		t.Fatalf("status: got %s, want open", wo.Status)
	}
	if wo.WONumber != "WO-2026-08-0001" {
		t.Fatalf("wo_number: got %s", wo.WONumber)
	}
	if len(wo.History) != 1 || wo.History[0].Status != "open" || wo.History[0].By != "tester" {
		t.Fatalf("history: got %+v", wo.History)
	}
	two := env.createWO(t)
	if two.WONumber != "WO-2026-08-0002" {
		t.Fatalf("second wo_number: got %s", two.WONumber)
	}
}

func TestCreateWorkOrderUnknownMachine(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.CreateWorkOrder(env.Ctx, engine.WorkOrderCreateOptions{
		MachineID: "nope", Type: "corrective", Priority: "low", ActorID: "tester",
	})
	var mnf *engine.MachineNotFoundError
	if !errors.As(err, &mnf) {
		t.Fatalf("expected MachineNotFoundError, got %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	wo := env.createWO(t)
	for _, next := range []string{"in_progress", "completed", "closed"} {
		var err error
		wo, err = env.Engine.SetWorkOrderStatus(env.Ctx, wo.ID, next, "tester", "")
		if err != nil {
			t.Fatalf("to %s: %v", next, err)
		}
		if wo.Status != next {
			t.Fatalf("status: got %s, want %s", wo.Status, next)
		}
	}
	if len(wo.History) != 4 {
		t.Fatalf("history length: got %d, want 4", len(wo.History))
	}
	// terminal: no way out of closed
	_, err := env.Engine.SetWorkOrderStatus(env.Ctx, wo.ID, "open", "tester", "")
	var ite *lifecycle.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
}

func TestStatusSkipRejected(t *testing.T) {
	env := newTestEnv(t)
	wo := env.createWO(t)
	_, err := env.Engine.SetWorkOrderStatus(env.Ctx, wo.ID, "closed", "tester", "")
	var ite *lifecycle.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	// history untouched by the rejected move
	got, _, err := env.Engine.GetWorkOrder(env.Ctx, wo.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.History) != 1 {
		t.Fatalf("history length after rejection: got %d, want 1", len(got.History))
	}
}

func TestConcurrentTransitionOneWinner(t *testing.T) {
	env := newTestEnv(t)
	wo := env.createWO(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.Engine.SetWorkOrderStatus(env.Ctx, wo.ID, "in_progress", "tester", "")
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			var ite *lifecycle.InvalidTransitionError
			if !errors.As(err, &ite) {
				t.Fatalf("loser error: %v", err)
			}
			if ite.From != "in_progress" {
				t.Fatalf("loser saw stale from status %s", ite.From)
			}
			losses++
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("wins=%d losses=%d, want exactly one of each", wins, losses)
	}
	got, _, err := env.Engine.GetWorkOrder(env.Ctx, wo.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "in_progress" || len(got.History) != 2 {
		t.Fatalf("after race: status=%s history=%d", got.Status, len(got.History))
	}
}

func TestClaim(t *testing.T) {
	env := newTestEnv(t)
	wo := env.createWO(t)
	claimed, err := env.Engine.ClaimWorkOrder(env.Ctx, wo.ID, "esti", "taking this one")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.Status != "in_progress" {
		t.Fatalf("status: got %s", claimed.Status)
	}
	if claimed.Assignee == nil || *claimed.Assignee != "esti" {
		t.Fatalf("assignee: got %v", claimed.Assignee)
	}
	// second claim must fail: no longer open
	_, err = env.Engine.ClaimWorkOrder(env.Ctx, wo.ID, "omer", "")
	var noe *engine.NotOpenError
	if !errors.As(err, &noe) {
		t.Fatalf("expected NotOpenError, got %v", err)
	}
}

func closeOut(t *testing.T, env *testEnv, id string) {
	t.Helper()
	for _, next := range []string{"in_progress", "completed", "closed"} {
		if _, err := env.Engine.SetWorkOrderStatus(env.Ctx, id, next, "tester", ""); err != nil {
			t.Fatalf("to %s: %v", next, err)
		}
	}
}

func TestArchiveRequiresClosed(t *testing.T) {
	env := newTestEnv(t)
	wo := env.createWO(t)
	_, err := env.Engine.ArchiveWorkOrder(env.Ctx, wo.ID, "tester")
	var nce *engine.NotClosedError
	if !errors.As(err, &nce) {
		t.Fatalf("expected NotClosedError, got %v", err)
	}
}

func TestArchiveAndRestore(t *testing.T) {
	env := newTestEnv(t)
	wo := env.createWO(t)
	closeOut(t, env, wo.ID)

	archived, err := env.Engine.ArchiveWorkOrder(env.Ctx, wo.ID, "tester")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if archived.Status != "closed" {
		t.Fatalf("archived status: got %s", archived.Status)
	}
	live, err := env.Engine.ListWorkOrders(env.Ctx, repo.WorkOrderFilters{})
	if err != nil {
		t.Fatal(err)
	}
	if len(live) != 0 {
		t.Fatalf("live list after archive: got %d orders", len(live))
	}
	arch, err := env.Engine.ListArchivedWorkOrders(env.Ctx, repo.WorkOrderFilters{})
	if err != nil {
		t.Fatal(err)
	}
	if len(arch) != 1 || arch[0].ID != wo.ID {
		t.Fatalf("archive list: got %+v", arch)
	}

	// archived orders are immutable
	_, err = env.Engine.SetWorkOrderStatus(env.Ctx, wo.ID, "in_progress", "tester", "")
	var ae *engine.ArchivedError
	if !errors.As(err, &ae) {
		t.Fatalf("expected ArchivedError, got %v", err)
	}

	restored, err := env.Engine.RestoreWorkOrder(env.Ctx, wo.ID, "tester")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Status != "closed" {
		t.Fatalf("restored status: got %s, want closed", restored.Status)
	}
	live, err = env.Engine.ListWorkOrders(env.Ctx, repo.WorkOrderFilters{Status: "closed"})
	if err != nil {
		t.Fatal(err)
	}
	if len(live) != 1 {
		t.Fatalf("live list after restore: got %d orders", len(live))
	}
	// history survived the round trip
	if len(restored.History) != 4 {
		t.Fatalf("history after restore: got %d entries", len(restored.History))
	}
}

func TestDeleteOnlyOpen(t *testing.T) {
	env := newTestEnv(t)
	wo := env.createWO(t)
	if _, err := env.Engine.SetWorkOrderStatus(env.Ctx, wo.ID, "in_progress", "tester", ""); err != nil {
		t.Fatal(err)
	}
	err := env.Engine.DeleteWorkOrder(env.Ctx, wo.ID, "tester")
	var noe *engine.NotOpenError
	if !errors.As(err, &noe) {
		t.Fatalf("expected NotOpenError, got %v", err)
	}

	open := env.createWO(t)
	if err := env.Engine.DeleteWorkOrder(env.Ctx, open.ID, "tester"); err != nil {
		t.Fatalf("delete open: %v", err)
	}
	if _, _, err := env.Engine.GetWorkOrder(env.Ctx, open.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestScheduleDueDerivation(t *testing.T) {
	env := newTestEnv(t)
	// clock is fixed at 2026-08-15
	overdue, err := env.Engine.CreateSchedule(env.Ctx, engine.ScheduleCreateOptions{
		MachineID: env.Machine.ID, Task: "lube check", FrequencyDays: 30, LastDone: "2026-07-01", ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	if overdue.NextDue != "2026-07-31" || overdue.DaysLeft != -15 || overdue.Due != "overdue" {
		t.Fatalf("overdue schedule: %+v", overdue)
	}
	soon, err := env.Engine.CreateSchedule(env.Ctx, engine.ScheduleCreateOptions{
		MachineID: env.Machine.ID, Task: "filter swap", FrequencyDays: 30, LastDone: "2026-07-20", ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	if soon.DaysLeft != 4 || soon.Due != "due_soon" {
		t.Fatalf("due_soon schedule: %+v", soon)
	}
	track, err := env.Engine.CreateSchedule(env.Ctx, engine.ScheduleCreateOptions{
		MachineID: env.Machine.ID, Task: "belt inspection", FrequencyDays: 90, LastDone: "2026-08-01", ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	if track.Due != "on_track" {
		t.Fatalf("on_track schedule: %+v", track)
	}

	list, err := env.Engine.ListSchedules(env.Ctx, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("list length: got %d", len(list))
	}
	// most urgent first
	if list[0].ID != overdue.ID || list[1].ID != soon.ID || list[2].ID != track.ID {
		t.Fatalf("list order: %s %s %s", list[0].Task, list[1].Task, list[2].Task)
	}

	only, err := env.Engine.ListSchedules(env.Ctx, "", "overdue")
	if err != nil {
		t.Fatal(err)
	}
	if len(only) != 1 || only[0].ID != overdue.ID {
		t.Fatalf("overdue filter: %+v", only)
	}
}

func TestMarkScheduleDone(t *testing.T) {
	env := newTestEnv(t)
	s, err := env.Engine.CreateSchedule(env.Ctx, engine.ScheduleCreateOptions{
		MachineID: env.Machine.ID, Task: "lube check", FrequencyDays: 30, LastDone: "2026-07-01", ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	done, err := env.Engine.MarkScheduleDone(env.Ctx, s.ID, "tester")
	if err != nil {
		t.Fatalf("mark done: %v", err)
	}
	if done.LastDone != "2026-08-15" || done.NextDue != "2026-09-14" || done.Due != "on_track" {
		t.Fatalf("after done: %+v", done)
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	env.createWO(t)
	wo := env.createWO(t)
	if _, err := env.Engine.SetWorkOrderStatus(env.Ctx, wo.ID, "in_progress", "tester", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.CreateSchedule(env.Ctx, engine.ScheduleCreateOptions{
		MachineID: env.Machine.ID, Task: "overdue one", FrequencyDays: 10, LastDone: "2026-07-01", ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.CreateSchedule(env.Ctx, engine.ScheduleCreateOptions{
		MachineID: env.Machine.ID, Task: "due today", FrequencyDays: 14, LastDone: "2026-08-01", ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}
	st, err := env.Engine.GetStats(env.Ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.SchedulesTotal != 2 || st.Overdue != 1 || st.DueToday != 1 {
		t.Fatalf("schedule stats: %+v", st)
	}
	if st.WorkOrdersByStat["open"] != 1 || st.WorkOrdersByStat["in_progress"] != 1 {
		t.Fatalf("workorder stats: %+v", st.WorkOrdersByStat)
	}
	if st.WorkOrdersTotal != 2 || st.MachinesTotal != 1 {
		t.Fatalf("totals: %+v", st)
	}
}

func TestClaimAlreadyAssigned(t *testing.T) {
	env := newTestEnv(t)
	wo, err := env.Engine.CreateWorkOrder(env.Ctx, engine.WorkOrderCreateOptions{
		MachineID: env.Machine.ID,
		Type:      "preventive",
		Priority:  "low",
		Assignee:  "esti",
		ActorID:   "tester",
	})
	if err != nil {
		t.Fatalf("create work order: %v", err)
	}
	_, err = env.Engine.ClaimWorkOrder(env.Ctx, wo.ID, "omer", "")
	var aae *engine.AlreadyAssignedError
	if !errors.As(err, &aae) {
		t.Fatalf("expected AlreadyAssignedError, got %v", err)
	}
	if aae.Assignee != "esti" {
		t.Fatalf("assignee in error: got %s", aae.Assignee)
	}
}

func TestScheduleLastDoneRules(t *testing.T) {
	env := newTestEnv(t)
	// empty last_done defaults to today under the fixed clock
	s, err := env.Engine.CreateSchedule(env.Ctx, engine.ScheduleCreateOptions{
		MachineID: env.Machine.ID, Task: "lube check", FrequencyDays: 30, ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	if s.LastDone != "2026-08-15" || s.NextDue != "2026-09-14" {
		t.Fatalf("defaulted schedule: %+v", s)
	}
	_, err = env.Engine.CreateSchedule(env.Ctx, engine.ScheduleCreateOptions{
		MachineID: env.Machine.ID, Task: "future", FrequencyDays: 30, LastDone: "2026-09-01", ActorID: "tester",
	})
	var ve *engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for future last_done, got %v", err)
	}
}

func TestNumberingSkipsDeleted(t *testing.T) {
	env := newTestEnv(t)
	first := env.createWO(t)
	env.createWO(t)
	if err := env.Engine.DeleteWorkOrder(env.Ctx, first.ID, "tester"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	third := env.createWO(t)
	if third.WONumber != "WO-2026-08-0003" {
		t.Fatalf("wo_number after delete: got %s, want WO-2026-08-0003", third.WONumber)
	}
}

func TestClaimArchivedRejected(t *testing.T) {
	env := newTestEnv(t)
	wo := env.createWO(t)
	closeOut(t, env, wo.ID)
	if _, err := env.Engine.ArchiveWorkOrder(env.Ctx, wo.ID, "tester"); err != nil {
		t.Fatalf("archive: %v", err)
	}
	_, err := env.Engine.ClaimWorkOrder(env.Ctx, wo.ID, "esti", "")
	var ae *engine.ArchivedError
	if !errors.As(err, &ae) {
		t.Fatalf("expected ArchivedError, got %v", err)
	}
}

func TestListIncludesHistory(t *testing.T) {
	env := newTestEnv(t)
	wo := env.createWO(t)
	if _, err := env.Engine.SetWorkOrderStatus(env.Ctx, wo.ID, "in_progress", "tester", ""); err != nil {
		t.Fatal(err)
	}
	list, err := env.Engine.ListWorkOrders(env.Ctx, repo.WorkOrderFilters{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("list length: got %d", len(list))
	}
	if len(list[0].History) != 2 {
		t.Fatalf("listed history length: got %d, want 2", len(list[0].History))
	}
	if list[0].MachineName != env.Machine.Name {
		t.Fatalf("listed machine name: got %q", list[0].MachineName)
	}
}

func TestEventTimestampsUseClock(t *testing.T) {
	env := newTestEnv(t)
	wo := env.createWO(t)
	evts, err := env.Engine.Repo.LatestEvents(env.Ctx, 1, "workorder.created", "", wo.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(evts) != 1 {
		t.Fatalf("events: got %d", len(evts))
	}
	if evts[0].TS != "2026-08-15T10:00:00Z" {
		t.Fatalf("event ts: got %s, want 2026-08-15T10:00:00Z", evts[0].TS)
	}
}

func TestConcurrentScheduleUpdates(t *testing.T) {
	env := newTestEnv(t)
	s, err := env.Engine.CreateSchedule(env.Ctx, engine.ScheduleCreateOptions{
		MachineID: env.Machine.ID, Task: "lube check", FrequencyDays: 30, LastDone: "2026-07-01", ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		task := "rebalanced"
		freq := 45 + i
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := env.Engine.UpdateSchedule(env.Ctx, s.ID, engine.ScheduleUpdateOptions{Task: &task, ActorID: "g1"}); err != nil {
				t.Errorf("update task: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := env.Engine.UpdateSchedule(env.Ctx, s.ID, engine.ScheduleUpdateOptions{FrequencyDays: &freq, ActorID: "g2"}); err != nil {
				t.Errorf("update frequency: %v", err)
			}
		}()
		wg.Wait()
		got, err := env.Engine.GetSchedule(env.Ctx, s.ID)
		if err != nil {
			t.Fatal(err)
		}
		// serialized updates: neither field may be reverted by the other writer
		if got.Task != task || got.FrequencyDays != freq {
			t.Fatalf("iteration %d: task=%q frequency=%d, want %q/%d", i, got.Task, got.FrequencyDays, task, freq)
		}
	}
}
