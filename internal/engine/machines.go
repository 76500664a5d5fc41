package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"plantline/internal/domain"
	"plantline/internal/events"
	"plantline/internal/repo"
)

// MachineCreateOptions are parameters for registering a machine.
type MachineCreateOptions struct {
	Code        string
	Name        string
	Type        string
	Location    string
	InstallDate string
	ActorID     string
}

func (e Engine) CreateMachine(ctx context.Context, opts MachineCreateOptions) (domain.Machine, error) {
	if opts.Code == "" {
		return domain.Machine{}, validationf("code is required")
	}
	if opts.Name == "" {
		return domain.Machine{}, validationf("name is required")
	}
	m := domain.Machine{
		ID:          uuid.NewString(),
		Code:        opts.Code,
		Name:        opts.Name,
		Type:        opts.Type,
		Location:    opts.Location,
		InstallDate: opts.InstallDate,
		Status:      "active",
		CreatedAt:   e.now().UTC().Format(time.RFC3339),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Machine{}, err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO machines(id,code,name,type,location,install_date,status,created_at) VALUES (?,?,?,?,?,?,?,?)`,
		m.ID, m.Code, m.Name, m.Type, m.Location, m.InstallDate, m.Status, m.CreatedAt); err != nil {
		return domain.Machine{}, err
	}
	if err := e.audit().Append(ctx, tx, "machine.created", "machine", m.ID, opts.ActorID,
		events.Payload{"code": m.Code, "name": m.Name}); err != nil {
		return domain.Machine{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Machine{}, err
	}
	return m, nil
}

// ComponentCreateOptions are parameters for registering a component.
type ComponentCreateOptions struct {
	MachineID string
	Code      string
	Name      string
	Notes     string
	ActorID   string
}

func (e Engine) CreateComponent(ctx context.Context, opts ComponentCreateOptions) (domain.Component, error) {
	if opts.MachineID == "" {
		return domain.Component{}, validationf("machine_id is required")
	}
	if opts.Code == "" {
		return domain.Component{}, validationf("code is required")
	}
	if opts.Name == "" {
		return domain.Component{}, validationf("name is required")
	}
	if _, err := e.Repo.GetMachine(ctx, opts.MachineID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Component{}, &MachineNotFoundError{MachineID: opts.MachineID}
		}
		return domain.Component{}, err
	}
	c := domain.Component{
		ID:        uuid.NewString(),
		MachineID: opts.MachineID,
		Code:      opts.Code,
		Name:      opts.Name,
		Status:    "good",
		Notes:     opts.Notes,
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Component{}, err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO components(id,machine_id,code,name,status,notes,created_at) VALUES (?,?,?,?,?,?,?)`,
		c.ID, c.MachineID, c.Code, c.Name, c.Status, c.Notes, c.CreatedAt); err != nil {
		return domain.Component{}, err
	}
	if err := e.audit().Append(ctx, tx, "component.created", "component", c.ID, opts.ActorID,
		events.Payload{"machine_id": c.MachineID, "code": c.Code}); err != nil {
		return domain.Component{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Component{}, err
	}
	return c, nil
}

func (e Engine) ListMachines(ctx context.Context) ([]domain.Machine, error) {
	return e.Repo.ListMachines(ctx)
}

func (e Engine) ListComponents(ctx context.Context, machineID string) ([]domain.Component, error) {
	return e.Repo.ListComponents(ctx, machineID)
}
