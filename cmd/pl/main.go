package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"plantline/internal/app"
	"plantline/internal/db"
	"plantline/internal/domain"
	"plantline/internal/engine"
	"plantline/internal/logger"
	"plantline/internal/repo"
	"plantline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "pl",
	Short: "Plantline CLI",
	Long: `Plantline tracks maintenance work orders and preventive schedules.
- Workspace: the .plantline directory holding the SQLite database; plantline.yml holds plant settings.
- Machines and components: the registry that work orders and schedules point at.
- Work orders: open -> in_progress -> completed -> closed, one step at a time, with a full status history.
- Archive: closed orders move to a separate partition; restore brings them back, still closed.
- Schedules: last-done date plus a frequency; due dates are derived on every read, never stored.
- Event log: diary of changes, view with 'pl log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("PLANTLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(plantCmd())
	rootCmd.AddCommand(machineCmd())
	rootCmd.AddCommand(componentCmd())
	rootCmd.AddCommand(woCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(serveCmd())
}

func plantCmd() *cobra.Command {
	plant := &cobra.Command{Use: "plant", Short: "Manage plant configuration"}

	var id string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default plantline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id is required")
			}
			path, err := app.InitPlant(viper.GetString("workspace"), id)
			if err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&id, "id", "", "plant id")
	plant.AddCommand(initCmd)

	plant.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return printJSON(a.Config)
			})
		},
	})
	return plant
}

func machineCmd() *cobra.Command {
	machine := &cobra.Command{Use: "machine", Short: "Manage machines"}

	var code, name, mtype, location, installDate string
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				m, err := a.Engine.CreateMachine(ctx, engine.MachineCreateOptions{
					Code:        code,
					Name:        name,
					Type:        mtype,
					Location:    location,
					InstallDate: installDate,
					ActorID:     viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSON(m)
			})
		},
	}
	add.Flags().StringVar(&code, "code", "", "machine code")
	add.Flags().StringVar(&name, "name", "", "machine name")
	add.Flags().StringVar(&mtype, "type", "", "machine type")
	add.Flags().StringVar(&location, "location", "", "location")
	add.Flags().StringVar(&installDate, "install-date", "", "install date (YYYY-MM-DD)")
	machine.AddCommand(add)

	machine.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List machines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.ListMachines(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Code", "Name", "Location", "Status"})
				for _, m := range items {
					tw.AppendRow(table.Row{m.ID, m.Code, m.Name, m.Location, m.Status})
				}
				tw.Render()
				return nil
			})
		},
	})
	return machine
}

func componentCmd() *cobra.Command {
	component := &cobra.Command{Use: "component", Short: "Manage machine components"}

	var machineID, code, name, notes string
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a component",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				c, err := a.Engine.CreateComponent(ctx, engine.ComponentCreateOptions{
					MachineID: machineID,
					Code:      code,
					Name:      name,
					Notes:     notes,
					ActorID:   viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSON(c)
			})
		},
	}
	add.Flags().StringVar(&machineID, "machine", "", "machine id")
	add.Flags().StringVar(&code, "code", "", "component code")
	add.Flags().StringVar(&name, "name", "", "component name")
	add.Flags().StringVar(&notes, "notes", "", "notes")
	component.AddCommand(add)

	var listMachine string
	list := &cobra.Command{
		Use:   "list",
		Short: "List components",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.ListComponents(ctx, listMachine)
				if err != nil {
					return err
				}
				return printJSON(items)
			})
		},
	}
	list.Flags().StringVar(&listMachine, "machine", "", "filter by machine id")
	component.AddCommand(list)
	return component
}

func woCmd() *cobra.Command {
	wo := &cobra.Command{Use: "wo", Short: "Manage work orders"}
	wo.AddCommand(woCreateCmd())
	wo.AddCommand(woListCmd())
	wo.AddCommand(woShowCmd())
	wo.AddCommand(woStatusCmd())
	wo.AddCommand(woClaimCmd())
	wo.AddCommand(woArchiveCmd())
	wo.AddCommand(woRestoreCmd())
	wo.AddCommand(woDeleteCmd())
	return wo
}

func woCreateCmd() *cobra.Command {
	var machineID, componentID, woType, priority, description, assignee string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a work order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, err := a.Engine.CreateWorkOrder(ctx, engine.WorkOrderCreateOptions{
					MachineID:   machineID,
					ComponentID: componentID,
					Type:        woType,
					Priority:    priority,
					Description: description,
					Assignee:    assignee,
					ActorID:     viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
	cmd.Flags().StringVar(&machineID, "machine", "", "machine id")
	cmd.Flags().StringVar(&componentID, "component", "", "component id")
	cmd.Flags().StringVar(&woType, "type", "", "preventive|corrective|breakdown")
	cmd.Flags().StringVar(&priority, "priority", "", "low|medium|high|emergency")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&assignee, "assignee", "", "initial assignee")
	return cmd
}

func woListCmd() *cobra.Command {
	var status, machineID, assignee string
	var limit int
	var archived bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				f := repo.WorkOrderFilters{Status: status, MachineID: machineID, Assignee: assignee, Limit: limit}
				var (
					items []domain.WorkOrder
					err   error
				)
				if archived {
					items, err = a.Engine.ListArchivedWorkOrders(ctx, f)
				} else {
					items, err = a.Engine.ListWorkOrders(ctx, f)
				}
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Number", "Machine", "Type", "Priority", "Status", "Assignee", "Created"})
				for _, w := range items {
					tw.AppendRow(table.Row{w.WONumber, w.MachineName, w.Type, w.Priority, w.Status, strPtrValue(w.Assignee), w.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&machineID, "machine", "", "filter by machine id")
	cmd.Flags().StringVar(&assignee, "assignee", "", "filter by assignee")
	cmd.Flags().IntVar(&limit, "limit", 0, "max results (default 50)")
	cmd.Flags().BoolVar(&archived, "archived", false, "list the archive partition")
	return cmd
}

func woShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a work order with history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, archived, err := a.Engine.GetWorkOrder(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"workorder": res, "archived": archived})
				}
				if err := printJSON(res); err != nil {
					return err
				}
				if archived {
					fmt.Println("(archived)")
				}
				return nil
			})
		},
	}
	return cmd
}

func woStatusCmd() *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "status <id> <new-status>",
		Short: "Advance a work order one lifecycle step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, err := a.Engine.SetWorkOrderStatus(ctx, args[0], args[1], viper.GetString("actor-id"), note)
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "history note")
	return cmd
}

func woClaimCmd() *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "claim <id>",
		Short: "Claim an open work order and start it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, err := a.Engine.ClaimWorkOrder(ctx, args[0], viper.GetString("actor-id"), note)
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "history note")
	return cmd
}

func woArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a closed work order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, err := a.Engine.ArchiveWorkOrder(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
}

func woRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore an archived work order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, err := a.Engine.RestoreWorkOrder(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
}

func woDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an open work order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.Engine.DeleteWorkOrder(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
}

func scheduleCmd() *cobra.Command {
	schedule := &cobra.Command{Use: "schedule", Short: "Manage preventive maintenance schedules"}
	schedule.AddCommand(scheduleAddCmd())
	schedule.AddCommand(scheduleListCmd())
	schedule.AddCommand(scheduleUpdateCmd())
	schedule.AddCommand(scheduleDoneCmd())
	schedule.AddCommand(scheduleDeleteCmd())
	return schedule
}

func scheduleAddCmd() *cobra.Command {
	var machineID, task, lastDone string
	var frequency int
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, err := a.Engine.CreateSchedule(ctx, engine.ScheduleCreateOptions{
					MachineID:     machineID,
					Task:          task,
					FrequencyDays: frequency,
					LastDone:      lastDone,
					ActorID:       viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
	cmd.Flags().StringVar(&machineID, "machine", "", "machine id")
	cmd.Flags().StringVar(&task, "task", "", "task description")
	cmd.Flags().IntVar(&frequency, "frequency-days", 0, "days between maintenance")
	cmd.Flags().StringVar(&lastDone, "last-done", "", "last completion (YYYY-MM-DD)")
	return cmd
}

func scheduleListCmd() *cobra.Command {
	var machineID, due string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schedules, most urgent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.ListSchedules(ctx, machineID, due)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Machine", "Task", "Every", "Last Done", "Next Due", "Days Left", "Due"})
				for _, s := range items {
					tw.AppendRow(table.Row{s.ID, s.MachineName, s.Task, fmt.Sprintf("%dd", s.FrequencyDays), s.LastDone, s.NextDue, s.DaysLeft, s.Due})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&machineID, "machine", "", "filter by machine id")
	cmd.Flags().StringVar(&due, "due", "", "filter: overdue|due_soon|on_track")
	return cmd
}

func scheduleUpdateCmd() *cobra.Command {
	var machineID, task, lastDone string
	var frequency int
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update schedule fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				opts := engine.ScheduleUpdateOptions{ActorID: viper.GetString("actor-id")}
				if cmd.Flags().Changed("machine") {
					opts.MachineID = &machineID
				}
				if cmd.Flags().Changed("task") {
					opts.Task = &task
				}
				if cmd.Flags().Changed("frequency-days") {
					opts.FrequencyDays = &frequency
				}
				if cmd.Flags().Changed("last-done") {
					opts.LastDone = &lastDone
				}
				res, err := a.Engine.UpdateSchedule(ctx, args[0], opts)
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
	cmd.Flags().StringVar(&machineID, "machine", "", "machine id")
	cmd.Flags().StringVar(&task, "task", "", "task description")
	cmd.Flags().IntVar(&frequency, "frequency-days", 0, "days between maintenance")
	cmd.Flags().StringVar(&lastDone, "last-done", "", "last completion (YYYY-MM-DD)")
	return cmd
}

func scheduleDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Record a completed maintenance cycle today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, err := a.Engine.MarkScheduleDone(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
}

func scheduleDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.Engine.DeleteSchedule(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Maintenance statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				st, err := a.Engine.GetStats(ctx)
				if err != nil {
					return err
				}
				return printJSON(st)
			})
		},
	}
}

func logCmd() *cobra.Command {
	log := &cobra.Command{Use: "log", Short: "Inspect the event log"}
	var n int
	var evtType, entityKind, entityID string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show latest events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.Repo.LatestEvents(ctx, n, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSON(items)
			})
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of events")
	tail.Flags().StringVar(&evtType, "type", "", "filter by event type")
	tail.Flags().StringVar(&entityKind, "entity-kind", "", "filter by entity kind")
	tail.Flags().StringVar(&entityID, "entity-id", "", "filter by entity id")
	log.AddCommand(tail)
	return log
}

func apikeyCmd() *cobra.Command {
	apikey := &cobra.Command{Use: "apikey", Short: "Manage API keys for the HTTP server"}

	var actor, name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API key (printed once)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if actor == "" {
				actor = viper.GetString("actor-id")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				secret := uuid.NewString()
				key := domain.APIKey{
					ID:      uuid.NewString(),
					ActorID: actor,
					Name:    name,
					KeyHash: repo.HashAPIKey(secret),
				}
				if err := a.Engine.Repo.InsertAPIKey(ctx, nil, key); err != nil {
					return err
				}
				fmt.Println(secret)
				return nil
			})
		},
	}
	create.Flags().StringVar(&actor, "actor", "", "actor the key authenticates as")
	create.Flags().StringVar(&name, "name", "", "key label")
	apikey.AddCommand(create)

	var listActor string
	list := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				keys, err := a.Engine.Repo.ListAPIKeys(ctx, listActor)
				if err != nil {
					return err
				}
				return printJSON(keys)
			})
		},
	}
	list.Flags().StringVar(&listActor, "actor", "", "filter by actor id")
	apikey.AddCommand(list)

	apikey.AddCommand(&cobra.Command{
		Use:   "revoke <id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.Engine.Repo.DeleteAPIKey(ctx, args[0])
			})
		},
	})
	return apikey
}

func serveCmd() *cobra.Command {
	var addr, basePath, logLevel, logFormat string
	var allowLegacyActor bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				zl, err := logger.New(logLevel, logFormat)
				if err != nil {
					return err
				}
				defer zl.Sync()
				authCfg := server.AuthConfig{
					JWTSecret:              os.Getenv("PLANTLINE_JWT_SECRET"),
					AllowLegacyActorHeader: allowLegacyActor,
					Logger:                 zl,
				}
				if authCfg.JWTSecret == "" && !allowLegacyActor {
					return fmt.Errorf("PLANTLINE_JWT_SECRET is required for bearer auth (or pass --allow-legacy-actor for local use)")
				}
				handler, err := server.New(server.Config{Engine: a.Engine, BasePath: basePath, Auth: authCfg, Logger: zl})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				zl.Info("serving", zap.String("addr", addr), zap.String("base_path", basePath))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	cmd.Flags().StringVar(&logFormat, "log-format", "console", "log format: json|console")
	cmd.Flags().BoolVar(&allowLegacyActor, "allow-legacy-actor", false, "accept X-Actor-Id without auth (local use)")
	return cmd
}

// --- helpers ---

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	a, err := app.Open(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func strPtrValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
