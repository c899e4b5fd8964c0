package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Additional-Code/procurement/internal/app"
	"github.com/Additional-Code/procurement/internal/dto"
	"github.com/Additional-Code/procurement/internal/entity"
	"github.com/Additional-Code/procurement/internal/export"
	"github.com/Additional-Code/procurement/internal/migration"
	"github.com/Additional-Code/procurement/internal/observability"
	repo "github.com/Additional-Code/procurement/internal/repository/purchaseorder"
	"github.com/Additional-Code/procurement/internal/seeder"
	service "github.com/Additional-Code/procurement/internal/service/purchaseorder"
)

// NewRootCommand builds the root procurement CLI command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "procurement",
		Short:         "Purchase order management service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newStartCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newExportCmd(),
		newWorkerCmd(),
		newVersionCmd(),
	)

	return root
}

// Execute runs the procurement CLI until ctx is cancelled.
func Execute(ctx context.Context) error {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "start",
		Aliases: []string{"run"},
		Short:   "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), fx.New(app.Module))
		},
	}
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	var (
		steps int
		all   bool
	)
	down := migrateCmd("down", "Roll back migrations", func(ctx context.Context, mig *migration.Migrator, out io.Writer) error {
		if err := mig.Down(ctx, steps, all); err != nil {
			return err
		}
		fmt.Fprintln(out, "migrations rolled back")
		return nil
	})
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	down.Flags().BoolVar(&all, "all", false, "Roll back every applied migration")

	cmd.AddCommand(
		migrateCmd("up", "Apply pending migrations", func(ctx context.Context, mig *migration.Migrator, out io.Writer) error {
			if err := mig.Up(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "migrations applied")
			return nil
		}),
		down,
		migrateCmd("version", "Print the applied schema version", func(ctx context.Context, mig *migration.Migrator, out io.Writer) error {
			version, err := mig.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "schema version %d\n", version)
			return nil
		}),
	)
	return cmd
}

// migrateCmd runs fn against a Migrator built from the core graph.
func migrateCmd(use, short string, fn func(context.Context, *migration.Migrator, io.Writer) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				return fn(ctx, mig, cmd.OutOrStdout())
			})
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), observability.Version)
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample purchase orders into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed *seeder.Seeder
			opts := fx.Options(app.Core, seeder.Module, fx.Populate(&seed))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				inserted, err := seed.PurchaseOrders(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d purchase orders\n", inserted)
				return nil
			})
		},
	}
}

type exportFlags struct {
	out      string
	supplier string
	status   string
	from     string
	to       string
	sortBy   string
	sortDir  string
}

func (f exportFlags) filter() (repo.Filter, error) {
	filter := repo.Filter{Supplier: f.supplier, SortBy: f.sortBy, SortDir: f.sortDir}
	if f.status != "" {
		status, ok := entity.ParseStatus(f.status)
		if !ok {
			return repo.Filter{}, fmt.Errorf("unknown status %q", f.status)
		}
		filter.Status = status
	}
	if f.from != "" {
		from, err := dto.ParseDate(f.from)
		if err != nil {
			return repo.Filter{}, fmt.Errorf("invalid --from: %w", err)
		}
		filter.DateFrom = &from
	}
	if f.to != "" {
		to, err := dto.ParseDate(f.to)
		if err != nil {
			return repo.Filter{}, fmt.Errorf("invalid --to: %w", err)
		}
		filter.DateTo = &to
	}
	return filter, nil
}

func newExportCmd() *cobra.Command {
	var flags exportFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write matching purchase orders to an Excel workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := flags.filter()
			if err != nil {
				return err
			}

			var svc *service.Service
			opts := fx.Options(app.Core, fx.Populate(&svc))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				orders, err := svc.Export(ctx, filter)
				if err != nil {
					return err
				}
				if err := writeWorkbook(flags.out, orders); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d purchase orders to %s\n", len(orders), flags.out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&flags.out, "out", "o", "purchase-orders.xlsx", "Destination workbook")
	cmd.Flags().StringVar(&flags.supplier, "supplier", "", "Supplier name substring")
	cmd.Flags().StringVar(&flags.status, "status", "", "Status name or number")
	cmd.Flags().StringVar(&flags.from, "from", "", "Earliest order date (inclusive)")
	cmd.Flags().StringVar(&flags.to, "to", "", "Latest order date (inclusive)")
	cmd.Flags().StringVar(&flags.sortBy, "sort-by", "", "poNumber, orderDate or totalAmount")
	cmd.Flags().StringVar(&flags.sortDir, "sort-dir", "", "ASC or DESC")
	return cmd
}

func writeWorkbook(path string, orders []entity.PurchaseOrder) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	return export.WriteXLSX(f, orders)
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage background workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run worker engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), fx.New(app.Worker))
		},
	})
	return cmd
}

func runUntilDone(ctx context.Context, application *fx.App) error {
	if err := application.Start(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-application.Done():
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return application.Stop(stopCtx)
}

func runWithApp(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	application := fx.New(opts, fx.NopLogger)
	if err := application.Err(); err != nil {
		return err
	}
	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()
	return fn(ctx)
}
