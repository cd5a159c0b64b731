package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stemsi/recordclean/internal/config"
	"github.com/stemsi/recordclean/internal/database"
	"github.com/stemsi/recordclean/internal/logger"
	"github.com/stemsi/recordclean/internal/model"
	"github.com/stemsi/recordclean/internal/report"
	"github.com/stemsi/recordclean/internal/repository"
	"github.com/stemsi/recordclean/internal/service"
)

// runFlags are shared by every kind subcommand.
type runFlags struct {
	apply      bool
	yes        bool
	workers    int
	tieBreak   string
	collection string
}

func newRootCmd() *cobra.Command {
	flags := &runFlags{}

	root := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove duplicate and invalid entries from student records",
		Long: `Scans a record collection, reports what would change, and with --apply
rewrites every affected record after confirmation.

Connection settings come from the environment (.env is honoured):
STORAGE_DRIVER, MONGODB_URI, DATABASE_URL, REDIS_URL.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.BoolVar(&flags.apply, "apply", false, "write the cleaned records after the dry run")
	pf.BoolVarP(&flags.yes, "yes", "y", false, "skip the confirmation prompt")
	pf.IntVarP(&flags.workers, "workers", "w", 0, "parallel record writes (default CLEANUP_WORKERS)")
	pf.StringVar(&flags.tieBreak, "tie-break", "", "duplicate subject policy: first or last (default SUBJECT_TIE_BREAK)")
	pf.StringVar(&flags.collection, "collection", "", "override the collection (table) name")

	for _, k := range []struct {
		kind  model.Kind
		short string
	}{
		{model.KindAttendance, "Collapse duplicate semesters, months and subjects; drop invalid subjects"},
		{model.KindIat, "Collapse duplicate semesters of internal-assessment records"},
		{model.KindCumulative, "Drop cumulative summary subjects from attendance records"},
	} {
		kind := k.kind
		root.AddCommand(&cobra.Command{
			Use:   string(kind),
			Short: k.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runKind(cmd, kind, flags)
			},
		})
	}

	return root
}

func runKind(cmd *cobra.Command, kind model.Kind, flags *runFlags) error {
	cfg := config.Load()
	if flags.workers > 0 {
		cfg.Workers = flags.workers
	}
	if flags.tieBreak != "" {
		cfg.SubjectTieBreak = flags.tieBreak
	}
	collection := cfg.Collection(kind)
	if flags.collection != "" {
		collection = flags.collection
	}

	log := logger.SetupTo(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	printer := report.NewPrinter(cmd.OutOrStdout())
	printer.Header(fmt.Sprintf("%s cleanup", kind))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer.Info("Connecting to %s...", cfg.StorageDriver)
	backend, err := repository.OpenBackend(ctx, cfg, log)
	if err != nil {
		printer.Error("Failed to connect: %v", err)
		return err
	}
	defer func() {
		backend.Close()
		printer.Info("%s connection closed.", cfg.StorageDriver)
	}()

	locker, closeLocker, err := openLocker(ctx, cfg, log)
	if err != nil {
		printer.Error("Failed to connect to Redis: %v", err)
		return err
	}
	defer closeLocker()

	svc, err := service.NewCleanupServiceFor(kind, cfg, backend.Records(collection), locker, log)
	if err != nil {
		return err
	}

	prompt := stdinPrompt(cmd)
	if flags.yes {
		prompt = nil
	}
	return execute(ctx, svc, printer, flags.apply, prompt)
}

// openLocker returns the redis record lock when REDIS_URL is set.
func openLocker(ctx context.Context, cfg *config.Config, log zerolog.Logger) (service.RecordLocker, func(), error) {
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	if rdb == nil {
		return service.NopLocker{}, func() {}, nil
	}
	return repository.NewRecordLockRepository(rdb, cfg.LockTTL), func() { _ = rdb.Close() }, nil
}

// stdinPrompt asks on the command's input. It refuses when stdin is not a
// terminal so a piped run never applies by accident.
func stdinPrompt(cmd *cobra.Command) promptFunc {
	return func(question string) (string, error) {
		if f, ok := cmd.InOrStdin().(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
			return "", errNotInteractive
		}
		return ask(cmd.InOrStdin(), cmd.OutOrStdout(), question)
	}
}
