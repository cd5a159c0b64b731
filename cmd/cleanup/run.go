package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/stemsi/recordclean/internal/report"
	"github.com/stemsi/recordclean/internal/service"
)

var errNotInteractive = errors.New("stdin is not a terminal; pass --yes to apply without a prompt")

// promptFunc asks question and returns the raw answer. A nil promptFunc
// means the run was pre-confirmed.
type promptFunc func(question string) (string, error)

// execute runs the dry run and, when apply is set and the operator agrees,
// writes the plan.
func execute(ctx context.Context, svc *service.CleanupService, printer *report.Printer, apply bool, prompt promptFunc) error {
	printer.Info("Scanning collection...")
	plan, err := svc.Plan(ctx)
	if err != nil {
		printer.Error("Failed to read records: %v", err)
		return err
	}

	printer.Plan(plan)
	if len(plan.Records) == 0 {
		return nil
	}
	if !apply {
		printer.Info("Re-run with --apply to write these changes.")
		return nil
	}

	if prompt != nil {
		answer, err := prompt("Proceed with cleanup? (yes/no): ")
		if err != nil {
			printer.Error("%v", err)
			return err
		}
		if !confirmed(answer) {
			printer.Warning("Operation cancelled. You entered: '%s'", answer)
			return nil
		}
	}

	printer.Info("Applying cleanup...")
	result, err := svc.Apply(ctx, plan)
	if result != nil {
		printer.Result(plan, result)
	}
	if err != nil {
		printer.Error("Cleanup interrupted: %v", err)
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d records failed to update", result.Failed, len(plan.Records))
	}
	if result.Stale > 0 {
		return fmt.Errorf("%d of %d records changed during the run", result.Stale, len(plan.Records))
	}
	printer.Success("Database cleanup successful!")
	return nil
}

func ask(in io.Reader, out io.Writer, question string) (string, error) {
	fmt.Fprint(out, question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func confirmed(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
