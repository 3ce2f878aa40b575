// Command compliance-check audits the configured record store without serving
// HTTP: it evaluates maintenance, certificate, and incident reporting
// obligations at a reference instant and cross-checks open flight plans for
// airspace conflicts. The exit code makes it usable as a scheduled job or a
// release gate: 0 when clean, 1 when anything is overdue or conflicting.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"rpascore/internal/config"
	"rpascore/internal/core"
	"rpascore/pkg/compliance"
	"rpascore/pkg/domain"
	"rpascore/pkg/logger"
)

var exitFunc = os.Exit

func main() {
	exitFunc(cli(os.Args[1:], os.Stdout, os.Stderr))
}

// cli parses flags and maps the audit outcome to an exit code: 2 for usage
// errors, 1 when the audit fails to run or finds blocking items, 0 when clean.
func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("compliance-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath string
		atFlag     string
	)
	fs.StringVar(&configPath, "config", "", "path to TOML config (default: $RPASCORE_CONFIG, else built-in defaults)")
	fs.StringVar(&atFlag, "at", "", "RFC 3339 instant to evaluate obligations at (default: now)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var at time.Time
	if atFlag != "" {
		parsed, err := time.Parse(time.RFC3339, atFlag)
		if err != nil {
			if _, writeErr := fmt.Fprintf(stderr, "invalid -at value %q: expected an RFC 3339 timestamp\n", atFlag); writeErr != nil {
				return 2
			}
			return 2
		}
		at = parsed.UTC()
	}

	report, findings, err := run(configPath, at)
	if err != nil {
		if _, writeErr := fmt.Fprintf(stderr, "Compliance check failed: %v\n", err); writeErr != nil {
			return 1
		}
		return 1
	}
	if _, writeErr := fmt.Fprint(stdout, report); writeErr != nil {
		return 1
	}
	if findings > 0 {
		if _, writeErr := fmt.Fprintf(stdout, "Compliance check found %d blocking finding(s).\n", findings); writeErr != nil {
			return 1
		}
		return 1
	}
	if _, writeErr := fmt.Fprintln(stdout, "Compliance check passed."); writeErr != nil {
		return 1
	}
	return 0
}

// run opens the configured store, evaluates the obligation schedule at the
// given instant (zero means now), and pairs up open flight plans that claim
// overlapping airspace. It returns the rendered report and the number of
// blocking findings: overdue obligations plus conflicting plan pairs.
// Due-soon obligations are listed but do not fail the check.
func run(configPath string, at time.Time) (report string, findings int, err error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", 0, fmt.Errorf("load config: %w", err)
	}

	engineCfg := cfg.Engine()
	store, err := core.OpenPersistentStore(cfg.Store(), core.NewDefaultRulesEngine(engineCfg))
	if err != nil {
		return "", 0, fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close storage: %w", cerr)
		}
	}()

	svc := core.NewService(store, engineCfg, core.WithLogger(logger.NewNop()))
	ctx := context.Background()

	dash, err := svc.ScheduleDashboard(ctx, at)
	if err != nil {
		return "", 0, fmt.Errorf("evaluate schedule: %w", err)
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Schedule at %s: %d obligation(s), %d due soon, %d overdue.\n",
		dash.EvaluatedAt.Format(time.RFC3339), len(dash.Items), dash.DueSoon, dash.Overdue)
	for _, item := range dash.Items {
		if item.Status == compliance.ScheduleCurrent {
			continue
		}
		fmt.Fprintf(&out, "  %s: %s %s due %s", item.Status, item.Kind, item.RecordID, item.DueAt.UTC().Format(time.RFC3339))
		if item.Subject != "" {
			fmt.Fprintf(&out, " (%s)", item.Subject)
		}
		out.WriteString("\n")
	}
	findings = dash.Overdue

	open := 0
	var conflictLines []string
	for _, plan := range store.ListFlightPlans() {
		if !openOperation(plan.Status) {
			continue
		}
		open++
		claims, err := svc.PlanConflicts(ctx, plan.ID)
		if err != nil {
			return "", 0, fmt.Errorf("conflicts for %s: %w", plan.RecordID, err)
		}
		for _, claim := range claims {
			// Conflict detection is symmetric, so each pair surfaces twice.
			// Report it once, from the side with the lower record identifier.
			if claim.RecordID <= plan.RecordID {
				continue
			}
			conflictLines = append(conflictLines, fmt.Sprintf("  conflict: %s overlaps %s\n", plan.RecordID, claim.RecordID))
		}
	}
	fmt.Fprintf(&out, "Flight plans: %d open, %d conflicting pair(s).\n", open, len(conflictLines))
	for _, line := range conflictLines {
		out.WriteString(line)
	}
	findings += len(conflictLines)

	return out.String(), findings, nil
}

// openOperation reports whether a plan still occupies its claimed airspace.
func openOperation(status domain.OperationStatus) bool {
	switch status {
	case domain.OperationCompleted, domain.OperationCancelled, domain.OperationAborted:
		return false
	}
	return true
}
