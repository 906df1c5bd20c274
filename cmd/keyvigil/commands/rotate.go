package commands

import (
	"context"
	"fmt"

	"github.com/keyvigil/keyvigil/internal/config"
	"github.com/keyvigil/keyvigil/internal/rotation"
	"github.com/spf13/cobra"
)

// NewRotateCommand creates the rotate command.
func NewRotateCommand(cfg *config.Config) *cobra.Command {
	var (
		id     string
		force  bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Rotate due credentials, or one credential by id",
		Long: `Rotate every credential that is due: expiring status or fewer days
remaining than the configured threshold. With --id only that credential
is rotated; --force rotates it even when it is not due.

Examples:
  # Rotate everything that is due
  keyvigil rotate

  # Show what would be rotated without touching anything
  keyvigil rotate --dry-run

  # Rotate one credential ahead of schedule
  keyvigil rotate --id prod-db-password --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if force && id == "" {
				return fmt.Errorf("--force requires --id")
			}
			if dryRun && id != "" {
				return fmt.Errorf("--dry-run applies to the full due list, not --id")
			}
			return runRotate(cmd.Context(), cfg, id, force, dryRun)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Rotate only the credential with this id")
	cmd.Flags().BoolVar(&force, "force", false, "Rotate even if not due (requires --id)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List due credentials without rotating")

	return cmd
}

func runRotate(ctx context.Context, cfg *config.Config, id string, force, dryRun bool) error {
	eng, _, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer eng.Close(ctx)

	if dryRun {
		due, err := eng.orch.DueCredentials(ctx)
		if err != nil {
			return err
		}
		if len(due) == 0 {
			fmt.Println("No credentials due for rotation.")
			return nil
		}
		fmt.Printf("%d credential(s) due for rotation:\n\n", len(due))
		fmt.Printf("  %-24s %-20s %-10s %s\n", "ID", "KIND", "STATUS", "DAYS LEFT")
		for _, cred := range due {
			fmt.Printf("  %-24s %-20s %-10s %d\n", cred.ID, cred.Kind, cred.Status, cred.ExpiresIn)
		}
		return nil
	}

	var outcomes []rotation.Outcome
	if id != "" {
		outcome, err := eng.orch.RotateOne(ctx, id, force)
		if err != nil {
			return err
		}
		outcomes = []rotation.Outcome{outcome}
	} else {
		outcomes, err = eng.orch.RunDueRotations(ctx)
		if err != nil {
			return err
		}
	}

	return printOutcomes(outcomes)
}

func printOutcomes(outcomes []rotation.Outcome) error {
	if len(outcomes) == 0 {
		fmt.Println("No credentials due for rotation.")
		return nil
	}

	var failures int
	for _, o := range outcomes {
		switch {
		case o.Skipped:
			fmt.Printf("  SKIP %s (%s): %s\n", o.CredentialID, o.Kind, o.Error)
		case o.Success:
			fmt.Printf("  OK   %s (%s)\n", o.CredentialID, o.Kind)
		default:
			failures++
			fmt.Printf("  FAIL %s (%s): %s\n", o.CredentialID, o.Kind, o.Error)
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d rotation(s) failed", failures, len(outcomes))
	}
	return nil
}
