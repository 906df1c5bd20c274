package commands

import (
	"context"
	"fmt"

	"github.com/keyvigil/keyvigil/internal/config"
	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(cfg *config.Config) *cobra.Command {
	var dueOnly bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show credential inventory and rotation due state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cfg, dueOnly)
		},
	}

	cmd.Flags().BoolVar(&dueOnly, "due", false, "Show only credentials due for rotation")

	return cmd
}

func runStatus(ctx context.Context, cfg *config.Config, dueOnly bool) error {
	eng, def, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer eng.Close(ctx)

	creds, err := eng.store.List(ctx)
	if err != nil {
		return err
	}
	if len(creds) == 0 {
		fmt.Println("Inventory is empty.")
		return nil
	}

	due := make(map[string]bool)
	dueList, err := eng.orch.DueCredentials(ctx)
	if err != nil {
		return err
	}
	for _, cred := range dueList {
		due[cred.ID] = true
	}

	fmt.Printf("%-24s %-28s %-20s %-10s %-10s %s\n", "ID", "NAME", "KIND", "STATUS", "DAYS LEFT", "DUE")
	var shown, dueCount int
	for _, cred := range creds {
		isDue := due[cred.ID]
		if isDue {
			dueCount++
		}
		if dueOnly && !isDue {
			continue
		}
		shown++
		marker := ""
		if isDue {
			marker = "yes"
		}
		fmt.Printf("%-24s %-28s %-20s %-10s %-10d %s\n", cred.ID, cred.Name, cred.Kind, cred.Status, cred.ExpiresIn, marker)
	}

	fmt.Printf("\n%d credential(s), %d due (threshold %d days)\n", len(creds), dueCount, def.Rotation.ThresholdDays)
	if dueOnly && shown == 0 {
		fmt.Println("Nothing due for rotation.")
	}
	return nil
}
