package commands

import (
	"context"
	"fmt"

	"github.com/keyvigil/keyvigil/internal/config"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(cfg *config.Config) *cobra.Command {
	var (
		id    string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the rotation audit trail, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), cfg, id, limit)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Show only records for this credential id")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum records to show (0 for all)")

	return cmd
}

func runHistory(ctx context.Context, cfg *config.Config, id string, limit int) error {
	eng, _, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer eng.Close(ctx)

	// When filtering by credential, fetch everything and trim after: the
	// sink's limit applies before the filter would.
	fetchLimit := limit
	if id != "" {
		fetchLimit = 0
	}
	records, err := eng.sink.List(ctx, fetchLimit)
	if err != nil {
		return err
	}

	var shown int
	for _, record := range records {
		if id != "" && record.Metadata["credential_id"] != id {
			continue
		}
		if limit > 0 && shown >= limit {
			break
		}
		shown++

		line := fmt.Sprintf("%s  %-16s %s", record.Timestamp.Format("2006-01-02 15:04:05"), record.Action, record.Description)
		if errMsg := record.Metadata["error"]; errMsg != "" {
			line += " (" + errMsg + ")"
		}
		fmt.Println(line)
	}

	if shown == 0 {
		fmt.Println("No rotation history.")
	}
	return nil
}
