package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newLogsCmd(getEnv func() *env) *cobra.Command {
	var (
		userID string
		limit  int
	)

	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "List a user's recent submissions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return errors.New("user is required via --user flag")
			}
			entries, err := getEnv().credentials.History(cmd.Context(), userID, limit)
			if err != nil {
				return fmt.Errorf("failed to list submissions: %w", err)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No submissions found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tTYPE\tSTATUS\tURL\tERROR")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					e.CreatedAt.Local().Format(time.RFC3339), e.Type, e.StatusCode, e.URL, e.ErrorMessage)
			}
			return w.Flush()
		},
	}
	logsCmd.Flags().StringVarP(&userID, "user", "u", "", "user ID")
	logsCmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries")
	return logsCmd
}
