package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.pilab.hu/indexer/domain"
)

func newPublishCmd(getEnv func() *env) *cobra.Command {
	var userID, url, notificationType string

	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a URL notification with a user's credential",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return errors.New("user is required via --user flag")
			}
			body, err := json.Marshal(domain.IndexingRequest{URL: url, Type: domain.NotificationType(notificationType)})
			if err != nil {
				return err
			}

			res, err := getEnv().indexing.Publish(cmd.Context(), userID, body)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "HTTP %d\n", res.StatusCode)
			fmt.Fprintln(out, string(res.Body))
			if !res.OK {
				return fmt.Errorf("indexing API rejected the notification: %s", res.ErrorMessage)
			}
			return nil
		},
	}
	publishCmd.Flags().StringVarP(&userID, "user", "u", "", "user whose credential is used")
	publishCmd.Flags().StringVar(&url, "url", "", "URL to notify about")
	publishCmd.Flags().StringVarP(&notificationType, "type", "t", string(domain.NotificationURLUpdated), "URL_UPDATED or URL_DELETED")
	return publishCmd
}
