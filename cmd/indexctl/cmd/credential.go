package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.pilab.hu/indexer/services"
	"gopkg.in/yaml.v3"
)

// serviceAccountKey is the subset of a Google service-account key file we need.
type serviceAccountKey struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

func newCredentialCmd(getEnv func() *env) *cobra.Command {
	credentialCmd := &cobra.Command{
		Use:     "credential",
		Short:   "Manage a user's Google service-account credential",
		Aliases: []string{"credentials", "cred"},
	}

	var userID, keyFile string
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Store a service-account key for a user (status resets to pending)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return errors.New("user is required via --user flag")
			}
			if keyFile == "" {
				return errors.New("key file is required via --key-file flag")
			}
			raw, err := os.ReadFile(keyFile)
			if err != nil {
				return fmt.Errorf("failed to read key file: %w", err)
			}
			var key serviceAccountKey
			if err := json.Unmarshal(raw, &key); err != nil {
				return fmt.Errorf("key file is not valid JSON: %w", err)
			}
			if key.Type != "" && key.Type != "service_account" {
				return fmt.Errorf("key file has type %q, expected service_account", key.Type)
			}

			cred, err := getEnv().credentials.Save(cmd.Context(), services.CredentialInput{
				UserID:      userID,
				ProjectID:   key.ProjectID,
				ClientEmail: key.ClientEmail,
				PrivateKey:  key.PrivateKey,
			})
			if err != nil {
				return fmt.Errorf("failed to save credential: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Credential for %s saved (%s, status %s)\n", userID, cred.ClientEmail, cred.Status)
			return nil
		},
	}
	setCmd.Flags().StringVarP(&userID, "user", "u", "", "user ID the credential belongs to")
	setCmd.Flags().StringVarP(&keyFile, "key-file", "f", "", "path to the service-account JSON key")

	var showUser, output string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show a user's credential status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showUser == "" {
				return errors.New("user is required via --user flag")
			}
			view, err := getEnv().credentials.Get(cmd.Context(), showUser)
			if err != nil {
				return fmt.Errorf("failed to get credential: %w", err)
			}

			out := cmd.OutOrStdout()
			switch output {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			case "yaml", "":
				return yaml.NewEncoder(out).Encode(view)
			default:
				return fmt.Errorf("unknown output format %q", output)
			}
		},
	}
	showCmd.Flags().StringVarP(&showUser, "user", "u", "", "user ID")
	showCmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml or json")

	credentialCmd.AddCommand(setCmd, showCmd)
	return credentialCmd
}
