package main

import (
	"fmt"

	mw "github.com/kiranshivaraju/loganalyzer/internal/api/middleware"
	"github.com/spf13/cobra"
)

func newAPIKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apikey",
		Short: "Generate an API key for the serve command",
		Long: "apikey prints a new random key and its bcrypt hash. Give the key to clients\n" +
			"and start the server with LOGANALYZER_API_KEY_HASH set to the hash.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, hash, err := mw.GenerateAPIKey()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "API key:  %s\n", key)
			fmt.Fprintf(out, "Key hash: %s\n\n", hash)
			fmt.Fprintf(out, "export LOGANALYZER_API_KEY_HASH='%s'\n", hash)
			return nil
		},
	}
}
