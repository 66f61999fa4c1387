package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"apidump/internal/version"
)

func (a *cliApp) versionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(version.Current())
			}
			_, err := fmt.Fprintln(a.stdout, version.Full())
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}
