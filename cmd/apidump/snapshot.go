package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func (a *cliApp) snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage stored API surfaces",
		Long: `Snapshots are rendered surfaces kept in .apidump/snapshots.db. They can
be referred to by id, by a unique id prefix of at least four characters,
or by label, in which case the newest snapshot with that label is used.

Examples:
  apidump snapshot save v1.0.0 api.yaml
  apidump snapshot list
  apidump snapshot show v1.0.0
  apidump snapshot rm 3f2a`,
	}
	cmd.AddCommand(a.snapshotSaveCmd(), a.snapshotListCmd(), a.snapshotShowCmd(), a.snapshotRmCmd())
	return cmd
}

func (a *cliApp) snapshotSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save LABEL INPUT...",
		Short: "Render inputs and store the surface",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.render(cmd.Context(), args[1:], a.renderOptions())
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			snap, err := store.Save(cmd.Context(), args[0], text)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s\n", snap.ID)
			a.logger.Info("Snapshot saved", "id", snap.ID, "label", snap.Label, "lines", snap.Lines)
			return nil
		},
	}
}

func (a *cliApp) snapshotListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored surfaces, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			snaps, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(snaps)
			}
			if len(snaps) == 0 {
				fmt.Fprintln(a.stdout, "No snapshots.")
				return nil
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL\tCREATED\tLINES\tDIGEST")
			for _, s := range snaps {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
					s.ShortID(), s.Label, s.CreatedAt.Local().Format(time.DateTime), s.Lines, s.Digest[:12])
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func (a *cliApp) snapshotShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Print a stored surface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			snap, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(a.stdout, snap.Text)
			return err
		},
	}
}

func (a *cliApp) snapshotRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a stored surface",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			snap, err := store.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Deleted %s (%s)\n", snap.ShortID(), snap.Label)
			return nil
		},
	}
}
