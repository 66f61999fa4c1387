package main

import (
	"bytes"

	"github.com/spf13/cobra"

	"apidump/internal/graphfile"
	"apidump/internal/loader"
)

func (a *cliApp) convertCmd() *cobra.Command {
	var to, output string
	cmd := &cobra.Command{
		Use:   "convert INPUT",
		Short: "Re-encode an input as a graph manifest",
		Long: `Read one input of any supported kind and write it back as a YAML, JSON
or TOML graph manifest. Converting C# sources or a SCIP index yields a
manifest that can be edited by hand and dumped without the original.

Examples:
  apidump convert api.yaml --to json
  apidump convert src/ --to yaml --output api.yaml
  apidump convert index.scip --to toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := graphfile.ParseFormat(to)
			if err != nil {
				return err
			}
			m, err := loader.LoadManifest(cmd.Context(), args[0], a.loaderOptions())
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := graphfile.Encode(&buf, m, f); err != nil {
				return err
			}
			if output != "" {
				return writeFile(output, buf.String())
			}
			_, err = a.stdout.Write(buf.Bytes())
			return err
		},
	}
	cmd.Flags().StringVar(&to, "to", "yaml", "Output format: yaml, json or toml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to FILE instead of stdout")
	return cmd
}
