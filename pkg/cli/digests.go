package cli

import (
	"github.com/spf13/cobra"

	"github.com/jackieclzheng/AiBuildIp/pkg/output"
)

func NewDigestsCommand() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "digests",
		Short: "List configured digests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(outputFormat)
			if err != nil {
				return err
			}
			rows := make([]output.DigestRow, 0, len(rt.cfg.Digests))
			for _, d := range rt.cfg.Digests {
				rows = append(rows, output.DigestRow{
					Name:        d.Name,
					Source:      rt.cfg.SourcePath(d),
					State:       rt.cfg.StatePath(d),
					Schema:      d.Schema,
					ItemsPerRun: d.ItemsPerRun,
				})
			}
			if format == output.FormatTable {
				output.WriteDigestTable(rt.Writer(), rows)
				return nil
			}
			return output.WriteObject(rt.Writer(), format, rows)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")

	return cmd
}
