package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackieclzheng/AiBuildIp/pkg/output"
	"github.com/jackieclzheng/AiBuildIp/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show digestmail version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetBuildInfo()

			rt, _ := getRuntime(cmd)
			writer := cmd.OutOrStdout()
			if rt != nil {
				writer = rt.Writer()
			}

			format, err := output.ParseFormat(outputFormat)
			if err != nil {
				return err
			}
			if format == output.FormatTable {
				_, _ = fmt.Fprintln(writer, info.String())
				return nil
			}
			return output.WriteObject(writer, format, info)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "", "Output format: json, yaml")

	return cmd
}
