package cli

import (
	"github.com/spf13/cobra"

	"github.com/jackieclzheng/AiBuildIp/pkg/config"
	"github.com/jackieclzheng/AiBuildIp/pkg/output"
	"github.com/jackieclzheng/AiBuildIp/pkg/rotation"
	"github.com/jackieclzheng/AiBuildIp/pkg/source"
)

func NewListCommand() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "list <digest>",
		Short: "List parsed entries and mark where the next run starts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(outputFormat)
			if err != nil {
				return err
			}
			d, err := rt.digest(args[0])
			if err != nil {
				return err
			}
			rows, err := entryRows(rt.cfg, *d)
			if err != nil {
				return err
			}
			if format == output.FormatTable {
				output.WriteEntryTable(rt.Writer(), rows)
				return nil
			}
			return output.WriteObject(rt.Writer(), format, rows)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")

	return cmd
}

func entryRows(cfg *config.Config, d config.Digest) ([]output.EntryRow, error) {
	schema, err := d.SourceSchema()
	if err != nil {
		return nil, err
	}
	doc, err := source.Parse(cfg.SourcePath(d), schema)
	if err != nil {
		return nil, err
	}
	cursor := rotation.Load(cfg.StatePath(d), rotation.State(d.StartIndex))
	next := cursor.Start(len(doc.Entries))

	rows := make([]output.EntryRow, 0, len(doc.Entries))
	for i, e := range doc.Entries {
		var fields []string
		for _, f := range source.FieldOrder {
			if e.Get(f) != "" {
				fields = append(fields, f.String())
			}
		}
		rows = append(rows, output.EntryRow{
			Position: i,
			Title:    e.Title,
			Fields:   fields,
			Next:     i == next,
		})
	}
	return rows, nil
}
