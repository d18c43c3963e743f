package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackieclzheng/AiBuildIp/pkg/config"
	"github.com/jackieclzheng/AiBuildIp/pkg/mail"
	"github.com/jackieclzheng/AiBuildIp/pkg/pipeline"
)

type sendOptions struct {
	count         int
	subjectPrefix string
	dryRun        bool
}

func NewSendCommand() *cobra.Command {
	opts := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "send <digest>",
		Short: "Send the next batch of a digest and advance its cursor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.writeMetrics()

			d, err := rt.digest(args[0])
			if err != nil {
				return err
			}
			job, err := buildJob(rt.cfg, *d)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("count") {
				job.Count = opts.count
			}
			job.SubjectOverride = opts.subjectPrefix

			var sender mail.Sender
			if !opts.dryRun {
				if sender, err = newSender(rt); err != nil {
					return err
				}
			}

			res, err := pipeline.NewRunner(sender, rt.Logger()).Run(cmd.Context(), job, pipeline.Options{
				DryRun: opts.dryRun,
				Out:    rt.Writer(),
			})
			if err != nil {
				return err
			}
			if res.Sent {
				_, _ = fmt.Fprintf(rt.Writer(), "Digest %q sent for: %s.\n", d.Name, strings.Join(res.Titles, ", "))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.count, "count", 0, "Entries per run (overrides the digest setting)")
	cmd.Flags().StringVar(&opts.subjectPrefix, "subject-prefix", "", "Subject prefix for this run")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the digest without sending it or advancing the cursor")

	return cmd
}

func buildJob(cfg *config.Config, d config.Digest) (pipeline.Job, error) {
	tmpl, err := d.Template()
	if err != nil {
		return pipeline.Job{}, err
	}
	schema, err := d.SourceSchema()
	if err != nil {
		return pipeline.Job{}, err
	}
	prefix := d.SubjectPrefix
	if cfg.SubjectPrefix != "" {
		prefix = cfg.SubjectPrefix
	}
	return pipeline.Job{
		Name:          d.Name,
		SourcePath:    cfg.SourcePath(d),
		StatePath:     cfg.StatePath(d),
		Schema:        schema,
		Count:         d.ItemsPerRun,
		StartIndex:    d.StartIndex,
		SubjectPrefix: prefix,
		Template:      tmpl,
	}, nil
}

func newSender(rt *runtimeState) (mail.Sender, error) {
	if err := rt.cfg.ResolveSecrets(); err != nil {
		return nil, err
	}
	if err := rt.cfg.ValidateMail(); err != nil {
		return nil, err
	}
	return mail.NewSender(rt.cfg, rt.Logger())
}
