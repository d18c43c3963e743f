package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes used as the "outcome" label of DigestRuns.
const (
	OutcomeSent        = "sent"
	OutcomeDryRun      = "dry_run"
	OutcomeParseError  = "parse_error"
	OutcomeRenderError = "render_error"
	OutcomeSendError   = "send_error"
	OutcomeStateError  = "state_error"
)

var (
	DigestRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "digestmail_runs_total",
		Help: "Total number of digest runs grouped by outcome",
	}, []string{"digest", "outcome"})
	EntriesParsed = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "digestmail_entries_parsed",
		Help: "Number of entries accepted from the source in the last run",
	}, []string{"digest", "schema"})
	EntriesSelected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "digestmail_entries_selected_total",
		Help: "Total number of entries selected into a batch",
	}, []string{"digest"})
	RotationCursor = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "digestmail_rotation_cursor",
		Help: "Rotation cursor after the last run",
	}, []string{"digest"})

	// Mail metrics
	MailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "digestmail_mail_send_success_total",
		Help: "Total number of successful mail sends",
	}, []string{"transport"})
	MailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "digestmail_mail_send_failure_total",
		Help: "Total number of failed mail sends",
	}, []string{"transport"})
)

func init() {
	prometheus.MustRegister(DigestRuns)
	prometheus.MustRegister(EntriesParsed)
	prometheus.MustRegister(EntriesSelected)
	prometheus.MustRegister(RotationCursor)
	prometheus.MustRegister(MailSendSuccess)
	prometheus.MustRegister(MailSendFailure)
}

// WriteTextfile dumps the default registry in the node-exporter textfile
// format. The file is written to a temporary name and renamed into place.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
