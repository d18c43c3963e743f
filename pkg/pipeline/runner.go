/*
SPDX-FileCopyrightText: 2025 jackieclzheng

SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jackieclzheng/AiBuildIp/pkg/digest"
	"github.com/jackieclzheng/AiBuildIp/pkg/mail"
	"github.com/jackieclzheng/AiBuildIp/pkg/metrics"
	"github.com/jackieclzheng/AiBuildIp/pkg/rotation"
	"github.com/jackieclzheng/AiBuildIp/pkg/source"
	"github.com/jackieclzheng/AiBuildIp/pkg/system"
)

// Job is one fully resolved digest run.
type Job struct {
	Name       string
	SourcePath string
	StatePath  string
	// Schema forces a source schema; SchemaAuto classifies the file.
	Schema     source.Schema
	Count      int
	StartIndex int
	// SubjectPrefix is the configured prefix. SubjectOverride, when set,
	// beats both it and the source front matter.
	SubjectPrefix   string
	SubjectOverride string
	Template        digest.Template
}

type Options struct {
	DryRun bool
	// Out receives the dry-run preview.
	Out io.Writer
}

// Result describes a finished run.
type Result struct {
	RunID   string
	Subject string
	Body    string
	Titles  []string
	Cursor  rotation.State
	Next    rotation.State
	Sent    bool
}

// ErrNoSender is returned when a real run is requested without a sender.
var ErrNoSender = errors.New("no mail sender configured")

type Runner struct {
	sender mail.Sender
	log    *zap.SugaredLogger
	newID  func() string
}

// NewRunner builds a runner. sender may be nil when only dry runs are made.
func NewRunner(sender mail.Sender, log *zap.SugaredLogger) *Runner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runner{sender: sender, log: log.Named("runner"), newID: uuid.NewString}
}

const tracerName = "github.com/jackieclzheng/AiBuildIp/pkg/pipeline"

// Run executes job. The cursor is persisted only after the sender reported
// success; a delivery error is returned unchanged.
func (r *Runner) Run(ctx context.Context, job Job, opts Options) (*Result, error) {
	runID := r.newID()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "digest.run", trace.WithAttributes(
		attribute.String("digest.name", job.Name),
		attribute.String("digest.run_id", runID),
		attribute.Bool("digest.dry_run", opts.DryRun),
	))
	defer span.End()

	res, err := r.run(ctx, runID, job, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	span.SetAttributes(
		attribute.Int("digest.cursor", int(res.Cursor)),
		attribute.Int("digest.next", int(res.Next)),
		attribute.Int("digest.entries", len(res.Titles)),
	)
	return res, nil
}

func (r *Runner) run(ctx context.Context, runID string, job Job, opts Options) (*Result, error) {
	log := system.RunLogger(r.log, runID, job.Name, job.SourcePath)

	if !opts.DryRun && r.sender == nil {
		return nil, ErrNoSender
	}

	doc, err := source.Parse(job.SourcePath, job.Schema)
	if err != nil {
		metrics.DigestRuns.WithLabelValues(job.Name, metrics.OutcomeParseError).Inc()
		return nil, err
	}
	metrics.EntriesParsed.WithLabelValues(job.Name, string(doc.Schema)).Set(float64(len(doc.Entries)))
	log.Debugw("Parsed source", "schema", doc.Schema, "entries", len(doc.Entries), "blocks", doc.Blocks)

	store := rotation.NewStore(job.StatePath, rotation.State(job.StartIndex), log)
	cursor := store.Load()

	batch, next, err := rotation.Select(doc.Entries, cursor, job.Count)
	if err != nil {
		return nil, fmt.Errorf("select batch for %s: %w", job.Name, err)
	}

	tmpl := job.Template
	if doc.Meta.Intro != "" {
		tmpl.Intro = doc.Meta.Intro
	}
	rendered, err := digest.Render(batch, tmpl)
	if err != nil {
		metrics.DigestRuns.WithLabelValues(job.Name, metrics.OutcomeRenderError).Inc()
		return nil, fmt.Errorf("render %s: %w", job.Name, err)
	}

	res := &Result{
		RunID:   runID,
		Subject: digest.Subject(r.subjectPrefix(job, doc.Meta), rendered.SubjectSuffix),
		Body:    rendered.Body,
		Titles:  source.Sequence(batch).Titles(),
		Cursor:  cursor,
		Next:    next,
	}

	if opts.DryRun {
		metrics.DigestRuns.WithLabelValues(job.Name, metrics.OutcomeDryRun).Inc()
		log.Infow("Dry run, nothing sent", "titles", res.Titles)
		if opts.Out != nil {
			if err := writePreview(opts.Out, res); err != nil {
				return nil, err
			}
		}
		return res, nil
	}

	html, err := digest.RenderHTML(rendered.Body)
	if err != nil {
		metrics.DigestRuns.WithLabelValues(job.Name, metrics.OutcomeRenderError).Inc()
		return nil, err
	}
	msg := mail.Message{Subject: res.Subject, Text: rendered.Body, HTML: html, RunID: runID}
	if err := r.send(ctx, msg); err != nil {
		metrics.DigestRuns.WithLabelValues(job.Name, metrics.OutcomeSendError).Inc()
		log.Errorw("Delivery failed, cursor not advanced", "transport", r.sender.Name(), "error", err)
		return nil, err
	}
	res.Sent = true

	if err := store.Save(next); err != nil {
		metrics.DigestRuns.WithLabelValues(job.Name, metrics.OutcomeStateError).Inc()
		return res, fmt.Errorf("digest sent but cursor not saved: %w", err)
	}
	metrics.DigestRuns.WithLabelValues(job.Name, metrics.OutcomeSent).Inc()
	metrics.EntriesSelected.WithLabelValues(job.Name).Add(float64(len(batch)))
	metrics.RotationCursor.WithLabelValues(job.Name).Set(float64(next))
	log.Infow("Digest sent", "titles", res.Titles, "cursor", int(cursor), "next", int(next))
	return res, nil
}

func (r *Runner) send(ctx context.Context, msg mail.Message) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "mail.send",
		trace.WithAttributes(attribute.String("mail.transport", r.sender.Name())))
	defer span.End()
	if err := r.sender.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (r *Runner) subjectPrefix(job Job, meta source.Meta) string {
	for _, p := range []string{job.SubjectOverride, meta.SubjectPrefix, job.SubjectPrefix} {
		if strings.TrimSpace(p) != "" {
			return p
		}
	}
	return ""
}

func writePreview(w io.Writer, res *Result) error {
	_, err := fmt.Fprintf(w, "=== DRY RUN ===\nSubject: %s\n\n%s", res.Subject, res.Body)
	return err
}
