/*
SPDX-FileCopyrightText: 2025 jackieclzheng

SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jackieclzheng/AiBuildIp/pkg/digest"
	"github.com/jackieclzheng/AiBuildIp/pkg/mail"
	"github.com/jackieclzheng/AiBuildIp/pkg/metrics"
	"github.com/jackieclzheng/AiBuildIp/pkg/rotation"
	"github.com/jackieclzheng/AiBuildIp/pkg/source"
	"github.com/jackieclzheng/AiBuildIp/pkg/system"
)

const topics = `# 选题
1) 选题一
- 卖点：一
2) 选题二
- 卖点：二
3) 选题三
- 卖点：三
4) 选题四
- 卖点：四
5) 选题五
- 卖点：五
`

type fakeSender struct {
	err  error
	sent []mail.Message
}

func (f *fakeSender) Name() string { return "fake" }

func (f *fakeSender) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newJob(t *testing.T, name string) Job {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "topics.md")
	require.NoError(t, os.WriteFile(src, []byte(topics), 0o600))
	return Job{
		Name:          name,
		SourcePath:    src,
		StatePath:     filepath.Join(dir, "state", ".topics_state"),
		Schema:        source.SchemaAuto,
		Count:         2,
		SubjectPrefix: "AI 选题",
		Template:      digest.DefaultTemplate(),
	}
}

func newRunner(sender mail.Sender) *Runner {
	r := NewRunner(sender, system.NewTestLogger())
	r.newID = func() string { return "run-1" }
	return r
}

func TestRun_SendAdvancesCursor(t *testing.T) {
	job := newJob(t, "pipeline-send")
	require.NoError(t, rotation.Save(job.StatePath, 4))
	sender := &fakeSender{}

	res, err := newRunner(sender).Run(context.Background(), job, Options{})
	require.NoError(t, err)

	assert.True(t, res.Sent)
	assert.Equal(t, []string{"选题五", "选题一"}, res.Titles)
	assert.Equal(t, rotation.State(4), res.Cursor)
	assert.Equal(t, rotation.State(1), res.Next)
	assert.Equal(t, rotation.State(1), rotation.Load(job.StatePath, 0))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "AI 选题 - 选题五、选题一", msg.Subject)
	assert.Equal(t, "run-1", msg.RunID)
	assert.Contains(t, msg.Text, "## 选题五\n\n【卖点】\n五")
	assert.Contains(t, msg.HTML, "<h2>选题五</h2>")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DigestRuns.WithLabelValues("pipeline-send", metrics.OutcomeSent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RotationCursor.WithLabelValues("pipeline-send")))
	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.EntriesParsed.WithLabelValues("pipeline-send", string(source.SchemaNumbered))))
}

func TestRun_ConsecutiveRunsCoverSequence(t *testing.T) {
	job := newJob(t, "pipeline-cover")
	sender := &fakeSender{}
	r := newRunner(sender)

	var seen []string
	for i := 0; i < 3; i++ {
		res, err := r.Run(context.Background(), job, Options{})
		require.NoError(t, err)
		seen = append(seen, res.Titles...)
	}
	assert.Equal(t, []string{"选题一", "选题二", "选题三", "选题四", "选题五", "选题一"}, seen)
	assert.Equal(t, rotation.State(1), rotation.Load(job.StatePath, 0))
}

func TestRun_DryRunIsIdempotent(t *testing.T) {
	job := newJob(t, "pipeline-dry")
	require.NoError(t, rotation.Save(job.StatePath, 3))
	r := newRunner(nil)

	var first, second bytes.Buffer
	res, err := r.Run(context.Background(), job, Options{DryRun: true, Out: &first})
	require.NoError(t, err)
	_, err = r.Run(context.Background(), job, Options{DryRun: true, Out: &second})
	require.NoError(t, err)

	assert.False(t, res.Sent)
	assert.Equal(t, first.String(), second.String())
	assert.True(t, strings.HasPrefix(first.String(), "=== DRY RUN ===\nSubject: AI 选题 - 选题四、选题五\n\n"))
	assert.Equal(t, rotation.State(3), rotation.Load(job.StatePath, 0))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.DigestRuns.WithLabelValues("pipeline-dry", metrics.OutcomeDryRun)))
}

func TestRun_DryRunWithoutStateFileCreatesNothing(t *testing.T) {
	job := newJob(t, "pipeline-dry-nostate")
	job.StartIndex = 2

	res, err := newRunner(nil).Run(context.Background(), job, Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"选题三", "选题四"}, res.Titles)

	_, statErr := os.Stat(job.StatePath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_SendFailureKeepsCursor(t *testing.T) {
	job := newJob(t, "pipeline-fail")
	require.NoError(t, rotation.Save(job.StatePath, 2))
	sendErr := errors.New("535 authentication failed")

	_, err := newRunner(&fakeSender{err: sendErr}).Run(context.Background(), job, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, sendErr)
	assert.Equal(t, rotation.State(2), rotation.Load(job.StatePath, 0))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DigestRuns.WithLabelValues("pipeline-fail", metrics.OutcomeSendError)))
}

func TestRun_ParseErrorLeavesStateUntouched(t *testing.T) {
	job := newJob(t, "pipeline-parse")
	require.NoError(t, os.WriteFile(job.SourcePath, []byte("nothing to see\n"), 0o600))
	require.NoError(t, rotation.Save(job.StatePath, 7))
	sender := &fakeSender{}

	_, err := newRunner(sender).Run(context.Background(), job, Options{})
	assert.ErrorIs(t, err, source.ErrEmptyResult)
	assert.Empty(t, sender.sent)
	assert.Equal(t, rotation.State(7), rotation.Load(job.StatePath, 0))
}

func TestRun_MissingSource(t *testing.T) {
	job := newJob(t, "pipeline-missing")
	job.SourcePath = filepath.Join(t.TempDir(), "gone.md")

	_, err := newRunner(&fakeSender{}).Run(context.Background(), job, Options{})
	assert.ErrorIs(t, err, source.ErrSourceNotFound)
}

func TestRun_RequiresSenderUnlessDryRun(t *testing.T) {
	job := newJob(t, "pipeline-nosender")
	_, err := newRunner(nil).Run(context.Background(), job, Options{})
	assert.ErrorIs(t, err, ErrNoSender)
}

func TestRun_SubjectPrefixPrecedence(t *testing.T) {
	withMeta := "---\nsubject_prefix: 周末特刊\n---\n" + topics

	tests := []struct {
		name     string
		content  string
		override string
		want     string
	}{
		{name: "configured", content: topics, want: "AI 选题"},
		{name: "front matter beats config", content: withMeta, want: "周末特刊"},
		{name: "override beats front matter", content: withMeta, override: "临时", want: "临时"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := newJob(t, "pipeline-prefix")
			require.NoError(t, os.WriteFile(job.SourcePath, []byte(tt.content), 0o600))
			job.SubjectOverride = tt.override

			res, err := newRunner(nil).Run(context.Background(), job, Options{DryRun: true})
			require.NoError(t, err)
			assert.Equal(t, tt.want+" - 选题一、选题二", res.Subject)
		})
	}
}

func TestRun_FrontMatterIntro(t *testing.T) {
	job := newJob(t, "pipeline-intro")
	content := "---\nintro: \"本期 {{ .Count }} 条\"\n---\n" + topics
	require.NoError(t, os.WriteFile(job.SourcePath, []byte(content), 0o600))

	res, err := newRunner(nil).Run(context.Background(), job, Options{DryRun: true})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Body, "本期 2 条\n\n## 选题一"))
}

func TestRun_CountLargerThanSequence(t *testing.T) {
	job := newJob(t, "pipeline-clamp")
	job.Count = 50

	res, err := newRunner(&fakeSender{}).Run(context.Background(), job, Options{})
	require.NoError(t, err)
	assert.Len(t, res.Titles, 5)
	assert.Equal(t, rotation.State(0), rotation.Load(job.StatePath, 0))
}

func TestRun_RecordsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	job := newJob(t, "pipeline-trace")
	_, err := newRunner(&fakeSender{err: errors.New("boom")}).Run(context.Background(), job, Options{})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "mail.send", spans[0].Name())
	assert.Equal(t, "digest.run", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Contains(t, spans[1].Attributes(), attribute.String("digest.name", "pipeline-trace"))
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}
