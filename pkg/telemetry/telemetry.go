// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides OpenTelemetry tracing initialization for digest
// runs. Spans are exported as JSON lines to a writer, typically a trace file
// collected after the process exits.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const (
	ExporterStdout = "stdout"
	ExporterNone   = "none"

	DefaultServiceName = "digestmail"
)

// Options configures the OpenTelemetry TracerProvider.
type Options struct {
	// Enabled controls whether tracing is active. When false, a no-op
	// TracerProvider is installed and the shutdown function is a no-op.
	Enabled bool

	ServiceName    string
	ServiceVersion string

	// Exporter selects the trace exporter: "stdout" (default) or "none".
	Exporter string

	// Writer receives exported spans for the stdout exporter. Defaults to os.Stdout.
	Writer io.Writer

	// SamplingRate is the probability of sampling a run (0.0-1.0).
	SamplingRate float64

	Logger *zap.SugaredLogger
}

// ShutdownFunc flushes pending spans and stops the TracerProvider.
type ShutdownFunc func(ctx context.Context) error

// Init installs the global TracerProvider and returns it with its shutdown
// function.
func Init(ctx context.Context, opts Options) (trace.TracerProvider, ShutdownFunc, error) {
	if !opts.Enabled {
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return tp, func(context.Context) error { return nil }, nil
	}

	if opts.ServiceName == "" {
		opts.ServiceName = DefaultServiceName
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if opts.SamplingRate <= 0 || opts.SamplingRate > 1.0 {
		log.Warnw("OTel sampling rate out of range, sampling every run", "provided", opts.SamplingRate)
		opts.SamplingRate = 1.0
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", opts.ServiceName),
			attribute.String("service.version", opts.ServiceVersion),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("creating OTel resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	switch opts.Exporter {
	case ExporterStdout, "":
		var exOpts []stdouttrace.Option
		if opts.Writer != nil {
			exOpts = append(exOpts, stdouttrace.WithWriter(opts.Writer))
		}
		exporter, err = stdouttrace.New(exOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("creating stdout exporter: %w", err)
		}
	case ExporterNone:
		log.Debugw("OTel tracing enabled with no exporter")
	default:
		return nil, nil, fmt.Errorf("unknown OTel exporter %q: supported values are stdout, none", opts.Exporter)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SamplingRate))),
	}
	if exporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithSyncer(exporter))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)

	otel.SetTracerProvider(tp)
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		log.Warnw("OpenTelemetry internal error", "error", err)
	}))
	log.Debugw("OpenTelemetry tracing initialized", "serviceName", opts.ServiceName, "exporter", opts.Exporter)

	shutdown := func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(shutdownCtx)
	}
	return tp, shutdown, nil
}
