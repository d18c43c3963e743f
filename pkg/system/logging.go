// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger returns the process logger: the development config with debug
// level when debug is set, the production JSON config otherwise.
func NewLogger(debug bool) (*zap.SugaredLogger, error) {
	var zlog *zap.Logger
	var err error
	if debug {
		zlog, err = zap.NewDevelopment()
	} else {
		zlog, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return zlog.Sugar(), nil
}

// DigestFields returns a variadic slice of key/value pairs suitable for passing
// to SugaredLogger.With or Infow/Errorw calls. If source is empty it will only
// include the "digest" key; otherwise it includes both "digest" and "source".
func DigestFields(digest, source string) []interface{} {
	if source == "" {
		return []interface{}{"digest", digest}
	}
	return []interface{}{"digest", digest, "source", source}
}

// RunLogger annotates logger with the run identifier and digest fields.
func RunLogger(logger *zap.SugaredLogger, runID, digest, source string) *zap.SugaredLogger {
	if logger == nil {
		return zap.NewNop().Sugar()
	}
	fields := append([]interface{}{"run", runID}, DigestFields(digest, source)...)
	return logger.With(fields...)
}
