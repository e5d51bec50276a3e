// SPDX-License-Identifier: Apache-2.0

// Package notify routes events of migration units to a replaceable handler. The default handler logs them.
package notify

import (
	"context"
	"sort"
	"sync"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"
	"github.com/rs/zerolog"
)

// Handler defines callbacks for unit events.
// Callers may install their own to forward events to a channel, a progress view or another logger.
type Handler struct {
	StepStart      func(ctx context.Context, stp automa.Step, msg string, args ...interface{})
	StepProgress   func(ctx context.Context, stp automa.Step, fraction float64)
	StepCompletion func(ctx context.Context, stp automa.Step, report *automa.Report, msg string, args ...interface{})
	StepFailure    func(ctx context.Context, stp automa.Step, report *automa.Report, msg string, args ...interface{})
}

var (
	mu      sync.RWMutex
	handler = defaultHandler()
)

func defaultHandler() *Handler {
	return &Handler{
		StepStart: func(ctx context.Context, stp automa.Step, msg string, args ...interface{}) {
			logx.As().Info().
				Str("step_id", stp.Id()).
				Msgf(msg, args...)
		},
		StepProgress: func(ctx context.Context, stp automa.Step, fraction float64) {
			logx.As().Debug().
				Str("step_id", stp.Id()).
				Float64("fraction", fraction).
				Msg("Migration progress")
		},
		StepCompletion: func(ctx context.Context, stp automa.Step, report *automa.Report, msg string, args ...interface{}) {
			logx.As().Info().
				Str("step_id", stp.Id()).
				Str("status", report.Status.String()).
				Dict("meta", metaDict(report)).
				Msgf(msg, args...)
		},
		StepFailure: func(ctx context.Context, stp automa.Step, report *automa.Report, msg string, args ...interface{}) {
			l := logx.As().Error().Err(report.Error).
				Str("step_id", stp.Id()).
				Str("status", report.Status.String()).
				Dict("meta", metaDict(report))

			if cause := RootCause(report); cause != nil && cause.Id != report.Id && cause.Error != nil {
				l.
					Str("first_error", cause.Error.Error()).
					Str("first_error_step_id", cause.Id)
			}

			l.Msgf(msg, args...)
		},
	}
}

// metaDict returns the report metadata as sorted log fields
func metaDict(report *automa.Report) *zerolog.Event {
	d := zerolog.Dict()
	if report == nil {
		return d
	}

	keys := make([]string, 0, len(report.Metadata))
	for k := range report.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d.Str(k, report.Metadata[k])
	}
	return d
}

// RootCause returns the deepest report in the tree of report that carries an error.
// It returns report itself when no nested report failed and nil when nothing failed.
func RootCause(report *automa.Report) *automa.Report {
	if report == nil {
		return nil
	}
	for _, stepReport := range report.StepReports {
		if stepReport != nil && stepReport.HasError() {
			return RootCause(stepReport)
		}
	}
	if report.HasError() {
		return report
	}
	return nil
}

// SetDefault replaces the callbacks of the default handler.
// Only non-nil callbacks are replaced so that the others keep logging.
func SetDefault(h *Handler) {
	if h == nil {
		return
	}

	mu.Lock()
	defer mu.Unlock()

	next := *handler
	if h.StepStart != nil {
		next.StepStart = h.StepStart
	}
	if h.StepProgress != nil {
		next.StepProgress = h.StepProgress
	}
	if h.StepCompletion != nil {
		next.StepCompletion = h.StepCompletion
	}
	if h.StepFailure != nil {
		next.StepFailure = h.StepFailure
	}
	handler = &next
}

// Reset restores the logging handler
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	handler = defaultHandler()
}

// As returns the current notification handler
func As() *Handler {
	mu.RLock()
	defer mu.RUnlock()
	return handler
}
