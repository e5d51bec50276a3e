// SPDX-License-Identifier: Apache-2.0

package fsx

import (
	"os"
	"strings"

	"github.com/automa-saga/logx"
	"github.com/joomcode/errorx"
	"github.com/rs/zerolog"
)

// Close closes the file and logs an error if it fails.
func Close(f *os.File) {
	if f == nil {
		return
	}

	err := f.Close()
	if err != nil {
		if strings.Contains(err.Error(), "file already closed") {
			return
		}

		logx.As().Warn().Err(errorx.Decorate(err, "failed to close file %q", f.Name())).Msg("close failed")
	}
}

// Discard removes every path with fm. Failures are logged, missing files are ignored.
func Discard(fm Manager, logger *zerolog.Logger, paths ...string) {
	if logger == nil {
		logger = logx.As()
	}

	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := fm.Remove(p); err != nil {
			logger.Warn().Err(err).Str("path", p).Msg("Failed to discard file")
		}
	}
}

// DiscardAll removes dir and its contents with fm. A failure is logged.
func DiscardAll(fm Manager, logger *zerolog.Logger, dir string) {
	if dir == "" {
		return
	}
	if logger == nil {
		logger = logx.As()
	}

	if err := fm.RemoveAll(dir); err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("Failed to discard directory")
	}
}
