// SPDX-License-Identifier: Apache-2.0

package testutil

import "github.com/rs/zerolog"

// Nop returns a logger that discards everything
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
