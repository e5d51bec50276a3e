// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"time"

	"github.com/hashgraph/solo-storekeeper/internal/engine"
	"github.com/hashgraph/solo-storekeeper/pkg/fsx"
	"github.com/rs/zerolog"
)

// DefaultLockTimeout bounds how long an upgrade waits for the lock of its store
const DefaultLockTimeout = 30 * time.Second

// Option configures a Stack
type Option func(*Stack)

// WithLogger sets the logger
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Stack) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConfiguration selects the named configuration of the schemas. The empty name selects every entity.
func WithConfiguration(name string) Option {
	return func(s *Stack) {
		s.configuration = name
	}
}

// WithDispatcher sets where completions are delivered. By default the stack delivers them one at a time on
// its own goroutine.
func WithDispatcher(d Dispatcher) Option {
	return func(s *Stack) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

// WithLockDir keeps lock files in dir instead of next to each store
func WithLockDir(dir string) Option {
	return func(s *Stack) {
		s.lockDir = dir
	}
}

// WithLockTimeout sets how long an upgrade waits for the lock of its store
func WithLockTimeout(d time.Duration) Option {
	return func(s *Stack) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithWorkDir sets the directory migration workspaces are created in. It must be on the same file system as
// the stores.
func WithWorkDir(dir string) Option {
	return func(s *Stack) {
		s.workDir = dir
	}
}

// WithFileSystem sets the file system manager
func WithFileSystem(fm fsx.Manager) Option {
	return func(s *Stack) {
		if fm != nil {
			s.fs = fm
		}
	}
}

// WithMappingProviders adds providers consulted after the ones passed to each operation
func WithMappingProviders(providers ...engine.MappingProvider) Option {
	return func(s *Stack) {
		for _, p := range providers {
			if p != nil {
				s.providers = append(s.providers, p)
			}
		}
	}
}
