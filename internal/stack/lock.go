// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/hashgraph/solo-storekeeper/pkg/sanity"
)

const lockRetryDelay = 100 * time.Millisecond

// lockPath returns the lock file guarding location
func (s *Stack) lockPath(location string) string {
	if s.lockDir == "" {
		return location + ".lock"
	}

	sum := sha256.Sum256([]byte(location))
	name, err := sanity.Filename(filepath.Base(location))
	if err != nil {
		name = "store"
	}
	return filepath.Join(s.lockDir, name+"-"+hex.EncodeToString(sum[:6])+".lock")
}

// lock acquires the cross-process lock of location and returns the function releasing it
func (s *Stack) lock(ctx context.Context, location string) (func(), error) {
	lockPath := s.lockPath(location)
	if err := s.fs.CreateDirectory(filepath.Dir(lockPath), true); err != nil {
		return nil, LockFailed.Wrap(err, "failed to create lock directory").WithProperty(PropertyLockPath, lockPath)
	}

	fileLock := flock.New(lockPath)
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		return nil, LockFailed.Wrap(err, "failed to acquire lock of store %q", location).
			WithProperty(PropertyLockPath, lockPath)
	}
	if !locked {
		return nil, LockFailed.New("timed out acquiring lock of store %q", location).
			WithProperty(PropertyLockPath, lockPath)
	}

	return func() {
		if e := fileLock.Unlock(); e != nil {
			s.logger.Warn().Err(e).Str("lockPath", lockPath).Msg("Failed to unlock store lock")
		}
	}, nil
}
