// SPDX-License-Identifier: Apache-2.0

package stack

import "github.com/joomcode/errorx"

var (
	ErrorsNamespace = errorx.NewNamespace("stack")

	// LockFailed means the cross-process lock of a store could not be acquired in time
	LockFailed = ErrorsNamespace.NewType("lock_failed")
	// Closed means the stack no longer accepts operations
	Closed = ErrorsNamespace.NewType("closed", errorx.NotFound())

	PropertyLockPath = errorx.RegisterPrintableProperty("lock_path")
)
