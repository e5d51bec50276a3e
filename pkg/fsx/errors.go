// SPDX-License-Identifier: Apache-2.0

package fsx

import "github.com/joomcode/errorx"

var (
	ErrorsNamespace   = errorx.NewNamespace("fsx")
	FileAlreadyExists = ErrorsNamespace.NewType("file_already_exists")
	FileNotFound      = ErrorsNamespace.NewType("file_not_found", errorx.NotFound())
	FileSystemError   = ErrorsNamespace.NewType("filesystem_error")
	FileTypeError     = ErrorsNamespace.NewType("file_type_error")

	PropertyPath = errorx.RegisterPrintableProperty("path")
)
