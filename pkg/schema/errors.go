// SPDX-License-Identifier: Apache-2.0

package schema

import "github.com/joomcode/errorx"

var (
	ErrorsNamespace = errorx.NewNamespace("schema")
	InvalidSchema   = ErrorsNamespace.NewType("invalid_schema")
	SchemaNotFound  = ErrorsNamespace.NewType("schema_not_found", errorx.NotFound())
	ReadError       = ErrorsNamespace.NewType("read_error")

	PropertyVersion = errorx.RegisterPrintableProperty("version")
	PropertyPath    = errorx.RegisterPrintableProperty("path")
)
