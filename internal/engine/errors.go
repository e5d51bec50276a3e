// SPDX-License-Identifier: Apache-2.0

package engine

import "github.com/joomcode/errorx"

var (
	ErrorsNamespace     = errorx.NewNamespace("engine")
	MappingNotInferable = ErrorsNamespace.NewType("mapping_not_inferable")
	InvalidMapping      = ErrorsNamespace.NewType("invalid_mapping")
	StoreError          = ErrorsNamespace.NewType("store_error")

	PropertyPath = errorx.RegisterPrintableProperty("path")
)
