// SPDX-License-Identifier: Apache-2.0

package chain

import "github.com/joomcode/errorx"

var (
	ErrorsNamespace = errorx.NewNamespace("chain")
	InvalidGraph    = ErrorsNamespace.NewType("invalid_graph")
)
