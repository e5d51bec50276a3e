// SPDX-License-Identifier: Apache-2.0

package steps

import "github.com/automa-saga/automa"

const (
	ProducedByThisStep  = automa.Key("producedByThisStep")
	CommittedByThisStep = automa.Key("committedByThisStep")

	MetaSource      = "source"
	MetaDestination = "destination"
	MetaType        = "type"
	MetaLocation    = "location"
	MetaStaged      = "staged"
)
