// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"sync"

	"github.com/hashgraph/solo-storekeeper/internal/migration"
)

// Outcome collects what the units of an upgrade workflow did.
//
// automa wraps step errors into its own reports, so units record the typed error they failed with here and the
// caller builds the migration result from it once the workflow has settled.
type Outcome struct {
	mu    sync.Mutex
	types []migration.Type
	err   error
}

// NewOutcome returns an empty outcome
func NewOutcome() *Outcome {
	return &Outcome{}
}

// Completed records a successfully migrated step of type t
func (o *Outcome) Completed(t migration.Type) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.types = append(o.types, t)
}

// Fail records err unless an earlier failure was already recorded
func (o *Outcome) Fail(err error) {
	if err == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err == nil {
		o.err = err
	}
}

// Err returns the first recorded failure
func (o *Outcome) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Result returns the migration result of the recorded units
func (o *Outcome) Result() migration.Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return migration.Failure(o.err)
	}
	return migration.Success(append([]migration.Type(nil), o.types...))
}
