// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"testing"

	"github.com/hashgraph/solo-storekeeper/internal/migration"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome_Success(t *testing.T) {
	o := NewOutcome()
	o.Completed(migration.Heavyweight)
	o.Completed(migration.Lightweight)

	r := o.Result()
	require.True(t, r.Succeeded())
	assert.Equal(t, []migration.Type{migration.Heavyweight, migration.Lightweight}, r.Types)
}

func TestOutcome_EmptyIsSuccess(t *testing.T) {
	r := NewOutcome().Result()
	require.True(t, r.Succeeded())
	assert.Empty(t, r.Types)
	assert.NotNil(t, r.Types)
}

func TestOutcome_FirstFailureWins(t *testing.T) {
	first := migration.MigrationStepFailed.New("first")
	second := migration.ReplaceFailed.New("second")

	o := NewOutcome()
	o.Completed(migration.Lightweight)
	o.Fail(nil)
	o.Fail(first)
	o.Fail(second)

	r := o.Result()
	require.False(t, r.Succeeded())
	assert.Equal(t, first, r.Err)
	assert.True(t, errorx.IsOfType(o.Err(), migration.MigrationStepFailed))
}
