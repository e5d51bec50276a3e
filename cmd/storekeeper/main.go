// SPDX-License-Identifier: Apache-2.0

// Command storekeeper checks, forecasts and runs progressive schema upgrades of file-backed stores.
//
// Every invocation gets a trace id, which the doctor prints with the diagnosis when a command fails.
package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/hashgraph/solo-storekeeper/cmd/storekeeper/commands"
	"github.com/hashgraph/solo-storekeeper/internal/doctor"
)

func main() {
	traceId := uuid.NewString()
	ctx := context.WithValue(context.Background(), "traceId", traceId)
	err := commands.Execute(ctx)
	if err != nil {
		doctor.CheckErr(ctx, err)
	}
}
