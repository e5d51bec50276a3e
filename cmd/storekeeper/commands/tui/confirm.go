// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"github.com/charmbracelet/huh"
)

// Confirm asks the user a yes/no question. It is a variable so that tests can answer for the user.
var Confirm = func(title, description string) (bool, error) {
	confirmed := false
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Upgrade").
		Negative("Cancel").
		Value(&confirmed).
		Run()
	if err != nil {
		return false, err
	}
	return confirmed, nil
}
