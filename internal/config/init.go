// SPDX-License-Identifier: Apache-2.0

package config

import "github.com/automa-saga/logx"

// init sets up the default console logger so that commands failing before the configuration is loaded
// still report through logx
func init() {
	_ = logx.Initialize(globalConfig.Log)
}
