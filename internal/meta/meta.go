// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package meta

import (
	"github.com/staranto/cinectl/internal/config"
)

// Meta is what every command gets to know about the invocation: the raw args
// and the config file they were resolved against.
type Meta struct {
	Args   []string
	Config config.Type
}
