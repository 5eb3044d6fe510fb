// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package version holds the build version, overridden at link time with
// -ldflags "-X github.com/staranto/cinectl/internal/version.Version=...".
package version

var Version = "dev"

// UserAgent is sent on every outbound HTTP request.
func UserAgent() string {
	return "cinectl/" + Version
}
