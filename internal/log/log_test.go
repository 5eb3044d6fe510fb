// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

func TestCustomHandler_HandleLog(t *testing.T) {
	var buf bytes.Buffer
	h := &CustomHandler{Writer: &buf}

	e := &log.Entry{
		Level:     log.WarnLevel,
		Message:   "asset failed",
		Timestamp: time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC),
		Fields:    log.Fields{"url": "/app.js", "attempt": 1},
	}

	assert.NoError(t, h.HandleLog(e))
	assert.Equal(t, "2025-03-04 05:06:07 W asset failed attempt=1 url=/app.js\n", buf.String())
}

func TestCustomHandler_NoFields(t *testing.T) {
	var buf bytes.Buffer
	h := &CustomHandler{Writer: &buf}

	e := &log.Entry{
		Level:     log.ErrorLevel,
		Message:   "boom",
		Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	assert.NoError(t, h.HandleLog(e))
	assert.Equal(t, "2025-01-01 00:00:00 E boom\n", buf.String())
}
