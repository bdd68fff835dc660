// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLoggerFormat(t *testing.T) {
	var buffer bytes.Buffer
	newLogger(&buffer, false, false).Info("job submitted", "project", "site")
	var line map[string]any
	if err := json.Unmarshal(buffer.Bytes(), &line); err != nil {
		t.Fatalf("non-terminal output is not JSON: %s", buffer.String())
	}
	if line["project"] != "site" {
		t.Errorf("line = %v", line)
	}

	buffer.Reset()
	newLogger(&buffer, true, false).Debug("hidden")
	if buffer.Len() != 0 {
		t.Errorf("debug line written at info level: %s", buffer.String())
	}

	newLogger(&buffer, true, true).Debug("shown")
	if !strings.Contains(buffer.String(), "msg=shown") {
		t.Errorf("terminal debug output = %q", buffer.String())
	}
}
