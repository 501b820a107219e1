package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNew_JSONLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "json", "warn")

	log.Info().Msg("hidden")
	log.Warn().Int("rows", 3).Msg("shown")

	var event map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &event); err != nil {
		t.Fatalf("expected exactly one JSON event, got %q: %v", buf.String(), err)
	}
	if event["message"] != "shown" || event["service"] != "costmodel" {
		t.Errorf("unexpected event: %v", event)
	}
}

func TestNew_BadLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "json", "chatty")

	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug event written at default level: %q", buf.String())
	}
	log.Info().Msg("shown")
	if buf.Len() == 0 {
		t.Error("info event not written")
	}
}
