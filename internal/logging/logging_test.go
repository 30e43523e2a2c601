package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
)

func TestSetup_DefaultLevelHidesDebug(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, false)
	defer Discard()

	log.Debug().Msg("hidden")
	log.Warn().Str("model", "gpt-4o").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message should be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "gpt-4o") {
		t.Errorf("warn message missing, got %q", out)
	}
}

func TestSetup_Verbose(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, true)
	defer Discard()

	log.Debug().Msg("details")
	if !strings.Contains(buf.String(), "details") {
		t.Errorf("verbose logger should emit debug messages, got %q", buf.String())
	}
}

func TestIsTerminal_NonFile(t *testing.T) {
	if isTerminal(&bytes.Buffer{}) {
		t.Error("bytes.Buffer is not a terminal")
	}
}
