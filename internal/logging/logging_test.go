package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInitDebugLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	Init(true, &buf)
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Fatalf("level = %s, want debug", zerolog.GlobalLevel())
	}
	log.Debug().Str("model", "grok-beta").Msg("sending")
	if !strings.Contains(buf.String(), "sending") {
		t.Fatalf("debug line missing: %q", buf.String())
	}
}

func TestInitInfoLevelDropsDebug(t *testing.T) {
	var buf bytes.Buffer
	Init(false, &buf)
	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
