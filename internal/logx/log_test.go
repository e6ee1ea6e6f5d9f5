package logx_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/capstone-so2/statuspage/internal/logx"
)

func TestConfigureLogLevel(t *testing.T) {
	defer logx.Configure("info")

	logx.Configure("all")
	if zerolog.GlobalLevel() != zerolog.TraceLevel {
		t.Fatalf("expected trace level, got %s", zerolog.GlobalLevel())
	}

	logx.Configure("WARNING")
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %s", zerolog.GlobalLevel())
	}

	logx.Configure("none")
	if zerolog.GlobalLevel() != zerolog.Disabled {
		t.Fatalf("expected disabled level, got %s", zerolog.GlobalLevel())
	}

	logx.Configure("bogus")
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info level, got %s", zerolog.GlobalLevel())
	}
}

func TestConfigureOutput(t *testing.T) {
	defer logx.Configure("info")

	var buf bytes.Buffer
	logx.ConfigureOutput("info", &buf)
	logx.Log.Info().Int("port", 4000).Msg("server listening")
	logx.Log.Debug().Msg("hidden")

	out := buf.String()
	if !strings.Contains(out, "server listening") || !strings.Contains(out, "4000") {
		t.Fatalf("expected startup line, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written at info level: %q", out)
	}
}

func TestConfigureAcceptsZerologNames(t *testing.T) {
	defer logx.Configure("info")

	for name, want := range map[string]zerolog.Level{
		"":         zerolog.InfoLevel,
		" Debug ":  zerolog.DebugLevel,
		"disabled": zerolog.Disabled,
		"off":      zerolog.Disabled,
		"panic":    zerolog.PanicLevel,
	} {
		logx.Configure(name)
		if got := zerolog.GlobalLevel(); got != want {
			t.Fatalf("Configure(%q) level = %s; want %s", name, got, want)
		}
	}
}

func TestLogCarriesService(t *testing.T) {
	defer logx.Configure("info")

	var buf bytes.Buffer
	logx.ConfigureOutput("info", &buf)
	logx.Log.Info().Msg("hello")
	if !strings.Contains(buf.String(), "statuspage") {
		t.Fatalf("expected service field, got %q", buf.String())
	}
}
