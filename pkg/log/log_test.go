package log_test

import (
	"bytes"
	"log/slog"
	"testing"

	charmlog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/droidforge/droidforge/pkg/log"
)

func TestCreateHandler(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		level   string
		format  string
		wantErr bool
	}{
		"text":           {level: "info", format: "text"},
		"logfmt":         {level: "debug", format: "logfmt"},
		"json":           {level: "warn", format: "json"},
		"empty format":   {level: "info", format: ""},
		"trace alias":    {level: "trace", format: "text"},
		"unknown format": {level: "info", format: "yaml", wantErr: true},
		"unknown level":  {level: "loud", format: "text", wantErr: true},
	}
	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			out := &bytes.Buffer{}

			h, err := log.CreateHandler(out, tc.level, tc.format)
			if tc.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)

			logger := slog.New(h)
			logger.Error("something happened", slog.String("key", "value"))
			require.Contains(t, out.String(), "something happened")
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, err := log.ParseLevel("")
	require.NoError(t, err)
	require.Equal(t, charmlog.InfoLevel, level)

	level, err = log.ParseLevel("debug")
	require.NoError(t, err)
	require.Equal(t, charmlog.DebugLevel, level)
}
