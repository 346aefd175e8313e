package log

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type lines []string

func (l *lines) PrintMessage(msg string) { *l = append(*l, msg) }

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{"string", slog.String("key", "value"), " key=value"},
		{"spaced string", slog.String("key", "two words"), ` key="two words"`},
		{"empty string", slog.String("key", ""), ` key=""`},
		{"int64", slog.Int64("key", -123), " key=-123"},
		{"uint64", slog.Uint64("key", 0x400000), " key=4194304"},
		{"bool", slog.Bool("key", true), " key=true"},
		{"float64", slog.Float64("key", 1.25), " key=1.25"},
		{"time", slog.Time("key", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), " key=2024-01-01T00:00:00Z"},
		{"duration", slog.Duration("key", 1500*time.Millisecond), " key=1.5s"},
		{"error", slog.Any("key", errors.New("read failed")), ` key="read failed"`},
		{"json", slog.Any("key", map[string]int{"a": 1}), ` key="{\"a\":1}"`},
		{"nil", slog.Any("key", nil), " key=<nil>"},
		{"group", slog.Group("proc", slog.String("name", "game.exe"), slog.Int("pid", 1)), " proc.name=game.exe proc.pid=1"},
		{"empty attr", slog.Attr{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out lines
			logger := slog.New(NewHandler(&out))
			logger.LogAttrs(t.Context(), slog.LevelInfo, "msg", tt.attr)
			assert.Equal(t, lines{"INFO msg" + tt.want}, out)
		})
	}
}

func TestHandlerLevels(t *testing.T) {
	var out lines
	logger := slog.New(NewHandler(&out, WithLevel(slog.LevelWarn)))

	logger.Info("dropped")
	logger.Warn("kept", "callback", "update")
	logger.Error("failed")

	assert.Equal(t, lines{"WARN kept callback=update", "ERROR failed"}, out)
}

func TestHandlerWithAttrsAndGroup(t *testing.T) {
	var out lines
	logger := slog.New(NewHandler(&out)).With("script", "autosplitter").WithGroup("tick")

	logger.Info("done", "n", 3)
	assert.Equal(t, lines{"INFO done script=autosplitter tick.n=3"}, out)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}
