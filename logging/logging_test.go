package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	. "github.com/fulldump/biff"
)

func TestFanout(t *testing.T) {

	debug := &bytes.Buffer{}
	info := &bytes.Buffer{}

	logger := slog.New(&fanout{
		handlers: []slog.Handler{
			slog.NewTextHandler(debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
			slog.NewTextHandler(info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		},
	})

	AssertTrue(logger.Enabled(context.Background(), slog.LevelDebug))

	logger.With("cursor", "c1").Debug("overlay added", "column", 2)

	AssertTrue(strings.Contains(debug.String(), "cursor=c1"))
	AssertTrue(strings.Contains(debug.String(), "column=2"))
	AssertEqual(info.String(), "")
}

func TestParseLevel(t *testing.T) {

	level, err := ParseLevel("debug")
	AssertNil(err)
	AssertEqual(level, slog.LevelDebug)

	_, err = ParseLevel("loud")
	AssertNotNil(err)
}

func TestSetupLogger_ConsoleOnly(t *testing.T) {

	logger, closeFn := SetupLogger(slog.LevelWarn, "")
	defer closeFn()

	AssertNotNil(logger)
	AssertFalse(logger.Enabled(context.Background(), slog.LevelInfo))
}
