package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
)

func TestNewSlogServiceLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger := NewSlogServiceLogger(log)
	logger.Info("deck paused", LogFields{"deck_id": "deck-1"})

	out := buf.String()
	if !strings.Contains(out, "deck paused") {
		t.Fatalf("expected message in output, got %s", out)
	}
	if !strings.Contains(out, "deck-1") {
		t.Fatalf("expected field in output, got %s", out)
	}
}

func TestNewSlogServiceLoggerNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil slog logger")
		}
	}()
	NewSlogServiceLogger(nil)
}

func TestWithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	logger := NewSlogServiceLogger(log).With(LogFields{"spy_id": "spy-7"})
	logger.Error("post failed", errors.New("boom"), nil)

	out := buf.String()
	if !strings.Contains(out, "spy-7") {
		t.Fatalf("expected inherited field in output, got %s", out)
	}
	if !strings.Contains(out, "boom") {
		t.Fatalf("expected error in output, got %s", out)
	}
}

func TestWatermillAdapterRoundTrip(t *testing.T) {
	captured := &capturingLogger{}
	adapter := NewWatermillAdapter(NewWatermillServiceLogger(captured))

	adapter.Info("batch flushed", watermill.LogFields{"size": 3})
	if captured.lastMsg != "batch flushed" {
		t.Fatalf("expected message to pass through, got %q", captured.lastMsg)
	}
	if captured.lastFields["size"] != 3 {
		t.Fatalf("expected fields to pass through, got %v", captured.lastFields)
	}
}

func TestNopServiceLogger(t *testing.T) {
	logger := NewNopServiceLogger()
	logger.Debug("ignored", nil)
	logger.Trace("ignored", LogFields{"k": "v"})
	logger.With(LogFields{"k": "v"}).Info("ignored", nil)
}

type capturingLogger struct {
	lastMsg    string
	lastFields watermill.LogFields
}

func (c *capturingLogger) Error(msg string, err error, fields watermill.LogFields) {
	c.lastMsg, c.lastFields = msg, fields
}
func (c *capturingLogger) Info(msg string, fields watermill.LogFields)  { c.lastMsg, c.lastFields = msg, fields }
func (c *capturingLogger) Debug(msg string, fields watermill.LogFields) { c.lastMsg, c.lastFields = msg, fields }
func (c *capturingLogger) Trace(msg string, fields watermill.LogFields) { c.lastMsg, c.lastFields = msg, fields }
func (c *capturingLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return c
}
