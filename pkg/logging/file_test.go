package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// decodeLines parses every JSON line written by a logger
func decodeLines(t *testing.T, data []byte) []map[string]interface{} {
	t.Helper()

	var entries []map[string]interface{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry), "line %q", scanner.Text())
		entries = append(entries, entry)
	}
	return entries
}

func TestZeroLogger_JSON(t *testing.T) {
	ctx := context.Background()

	t.Run("LevelFiltering", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewZeroLogger(&buf, FormatJSON, WarnLevel)

		logger.Debug(ctx, "listing /www", nil)
		logger.Info(ctx, "sync started", nil)
		logger.Warn(ctx, "set mtime failed", Fields{"path": "/www/a.txt"})
		logger.Error(ctx, "upload failed", errors.New("quota exceeded"), nil)

		entries := decodeLines(t, buf.Bytes())
		require.Len(t, entries, 2)
		assert.Equal(t, "warn", entries[0]["level"])
		assert.Equal(t, "/www/a.txt", entries[0]["path"])
		assert.Equal(t, "error", entries[1]["level"])
		assert.Equal(t, "quota exceeded", entries[1]["error"])
		assert.Contains(t, entries[1], "time")
	})

	t.Run("WithFields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewZeroLogger(&buf, FormatJSON, DebugLevel).WithFields(Fields{"operation_id": "op-1"})

		logger.Debug(ctx, "decided", Fields{"action": "upload"})
		logger.Info(ctx, "finished", nil)

		entries := decodeLines(t, buf.Bytes())
		require.Len(t, entries, 2)
		for _, entry := range entries {
			assert.Equal(t, "op-1", entry["operation_id"])
		}
		assert.Equal(t, "upload", entries[0]["action"])
		assert.NotContains(t, entries[1], "action")
		assert.NoError(t, logger.Close(), "children don't own the output")
	})
}

func TestZeroLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZeroLogger(&buf, FormatText, InfoLevel)

	logger.Info(context.Background(), "connected", Fields{"host": "example.com"})

	line := buf.String()
	assert.Contains(t, line, "INF")
	assert.Contains(t, line, "connected")
	assert.Contains(t, line, "host=example.com")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())), "text format is not JSON")
}

func TestNewFileLogger(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "nested", "ftpsync.log")

	logger, err := NewFileLogger(FileLoggerConfig{Path: path, Format: FormatJSON, Level: InfoLevel})
	require.NoError(t, err)

	logger.Info(context.Background(), "deployment finished", Fields{"deployment": "site"})
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	entries := decodeLines(t, data)
	require.Len(t, entries, 1)
	assert.Equal(t, "site", entries[0]["deployment"])

	t.Run("Appends", func(t *testing.T) {
		logger, err := NewFileLogger(FileLoggerConfig{Path: path, Format: FormatJSON, Level: InfoLevel})
		require.NoError(t, err)
		logger.Info(context.Background(), "second run", nil)
		require.NoError(t, logger.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Len(t, decodeLines(t, data), 2)
	})
}

func TestRotatingFile(t *testing.T) {
	t.Run("Rotation", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sync.log")
		w, err := OpenRotatingFile(path, 64, 2)
		require.NoError(t, err)

		chunk := []byte(strings.Repeat("x", 63) + "\n")
		for i := 0; i < 5; i++ {
			_, err := w.Write(chunk)
			require.NoError(t, err)
		}
		require.NoError(t, w.Close())

		assert.FileExists(t, path)
		assert.FileExists(t, path+".1")
		assert.FileExists(t, path+".2")
		assert.NoFileExists(t, path+".3", "only MaxBackups backups are kept")
	})

	t.Run("NoRotationWithoutMaxSize", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sync.log")
		w, err := OpenRotatingFile(path, 0, 3)
		require.NoError(t, err)

		for i := 0; i < 10; i++ {
			_, err := w.Write([]byte("line\n"))
			require.NoError(t, err)
		}
		require.NoError(t, w.Close())

		assert.NoFileExists(t, path+".1")
	})

	t.Run("WriteAfterClose", func(t *testing.T) {
		w, err := OpenRotatingFile(filepath.Join(t.TempDir(), "sync.log"), 0, 0)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		require.NoError(t, w.Close(), "double close")

		_, err = w.Write([]byte("late"))
		assert.ErrorIs(t, err, os.ErrClosed)
	})

	t.Run("ConcurrentWrites", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sync.log")
		logger, err := NewFileLogger(FileLoggerConfig{Path: path, Format: FormatJSON, Level: DebugLevel})
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(worker int) {
				defer wg.Done()
				for j := 0; j < 25; j++ {
					logger.Debug(context.Background(), "entry", Fields{"worker": worker, "n": j})
				}
			}(i)
		}
		wg.Wait()
		require.NoError(t, logger.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Len(t, decodeLines(t, data), 200)
	})
}

func TestNew(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		logger, err := New(Options{Enabled: false, File: filepath.Join(t.TempDir(), "unused.log")})
		require.NoError(t, err)
		assert.IsType(t, &NullLogger{}, logger)
	})

	t.Run("Writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(Options{Enabled: true, Format: FormatJSON, Level: InfoLevel, Output: &buf})
		require.NoError(t, err)

		logger.Info(context.Background(), "hello", nil)
		assert.Len(t, decodeLines(t, buf.Bytes()), 1)
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ftpsync.log")
		logger, err := New(Options{Enabled: true, Format: FormatText, Level: InfoLevel, File: path, MaxSize: 1024, MaxBackups: 1})
		require.NoError(t, err)

		logger.Info(context.Background(), "to file", nil)
		require.NoError(t, logger.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "to file")
	})
}

func TestNullLogger(t *testing.T) {
	logger := NewNullLogger()
	ctx := context.Background()

	logger.Debug(ctx, "d", nil)
	logger.Info(ctx, "i", Fields{"k": "v"})
	logger.Warn(ctx, "w", nil)
	logger.Error(ctx, "e", errors.New("boom"), nil)

	assert.Same(t, logger, logger.WithFields(Fields{"k": "v"}))
	assert.NoError(t, logger.Close())
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"DEBUG":   DebugLevel,
		"info":    InfoLevel,
		"warn":    WarnLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"":        InfoLevel,
		"verbose": InfoLevel,
	}

	for input, want := range cases {
		assert.Equal(t, want, ParseLevel(input), "ParseLevel(%q)", input)
	}
}
