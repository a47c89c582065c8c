package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
	"go.uber.org/zap"
)

func TestInit_InvalidLevel(t *testing.T) {
	err := Init("loud", "json", "stdout")
	assert.NotEqual(t, nil, err)
}

func TestInit_InvalidFormat(t *testing.T) {
	err := Init("info", "xml", "stdout")
	assert.NotEqual(t, nil, err)
}

func TestInit_WritesJSONToFile(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	path := filepath.Join(t.TempDir(), "app.log")
	if err := Init("info", "json", path); err != nil {
		t.Fatalf("init: %v", err)
	}

	Info("complaint stored", zap.Int64("complaint_id", 7))
	Debug("hidden below info")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}

	out := string(data)
	assert.Equal(t, true, strings.Contains(out, `"message":"complaint stored"`))
	assert.Equal(t, true, strings.Contains(out, `"complaint_id":7`))
	assert.Equal(t, false, strings.Contains(out, "hidden below info"))
}
