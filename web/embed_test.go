package web

import (
	"io/fs"
	"strings"
	"testing"
)

func TestStaticFS(t *testing.T) {
	data, err := fs.ReadFile(StaticFS(), "progress.js")
	if err != nil {
		t.Fatalf("progress.js not embedded: %v", err)
	}
	if !strings.Contains(string(data), `"/ws"`) {
		t.Error("progress.js should connect to the websocket endpoint")
	}
}
