package cmd

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestRunExtension(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("extension scripts require a unix shell")
	}
	dir := t.TempDir()
	script := `#!/bin/sh
echo "$PVR_LEDGER_FILE $PVR_VERBOSE" > "$1"
exit 3
`
	if err := os.WriteFile(filepath.Join(dir, "pvr-hello"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	out := filepath.Join(dir, "out.txt")
	found, code := RunExtension("hello", []string{out})
	if !found {
		t.Fatalf("RunExtension(hello) did not find pvr-hello")
	}
	if got, want := code, 3; got != want {
		t.Errorf("exit code = %d, want %d", got, want)
	}
	content, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := strings.TrimSpace(string(content)), *ledgerFile+" false"; got != want {
		t.Errorf("extension env = %q, want %q", got, want)
	}
}

func TestRunExtension_NotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	if found, _ := RunExtension("nope", nil); found {
		t.Errorf("RunExtension(nope) found an extension")
	}
}
