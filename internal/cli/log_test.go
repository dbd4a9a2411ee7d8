package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		verbose bool
		wantLog bool
	}{
		{"debug hidden at info", LogInfo, false, false},
		{"debug shown with --verbose", LogInfo, true, true},
		{"debug shown at debug", LogDebug, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c := New(&buf, tt.level)
			c.Out = &bytes.Buffer{}
			args := []string{"-C", writeProject(t, map[string]string{"pyproject.toml": testManifest}), "lint"}
			if tt.verbose {
				args = append(args, "--verbose")
			}
			cmd := c.RootCommand()
			cmd.SetArgs(args)
			_ = cmd.ExecuteContext(context.Background())

			gotLog := strings.Contains(buf.String(), "DEBU")
			if gotLog != tt.wantLog {
				t.Errorf("debug output = %v, want %v:\n%s", gotLog, tt.wantLog, buf.String())
			}
		})
	}
}

func TestRunLogsStepFields(t *testing.T) {
	var buf bytes.Buffer
	root := writeProject(t, map[string]string{
		"pyproject.toml":        testManifest,
		"src/tests/test_git.py": "",
	})
	c := New(&buf, LogInfo)
	c.Out = &bytes.Buffer{}
	c.exec = &recordingExec{}
	cmd := c.RootCommand()
	cmd.SetArgs([]string{"-C", root, "run", "git"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}

	var sync, test string
	for _, line := range strings.Split(buf.String(), "\n") {
		switch {
		case strings.Contains(line, "step=sync"):
			sync = line
		case strings.Contains(line, "step=test"):
			test = line
		}
	}
	for _, line := range []string{sync, test} {
		for _, want := range []string{"running", "run=", "group=git"} {
			if !strings.Contains(line, want) {
				t.Errorf("log line %q lacks %q", line, want)
			}
		}
	}
	if !strings.Contains(sync, "requirements/git.txt") || !strings.Contains(test, "src/tests/test_git.py") {
		t.Errorf("commands missing from log:\n%s", buf.String())
	}
}

func TestSelectGroupsWarnsThroughContextLogger(t *testing.T) {
	var buf bytes.Buffer
	root := writeProject(t, map[string]string{"pyproject.toml": testManifest})
	c := New(&buf, LogInfo)
	c.Out = &bytes.Buffer{}
	c.exec = &recordingExec{}
	cmd := c.RootCommand()
	cmd.SetArgs([]string{"-C", root, "run", "docs", "--dry-run"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "not declared in the manifest") || !strings.Contains(out, "group=docs") {
		t.Errorf("missing undeclared-group warning:\n%s", out)
	}
}

func TestProgressFields(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.InfoLevel)).done("rendered graph", "nodes", 4, "format", "svg")
	for _, want := range []string{"rendered graph", "nodes=4", "format=svg", "elapsed="} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("progress output %q lacks %q", buf.String(), want)
		}
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("loggerFromContext without a logger should return log.Default()")
	}
	l := newLogger(&bytes.Buffer{}, log.InfoLevel)
	if loggerFromContext(withLogger(context.Background(), l)) != l {
		t.Error("loggerFromContext should return the attached logger")
	}
}
