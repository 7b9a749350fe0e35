package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("measured", "images", 3) }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("collage placed") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("collage placed") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.InfoLevel)).done("Rendered svg")

	out := buf.String()
	if !strings.Contains(out, "Rendered svg (") || !strings.Contains(out, "s)") {
		t.Errorf("progress output = %q, want message with elapsed time", out)
	}
}

func TestLoadConfigLogging(t *testing.T) {
	tests := []struct {
		name      string
		toml      string
		verbose   bool
		wantLevel log.Level
		wantErr   bool
	}{
		{name: "level from file", toml: "[log]\nlevel = \"warn\"\n", wantLevel: log.WarnLevel},
		{name: "verbose wins over file", toml: "[log]\nlevel = \"warn\"\n", verbose: true, wantLevel: log.DebugLevel},
		{name: "no level keeps default", toml: "", wantLevel: log.InfoLevel},
		{name: "unknown level", toml: "[log]\nlevel = \"loud\"\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			path := filepath.Join(dir, "collage.toml")
			if err := os.WriteFile(path, []byte(tt.toml), 0o644); err != nil {
				t.Fatal(err)
			}

			c := New(&bytes.Buffer{}, LogInfo)
			c.configPath = path
			if tt.verbose {
				c.SetLogLevel(LogDebug)
			}
			err := c.loadConfig()
			defer c.Close()

			if tt.wantErr {
				if err == nil {
					t.Fatal("loadConfig() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("loadConfig() error = %v", err)
			}
			if got := c.Logger.GetLevel(); got != tt.wantLevel {
				t.Errorf("level = %v, want %v", got, tt.wantLevel)
			}
		})
	}
}

func TestLoadConfigWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	logPath := filepath.Join(dir, "logs", "collage.log")
	path := filepath.Join(dir, "collage.toml")
	conf := "[log]\nlevel = \"debug\"\nfile = " + `"` + filepath.ToSlash(logPath) + `"` + "\n"
	if err := os.WriteFile(path, []byte(conf), 0o644); err != nil {
		t.Fatal(err)
	}

	var stderr bytes.Buffer
	c := New(&stderr, LogInfo)
	c.configPath = path
	if err := c.loadConfig(); err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	c.Logger.Info("computed collage", "placed", 3)
	c.Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, want := range []string{"loaded config", "computed collage"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log file missing %q:\n%s", want, data)
		}
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("stderr missing %q", want)
		}
	}
}
