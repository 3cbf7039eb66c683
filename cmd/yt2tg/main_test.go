package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/tarpagad/yt2tg/internal/config"
)

func writeTestConfig(t *testing.T, base string) string {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateFile = filepath.Join(base, "state", "last_seen.json")
	cfg.YouTube.ChannelID = "UCtest"
	cfg.Telegram.BotToken = "test-token"
	cfg.Telegram.ChatID = "@testchannel"

	encoded, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "conf", "config.toml")

	output, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(output, "Wrote sample configuration") {
		t.Fatalf("unexpected output: %s", output)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	for _, section := range []string{"[youtube]", "[telegram]", "[ytdlp]"} {
		if !strings.Contains(string(data), section) {
			t.Fatalf("sample missing %s section", section)
		}
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(target, []byte("# existing"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error without --overwrite")
	}
	if _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestStateShowFirstRun(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	output, err := runCLI(t, "--config", configPath, "state", "show")
	if err != nil {
		t.Fatalf("state show: %v", err)
	}
	if !strings.Contains(output, "No delivery state") {
		t.Fatalf("unexpected output: %s", output)
	}
}

func TestStateResetRequiresConfirmation(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	if _, err := runCLI(t, "--config", configPath, "state", "reset"); err == nil {
		t.Fatal("expected reset to require --yes")
	}
	output, err := runCLI(t, "--config", configPath, "state", "reset", "--yes")
	if err != nil {
		t.Fatalf("state reset --yes: %v", err)
	}
	if !strings.Contains(output, "Removed") {
		t.Fatalf("unexpected output: %s", output)
	}
}

func TestHistoryEmptyJournal(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	output, err := runCLI(t, "--config", configPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(output, "No delivery attempts recorded yet") {
		t.Fatalf("unexpected output: %s", output)
	}
}

func TestStatusFirstRun(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	output, err := runCLI(t, "--config", configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(output, "UCtest") {
		t.Fatalf("expected channel id in output: %s", output)
	}
	if !strings.Contains(output, "first run pending") {
		t.Fatalf("expected first-run marker in output: %s", output)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"A", "B"},
		[][]string{{"only-a"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "only-a") {
		t.Fatalf("expected cell rendered, got %s", out)
	}
}
