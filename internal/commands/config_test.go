package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/readalong/internal/config"
)

func TestPrintConfig(t *testing.T) {
	t.Setenv("READALONG_HOME", t.TempDir())
	t.Setenv("GLAMOUR_STYLE", "")

	var out bytes.Buffer
	creds := config.Credentials{APIKey: "abcdefgh1234", Endpoint: "https://example.openai.azure.com/"}
	if err := printConfig(&out, config.DefaultConfig(), creds, nil); err != nil {
		t.Fatalf("printConfig() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{"gpt-4o-mini", "2024-05-01-preview", "(built-in)", "3m0s", "https://example.openai.azure.com/", "********1234"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "abcdefgh1234") {
		t.Error("API key must be masked")
	}
}

func TestPrintConfig_CredentialError(t *testing.T) {
	var out bytes.Buffer
	if err := printConfig(&out, config.DefaultConfig(), config.Credentials{}, errors.New("AZURE_OAI_KEY not set")); err != nil {
		t.Fatalf("printConfig() error = %v", err)
	}
	if !strings.Contains(out.String(), "AZURE_OAI_KEY not set") {
		t.Errorf("expected credential error in output, got %s", out.String())
	}
}

func TestConfigInit(t *testing.T) {
	home := t.TempDir()
	t.Setenv("READALONG_HOME", home)

	run := func(args ...string) (string, error) {
		cmd := NewRootCmd(newTestDeps(nil, false).Dependencies)
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	out, err := run("config", "init")
	if err != nil {
		t.Fatalf("config init error = %v", err)
	}
	path := filepath.Join(home, "config.json")
	if !strings.Contains(out, path) {
		t.Errorf("output = %q, want path %s", out, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if _, err := run("config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}
	if _, err := run("config", "init", "--force"); err != nil {
		t.Errorf("init --force error = %v", err)
	}

	out, err = run("config", "path")
	if err != nil {
		t.Fatalf("config path error = %v", err)
	}
	if strings.TrimSpace(out) != path {
		t.Errorf("config path = %q, want %q", out, path)
	}
}
