package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// executeCmd runs the root command with args and returns captured stdout
// and any error.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// writeConfig writes content to a temp config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DISCORD_TOKEN", "DISCORD_CHANNEL_ID", "PORT", "SERVER_1_ID"} {
		t.Setenv(k, "")
	}
}

func TestRunValidate_ValidConfig(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, `
port: 8080
refresh_interval: 10s
servers: ["1", "2", "3"]
discord:
  token: abc
  channel_id: "42"
`)

	output, err := executeCmd(t, "validate", "-c", configPath)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}

	expectedPhrases := []string{
		"Config is valid!",
		"Port:             8080",
		"Refresh interval: 10s",
		"Servers:          3",
	}
	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q\nGot:\n%s", phrase, output)
		}
	}
}

func TestRunValidate_CredentialsFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "env-token")
	t.Setenv("DISCORD_CHANNEL_ID", "env-channel")
	configPath := writeConfig(t, `servers: ["1"]`)

	if _, err := executeCmd(t, "validate", "-c", configPath); err != nil {
		t.Errorf("validate command error = %v", err)
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no servers",
			content: `port: 8080`,
			wantErr: "at least one server",
		},
		{
			name:    "missing credentials",
			content: `servers: ["1"]`,
			wantErr: "discord.token",
		},
		{
			name: "bad mode",
			content: `
servers: ["1"]
mode: eventually
discord: {dry_run: true}
`,
			wantErr: "mode must be",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := executeCmd(t, "validate", "-c", writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("validate command expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, err := executeCmd(t, "validate", "-c", filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("error = %v", err)
	}
}

func TestRunValidate_EnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envPath, []byte("SB_CLI_SERVER=777\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("SB_CLI_SERVER") })

	configPath := writeConfig(t, `
servers: ["${SB_CLI_SERVER}"]
discord: {dry_run: true}
`)

	output, err := executeCmd(t, "validate", "-c", configPath, "--env-file", envPath)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}
	if !strings.Contains(output, "Servers:          1") {
		t.Errorf("output = %s", output)
	}
}

func TestVersionCmd(t *testing.T) {
	output, err := executeCmd(t, "version")
	if err != nil {
		t.Fatalf("version command error = %v", err)
	}
	if !strings.Contains(output, "serverboard dev") {
		t.Errorf("output = %q", output)
	}
}
