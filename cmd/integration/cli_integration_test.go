package integration

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// buildBumpVersion builds the standalone bump-version binary. Since this test
// resides in cmd/integration, the main package is in ../bump-version.
func buildBumpVersion(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "bump-version")
	buildCmd := exec.Command("go", "build", "-o", binPath, "../bump-version")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build CLI binary: %v; build output: %s", err, out)
	}
	return binPath
}

func TestBumpVersionBinary(t *testing.T) {
	binPath := buildBumpVersion(t)

	tests := []struct {
		name     string
		manifest string
		args     []string
		want     string
		wantLine string
	}{
		{
			name:     "auto bump with build counter",
			manifest: "name: app\nversion: 1.2.3+5\n",
			want:     "1.2.4+6",
			wantLine: "version: 1.2.4+6",
		},
		{
			name:     "prerelease kept",
			manifest: "name: app\nversion: 1.2.3-beta+5 # store build\n",
			want:     "1.2.4-beta+6",
			wantLine: "version: 1.2.4-beta+6 # store build",
		},
		{
			name:     "short core padded",
			manifest: "version: 1.2\n",
			want:     "1.2.1",
			wantLine: "version: 1.2.1",
		},
		{
			name:     "explicit inherits build",
			manifest: "version: 1.2.3+5\n",
			args:     []string{"2.0.0"},
			want:     "2.0.0+6",
			wantLine: "version: 2.0.0+6",
		},
		{
			name:     "explicit build wins",
			manifest: "version: 1.2.3\n",
			args:     []string{"2.0.0+1"},
			want:     "2.0.0+1",
			wantLine: "version: 2.0.0+1",
		},
		{
			name:     "explicit equal to current",
			manifest: "version: 2.0.0\n",
			args:     []string{"2.0.0"},
			want:     "2.0.0",
			wantLine: "version: 2.0.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			manifest := filepath.Join(dir, "pubspec.yaml")
			if err := os.WriteFile(manifest, []byte(tt.manifest), 0644); err != nil {
				t.Fatal(err)
			}

			cmd := exec.Command(binPath, tt.args...)
			cmd.Dir = dir
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr
			if err := cmd.Run(); err != nil {
				t.Fatalf("bump-version failed: %v; stdout: %s; stderr: %s", err, stdout.String(), stderr.String())
			}

			if got := stdout.String(); got != "NEW_VERSION="+tt.want+"\n" {
				t.Errorf("stdout = %q, want NEW_VERSION=%s", got, tt.want)
			}
			content, err := os.ReadFile(manifest)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(content), tt.wantLine+"\n") {
				t.Errorf("manifest not updated; want line %q, got:\n%s", tt.wantLine, content)
			}
		})
	}
}

func TestBumpVersionBinaryFailures(t *testing.T) {
	binPath := buildBumpVersion(t)

	tests := []struct {
		name     string
		manifest string // empty means no manifest file
		args     []string
		wantErr  string
	}{
		{name: "missing manifest", wantErr: "Error: manifest file not found"},
		{name: "no version line", manifest: "name: app\n", wantErr: "Error: cannot read version from pubspec.yaml"},
		{name: "non-numeric component", manifest: "version: 1.a.0\n", wantErr: "Error: "},
		{name: "invalid explicit", manifest: "version: 2.0.0\n", args: []string{"banana"}, wantErr: `explicit version "banana" is not valid`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			manifest := filepath.Join(dir, "pubspec.yaml")
			if tt.manifest != "" {
				if err := os.WriteFile(manifest, []byte(tt.manifest), 0644); err != nil {
					t.Fatal(err)
				}
			}

			cmd := exec.Command(binPath, tt.args...)
			cmd.Dir = dir
			cmd.Env = append(os.Environ(), "NO_COLOR=1")
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr
			err := cmd.Run()

			exitErr, ok := err.(*exec.ExitError)
			if !ok || exitErr.ExitCode() != 1 {
				t.Fatalf("expected exit status 1, got %v", err)
			}
			if stdout.Len() != 0 {
				t.Errorf("expected empty stdout, got %q", stdout.String())
			}
			if !strings.Contains(stderr.String(), tt.wantErr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantErr)
			}
			if tt.manifest != "" {
				content, err := os.ReadFile(manifest)
				if err != nil {
					t.Fatal(err)
				}
				if string(content) != tt.manifest {
					t.Errorf("manifest changed on failure:\n%s", content)
				}
			}
		})
	}
}
