package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bcomnes/releasekit/pkg/cli"
)

// TestMain triggers the CLI as a subprocess when GO_HELPER_PROCESS is set.
func TestMain(m *testing.M) {
	if os.Getenv("GO_HELPER_PROCESS") == "1" {
		main()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// runCLI runs the CLI in helper process mode in dir with optional extra
// environment vars.
func runCLI(dir string, args []string, extraEnv ...string) (string, error) {
	cmd := exec.Command(os.Args[0], args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GO_HELPER_PROCESS=1", "NO_COLOR=1")
	cmd.Env = append(cmd.Env, extraEnv...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

const pubspec = `name: companion_app
description: "A companion app."
version: 1.2.3+5 # bumped by CI

environment:
  sdk: ^3.5.0
`

// newRepo creates a git repository holding a committed pubspec.yaml.
func newRepo(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	runGit := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = tmpDir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v\n%s", args, err, out)
		}
	}
	runGit("init")
	runGit("config", "user.email", "test@example.com")
	runGit("config", "user.name", "Test User")

	if err := os.WriteFile(filepath.Join(tmpDir, "pubspec.yaml"), []byte(pubspec), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	runGit("add", ".")
	runGit("commit", "-m", "initial")
	return tmpDir
}

func TestCLIHelp(t *testing.T) {
	out, _ := runCLI(t.TempDir(), []string{"--help"})
	for _, want := range []string{"USAGE", "bump-version", "site-config", "commits", "release-notes"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in help output, got:\n%s", want, out)
		}
	}
}

func TestCLIVersionFlag(t *testing.T) {
	out, _ := runCLI(t.TempDir(), []string{"--version"})
	if !strings.Contains(out, cli.Version) {
		t.Errorf("expected CLI version in output, got:\n%s", out)
	}
}

func TestCLIMissingManifest(t *testing.T) {
	out, err := runCLI(t.TempDir(), []string{"bump-version"})
	if err == nil {
		t.Fatalf("expected failure, got output:\n%s", out)
	}
	if exitErr, ok := err.(*exec.ExitError); !ok || exitErr.ExitCode() != 1 {
		t.Errorf("expected exit status 1, got %v", err)
	}
	if !strings.Contains(out, "Error: manifest file not found: pubspec.yaml") {
		t.Errorf("expected missing manifest error, got:\n%s", out)
	}
	if strings.Contains(out, "NEW_VERSION=") {
		t.Errorf("no version should be printed on failure, got:\n%s", out)
	}
}

func TestCLIBumpCommitIntegration(t *testing.T) {
	tmpDir := newRepo(t)

	out, err := runCLI(tmpDir, []string{"bump-version", "--commit"},
		"GIT_AUTHOR_NAME=Test User",
		"GIT_AUTHOR_EMAIL=test@example.com",
	)
	if err != nil {
		t.Fatalf("CLI failed: %v\nstdout/stderr:\n%s", err, out)
	}
	if !strings.Contains(out, "NEW_VERSION=1.2.4+6\n") {
		t.Errorf("expected NEW_VERSION=1.2.4+6, got:\n%s", out)
	}

	contents, err := os.ReadFile(filepath.Join(tmpDir, "pubspec.yaml"))
	if err != nil {
		t.Fatalf("reading manifest failed: %v", err)
	}
	want := strings.Replace(pubspec, "1.2.3+5", "1.2.4+6", 1)
	if string(contents) != want {
		t.Errorf("unexpected manifest content:\n%s", contents)
	}

	cmd := exec.Command("git", "tag")
	cmd.Dir = tmpDir
	tagsOut, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git tag failed: %v\n%s", err, tagsOut)
	}
	if !strings.Contains(string(tagsOut), "v1.2.4+6") {
		t.Errorf("expected tag 'v1.2.4+6' not found. Tags:\n%s", tagsOut)
	}

	cmd = exec.Command("git", "log", "-1", "--format=%s")
	cmd.Dir = tmpDir
	subject, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git log failed: %v\n%s", err, subject)
	}
	if strings.TrimSpace(string(subject)) != "release: 1.2.4+6" {
		t.Errorf("unexpected release commit subject %q", subject)
	}

	out, err = runCLI(tmpDir, []string{"commits", "--backend", "exec"})
	if err != nil {
		t.Fatalf("commits failed: %v\n%s", err, out)
	}
	if !strings.HasPrefix(out, "COMMIT_COUNT=0\n") {
		t.Errorf("expected no commits after the release commit, got:\n%s", out)
	}
}

func TestCLIRefusesDirtyTree(t *testing.T) {
	tmpDir := newRepo(t)
	if err := os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("wip"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(tmpDir, []string{"bump-version", "--commit"})
	if err == nil {
		t.Fatalf("expected dirty tree to be refused, got:\n%s", out)
	}
	if !strings.Contains(out, "working directory is dirty") {
		t.Errorf("expected dirty tree error, got:\n%s", out)
	}

	contents, err := os.ReadFile(filepath.Join(tmpDir, "pubspec.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(contents) != pubspec {
		t.Errorf("manifest should be untouched, got:\n%s", contents)
	}
}

// TestCLIDryRunIntegration tests that the CLI dry run mode computes the correct
// version but does not update the manifest.
func TestCLIDryRunIntegration(t *testing.T) {
	tmpDir := newRepo(t)

	out, err := runCLI(tmpDir, []string{"bump-version", "--dry", "2.0.0"})
	if err != nil {
		t.Fatalf("CLI dry run failed: %v\nOutput:\n%s", err, out)
	}
	if !strings.Contains(out, "NEW_VERSION=2.0.0+6") {
		t.Errorf("expected output to contain 'NEW_VERSION=2.0.0+6', got:\n%s", out)
	}
	if !strings.Contains(out, "Dry run complete") {
		t.Errorf("expected dry run summary, got:\n%s", out)
	}

	contents, err := os.ReadFile(filepath.Join(tmpDir, "pubspec.yaml"))
	if err != nil {
		t.Fatalf("reading manifest failed: %v", err)
	}
	if string(contents) != pubspec {
		t.Errorf("dry run should not update the manifest; got:\n%s", contents)
	}
}

func TestCLIConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, "app"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "app", "pubspec.yaml"), []byte(pubspec), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := "manifest: app/pubspec.yaml\ninheritBuild: false\n"
	if err := os.WriteFile(filepath.Join(tmpDir, ".releasekit.yaml"), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(tmpDir, []string{"bump-version", "1.3.0"})
	if err != nil {
		t.Fatalf("CLI failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "NEW_VERSION=1.3.0\n") {
		t.Errorf("expected the config file to disable build inheritance, got:\n%s", out)
	}
}
