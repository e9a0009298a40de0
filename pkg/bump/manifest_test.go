package bump

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcomnes/releasekit/pkg/errors"
)

const pubspec = `name: companion_app
description: "A companion app."
# version: 0.0.1 is the old scheme
publish_to: 'none'

version: 1.2.3+5 # bumped by CI

environment:
  sdk: ^3.5.0

dependencies:
  flutter:
    sdk: flutter
  http: ^1.2.0
version: 9.9.9
`

func TestExtractManifestVersion(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "pubspec", content: pubspec, want: "1.2.3+5"},
		{name: "first line", content: "version: 0.1.0\n", want: "0.1.0"},
		{name: "no trailing newline", content: "name: x\nversion:2.0.0", want: "2.0.0"},
		{name: "tabs", content: "version:\t3.0.0-beta\n", want: "3.0.0-beta"},
		{name: "comment stops value", content: "version: 1.0.0#note\n", want: "1.0.0"},
		{name: "crlf", content: "name: x\r\nversion: 4.5.6\r\n", want: "4.5.6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractManifestVersion([]byte(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractManifestVersionMissing(t *testing.T) {
	tests := []string{
		"",
		"name: app\n",
		"  version: 1.0.0\n",
		"# version: 1.0.0\n",
		"app_version: 1.0.0\n",
		"version:\n  1.0.0\n",
	}
	for _, content := range tests {
		_, err := ExtractManifestVersion([]byte(content))
		require.Error(t, err, "content %q", content)
		assert.Equal(t, errors.ErrCodeParse, errors.CodeOf(err))
	}
}

func TestReplaceManifestVersionRoundTrip(t *testing.T) {
	original := []byte(pubspec)

	updated, err := ReplaceManifestVersion(original, "1.2.4+6")
	require.NoError(t, err)

	got, err := ExtractManifestVersion(updated)
	require.NoError(t, err)
	assert.Equal(t, "1.2.4+6", got)

	before := bytes.Split(original, []byte("\n"))
	after := bytes.Split(updated, []byte("\n"))
	require.Len(t, after, len(before))
	for i := range before {
		if i == 5 {
			assert.Equal(t, "version: 1.2.4+6 # bumped by CI", string(after[i]))
			continue
		}
		assert.Equal(t, string(before[i]), string(after[i]), "line %d changed", i+1)
	}
}

func TestReplaceManifestVersionKeepsCRLF(t *testing.T) {
	updated, err := ReplaceManifestVersion([]byte("name: x\r\nversion: 1.0.0\r\n"), "1.0.1")
	require.NoError(t, err)
	assert.Equal(t, "name: x\r\nversion: 1.0.1\r\n", string(updated))
}

func TestReplaceManifestVersionMissing(t *testing.T) {
	_, err := ReplaceManifestVersion([]byte("name: x\n"), "1.0.1")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeParse, errors.CodeOf(err))
}

func TestFindManifestVersionLine(t *testing.T) {
	m, err := FindManifestVersion([]byte(pubspec))
	require.NoError(t, err)
	assert.Equal(t, 6, m.Line)
	assert.Equal(t, "1.2.3+5", pubspec[m.Start:m.End])
}

func TestFindMainVersion(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		line    int
	}{
		{
			name: "package.json",
			content: `{
  "name": "companion-web",
  "version": "1.2.3",
  "dependencies": {
    "left-pad": "1.0.0"
  }
}`,
			want: "1.2.3",
			line: 3,
		},
		{
			name: "Cargo.toml",
			content: `[package]
name = "helper"
version = "2.1.0-alpha.2"

[dependencies]
serde = { version = "1.0.0" }`,
			want: "2.1.0-alpha.2",
			line: 3,
		},
		{
			name:    "VERSION file",
			content: "VERSION=4.5.6+7\n",
			want:    "4.5.6+7",
			line:    1,
		},
		{
			name: "nested json version ignored",
			content: `{
  "name": "x",
  "engines": {
        "version": "9.9.9"
  },
  "version": "0.3.0"
}`,
			want: "0.3.0",
			line: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := FindMainVersion([]byte(tt.content))
			require.NotNil(t, m)
			assert.Equal(t, tt.want, m.Version)
			assert.Equal(t, tt.line, m.Line)
		})
	}

	assert.Nil(t, FindMainVersion([]byte("# README\nnothing here\n")))
}

func TestReplaceMatchKeepsVPrefix(t *testing.T) {
	content := []byte("VERSION=v1.0.0\n")
	m := FindMainVersion(content)
	require.NotNil(t, m)
	assert.Equal(t, "VERSION=v1.0.1\n", string(ReplaceMatch(content, *m, "1.0.1")))
}
