// Package main implements the releasekit CLI tool.
//
// releasekit automates the release steps of an app project. It bumps the
// version line of the project manifest (pubspec.yaml by default), generates
// per-site configuration files from a template library, lists the commits
// made since the last release commit and renders release notes.
//
// Command Usage:
//
//	releasekit [global flags] <command> [flags] [arguments]
//
// Commands:
//
//	bump-version:  Bumps the manifest version and prints NEW_VERSION=<version>.
//	               Without an argument the last core component is incremented
//	               and a numeric build counter is carried forward. An explicit
//	               version inherits the incremented build counter unless it has
//	               its own "+build" or --no-inherit-build is given.
//	site-config:   Clones the template of a site type into <output-dir>/<id>.json.
//	commits:       Prints COMMIT_COUNT=<n> and the commits since the last
//	               "release:" commit.
//	release-notes: Renders Markdown, YAML or JSON release notes for a version.
//
// Global Flags:
//
//	--config:    Project file (default ".releasekit.yaml"). A missing default
//	             file is ignored; a missing file given explicitly is an error.
//	--log-level: debug, info, warn or error. Falls back to LOG_LEVEL.
//
// Examples:
//
//	# Bump the build of 1.2.3+5 to 1.2.4+6
//	releasekit bump-version
//
//	# Set an explicit version (1.2.3+5 → 2.0.0+6)
//	releasekit bump-version 2.0.0
//
//	# Keep package.json in sync, then commit "release: <version>" and tag it
//	releasekit bump-version --bump-file web/package.json --commit
//
//	# Generate a site configuration
//	releasekit site-config --templates site_templates.json --id acme --url https://acme.example.com --type retail
//
//	# Release notes from the commits since the last release
//	releasekit release-notes --from-commits 1.3.0
//
// The bump-version command is also built as a standalone binary from
// cmd/bump-version for pipelines that only need the version step.
package main
