// Package cli implements the releasekit command line.
//
// # Commands
//
// bump-version - Bump the manifest version:
//
//	releasekit bump-version [--manifest pubspec.yaml] [--commit] [explicit_version]
//
// Prints NEW_VERSION=<version> on success. The same command is shipped as the
// standalone bump-version binary.
//
// site-config - Generate a site configuration:
//
//	releasekit site-config --templates site_templates.json --id acme --url https://acme.example.com --type retail
//
// commits - List commits since the last release commit:
//
//	releasekit commits [--format text|json|yaml]
//
// release-notes - Render release notes:
//
//	releasekit release-notes 1.4.0 [--from-commits] [--format markdown|json|yaml]
//
// # Global Flags
//
//	--config, -c   project file (default: .releasekit.yaml)
//	--log-level    debug, info, warn, error (default: warn, or LOG_LEVEL)
//
// Failures are printed as a single "Error: ..." line on stderr and exit 1.
package cli
