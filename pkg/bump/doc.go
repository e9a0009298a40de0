// Package bump computes the next release version of a project and writes it
// back into the project manifest.
//
// It provides:
//   - Bump, the pure version-bump function: auto-increment of the last core
//     component, or an explicit target that inherits the build counter.
//   - Pattern extraction and substitution of the manifest "version:" line,
//     leaving every other byte of the file as it was.
//   - Main-version detection for additional files (package.json, Cargo.toml,
//     VERSION files) kept in sync with the manifest.
//   - Run and DryRun, which tie these together and optionally record a
//     "release: <version>" commit and tag with go-git.
//
// Usage Example:
//
//	meta, err := bump.Run(ctx, bump.Options{ManifestPath: "pubspec.yaml"})
//	if err != nil {
//	    log.Fatalf("version bump failed: %v", err)
//	}
//	fmt.Printf("NEW_VERSION=%s\n", meta.NewVersion)
package bump
