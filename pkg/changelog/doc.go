// Package changelog gathers the commits made since the last release and turns
// them into release notes.
//
// Extract finds the newest commit whose message starts with the release
// marker ("release:" by default) and lists every commit reachable from HEAD
// but not from it, so the log holds exactly the work that the next release
// will ship, merged branches included. History is read in process with
// go-git, or through the git command line when the exec backend is selected.
//
// NewNotes files commit subjects under fixed sections by their
// conventional-commit type and Render writes the notes as Markdown, YAML, or
// as the JSON payload the update server accepts:
//
//	log, err := changelog.Extract(ctx, changelog.Options{Dir: "."})
//	if err != nil {
//	    return err
//	}
//	notes := changelog.NewNotes("1.4.0", log.Messages, time.Now())
//	return changelog.Render(os.Stdout, notes, changelog.EncodingMarkdown)
package changelog
