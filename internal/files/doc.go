// Package files locates the per-season input files and commits output files
// atomically.
//
// Discovery expands a glob pattern and infers each file's season from the
// first four-digit run in its name. AtomicWrite stages content in a temporary
// file next to the destination and renames it into place only on success, so
// readers never observe a partially written artifact.
//
// Example usage:
//
//	discovery := files.NewDiscovery(paths.RawDir)
//	matches, err := discovery.FindByPattern(paths.MatchesGlob)
//
//	err = files.AtomicWrite(paths.Processed("match_outcomes.csv"), func(w io.Writer) error {
//	    return writeRows(w, rows)
//	})
package files
