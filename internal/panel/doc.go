// Package panel builds the two match-aligned panels the proxy estimators run on.
//
// Both builders refuse to join against a match outcome table that is not
// unique on (season, date, team). Rows that cannot be aligned are dropped and
// counted in the returned diagnostics rather than treated as errors.
package panel
