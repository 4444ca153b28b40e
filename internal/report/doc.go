// Package report renders the interactive HTML figures of a pipeline run: the
// rotation against injury scatter, the elasticity distribution and the value
// of a league point per season.
package report
