package domain

import (
	"sort"
)

// Reason names a class of excluded or adjusted rows.
type Reason string

const (
	ReasonUnresolvedTeam         Reason = "unresolved_team"
	ReasonUnresolvedPlayer       Reason = "unresolved_player"
	ReasonInvalidOdds            Reason = "invalid_odds"
	ReasonMalformedRow           Reason = "malformed_row"
	ReasonSeasonOutOfRange       Reason = "season_out_of_range"
	ReasonNoMatchingFixture      Reason = "no_matching_fixture"
	ReasonDuplicateParticipation Reason = "duplicate_participation"
	ReasonSwappedSpell           Reason = "swapped_spell_bounds"
	ReasonSpellWithoutFixtures   Reason = "spell_without_fixtures"
	ReasonDegenerateTerciles     Reason = "degenerate_terciles"
	ReasonInsufficientSupport    Reason = "insufficient_support"
	ReasonUndefinedElasticity    Reason = "undefined_elasticity"
	ReasonEstimationFailure      Reason = "estimation_failure"
	ReasonMissingPointValue      Reason = "missing_point_value"
	ReasonStandingsWithoutPrize  Reason = "standings_without_prize"
)

// Diagnostics is the accounting record a stage returns next to its output.
type Diagnostics struct {
	Stage   string         `json:"stage"`
	RowsIn  int            `json:"rows_in"`
	RowsOut int            `json:"rows_out"`
	Counts  map[Reason]int `json:"counts"`
	// Groups lists group keys flagged during the stage, by reason.
	Groups map[Reason][]string `json:"groups,omitempty"`
}

// NewDiagnostics returns an empty record for stage.
func NewDiagnostics(stage string) *Diagnostics {
	return &Diagnostics{
		Stage:  stage,
		Counts: make(map[Reason]int),
		Groups: make(map[Reason][]string),
	}
}

// Add increments the count for reason by n.
func (d *Diagnostics) Add(reason Reason, n int) {
	if n == 0 {
		return
	}
	d.Counts[reason] += n
}

// Flag records a group key under reason and increments its count.
func (d *Diagnostics) Flag(reason Reason, group string) {
	d.Counts[reason]++
	d.Groups[reason] = append(d.Groups[reason], group)
}

// Count returns the count recorded for reason.
func (d *Diagnostics) Count(reason Reason) int {
	if d == nil {
		return 0
	}
	return d.Counts[reason]
}

// Merge folds other into d, leaving other untouched.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.RowsIn += other.RowsIn
	d.RowsOut += other.RowsOut
	for reason, n := range other.Counts {
		d.Counts[reason] += n
	}
	for reason, groups := range other.Groups {
		d.Groups[reason] = append(d.Groups[reason], groups...)
	}
}

// Reasons returns the recorded reasons in lexical order.
func (d *Diagnostics) Reasons() []Reason {
	reasons := make([]Reason, 0, len(d.Counts))
	for r := range d.Counts {
		reasons = append(reasons, r)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	return reasons
}

// Sorted returns d with group lists in deterministic order.
func (d *Diagnostics) Sorted() *Diagnostics {
	for _, groups := range d.Groups {
		sort.Strings(groups)
	}
	return d
}
