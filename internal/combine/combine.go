// Package combine outer-joins the rotation and injury proxy tables.
package combine

import (
	"math"
	"sort"

	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// StageName labels the diagnostics of the combiner.
const StageName = "combine"

// Combine returns one row per player-team-season present in either table,
// ordered by season, team and player. No row is dropped for missing coverage.
// The coverage flags mark rows whose proxy carries an estimate, not rows that
// merely appear in a table.
func Combine(rotation []domain.RotationProxy, injury []domain.InjuryProxy) ([]domain.CombinedProxyRow, *domain.Diagnostics) {
	diag := domain.NewDiagnostics(StageName)
	diag.RowsIn = len(rotation) + len(injury)

	rows := make(map[domain.PlayerTeamSeason]*domain.CombinedProxyRow)
	get := func(k domain.PlayerTeamSeason) *domain.CombinedProxyRow {
		r, ok := rows[k]
		if !ok {
			r = &domain.CombinedProxyRow{PlayerID: k.PlayerID, TeamID: k.TeamID, Season: k.Season}
			rows[k] = r
		}
		return r
	}

	for i := range rotation {
		r := get(rotation[i].Key())
		rp := rotation[i]
		r.Rotation = &rp
		r.HasRotation = !math.IsNaN(rp.RotationElasticity) && !math.IsInf(rp.RotationElasticity, 0)
		if r.PlayerName == "" {
			r.PlayerName = rp.PlayerName
		}
	}
	for i := range injury {
		r := get(injury[i].Key())
		ip := injury[i]
		r.Injury = &ip
		// a failed regression row carries no estimate
		r.HasInjury = ip.OK()
		if r.PlayerName == "" {
			r.PlayerName = ip.PlayerName
		}
	}

	keys := make([]domain.PlayerTeamSeason, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	out := make([]domain.CombinedProxyRow, 0, len(keys))
	for _, k := range keys {
		out = append(out, *rows[k])
	}
	diag.RowsOut = len(out)
	return out, diag
}

// Coverage counts rows by which proxies they carry.
type Coverage struct {
	Total        int `json:"total"`
	Both         int `json:"both"`
	RotationOnly int `json:"rotation_only"`
	InjuryOnly   int `json:"injury_only"`
}

// Summarize returns the coverage of a combined table.
func Summarize(rows []domain.CombinedProxyRow) Coverage {
	c := Coverage{Total: len(rows)}
	for _, r := range rows {
		switch {
		case r.HasRotation && r.HasInjury:
			c.Both++
		case r.HasRotation:
			c.RotationOnly++
		case r.HasInjury:
			c.InjuryOnly++
		}
	}
	return c
}
