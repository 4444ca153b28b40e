package panel

import (
	"context"
	"sort"

	"github.com/olol2/Conor-Keenan-Project/internal/odds"
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// InjuryResult is the output of the injury sub-builder.
type InjuryResult struct {
	Rows []domain.InjuryPanelRow
	// Outcomes is the input outcome table with NInjuredSquad attached.
	Outcomes []domain.MatchOutcome
}

// BuildInjury expands every injury-listed player-team-season across all of
// the team's matches that season and flags the matches inside a spell.
func (b *Builder) BuildInjury(ctx context.Context, outcomes []domain.MatchOutcome, spells []domain.InjurySpell, participation []domain.ParticipationRecord) (*InjuryResult, *domain.Diagnostics, error) {
	diag := domain.NewDiagnostics(InjuryStage)
	diag.RowsIn = len(spells)

	if err := odds.CheckUnique(outcomes); err != nil {
		return nil, diag, err
	}

	fixtures := make(map[domain.TeamSeason][]domain.MatchOutcome)
	for _, o := range outcomes {
		k := domain.TeamSeason{TeamID: o.TeamID, Season: o.Season}
		fixtures[k] = append(fixtures[k], o)
	}
	for _, k := range sortedTeamSeasons(fixtures) {
		ms := fixtures[k]
		sort.SliceStable(ms, func(i, j int) bool { return ms[i].Date.Before(ms[j].Date) })
	}

	bySubject := make(map[domain.PlayerTeamSeason][]domain.InjurySpell)
	names := make(map[domain.PlayerTeamSeason]string)
	for _, s := range spells {
		s, swapped := s.Normalized()
		if swapped {
			diag.Add(domain.ReasonSwappedSpell, 1)
		}
		if _, ok := fixtures[domain.TeamSeason{TeamID: s.TeamID, Season: s.Season}]; !ok {
			diag.Add(domain.ReasonSpellWithoutFixtures, 1)
			continue
		}
		k := domain.PlayerTeamSeason{PlayerID: s.PlayerID, TeamID: s.TeamID, Season: s.Season}
		bySubject[k] = append(bySubject[k], s)
		if names[k] == "" {
			names[k] = s.PlayerName
		}
	}

	subjects := make([]domain.PlayerTeamSeason, 0, len(bySubject))
	for k := range bySubject {
		subjects = append(subjects, k)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Less(subjects[j]) })

	records, dups := dedupParticipation(participation)
	diag.Add(domain.ReasonDuplicateParticipation, dups)
	played := make(map[participationKey]domain.ParticipationRecord, len(records))
	for _, r := range records {
		played[participationKey{r.Key(), r.PlayerID}] = r
	}

	var rows []domain.InjuryPanelRow
	squad := make(map[domain.MatchKey]map[domain.PlayerID]struct{})
	for _, subj := range subjects {
		ms := fixtures[domain.TeamSeason{TeamID: subj.TeamID, Season: subj.Season}]
		for idx, m := range ms {
			row := domain.InjuryPanelRow{
				Season:         m.Season,
				MatchID:        m.MatchID,
				Date:           m.Date,
				TeamID:         m.TeamID,
				OpponentID:     m.OpponentID,
				PlayerID:       subj.PlayerID,
				PlayerName:     names[subj],
				ExpectedPoints: m.ExpectedPoints,
				MatchIndex:     idx,
			}
			for _, s := range bySubject[subj] {
				if s.Contains(m.Date) {
					row.Unavailable = true
					break
				}
			}
			if row.Unavailable {
				k := m.Key()
				if squad[k] == nil {
					squad[k] = make(map[domain.PlayerID]struct{})
				}
				squad[k][subj.PlayerID] = struct{}{}
			}
			if p, ok := played[participationKey{m.Key(), subj.PlayerID}]; ok {
				row.Minutes = p.Minutes
				row.Started = p.Started
			}
			rows = append(rows, row)
		}
	}

	for i := range rows {
		k := domain.MatchKey{Season: rows[i].Season, Date: rows[i].Date, TeamID: rows[i].TeamID}
		rows[i].NInjuredSquad = len(squad[k])
	}

	annotated := make([]domain.MatchOutcome, len(outcomes))
	copy(annotated, outcomes)
	for i := range annotated {
		annotated[i].NInjuredSquad = len(squad[annotated[i].Key()])
	}

	diag.RowsOut = len(rows)
	if n := diag.Count(domain.ReasonSpellWithoutFixtures); n > 0 {
		b.logger.WarnContext(ctx, "injury spells for team-seasons without fixtures", "dropped", n)
	}
	b.logger.InfoContext(ctx, "injury panel built",
		"spells_in", len(spells),
		"subjects", len(subjects),
		"rows_out", len(rows),
		"swapped_spells", diag.Count(domain.ReasonSwappedSpell))
	return &InjuryResult{Rows: rows, Outcomes: annotated}, diag.Sorted(), nil
}
