package dataprocessing

import (
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/olol2/Conor-Keenan-Project/internal/config"
	apperrors "github.com/olol2/Conor-Keenan-Project/internal/errors"
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// Stage names of the loader diagnostics.
const (
	MatchesStage       = "load_matches"
	ParticipationStage = "load_participation"
	InjuriesStage      = "load_injuries"
	PrizeMoneyStage    = "load_prize_money"
)

// Header aliases per logical column.
var (
	seasonColumns     = []string{"season", "season_start_year", "season_label"}
	dateColumns       = []string{"date", "match_date"}
	homeColumns       = []string{"HomeTeam", "home_team"}
	awayColumns       = []string{"AwayTeam", "away_team"}
	teamColumns       = []string{"team", "team_id", "team_name", "club"}
	playerColumns     = []string{"player_name", "player"}
	startedColumns    = []string{"started", "is_starter", "starter"}
	minutesColumns    = []string{"minutes", "min", "time"}
	spellStartColumns = []string{"injury_start", "start_date", "from_date", "from"}
	spellEndColumns   = []string{"injury_end", "end_date", "to_date", "until"}
	prizeColumns      = []string{"pl_total_gbp", "total_gbp", "money_gbp", "prize_money"}
)

// EntityResolver canonicalises team and player names.
type EntityResolver interface {
	CanonicalizeTeam(raw string) (domain.TeamID, error)
	ResolvePlayer(raw string) (domain.PlayerID, error)
}

// Loader decodes the raw source tables.
type Loader struct {
	seasons  config.SeasonsConfig
	prefixes []string
	resolver EntityResolver
	validate *validator.Validate
	logger   *slog.Logger
}

// NewLoader creates a loader for the configured season window.
func NewLoader(cfg config.Config, resolver EntityResolver, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		seasons:  cfg.Seasons,
		prefixes: cfg.Pipeline.OddsPrefixes,
		resolver: resolver,
		validate: validator.New(),
		logger:   logger,
	}
}

// SelectOddsColumns returns the first prefix whose home, draw and away
// columns (<p>H, <p>D, <p>A) are all present.
func SelectOddsColumns(t *Table, prefixes []string) (prefix string, home, draw, away int, err error) {
	for _, p := range prefixes {
		h, d, a := t.Column(p+"H"), t.Column(p+"D"), t.Column(p+"A")
		if h >= 0 && d >= 0 && a >= 0 {
			return p, h, d, a, nil
		}
	}
	return "", -1, -1, -1, apperrors.NewParsingError(
		fmt.Sprintf("%s: no complete odds columns for prefixes %v", t.Source, prefixes), nil)
}

// Matches decodes a football-data style results and odds table. Team names
// are kept in source spelling; unparseable prices become NaN so the outcome
// model can count them as invalid odds.
func (l *Loader) Matches(t *Table, fileSeason domain.Season) ([]domain.MatchRecord, *domain.Diagnostics, error) {
	diag := domain.NewDiagnostics(MatchesStage)
	diag.RowsIn = len(t.Rows)

	dateCol, err := t.Require(dateColumns...)
	if err != nil {
		return nil, diag, err
	}
	homeCol, err := t.Require(homeColumns...)
	if err != nil {
		return nil, diag, err
	}
	awayCol, err := t.Require(awayColumns...)
	if err != nil {
		return nil, diag, err
	}
	prefix, hCol, dCol, aCol, err := SelectOddsColumns(t, l.prefixes)
	if err != nil {
		return nil, diag, err
	}
	seasonCol := t.Column(seasonColumns...)
	ftr, fthg, ftag := t.Column("FTR"), t.Column("FTHG"), t.Column("FTAG")

	var out []domain.MatchRecord
	for i, row := range t.Rows {
		season, ok := seasonOf(row, seasonCol, fileSeason)
		date, dateOK := parseDate(Cell(row, dateCol))
		if !ok || !dateOK {
			diag.Add(domain.ReasonMalformedRow, 1)
			continue
		}
		if !l.seasons.SeasonInRange(int(season)) {
			diag.Add(domain.ReasonSeasonOutOfRange, 1)
			continue
		}

		rec := domain.MatchRecord{
			Line:     i + 2,
			Season:   season,
			Date:     date,
			HomeTeam: Cell(row, homeCol),
			AwayTeam: Cell(row, awayCol),
			Result:   Cell(row, ftr),
		}
		rec.OddsHome, _ = parseFloat(Cell(row, hCol))
		rec.OddsDraw, _ = parseFloat(Cell(row, dCol))
		rec.OddsAway, _ = parseFloat(Cell(row, aCol))
		hg, hgOK := parseInt(Cell(row, fthg))
		ag, agOK := parseInt(Cell(row, ftag))
		if hgOK && agOK {
			rec.HomeGoals, rec.AwayGoals, rec.HasGoals = hg, ag, true
		}

		if err := l.validate.Struct(rec); err != nil {
			diag.Add(domain.ReasonMalformedRow, 1)
			l.logger.Debug("invalid match row", "source", t.Source, "line", rec.Line, "error", err)
			continue
		}
		out = append(out, rec)
	}

	diag.RowsOut = len(out)
	l.logger.Info("matches loaded",
		"source", t.Source,
		"odds_prefix", prefix,
		"rows_in", diag.RowsIn,
		"rows_out", diag.RowsOut,
		"malformed", diag.Count(domain.ReasonMalformedRow))
	return out, diag, nil
}

// Participation decodes per-player match appearances.
func (l *Loader) Participation(t *Table, fileSeason domain.Season) ([]domain.ParticipationRecord, *domain.Diagnostics, error) {
	diag := domain.NewDiagnostics(ParticipationStage)
	diag.RowsIn = len(t.Rows)

	dateCol, err := t.Require(dateColumns...)
	if err != nil {
		return nil, diag, err
	}
	teamCol, err := t.Require(teamColumns...)
	if err != nil {
		return nil, diag, err
	}
	playerCol, err := t.Require(playerColumns...)
	if err != nil {
		return nil, diag, err
	}
	startedCol, err := t.Require(startedColumns...)
	if err != nil {
		return nil, diag, err
	}
	minutesCol := t.Column(minutesColumns...)
	seasonCol := t.Column(seasonColumns...)

	var out []domain.ParticipationRecord
	for _, row := range t.Rows {
		season, ok := seasonOf(row, seasonCol, fileSeason)
		date, dateOK := parseDate(Cell(row, dateCol))
		started, startedOK := parseBool(Cell(row, startedCol))
		minutes, minutesOK := parseInt(Cell(row, minutesCol))
		if Cell(row, minutesCol) == "" {
			minutes, minutesOK = 0, true
		}
		if !ok || !dateOK || !startedOK || !minutesOK || minutes < 0 {
			diag.Add(domain.ReasonMalformedRow, 1)
			continue
		}
		if !l.seasons.SeasonInRange(int(season)) {
			diag.Add(domain.ReasonSeasonOutOfRange, 1)
			continue
		}

		team, err := l.resolver.CanonicalizeTeam(Cell(row, teamCol))
		if err != nil {
			diag.Add(domain.ReasonUnresolvedTeam, 1)
			continue
		}
		name := Cell(row, playerCol)
		player, err := l.resolver.ResolvePlayer(name)
		if err != nil {
			diag.Add(domain.ReasonUnresolvedPlayer, 1)
			continue
		}

		rec := domain.ParticipationRecord{
			Season:     season,
			Date:       date,
			TeamID:     team,
			PlayerID:   player,
			PlayerName: name,
			Started:    started,
			Minutes:    minutes,
		}
		if err := l.validate.Struct(rec); err != nil {
			diag.Add(domain.ReasonMalformedRow, 1)
			continue
		}
		out = append(out, rec)
	}

	diag.RowsOut = len(out)
	l.logRows(t.Source, "participation loaded", diag)
	return out, diag, nil
}

// Injuries decodes absence spells. Bounds are kept as given; ordering is
// repaired by the panel builder.
func (l *Loader) Injuries(t *Table, fileSeason domain.Season) ([]domain.InjurySpell, *domain.Diagnostics, error) {
	diag := domain.NewDiagnostics(InjuriesStage)
	diag.RowsIn = len(t.Rows)

	teamCol, err := t.Require(teamColumns...)
	if err != nil {
		return nil, diag, err
	}
	playerCol, err := t.Require(playerColumns...)
	if err != nil {
		return nil, diag, err
	}
	startCol, err := t.Require(spellStartColumns...)
	if err != nil {
		return nil, diag, err
	}
	endCol, err := t.Require(spellEndColumns...)
	if err != nil {
		return nil, diag, err
	}
	seasonCol := t.Column(seasonColumns...)

	var out []domain.InjurySpell
	for _, row := range t.Rows {
		season, ok := seasonOf(row, seasonCol, fileSeason)
		start, startOK := parseDate(Cell(row, startCol))
		end, endOK := parseDate(Cell(row, endCol))
		if !ok || !startOK || !endOK {
			diag.Add(domain.ReasonMalformedRow, 1)
			continue
		}
		if !l.seasons.SeasonInRange(int(season)) {
			diag.Add(domain.ReasonSeasonOutOfRange, 1)
			continue
		}

		team, err := l.resolver.CanonicalizeTeam(Cell(row, teamCol))
		if err != nil {
			diag.Add(domain.ReasonUnresolvedTeam, 1)
			continue
		}
		name := Cell(row, playerCol)
		player, err := l.resolver.ResolvePlayer(name)
		if err != nil {
			diag.Add(domain.ReasonUnresolvedPlayer, 1)
			continue
		}

		out = append(out, domain.InjurySpell{
			Season:     season,
			TeamID:     team,
			PlayerID:   player,
			PlayerName: name,
			Start:      start,
			End:        end,
		})
	}

	diag.RowsOut = len(out)
	l.logRows(t.Source, "injuries loaded", diag)
	return out, diag, nil
}

// PrizeMoney decodes the per-club league prize table.
func (l *Loader) PrizeMoney(t *Table) ([]domain.PrizeMoney, *domain.Diagnostics, error) {
	diag := domain.NewDiagnostics(PrizeMoneyStage)
	diag.RowsIn = len(t.Rows)

	seasonCol, err := t.Require(seasonColumns...)
	if err != nil {
		return nil, diag, err
	}
	teamCol, err := t.Require(teamColumns...)
	if err != nil {
		return nil, diag, err
	}
	gbpCol, err := t.Require(prizeColumns...)
	if err != nil {
		return nil, diag, err
	}

	var out []domain.PrizeMoney
	for _, row := range t.Rows {
		season, ok := seasonOf(row, seasonCol, 0)
		gbp, gbpOK := parseFloat(Cell(row, gbpCol))
		if !ok || !gbpOK {
			diag.Add(domain.ReasonMalformedRow, 1)
			continue
		}
		team, err := l.resolver.CanonicalizeTeam(Cell(row, teamCol))
		if err != nil {
			diag.Add(domain.ReasonUnresolvedTeam, 1)
			continue
		}
		rec := domain.PrizeMoney{Season: season, TeamID: team, TotalGBP: gbp}
		if err := l.validate.Struct(rec); err != nil {
			diag.Add(domain.ReasonMalformedRow, 1)
			continue
		}
		out = append(out, rec)
	}

	diag.RowsOut = len(out)
	l.logRows(t.Source, "prize money loaded", diag)
	return out, diag, nil
}

func (l *Loader) logRows(source, msg string, diag *domain.Diagnostics) {
	attrs := []any{"source", source, "rows_in", diag.RowsIn, "rows_out", diag.RowsOut}
	for _, r := range diag.Reasons() {
		attrs = append(attrs, string(r), diag.Counts[r])
	}
	l.logger.Info(msg, attrs...)
}
