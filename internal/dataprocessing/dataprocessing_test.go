package dataprocessing

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/olol2/Conor-Keenan-Project/internal/config"
	apperrors "github.com/olol2/Conor-Keenan-Project/internal/errors"
	"github.com/olol2/Conor-Keenan-Project/internal/resolver"
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	res, err := resolver.New()
	require.NoError(t, err)
	return NewLoader(config.Default(), res, nil)
}

func csvTable(t *testing.T, body string) *Table {
	t.Helper()
	tbl, err := ReadCSV(strings.NewReader(body), "test.csv")
	require.NoError(t, err)
	return tbl
}

func TestReadCSV(t *testing.T) {
	tbl := csvTable(t, "\xEF\xBB\xBF Date ,HomeTeam\n01/02/2020, Arsenal \n,\n")

	assert.Equal(t, []string{"Date", "HomeTeam"}, tbl.Header)
	require.Len(t, tbl.Rows, 1, "blank rows are skipped")
	assert.Equal(t, "Arsenal", tbl.Rows[0][1])
	assert.Equal(t, 0, tbl.Column("date", "match_date"))
	assert.Equal(t, 1, tbl.Column("missing", "hometeam"))
	assert.Equal(t, -1, tbl.Column("AwayTeam"))

	_, err := tbl.Require("AwayTeam", "away_team")
	assert.Equal(t, apperrors.ErrTypeParsing, apperrors.TypeOf(err))
	assert.Equal(t, "", Cell(tbl.Rows[0], 7))
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), "empty.csv")
	assert.Error(t, err)
}

func TestReadXLSXFindsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prizes.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Premier League prize money"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"Season", "Club", "pl_total_gbp"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]any{"2019-2020", "Liverpool", 174600000}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := ReadTable(path, "Season", "pl_total_gbp")
	require.NoError(t, err)
	assert.Equal(t, []string{"Season", "Club", "pl_total_gbp"}, tbl.Header)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "Liverpool", tbl.Rows[0][1])

	_, err = ReadTable(path, "no_such_column")
	assert.Error(t, err)
}

func TestReadTableUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
	_, err := ReadTable(path)
	assert.Error(t, err)
}

func TestParseHelpers(t *testing.T) {
	tests := []struct {
		in      string
		wantInt int
		intOK   bool
	}{
		{"90", 90, true},
		{"90.0", 90, true},
		{"90.5", 0, false},
		{"", 0, false},
		{"x", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseInt(tt.in)
		assert.Equal(t, tt.intOK, ok, tt.in)
		assert.Equal(t, tt.wantInt, got, tt.in)
	}

	f, ok := parseFloat("£1,234.5")
	assert.True(t, ok)
	assert.Equal(t, 1234.5, f)
	f, ok = parseFloat("")
	assert.False(t, ok)
	assert.True(t, math.IsNaN(f))

	for in, want := range map[string]bool{"True": true, "1": true, "0": false, "false": false, "": false} {
		got, ok := parseBool(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok = parseBool("maybe")
	assert.False(t, ok)
}

func TestSelectOddsColumns(t *testing.T) {
	prefixes := []string{"B365", "PS", "Max", "Avg"}

	tbl := csvTable(t, "B365H,B365D,PSH,PSD,PSA\n")
	prefix, h, d, a, err := SelectOddsColumns(tbl, prefixes)
	require.NoError(t, err)
	assert.Equal(t, "PS", prefix, "B365 lacks an away column")
	assert.Equal(t, []int{2, 3, 4}, []int{h, d, a})

	_, _, _, _, err = SelectOddsColumns(csvTable(t, "AvgH,AvgD\n"), prefixes)
	assert.Error(t, err)
}

func TestLoaderMatches(t *testing.T) {
	l := newTestLoader(t)
	tbl := csvTable(t, strings.Join([]string{
		"Date,HomeTeam,AwayTeam,FTHG,FTAG,FTR,B365H,B365D,B365A",
		"09/08/2019,Liverpool,Norwich,4,1,H,1.14,10,19",
		"10/08/2019,West Ham,Man City,0,5,A,12,6.5,1.3",
		"bad-date,Arsenal,Chelsea,0,0,D,2,3,4",
		"11/08/2019,Arsenal,Chelsea,,,,2,x,4",
	}, "\n"))

	recs, diag, err := l.Matches(tbl, 2019)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, 1, diag.Count(domain.ReasonMalformedRow))
	assert.Equal(t, 4, diag.RowsIn)
	assert.Equal(t, 3, diag.RowsOut)

	first := recs[0]
	assert.Equal(t, domain.Season(2019), first.Season)
	assert.Equal(t, "Liverpool", first.HomeTeam)
	assert.Equal(t, "H", first.Result)
	assert.True(t, first.HasGoals)
	assert.Equal(t, 4, first.HomeGoals)
	assert.Equal(t, 1.14, first.OddsHome)
	assert.Equal(t, 2, first.Line)

	last := recs[2]
	assert.False(t, last.HasGoals)
	assert.True(t, math.IsNaN(last.OddsDraw), "unparseable prices stay for the outcome model to reject")
}

func TestLoaderMatchesSeasonWindow(t *testing.T) {
	l := newTestLoader(t)
	tbl := csvTable(t, "Season,Date,HomeTeam,AwayTeam,AvgH,AvgD,AvgA\n"+
		"2015-2016,2015-08-08,Arsenal,Chelsea,2,3,4\n"+
		"2020-2021,2020-09-12,Arsenal,Fulham,1.5,4,6\n")

	recs, diag, err := l.Matches(tbl, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, domain.Season(2020), recs[0].Season)
	assert.Equal(t, 1, diag.Count(domain.ReasonSeasonOutOfRange))
}

func TestLoaderMatchesMissingColumns(t *testing.T) {
	l := newTestLoader(t)
	_, _, err := l.Matches(csvTable(t, "Date,HomeTeam,B365H,B365D,B365A\n"), 2019)
	assert.Error(t, err)
}

func TestLoaderParticipation(t *testing.T) {
	l := newTestLoader(t)
	tbl := csvTable(t, strings.Join([]string{
		"season,date,team,player_name,is_starter,minutes",
		"2019,2019-08-09,Liverpool,Mohamed Salah,True,90",
		"2019,2019-08-09,Manchester United,Marcus Rashford,False,",
		"2019,2019-08-09,Atlantis FC,Someone,True,90",
		"2019,2019-08-09,Liverpool,nan,True,90",
		"2019,2019-08-09,Liverpool,Sadio Mané,perhaps,90",
	}, "\n"))

	recs, diag, err := l.Participation(tbl, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 1, diag.Count(domain.ReasonUnresolvedTeam))
	assert.Equal(t, 1, diag.Count(domain.ReasonUnresolvedPlayer))
	assert.Equal(t, 1, diag.Count(domain.ReasonMalformedRow))

	assert.Equal(t, domain.PlayerID("mohamed salah"), recs[0].PlayerID)
	assert.Equal(t, "Mohamed Salah", recs[0].PlayerName)
	assert.True(t, recs[0].Started)
	assert.Equal(t, 90, recs[0].Minutes)
	assert.Equal(t, domain.TeamID("Man United"), recs[1].TeamID)
	assert.Equal(t, 0, recs[1].Minutes)
}

func TestLoaderInjuries(t *testing.T) {
	l := newTestLoader(t)
	tbl := csvTable(t, strings.Join([]string{
		"player_name,team,season,injury_start,injury_end",
		"Virgil van Dijk,Liverpool,2020,2020-10-17,2021-06-30",
		"Kevin De Bruyne,Man City,2020,2020-11-10,2020-11-01",
		"Kevin De Bruyne,Man City,2020,,2020-11-01",
	}, "\n"))

	spells, diag, err := l.Injuries(tbl, 0)
	require.NoError(t, err)
	require.Len(t, spells, 2)
	assert.Equal(t, 1, diag.Count(domain.ReasonMalformedRow))
	assert.True(t, spells[1].Start.After(spells[1].End), "bounds are repaired downstream")
}

func TestLoaderPrizeMoney(t *testing.T) {
	l := newTestLoader(t)
	tbl := csvTable(t, "Season,Club,pl_total_gbp\n2019-2020,Liverpool,\"174,600,000\"\n2019-2020,Nowhere Town,1\n2019-2020,Norwich,n/a\n")

	prizes, diag, err := l.PrizeMoney(tbl)
	require.NoError(t, err)
	require.Len(t, prizes, 1)
	assert.Equal(t, domain.PrizeMoney{Season: 2019, TeamID: "Liverpool", TotalGBP: 174600000}, prizes[0])
	assert.Equal(t, 1, diag.Count(domain.ReasonUnresolvedTeam))
	assert.Equal(t, 1, diag.Count(domain.ReasonMalformedRow))
}

func TestReadMatchOutcomes(t *testing.T) {
	tbl := csvTable(t, "season,match_id,date,team_id,opponent_id,is_home,win_prob,draw_prob,loss_prob,expected_points,result,points,goals_for,goals_against,n_injured_squad\n"+
		"2019,1,2019-08-09,Liverpool,Norwich,true,0.8,0.12,0.08,2.52,W,3,4,1,2\n"+
		"2019,1,2019-08-09,Norwich,Liverpool,false,0.08,0.12,0.8,0.36,,,,,0\n")

	rows, err := ReadMatchOutcomes(tbl)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].HasResult)
	assert.Equal(t, 3, rows[0].Points)
	assert.Equal(t, 2, rows[0].NInjuredSquad)
	assert.False(t, rows[1].HasResult)
	assert.Equal(t, domain.TeamID("Liverpool"), rows[1].OpponentID)
}

func TestReadArtifactsStrict(t *testing.T) {
	tbl := csvTable(t, "season,match_id,date,team_id,opponent_id,is_home,player_id,player_name,started,minutes,expected_points,days_rest,difficulty_label\n"+
		"2019,1,2019-08-09,Liverpool,Norwich,true,mohamed salah,Mohamed Salah,true,90,2.52,30,tough\n")

	_, err := ReadRotationPanel(tbl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "difficulty_label")

	_, err = ReadInjuryPanel(csvTable(t, "season,match_id\n2019,1\n"))
	assert.Error(t, err, "missing columns")
}

func TestReadInjuryProxiesKeepsNaN(t *testing.T) {
	tbl := csvTable(t, "player_id,player_name,team_id,season,beta_unavailable,standard_error,p_value,n_unavailable,n_available,n_matches,n_opp_clusters,se_method,estimation_status,failure_reason,xpts_per_match_present,xpts_season_total,gbp_per_point,value_gbp_per_match,value_gbp_season_total\n"+
		"a,A,Arsenal,2019,,,,1,37,38,19,,failed,insufficient_support,,,,,\n")

	rows, err := ReadInjuryProxies(tbl)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, math.IsNaN(rows[0].BetaUnavailable))
	assert.False(t, rows[0].OK())
	assert.Equal(t, domain.FailureInsufficientSupport, rows[0].FailureReason)
}
