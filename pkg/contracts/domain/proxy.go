package domain

// SEMethod names the covariance estimator behind an injury proxy standard error.
type SEMethod string

const (
	SEMethodClustered SEMethod = "clustered"
	SEMethodHC1       SEMethod = "hc1"
)

// EstimationStatus is the outcome of one injury regression.
type EstimationStatus string

const (
	EstimationOK     EstimationStatus = "ok"
	EstimationFailed EstimationStatus = "failed"
)

// Failure reasons recorded on failed injury proxies.
const (
	FailureInsufficientSupport = "insufficient_support"
	FailureSingularDesign      = "singular_design"
	FailureNoResidualDF        = "no_residual_df"
	FailureNonFinite           = "non_finite_estimate"
)

// RotationProxy is the rotation elasticity of one player-team-season.
type RotationProxy struct {
	PlayerID           PlayerID `json:"player_id"`
	PlayerName         string   `json:"player_name"`
	TeamID             TeamID   `json:"team_id"`
	Season             Season   `json:"season"`
	NMatches           int      `json:"n_matches"`
	NStarts            int      `json:"n_starts"`
	StartRateAll       float64  `json:"start_rate_all"`
	NHard              int      `json:"n_hard"`
	NHardStarts        int      `json:"n_hard_starts"`
	StartRateHard      float64  `json:"start_rate_hard"`
	NEasy              int      `json:"n_easy"`
	NEasyStarts        int      `json:"n_easy_starts"`
	StartRateEasy      float64  `json:"start_rate_easy"`
	RotationElasticity float64  `json:"rotation_elasticity"`
	QLow               float64  `json:"q_low"`
	QHigh              float64  `json:"q_high"`
	DegenerateTerciles bool     `json:"degenerate_terciles"`
}

// Key returns the join key of the row.
func (p RotationProxy) Key() PlayerTeamSeason {
	return PlayerTeamSeason{PlayerID: p.PlayerID, TeamID: p.TeamID, Season: p.Season}
}

// InjuryProxy is the unavailability coefficient of one player-team-season.
// Estimates of failed rows are NaN.
type InjuryProxy struct {
	PlayerID        PlayerID         `json:"player_id"`
	PlayerName      string           `json:"player_name"`
	TeamID          TeamID           `json:"team_id"`
	Season          Season           `json:"season"`
	BetaUnavailable float64          `json:"beta_unavailable"`
	StandardError   float64          `json:"standard_error"`
	PValue          float64          `json:"p_value"`
	NUnavailable    int              `json:"n_unavailable"`
	NAvailable      int              `json:"n_available"`
	NMatches        int              `json:"n_matches"`
	NOppClusters    int              `json:"n_opp_clusters"`
	SEMethod        SEMethod         `json:"se_method"`
	Status          EstimationStatus `json:"estimation_status"`
	FailureReason   string           `json:"failure_reason,omitempty"`

	// Interpretation of the coefficient, filled by the valuation transform.
	XPtsPerMatchPresent float64 `json:"xpts_per_match_present"`
	XPtsSeasonTotal     float64 `json:"xpts_season_total"`
	GBPPerPoint         float64 `json:"gbp_per_point"`
	ValueGBPPerMatch    float64 `json:"value_gbp_per_match"`
	ValueGBPSeasonTotal float64 `json:"value_gbp_season_total"`
}

// Key returns the join key of the row.
func (p InjuryProxy) Key() PlayerTeamSeason {
	return PlayerTeamSeason{PlayerID: p.PlayerID, TeamID: p.TeamID, Season: p.Season}
}

// OK reports a successful estimate.
func (p InjuryProxy) OK() bool {
	return p.Status == EstimationOK
}

// CombinedProxyRow is the outer join of both proxies on PlayerTeamSeason.
type CombinedProxyRow struct {
	PlayerID    PlayerID       `json:"player_id"`
	PlayerName  string         `json:"player_name"`
	TeamID      TeamID         `json:"team_id"`
	Season      Season         `json:"season"`
	Rotation    *RotationProxy `json:"rotation,omitempty"`
	Injury      *InjuryProxy   `json:"injury,omitempty"`
	HasRotation bool           `json:"has_rotation"`
	HasInjury   bool           `json:"has_injury"`
}

// Key returns the join key of the row.
func (r CombinedProxyRow) Key() PlayerTeamSeason {
	return PlayerTeamSeason{PlayerID: r.PlayerID, TeamID: r.TeamID, Season: r.Season}
}
