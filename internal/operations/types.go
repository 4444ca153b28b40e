package operations

// Step identifiers
const (
	StageIDMatches  = "matches"
	StageIDPanels   = "panels"
	StageIDRotation = "rotation"
	StageIDInjury   = "injury"
	StageIDCombine  = "combine"
	StageIDReport   = "report"
)

// Step names
const (
	StageNameMatches  = "Match Outcomes"
	StageNamePanels   = "Panel Construction"
	StageNameRotation = "Rotation Proxy"
	StageNameInjury   = "Injury Proxy"
	StageNameCombine  = "Proxy Combination"
	StageNameReport   = "Reports"
)

// Input kinds recorded in the run metadata
const (
	InputMatches       = "matches"
	InputParticipation = "participation"
	InputInjuries      = "injuries"
	InputPrizeMoney    = "prize_money"
)
