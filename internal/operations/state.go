package operations

import (
	"sort"
	"sync"
	"time"

	"github.com/olol2/Conor-Keenan-Project/internal/config"
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// OperationStatusValue represents the overall run status
type OperationStatusValue string

const (
	OperationStatusPending   OperationStatusValue = "pending"
	OperationStatusRunning   OperationStatusValue = "running"
	OperationStatusCompleted OperationStatusValue = "completed"
	OperationStatusFailed    OperationStatusValue = "failed"
	OperationStatusCancelled OperationStatusValue = "cancelled"
)

// OperationState is the state of one pipeline run. Config and Paths are
// fixed at creation; steps only append diagnostics, inputs and outputs.
type OperationState struct {
	mu sync.RWMutex

	ID        string               `json:"id"`
	Status    OperationStatusValue `json:"status"`
	StartTime time.Time            `json:"start_time"`
	EndTime   *time.Time           `json:"end_time,omitempty"`

	Config config.Config `json:"-"`
	Paths  config.Paths  `json:"-"`

	Steps       map[string]*StepState  `json:"steps"`
	Diagnostics []*domain.Diagnostics  `json:"diagnostics"`
	Inputs      map[string][]string    `json:"inputs"`
	Outputs     []string               `json:"outputs"`
	Seasons     map[domain.Season]bool `json:"-"`

	Error error `json:"-"`
}

// NewOperationState creates a new run state
func NewOperationState(id string, cfg config.Config, paths config.Paths) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Config:    cfg,
		Paths:     paths,
		Steps:     make(map[string]*StepState),
		Inputs:    make(map[string][]string),
		Seasons:   make(map[domain.Season]bool),
	}
}

// Start marks the run as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the run as completed
func (p *OperationState) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the run as failed
func (p *OperationState) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	p.Error = err
}

// Cancel marks the run as cancelled
func (p *OperationState) Cancel(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCancelled
	p.Error = err
}

// GetStage returns the state of a specific Step
func (p *OperationState) GetStage(stageID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Steps[stageID]
}

// SetStage updates the state of a specific Step
func (p *OperationState) SetStage(stageID string, state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Steps[stageID] = state
}

// RecordDiagnostics appends the accounting record of a stage
func (p *OperationState) RecordDiagnostics(diags ...*domain.Diagnostics) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, d := range diags {
		if d != nil {
			p.Diagnostics = append(p.Diagnostics, d.Sorted())
		}
	}
}

// AddInputs records source files read under kind
func (p *OperationState) AddInputs(kind string, paths ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Inputs[kind] = append(p.Inputs[kind], paths...)
}

// AddOutputs records artifacts written by a stage
func (p *OperationState) AddOutputs(paths ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Outputs = append(p.Outputs, paths...)
}

// AddSeasons records seasons seen in the data
func (p *OperationState) AddSeasons(seasons ...domain.Season) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range seasons {
		p.Seasons[s] = true
	}
}

// SeasonList returns the recorded seasons in ascending order
func (p *OperationState) SeasonList() []int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]int, 0, len(p.Seasons))
	for s := range p.Seasons {
		out = append(out, int(s))
	}
	sort.Ints(out)
	return out
}

// Duration returns the duration of the run
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}
