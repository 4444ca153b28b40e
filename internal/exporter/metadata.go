package exporter

import (
	"encoding/json"
	"io"
	"time"

	apperrors "github.com/olol2/Conor-Keenan-Project/internal/errors"
	"github.com/olol2/Conor-Keenan-Project/internal/files"
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// RunMetadata records how one pipeline run was produced.
type RunMetadata struct {
	RunID          string                `json:"run_id"`
	Build          BuildInfo             `json:"build"`
	ArtifactLayout string                `json:"artifact_layout"`
	StartedAt      time.Time             `json:"started_at"`
	FinishedAt     time.Time             `json:"finished_at"`
	DurationSec    float64               `json:"duration_sec"`
	Seasons        []int                 `json:"seasons"`
	Stages         []string              `json:"stages"`
	Status         string                `json:"status"`
	Error          string                `json:"error,omitempty"`
	Config         interface{}           `json:"config"`
	Inputs         map[string][]string   `json:"inputs,omitempty"`
	Outputs        []string              `json:"outputs"`
	Diagnostics    []*domain.Diagnostics `json:"diagnostics"`
}

// WriteRunMetadata writes meta as indented JSON.
func WriteRunMetadata(path string, meta RunMetadata) error {
	if meta.ArtifactLayout == "" {
		meta.ArtifactLayout = ArtifactLayout
	}
	err := files.AtomicWrite(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
	if err != nil {
		return apperrors.NewStorageError("failed to write run metadata", err)
	}
	return nil
}
