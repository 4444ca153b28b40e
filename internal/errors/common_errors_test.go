package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "message only",
			err:      NewInvalidOddsError("odds_home must be positive"),
			expected: "[INVALID_ODDS] odds_home must be positive",
		},
		{
			name:     "with cause",
			err:      NewParsingError("read matches", fmt.Errorf("bad header")),
			expected: "[PARSING] read matches: bad header",
		},
		{
			name:     "sentinel",
			err:      ErrDataQuality,
			expected: "[DATA_QUALITY]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_IsMatchesByType(t *testing.T) {
	err := fmt.Errorf("build rotation panel: %w", NewKeyUniquenessError("match_outcomes", 2, "Arsenal/2019-08-11"))

	assert.True(t, errors.Is(err, ErrKeyUniqueness))
	assert.False(t, errors.Is(err, ErrInvalidOdds))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 2, appErr.Context["duplicates"])
	assert.Equal(t, "match_outcomes", appErr.Context["table"])
}

func TestAppError_UnwrapReachesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("write rotation_proxy.csv", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrStorage)
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"unresolved entity", NewUnresolvedEntityError("team", "Real Madrid"), false},
		{"invalid odds", NewInvalidOddsError("zero price"), false},
		{"insufficient support", NewInsufficientSupportError("p@t/2019", "n_unavailable < 2"), false},
		{"estimation", NewEstimationError("p@t/2019", errors.New("singular")), false},
		{"key uniqueness", NewKeyUniquenessError("match_outcomes", 1, "x"), true},
		{"data quality", NewDataQualityError(2019, 0.2, 0.05), true},
		{"storage", NewStorageError("rename", nil), true},
		{"wrapped key uniqueness", fmt.Errorf("stage panels: %w", NewKeyUniquenessError("m", 1, "x")), true},
		{"plain error", errors.New("boom"), true},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
		})
	}
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrTypeDataQuality, TypeOf(fmt.Errorf("wrap: %w", NewDataQualityError(2020, 0.5, 0.1))))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
}

func TestWithContext_InitialisesMap(t *testing.T) {
	err := &AppError{Type: ErrTypeConfig}
	err.WithContext("field", "workers")
	assert.Equal(t, "workers", err.Context["field"])
}
