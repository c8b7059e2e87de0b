package httpapi

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/csfantasy/draft-engine/internal/domain/draft"
	"github.com/csfantasy/draft-engine/internal/usecase"
)

func TestMapError(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{
			name:       "constraint violation",
			err:        fmt.Errorf("buy: %w", draft.ErrBudgetExceeded),
			wantStatus: http.StatusBadRequest,
			wantReason: "draftConstraint",
		},
		{
			name:       "backend rejection",
			err:        fmt.Errorf("%w: budget mismatch", usecase.ErrServerRejected),
			wantStatus: http.StatusConflict,
			wantReason: "serverRejected",
		},
		{
			name:       "invalid input",
			err:        fmt.Errorf("%w: bad league id", usecase.ErrInvalidInput),
			wantStatus: http.StatusBadRequest,
			wantReason: "invalidInput",
		},
		{
			name:       "not found",
			err:        fmt.Errorf("%w: no such map", usecase.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantReason: "notFound",
		},
		{
			name:       "unauthorized",
			err:        usecase.ErrUnauthorized,
			wantStatus: http.StatusUnauthorized,
			wantReason: "unauthorized",
		},
		{
			name:       "dependency unavailable",
			err:        fmt.Errorf("%w: backend down", usecase.ErrDependencyUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantReason: "dependencyUnavailable",
		},
		{
			name:       "unknown error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantReason: "internalError",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := mapError(tc.err)
			assert.Equal(t, tc.wantStatus, mapped.HTTPStatus)
			assert.Equal(t, tc.wantReason, mapped.Reason)
		})
	}
}
