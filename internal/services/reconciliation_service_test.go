package services

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payroll-recon/internal/models"
	"payroll-recon/internal/repositories"
)

// stubRunRepository backs the exception-resolution tests; everything that the
// workflow does not touch is left unimplemented.
type stubRunRepository struct {
	repositories.RunRepository
	exception *models.ReconciliationException
	updated   string
}

func (s *stubRunRepository) GetExceptionByID(id int64) (*models.ReconciliationException, error) {
	if s.exception == nil || s.exception.ID != id {
		return nil, repositories.ErrExceptionNotFound
	}
	ex := *s.exception
	return &ex, nil
}

func (s *stubRunRepository) UpdateExceptionResolution(id int64, status, resolvedBy string) error {
	if s.exception == nil || s.exception.ID != id {
		return repositories.ErrExceptionNotFound
	}
	s.exception.ResolutionStatus = status
	s.exception.ResolvedBy = sql.NullString{String: resolvedBy, Valid: resolvedBy != ""}
	s.updated = status
	return nil
}

func serviceWithException(status string) (*ReconciliationService, *stubRunRepository) {
	stub := &stubRunRepository{
		exception: &models.ReconciliationException{
			ID:               7,
			ReconType:        models.ReconTypeHours,
			Severity:         models.SeverityWarning,
			ResolutionStatus: status,
		},
	}
	return &ReconciliationService{runRepo: stub}, stub
}

func TestResolveExceptionLegalTransitions(t *testing.T) {
	tests := []struct {
		from string
		to   string
		ok   bool
	}{
		{models.ResolutionOpen, models.ResolutionUnderReview, true},
		{models.ResolutionOpen, models.ResolutionResolved, true},
		{models.ResolutionOpen, models.ResolutionAccepted, true},
		{models.ResolutionUnderReview, models.ResolutionResolved, true},
		{models.ResolutionUnderReview, models.ResolutionAccepted, true},
		{models.ResolutionUnderReview, models.ResolutionOpen, false},
		{models.ResolutionResolved, models.ResolutionOpen, false},
		{models.ResolutionResolved, models.ResolutionAccepted, false},
		{models.ResolutionAccepted, models.ResolutionResolved, false},
		{models.ResolutionOpen, "nonsense", false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"_to_"+tt.to, func(t *testing.T) {
			svc, stub := serviceWithException(tt.from)

			ex, err := svc.ResolveException(7, tt.to, "finance.lead")
			if !tt.ok {
				require.Error(t, err)
				assert.Empty(t, stub.updated, "no write on an illegal transition")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, ex.ResolutionStatus)
			assert.Equal(t, "finance.lead", ex.ResolvedBy.String)
		})
	}
}

func TestResolveExceptionUnknownID(t *testing.T) {
	svc, _ := serviceWithException(models.ResolutionOpen)

	_, err := svc.ResolveException(999, models.ResolutionResolved, "finance.lead")
	assert.ErrorIs(t, err, repositories.ErrExceptionNotFound)
}
