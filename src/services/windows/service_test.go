package windows

import (
	"context"
	"errors"
	"testing"
	"time"

	"Backend-QA-Portal/src/models"
	"Backend-QA-Portal/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	windows map[string]*models.AcademicWindow
}

func (m *memRepo) FindByYear(_ context.Context, year string) (*models.AcademicWindow, error) {
	return m.windows[year], nil
}

func (m *memRepo) Upsert(_ context.Context, w *models.AcademicWindow) error {
	m.windows[w.AcademicYear] = w
	return nil
}

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestGateBoundsAreInclusive(t *testing.T) {
	repo := &memRepo{windows: map[string]*models.AcademicWindow{
		"2024-2025": {
			AcademicYear:    "2024-2025",
			SubmissionStart: ts("2025-01-01T00:00:00Z"),
			SubmissionEnd:   ts("2025-01-31T23:59:59Z"),
		},
	}}
	gate := NewService(repo)
	ctx := context.Background()

	open, err := gate.IsSubmissionOpen(ctx, "2024-2025", *ts("2025-01-01T00:00:00Z"))
	require.NoError(t, err)
	assert.True(t, open)

	open, _ = gate.IsSubmissionOpen(ctx, "2024-2025", *ts("2025-01-31T23:59:59Z"))
	assert.True(t, open)

	open, _ = gate.IsSubmissionOpen(ctx, "2024-2025", *ts("2025-02-01T00:00:00Z"))
	assert.False(t, open)

	// appeal range not configured
	open, _ = gate.IsAppealOpen(ctx, "2024-2025", *ts("2025-01-10T00:00:00Z"))
	assert.False(t, open)

	// unknown year
	open, err = gate.IsSubmissionOpen(ctx, "2030-2031", *ts("2025-01-10T00:00:00Z"))
	require.NoError(t, err)
	assert.False(t, open)
}

func TestUpsertValidation(t *testing.T) {
	svc := NewService(&memRepo{windows: map[string]*models.AcademicWindow{}})
	ctx := context.Background()
	admin := &models.AuthUser{ID: "a1", Role: models.RoleAdmin}

	_, err := svc.Upsert(ctx, &models.AuthUser{Role: models.RoleDepartment}, &models.AcademicWindow{AcademicYear: "2024-2025"})
	assert.True(t, utils.IsKind(err, utils.KindAuthorization))

	_, err = svc.Upsert(ctx, admin, &models.AcademicWindow{
		AcademicYear:    "2024-2025",
		SubmissionStart: ts("2025-02-01T00:00:00Z"),
		SubmissionEnd:   ts("2025-01-01T00:00:00Z"),
	})
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	_, err = svc.Upsert(ctx, admin, &models.AcademicWindow{AcademicYear: "2024-2025", AppealStart: ts("2025-02-01T00:00:00Z")})
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	w, err := svc.Upsert(ctx, admin, &models.AcademicWindow{
		AcademicYear: "2024-2025",
		AppealStart:  ts("2025-03-01T00:00:00Z"),
		AppealEnd:    ts("2025-03-15T00:00:00Z"),
	})
	require.NoError(t, err)
	assert.Equal(t, "a1", w.UpdatedBy)

	got, err := svc.Get(ctx, "2024-2025")
	require.NoError(t, err)
	assert.Equal(t, w, got)

	_, err = svc.Get(ctx, "2031-2032")
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

type brokenRepo struct{ err error }

func (b brokenRepo) FindByYear(context.Context, string) (*models.AcademicWindow, error) {
	return nil, b.err
}

func (b brokenRepo) Upsert(context.Context, *models.AcademicWindow) error { return b.err }

func TestRepositoryErrorsAreDependencyErrors(t *testing.T) {
	svc := NewService(brokenRepo{err: errors.New("mongo: connection refused")})
	ctx := context.Background()

	_, err := svc.Get(ctx, "2024-2025")
	assert.True(t, utils.IsKind(err, utils.KindDependency))

	_, err = svc.Upsert(ctx, &models.AuthUser{ID: "a1", Role: models.RoleAdmin}, &models.AcademicWindow{AcademicYear: "2024-2025"})
	assert.True(t, utils.IsKind(err, utils.KindDependency))
}
