package utils

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"Backend-QA-Portal/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorKinds(t *testing.T) {
	cases := []struct {
		err    error
		kind   ErrorKind
		status int
	}{
		{ValidationError("bad %s", "input"), KindValidation, http.StatusBadRequest},
		{AuthorizationError("nope"), KindAuthorization, http.StatusForbidden},
		{ConflictError("dup"), KindConflict, http.StatusConflict},
		{NotFoundError("missing"), KindNotFound, http.StatusNotFound},
		{NotReadyError("later"), KindNotReady, http.StatusConflict},
		{DependencyError(fmt.Errorf("s3 down"), "storage"), KindDependency, http.StatusBadGateway},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, KindOf(tc.err))
		assert.Equal(t, tc.status, tc.kind.HTTPStatus())
	}

	wrapped := fmt.Errorf("outer: %w", ConflictError("dup"))
	assert.True(t, IsKind(wrapped, KindConflict))
	assert.Equal(t, ErrorKind(0), KindOf(fmt.Errorf("plain")))
}

func TestDependencyErrorUnwraps(t *testing.T) {
	root := fmt.Errorf("timeout")
	err := DependencyError(root, "delete objects")
	assert.ErrorIs(t, err, root)
	assert.Contains(t, err.Error(), "timeout")
}

func TestIsAcademicYear(t *testing.T) {
	assert.True(t, IsAcademicYear("2024-2025"))
	assert.False(t, IsAcademicYear("2024-2026"))
	assert.False(t, IsAcademicYear("2024"))
	assert.False(t, IsAcademicYear("abcd-abce"))
}

func TestValidateStruct(t *testing.T) {
	type in struct {
		AcademicYear string `validate:"required,academicyear"`
		Title        string `validate:"required"`
	}
	err := ValidateStruct(in{AcademicYear: "2024-2030"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))
	assert.Contains(t, err.Error(), "Title is required")

	assert.NoError(t, ValidateStruct(in{AcademicYear: "2024-2025", Title: "SAR"}))
}

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	token, err := GenerateJWT(models.AuthUser{
		ID: "u1", Role: models.RoleDepartment, Department: "CSE", School: "SOE", SchoolName: "School of Engineering",
	}, time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token)
	require.NoError(t, err)
	user := claims.User()
	assert.Equal(t, models.RoleDepartment, user.Role)
	assert.Equal(t, "CSE", user.Department)
	assert.Equal(t, "SOE", user.School)

	_, err = ParseJWT(token + "x")
	assert.Error(t, err)
}

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	unlock, ok, err := l.TryLock(ctx, "publish:2024-2025", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, "publish:2024-2025", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	unlock()
	unlock2, ok, err := l.TryLock(ctx, "publish:2024-2025", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	unlock2()
}

func TestLocalLockerStaleUnlockKeepsNewLease(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	stale, ok, err := l.TryLock(ctx, "k", time.Nanosecond)
	require.NoError(t, err)
	require.True(t, ok)
	time.Sleep(time.Millisecond)

	_, ok, err = l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	stale()
	_, ok, _ = l.TryLock(ctx, "k", time.Minute)
	assert.False(t, ok)
}
