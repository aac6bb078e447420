// Package test holds helpers shared by the package-level test suites.
package test

import (
	"testing"
	"time"

	"Backend-QA-Portal/src/models"
	"Backend-QA-Portal/src/utils"

	"github.com/stretchr/testify/require"
)

// CaseResult is one timed sub-test.
type CaseResult struct {
	Name     string
	Duration time.Duration
	Passed   bool
}

// Suite collects timings of sub-tests and enforces a per-case time budget.
type Suite struct {
	Name    string
	Budget  time.Duration
	results []CaseResult
}

func NewSuite(name string, budget time.Duration) *Suite {
	return &Suite{Name: name, Budget: budget}
}

// Track ใช้กับ defer: defer suite.Track(t, "name")()
func (s *Suite) Track(t *testing.T, name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		s.results = append(s.results, CaseResult{Name: name, Duration: d, Passed: !t.Failed()})
		if s.Budget > 0 && d > s.Budget {
			t.Errorf("❌ %s took %v, budget %v", name, d, s.Budget)
		}
	}
}

func (s *Suite) Results() []CaseResult {
	return s.results
}

// Summary logs pass/fail counts and the slowest case.
func (s *Suite) Summary(t *testing.T) {
	if len(s.results) == 0 {
		return
	}
	passed := 0
	var total time.Duration
	slowest := s.results[0]
	for _, r := range s.results {
		if r.Passed {
			passed++
		}
		total += r.Duration
		if r.Duration > slowest.Duration {
			slowest = r
		}
	}
	t.Logf("📊 %s: %d/%d passed, total %v, slowest %s (%v)",
		s.Name, passed, len(s.results), total, slowest.Name, slowest.Duration)
}

// Score returns a pointer for optional score fields.
func Score(v float64) *float64 {
	return &v
}

// Bearer mints an Authorization header value for user with the given secret.
func Bearer(t *testing.T, secret string, user models.AuthUser) string {
	t.Helper()
	utils.SetJWTSecret(secret)
	tok, err := utils.GenerateJWT(user, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}
