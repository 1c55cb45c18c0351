package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cbehopkins/scopetree"
)

// RequireViolation fails the test unless fn panics through scopetree.Violation.
func RequireViolation(t testing.TB, fn func()) {
	t.Helper()
	var recovered any
	func() {
		defer func() { recovered = recover() }()
		fn()
	}()
	require.True(t, scopetree.IsViolation(recovered), "expected a contract violation, got %v", recovered)
}
