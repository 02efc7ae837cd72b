package convergence_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlot/convergence"
)

func TestDefaultsPerPrecision(t *testing.T) {
	require.Equal(t, convergence.Options{Tol: 1e-9, MaxIter: 1000}, convergence.Defaults[float64]())
	require.Equal(t, convergence.Options{Tol: 1e-6, MaxIter: 1000}, convergence.Defaults[float32]())
}

func TestValidate(t *testing.T) {
	require.NoError(t, convergence.Options{Tol: 1e-3, MaxIter: 1}.Validate())
	for _, o := range []convergence.Options{
		{Tol: 0, MaxIter: 10},
		{Tol: -1, MaxIter: 10},
		{Tol: math.NaN(), MaxIter: 10},
		{Tol: math.Inf(1), MaxIter: 10},
		{Tol: 1e-3, MaxIter: 0},
	} {
		require.ErrorIs(t, o.Validate(), convergence.ErrBadOptions, "%+v", o)
	}
}

func TestTrackerConverges(t *testing.T) {
	tr := convergence.NewTracker(convergence.Options{Tol: 0.1, MaxIter: 10}, true)
	residuals := []float64{1, 0.5, 0.05, 0.01}
	var n int
	for !tr.Done() {
		tr.Observe(residuals[n])
		n++
	}
	d := tr.Diagnostics()
	require.Equal(t, 3, d.Iterations)
	require.True(t, d.Converged)
	require.Equal(t, 0.05, d.Residual)
	require.Equal(t, []float64{1, 0.5, 0.05}, d.History)
}

func TestTrackerHitsCap(t *testing.T) {
	tr := convergence.NewTracker(convergence.Options{Tol: 1e-9, MaxIter: 4}, false)
	for !tr.Done() {
		tr.Observe(1)
	}
	d := tr.Diagnostics()
	require.Equal(t, 4, d.Iterations)
	require.False(t, d.Converged)
	require.Nil(t, d.History)
}

func TestTrackerStopsOnNaN(t *testing.T) {
	tr := convergence.NewTracker(convergence.Options{Tol: 1e-9, MaxIter: 100}, false)
	require.False(t, tr.Observe(1))
	require.True(t, tr.Observe(math.NaN()))
	d := tr.Diagnostics()
	require.False(t, d.Converged)
	require.Equal(t, 2, d.Iterations)
	require.True(t, math.IsNaN(d.Residual))
}

func TestDiagnosticsThen(t *testing.T) {
	a := convergence.Diagnostics{Iterations: 3, Residual: 1e-3, History: []float64{1, 2, 3}}
	b := convergence.Diagnostics{Iterations: 2, Residual: 1e-10, Converged: true, History: []float64{4, 5}}
	c := a.Then(b)
	require.Equal(t, 5, c.Iterations)
	require.True(t, c.Converged)
	require.Equal(t, 1e-10, c.Residual)
	require.Equal(t, []float64{1, 2, 3, 4, 5}, c.History)
	require.Nil(t, convergence.Diagnostics{}.Then(convergence.Diagnostics{}).History)
}
