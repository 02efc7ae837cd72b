package runner

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlot/internal/cliconfig"
)

func swapConfig(method string) cliconfig.Config {
	cfg := cliconfig.DefaultConfig()
	cfg.Method = method
	cfg.Problem.Mu = []float64{0.5, 0.5}
	cfg.Problem.Nu = []float64{0.5, 0.5}
	cfg.Problem.Cost = [][]float64{{0, 1}, {1, 0}}

	return cfg
}

func TestRunEntropicMethods(t *testing.T) {
	want := 1 / (1 + math.Exp(10)) // ⟨C,P⟩ of the 2×2 swap problem at ε = 0.1
	for _, method := range []string{
		cliconfig.MethodSinkhorn, cliconfig.MethodStabilized,
		cliconfig.MethodEpsilonScaling, cliconfig.MethodUnbalanced,
	} {
		t.Run(method, func(t *testing.T) {
			rep, err := Run(context.Background(), swapConfig(method), zerolog.Nop())
			require.NoError(t, err)
			require.True(t, rep.Converged)
			require.NotNil(t, rep.Cost)
			require.InDelta(t, want, *rep.Cost, 1e-8)
			require.Len(t, rep.Plan, 2)
			require.Len(t, rep.History, rep.Iterations)
			require.Equal(t, "cpu", rep.Backend)
		})
	}
}

func TestRunQuadraticAndExact(t *testing.T) {
	cfg := swapConfig(cliconfig.MethodQuadratic)
	cfg.Epsilon = 0.25
	rep, err := Run(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.True(t, rep.Converged)
	require.Equal(t, 2, rep.NNZ)
	require.Zero(t, rep.Plan[0][1])

	rep, err = Run(context.Background(), swapConfig(cliconfig.MethodExact), zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, "optimal", rep.Status)
	require.True(t, rep.Converged)
	require.InDelta(t, 0, *rep.Cost, 1e-12)
	require.Equal(t, [][]float64{{0.5, 0}, {0, 0.5}}, rep.Plan)
}

func TestRunBarycenter(t *testing.T) {
	a := []float64{0.1, 0.2, 0.3, 0.4}
	cfg := cliconfig.DefaultConfig()
	cfg.Method = cliconfig.MethodBarycenter
	cfg.Problem.Marginals = [][]float64{a, a, a}
	cfg.Problem.Grid = 4
	cfg.Concurrent = true

	rep, err := Run(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.True(t, rep.Converged)
	require.InDeltaSlice(t, a, rep.Barycenter, 1e-8)
}

func TestRunPrecisionAndBackends(t *testing.T) {
	cfg := swapConfig(cliconfig.MethodSinkhorn)
	cfg.Precision = "float32"
	rep, err := Run(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.True(t, rep.Converged)
	require.InDelta(t, 0.5, rep.Plan[0][0], 1e-5)

	cfg.Backend = "gonum"
	_, err = Run(context.Background(), cfg, zerolog.Nop())
	require.ErrorIs(t, err, ErrBackend)

	cfg.Precision = "float64"
	rep, err = Run(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, "gonum", rep.Backend)

	cfg.Backend = "parallel"
	rep, err = Run(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, "parallel", rep.Backend)
}

func TestRunProblemErrors(t *testing.T) {
	cfg := swapConfig(cliconfig.MethodSinkhorn)
	cfg.Problem.Cost = nil
	_, err := Run(context.Background(), cfg, zerolog.Nop())
	require.ErrorIs(t, err, ErrProblem)

	cfg.Problem.X = [][]float64{{0}, {1}}
	cfg.Problem.Y = [][]float64{{0}, {1}}
	cfg.Problem.Metric = "hamming"
	_, err = Run(context.Background(), cfg, zerolog.Nop())
	require.ErrorIs(t, err, ErrProblem)

	cfg.Problem.Metric = "euclidean"
	rep, err := Run(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.True(t, rep.Converged)

	bc := cliconfig.DefaultConfig()
	bc.Method = cliconfig.MethodBarycenter
	bc.Problem.Marginals = [][]float64{{0.5, 0.5}, {1}}
	bc.Problem.Grid = 2
	_, err = Run(context.Background(), bc, zerolog.Nop())
	require.ErrorIs(t, err, ErrProblem)
}

func TestEpsilonSchedule(t *testing.T) {
	cfg := cliconfig.DefaultConfig()
	for _, tt := range []struct {
		eps  float64
		want []float64
	}{
		{2, []float64{2}},
		{0.1, []float64{1, 0.1}},
		{0.05, []float64{1, 0.1, 0.05}},
	} {
		cfg.Epsilon = tt.eps
		got, err := epsilonSchedule[float64](cfg)
		require.NoError(t, err)
		require.InDeltaSlice(t, tt.want, got, 1e-15, "eps=%g", tt.eps)
		require.Equal(t, tt.eps, got[len(got)-1])
	}

	cfg.Schedule = []float64{0.5, 0.25}
	got, err := epsilonSchedule[float32](cfg)
	require.NoError(t, err)
	require.Equal(t, []float32{0.5, 0.25}, got)
}
