package report

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/require"
)

func TestWriteRoundTrip(t *testing.T) {
	cost := 0.125
	in := Report{
		Method: "sinkhorn", Precision: "float64", Backend: "cpu",
		Cost: &cost, Iterations: 4, Residual: 1e-12, Converged: true,
		Plan:    [][]float64{{0.5, 0}, {0, 0.5}},
		History: []float64{1, 0.1},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))
	require.Contains(t, buf.String(), "sinkhorn")
	require.NotContains(t, buf.String(), "barycenter")
	require.NotContains(t, buf.String(), "history")

	var out Report
	require.NoError(t, toml.Unmarshal(buf.Bytes(), &out))
	in.History = nil
	require.Equal(t, in, out)
}

func TestWriteInfiniteResidual(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Report{Method: "exact", Status: "optimal", Residual: math.Inf(1)}))
	var out Report
	require.NoError(t, toml.Unmarshal(buf.Bytes(), &out))
	require.Zero(t, out.Residual)
	require.Equal(t, "optimal", out.Status)
	require.Nil(t, out.Cost)
}

func TestPlotHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "residual.png")
	require.NoError(t, PlotHistory(path, "sinkhorn", []float64{1, 0.1, 1e-3, 0, 1e-6}))
	st, err := os.Stat(path)
	require.NoError(t, err)
	require.Positive(t, st.Size())

	require.ErrorIs(t, PlotHistory(path, "empty", []float64{0, math.Inf(1)}), ErrNoHistory)
}
