package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsxjacky/forecast-datasets/internal/strategy"
	"github.com/opsxjacky/forecast-datasets/pkg/types"
)

type stubLoader struct {
	rows int
	err  error
}

func (s *stubLoader) Load(ctx context.Context) (*types.Table, error) {
	if s.err != nil {
		return nil, s.err
	}
	t := types.NewTable("stub", s.rows)
	values := make([]float64, s.rows)
	for i := range values {
		values[i] = float64(i)
	}
	if err := t.AddColumn("Price", values); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *stubLoader) SourceType() string { return "stub" }
func (s *stubLoader) Location() string   { return "memory://stub" }

func fractional(t *testing.T, split [2]float64) strategy.SplitStrategy {
	s, err := strategy.NewFractionalStrategy(types.DefaultGasParams(split))
	require.NoError(t, err)
	return s
}

func TestRunStagesInOrder(t *testing.T) {
	p := New("gas", nil)
	p.SetSource(&stubLoader{rows: 10})

	var order []string
	p.AddDerivation("double", func(ctx context.Context, tbl *types.Table) (*types.Table, error) {
		order = append(order, "double")
		price, _ := tbl.Column("Price")
		out := make([]float64, len(price))
		for i, v := range price {
			out[i] = 2 * v
		}
		return tbl, tbl.AddColumn("Double", out)
	})
	p.AddProjection("every other row", func(ctx context.Context, tbl *types.Table) (*types.Table, error) {
		order = append(order, "stride")
		return tbl.Stride(0, 2), nil
	})
	p.SetStrategy(fractional(t, [2]float64{0.6, 0.4}))

	var hooked *Result
	p.OnComplete(func(ctx context.Context, r *Result) error {
		hooked = r
		return nil
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"stride", "double"}, order)
	assert.Same(t, result, hooked)
	assert.Same(t, result, p.GetResult())
	assert.Equal(t, 10, result.RowsIn)
	assert.Equal(t, 5, result.Table.Len())
	assert.Equal(t, "Fractional", result.Strategy)

	require.NotNil(t, result.Split)
	assert.Equal(t, []int{0, 2, 4}, result.Split.Train.Index)
	assert.Equal(t, []int{6, 8}, result.Split.Val.Index)
	assert.Equal(t, 0, result.Split.Test.Len())

	d, _ := result.Split.Val.Column("Double")
	assert.Equal(t, []float64{12, 16}, d)
}

func TestRunWithoutStrategy(t *testing.T) {
	p := New("met", nil)
	p.SetSource(&stubLoader{rows: 3})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result.Split)
	assert.Equal(t, 3, result.Summary().Total)
	assert.Empty(t, result.Summary().Partitions)
}

func TestRunErrors(t *testing.T) {
	_, err := New("gas", nil).Run(context.Background())
	assert.ErrorContains(t, err, "source not set")

	loadErr := errors.New("boom")
	p := New("gas", nil)
	p.SetSource(&stubLoader{err: loadErr})
	_, err = p.Run(context.Background())
	assert.ErrorIs(t, err, loadErr)

	p = New("gas", nil)
	p.SetSource(&stubLoader{rows: 3})
	p.AddProjection("drop", func(ctx context.Context, tbl *types.Table) (*types.Table, error) {
		return tbl, tbl.Drop("missing")
	})
	_, err = p.Run(context.Background())
	assert.ErrorIs(t, err, types.ErrColumnNotFound)
	assert.ErrorContains(t, err, `stage "drop"`)
	assert.Nil(t, p.GetResult())

	p = New("gas", nil)
	p.SetSource(&stubLoader{rows: 3})
	p.AddProjection("nil", nil)
	_, err = p.Run(context.Background())
	assert.ErrorContains(t, err, "has no transform")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p = New("gas", nil)
	p.SetSource(&stubLoader{rows: 3})
	p.AddProjection("noop", func(ctx context.Context, tbl *types.Table) (*types.Table, error) {
		return tbl, nil
	})
	_, err = p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExportAndSave(t *testing.T) {
	p := New("gas", nil)
	assert.Error(t, p.ExportResults(filepath.Join(t.TempDir(), "x.json")))

	p.SetSource(&stubLoader{rows: 10})
	p.SetStrategy(fractional(t, [2]float64{0.6, 0.4}))
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	dir := t.TempDir()
	summaryPath := filepath.Join(dir, "out", "gas_summary.json")
	require.NoError(t, p.ExportResults(summaryPath))

	raw, err := os.ReadFile(summaryPath)
	require.NoError(t, err)
	var summary ResultSummary
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Equal(t, "gas", summary.Dataset)
	assert.Equal(t, 10, summary.Total)
	require.Len(t, summary.Partitions, 3)
	assert.Equal(t, 6, summary.Partitions[0].Rows)
	assert.Equal(t, 6, summary.Partitions[1].FirstLabel)

	paths, err := p.SaveTables(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "gas_train.csv"),
		filepath.Join(dir, "gas_val.csv"),
		filepath.Join(dir, "gas_test.csv"),
	}, paths)

	val, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, "index,Price\n6,6\n7,7\n8,8\n9,9\n", string(val))

	test, err := os.ReadFile(paths[2])
	require.NoError(t, err)
	assert.Equal(t, "index,Price\n", string(test))
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	p := New("solar", nil)
	p.PrintSummary(&buf)
	assert.Contains(t, buf.String(), "No results available")

	p.SetSource(&stubLoader{rows: 30})
	p.SetStrategy(strategy.NewFixedWindowStrategy(8))
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	buf.Reset()
	p.PrintSummary(&buf)
	out := buf.String()
	assert.Contains(t, out, "========== solar ==========")
	assert.Contains(t, out, "Strategy: FixedWindow")
	assert.Contains(t, out, "total       24 rows")
}
