package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsxjacky/forecast-datasets/pkg/types"
)

func priceTable(t *testing.T, rows int) *types.Table {
	t.Helper()
	tbl := types.NewTable("gas", rows)
	prices := make([]float64, rows)
	for i := range prices {
		prices[i] = float64(i) + 0.5
	}
	require.NoError(t, tbl.AddColumn("Price", prices))
	return tbl
}

func gasParams(train, val float64) types.GasParams {
	return types.DefaultGasParams([2]float64{train, val})
}

func intPtr(v int) *int { return &v }

func TestFractionalSumCheck(t *testing.T) {
	_, err := NewFractionalStrategy(gasParams(0.7, 0.3))
	assert.NoError(t, err)

	_, err = NewFractionalStrategy(gasParams(0.7, 0.2))
	assert.ErrorIs(t, err, ErrFractionSum)

	p := gasParams(0.7, 0.2)
	p.TestDays = intPtr(10)
	_, err = NewFractionalStrategy(p)
	assert.ErrorIs(t, err, ErrFractionSum)
}

func TestFractionalParamValidation(t *testing.T) {
	p := gasParams(0.5, 0.5)
	p.UsagePerc = -0.1
	_, err := NewFractionalStrategy(p)
	assert.Error(t, err)

	p.UsagePerc = 1.5
	_, err = NewFractionalStrategy(p)
	assert.Error(t, err)

	// testDays 优先，usage 被忽略
	p.TestDays = intPtr(5)
	_, err = NewFractionalStrategy(p)
	assert.NoError(t, err)

	p.TestDays = intPtr(-1)
	_, err = NewFractionalStrategy(p)
	assert.Error(t, err)

	_, err = NewFractionalStrategy(gasParams(-0.5, 1.5))
	assert.Error(t, err)
}

func TestFractionalZeroUsageUsesAllRows(t *testing.T) {
	s, err := NewFractionalStrategy(types.GasParams{SplitPerc: [2]float64{0.6, 0.4}})
	require.NoError(t, err)

	b, err := s.Bounds(100)
	require.NoError(t, err)
	assert.Equal(t, 60, b.TrainEnd)
	assert.Equal(t, 100, b.ValEnd)
	assert.Equal(t, 100, b.TestEnd)
}

func TestFractionalSixtyForty(t *testing.T) {
	s, err := NewFractionalStrategy(gasParams(0.6, 0.4))
	require.NoError(t, err)

	split, err := Apply(s, priceTable(t, 100))
	require.NoError(t, err)

	assert.Equal(t, 60, split.Train.Len())
	first, last := split.Train.Labels()
	assert.Equal(t, 0, first)
	assert.Equal(t, 59, last)

	assert.Equal(t, 40, split.Val.Len())
	first, last = split.Val.Labels()
	assert.Equal(t, 60, first)
	assert.Equal(t, 99, last)

	assert.Equal(t, 0, split.Test.Len())
}

func TestFractionalTestDays(t *testing.T) {
	p := gasParams(0.75, 0.25)
	p.TestDays = intPtr(10)
	p.UsagePerc = 0.5
	s, err := NewFractionalStrategy(p)
	require.NoError(t, err)
	assert.Equal(t, "FractionalTestDays", s.Name())

	split, err := Apply(s, priceTable(t, 100))
	require.NoError(t, err)

	assert.Equal(t, 10, split.Test.Len())
	first, last := split.Test.Labels()
	assert.Equal(t, 90, first)
	assert.Equal(t, 99, last)

	// int(0.75 * 90) = 67
	assert.Equal(t, 67, split.Train.Len())
	assert.Equal(t, 23, split.Val.Len())
	assert.Equal(t, 90, split.Train.Len()+split.Val.Len())
	assert.Equal(t, 100, split.Total())

	_, lastTrain := split.Train.Labels()
	firstVal, lastVal := split.Val.Labels()
	assert.Equal(t, lastTrain+1, firstVal)
	assert.Equal(t, 89, lastVal)
}

func TestFractionalTestDaysExceedRows(t *testing.T) {
	p := gasParams(0.5, 0.5)
	p.TestDays = intPtr(11)
	s, err := NewFractionalStrategy(p)
	require.NoError(t, err)

	_, err = s.Bounds(10)
	assert.Error(t, err)

	p.TestDays = intPtr(0)
	s, err = NewFractionalStrategy(p)
	require.NoError(t, err)
	b, err := s.Bounds(10)
	require.NoError(t, err)
	assert.Equal(t, 10, b.TestStart)
	assert.Equal(t, 10, b.TestEnd)
}

func TestFractionalPartitionsCoverUsage(t *testing.T) {
	cases := [][2]float64{{0.5, 0.5}, {0.7, 0.3}, {0.8, 0.2}, {0.9, 0.1}, {0.25, 0.75}, {1, 0}}
	for _, rows := range []int{1, 7, 99, 100, 1234} {
		for _, usage := range []float64{1, 0.5, 0.33} {
			for _, c := range cases {
				p := gasParams(c[0], c[1])
				p.UsagePerc = usage
				s, err := NewFractionalStrategy(p)
				require.NoError(t, err)

				b, err := s.Bounds(rows)
				require.NoError(t, err)
				n := int(float64(rows) * usage)

				split := b.Apply(priceTable(t, rows))
				assert.Equal(t, n, split.Total(), "rows=%d usage=%g split=%v", rows, usage, c)
				assert.Equal(t, b.TrainEnd, b.ValStart)
				assert.LessOrEqual(t, b.ValEnd, b.TestStart)
				assert.Equal(t, n, b.TestEnd)
			}
		}
	}
}

func TestFixedWindow(t *testing.T) {
	s := NewFixedWindowStrategy(HoursPerYear)
	assert.Equal(t, "FixedWindow", s.Name())

	split, err := Apply(s, priceTable(t, 31391))
	require.NoError(t, err)
	assert.Equal(t, 8760, split.Train.Len())
	assert.Equal(t, 8760, split.Val.Len())
	assert.Equal(t, 8760, split.Test.Len())

	first, _ := split.Val.Labels()
	assert.Equal(t, 8760, first)
	first, last := split.Test.Labels()
	assert.Equal(t, 17520, first)
	assert.Equal(t, 26279, last)
}

func TestFixedWindowShortTable(t *testing.T) {
	split, err := Apply(NewFixedWindowStrategy(10), priceTable(t, 25))
	require.NoError(t, err)
	assert.Equal(t, 10, split.Train.Len())
	assert.Equal(t, 10, split.Val.Len())
	assert.Equal(t, 5, split.Test.Len())

	_, err = NewFixedWindowStrategy(0).Bounds(10)
	assert.Error(t, err)
}
