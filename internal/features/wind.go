// Package features 派生特征: 风向量分解与周期时间编码
package features

import (
	"fmt"
	"math"

	"github.com/opsxjacky/forecast-datasets/pkg/types"
)

// WindColumns 风速/风向原始列及派生列名
type WindColumns struct {
	Speed    string // 风速 (m/s)
	MaxSpeed string // 最大风速 (m/s)
	Dir      string // 风向 (度)

	X, Y       string
	MaxX, MaxY string
}

// DefaultWindColumns Jena 气象数据的列名
func DefaultWindColumns() WindColumns {
	return WindColumns{
		Speed:    "wv (m/s)",
		MaxSpeed: "max. wv (m/s)",
		Dir:      "wd (deg)",
		X:        "Wx",
		Y:        "Wy",
		MaxX:     "max Wx",
		MaxY:     "max Wy",
	}
}

// Components 将速度与方向 (度) 分解为 x, y 分量
func Components(speed, dirDeg []float64) (x, y []float64, err error) {
	if len(speed) != len(dirDeg) {
		return nil, nil, fmt.Errorf("speed has %d values, direction has %d: %w", len(speed), len(dirDeg), types.ErrLengthMismatch)
	}
	x = make([]float64, len(speed))
	y = make([]float64, len(speed))
	for i, v := range speed {
		rad := dirDeg[i] * math.Pi / 180
		x[i] = v * math.Cos(rad)
		y[i] = v * math.Sin(rad)
	}
	return x, y, nil
}

// AddWindVectors 移除风速/风向原始列，追加 x/y 分量列
func AddWindVectors(t *types.Table, cols WindColumns) error {
	for _, c := range []string{cols.Speed, cols.MaxSpeed, cols.Dir} {
		if !t.HasColumn(c) {
			return fmt.Errorf("wind vectors: %q: %w", c, types.ErrColumnNotFound)
		}
	}

	wv, _ := t.Pop(cols.Speed)
	maxWv, _ := t.Pop(cols.MaxSpeed)
	wd, _ := t.Pop(cols.Dir)

	x, y, err := Components(wv, wd)
	if err != nil {
		return err
	}
	maxX, maxY, err := Components(maxWv, wd)
	if err != nil {
		return err
	}

	for _, c := range []struct {
		name   string
		values []float64
	}{
		{cols.X, x},
		{cols.Y, y},
		{cols.MaxX, maxX},
		{cols.MaxY, maxY},
	} {
		if err := t.AddColumn(c.name, c.values); err != nil {
			return err
		}
	}
	return nil
}
