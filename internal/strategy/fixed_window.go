package strategy

import (
	"fmt"

	"github.com/opsxjacky/forecast-datasets/pkg/types"
)

// HoursPerYear 一年的小时数 (忽略闰日)
const HoursPerYear = 365 * 24

// FixedWindowStrategy 固定窗口划分策略
// train = [0, size), val = [size, 2*size), test = [2*size, 3*size)，超出部分丢弃
type FixedWindowStrategy struct {
	size int
}

// NewFixedWindowStrategy 创建固定窗口策略
func NewFixedWindowStrategy(size int) *FixedWindowStrategy {
	return &FixedWindowStrategy{size: size}
}

// Name 返回策略名称
func (s *FixedWindowStrategy) Name() string {
	return "FixedWindow"
}

// Bounds 计算分区边界，行数不足时由切片截断
func (s *FixedWindowStrategy) Bounds(rows int) (types.Bounds, error) {
	if s.size <= 0 {
		return types.Bounds{}, fmt.Errorf("window size must be positive, got %d", s.size)
	}
	return types.Bounds{
		TrainStart: 0,
		TrainEnd:   s.size,
		ValStart:   s.size,
		ValEnd:     2 * s.size,
		TestStart:  2 * s.size,
		TestEnd:    3 * s.size,
	}, nil
}
