package strategy

import (
	"github.com/opsxjacky/forecast-datasets/pkg/types"
)

// SplitStrategy 数据集划分策略接口
type SplitStrategy interface {
	// Name 策略名称
	Name() string

	// Bounds 根据总行数计算分区边界
	Bounds(rows int) (types.Bounds, error)
}

// Apply 计算边界并切分表
func Apply(s SplitStrategy, t *types.Table) (types.Split, error) {
	b, err := s.Bounds(t.Len())
	if err != nil {
		return types.Split{}, err
	}
	return b.Apply(t), nil
}
