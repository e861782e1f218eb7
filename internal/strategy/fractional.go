package strategy

import (
	"errors"
	"fmt"
	"math"

	"github.com/opsxjacky/forecast-datasets/pkg/types"
)

// ErrFractionSum train/val 比例之和不为 1
var ErrFractionSum = errors.New("split fractions must sum to 1")

// fractionTolerance 比例之和与 1 的允许误差
const fractionTolerance = 1e-9

// FractionalStrategy 按比例划分策略
//
// 未指定 testDays 时:
//
//	n     = int(rows * usage)
//	train = [0, int(t*n))
//	val   = [int(t*n), int((t+v)*n))
//	test  = [int((t+v)*n), n)
//
// 指定 testDays 时 usage 被忽略，n = rows - testDays，test 为最后 testDays 行。
type FractionalStrategy struct {
	trainFrac float64
	valFrac   float64
	usageFrac float64
	testDays  *int
}

// NewFractionalStrategy 创建按比例划分策略，比例之和不为 1 时返回 ErrFractionSum
// UsagePerc 为 0 视为 1
func NewFractionalStrategy(params types.GasParams) (*FractionalStrategy, error) {
	t, v := params.SplitPerc[0], params.SplitPerc[1]
	if t < 0 || v < 0 {
		return nil, fmt.Errorf("split fractions must be non-negative, got (%g, %g)", t, v)
	}
	if math.Abs(t+v-1) > fractionTolerance {
		return nil, fmt.Errorf("%w: %g + %g = %g", ErrFractionSum, t, v, t+v)
	}

	// 未设置时使用全部数据
	usage := params.UsagePerc
	if usage == 0 {
		usage = 1
	}
	if params.TestDays == nil && (usage <= 0 || usage > 1) {
		return nil, fmt.Errorf("usage fraction must be in (0, 1], got %g", usage)
	}
	if params.TestDays != nil && *params.TestDays < 0 {
		return nil, fmt.Errorf("test days must be non-negative, got %d", *params.TestDays)
	}

	return &FractionalStrategy{
		trainFrac: t,
		valFrac:   v,
		usageFrac: usage,
		testDays:  params.TestDays,
	}, nil
}

// Name 返回策略名称
func (s *FractionalStrategy) Name() string {
	if s.testDays != nil {
		return "FractionalTestDays"
	}
	return "Fractional"
}

// Bounds 计算分区边界，所有位置向零截断
func (s *FractionalStrategy) Bounds(rows int) (types.Bounds, error) {
	// 误差范围内视为恰好为 1
	sum := s.trainFrac + s.valFrac
	if math.Abs(sum-1) <= fractionTolerance {
		sum = 1
	}

	var b types.Bounds
	var n int
	if s.testDays != nil {
		days := *s.testDays
		if days > rows {
			return types.Bounds{}, fmt.Errorf("test days %d exceed row count %d", days, rows)
		}
		n = rows - days
		b.TestStart = rows - days
		b.TestEnd = rows
	} else {
		n = int(float64(rows) * s.usageFrac)
		b.TestStart = int(sum * float64(n))
		b.TestEnd = n
	}

	b.TrainStart = 0
	b.TrainEnd = int(s.trainFrac * float64(n))
	b.ValStart = b.TrainEnd
	b.ValEnd = int(sum * float64(n))
	return b, nil
}
