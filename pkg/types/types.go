package types

import (
	"time"
)

// DatasetKind 数据集类型
type DatasetKind string

const (
	DatasetMeteorological DatasetKind = "met"
	DatasetSolar          DatasetKind = "solar"
	DatasetGas            DatasetKind = "gas"
)

// Split 训练/验证/测试划分
type Split struct {
	Train *Table
	Val   *Table
	Test  *Table
}

// Total 三个分区的总行数
func (s Split) Total() int {
	total := 0
	for _, t := range []*Table{s.Train, s.Val, s.Test} {
		if t != nil {
			total += t.Len()
		}
	}
	return total
}

// Partitions 按 train, val, test 顺序返回分区名和表
func (s Split) Partitions() []NamedTable {
	return []NamedTable{
		{Name: "train", Table: s.Train},
		{Name: "val", Table: s.Val},
		{Name: "test", Table: s.Test},
	}
}

// NamedTable 带名称的表
type NamedTable struct {
	Name  string
	Table *Table
}

// Bounds 分区边界 (行位置, 左闭右开)
type Bounds struct {
	TrainStart, TrainEnd int
	ValStart, ValEnd     int
	TestStart, TestEnd   int
}

// Apply 按边界切分表
func (b Bounds) Apply(t *Table) Split {
	return Split{
		Train: t.Slice(b.TrainStart, b.TrainEnd),
		Val:   t.Slice(b.ValStart, b.ValEnd),
		Test:  t.Slice(b.TestStart, b.TestEnd),
	}
}

// GasParams 天然气价格数据集参数
type GasParams struct {
	SplitPerc [2]float64 // (train, val) 比例，和必须为 1
	UsagePerc float64    // 使用的数据比例，0 视为 1，TestDays 非空时忽略
	Version   string     // "new" 读取新版文件，其他值 (包括空串) 读取旧版文件
	TestDays  *int       // 测试集天数 (末尾行数)，可选
}

// DefaultGasParams 默认参数
func DefaultGasParams(splitPerc [2]float64) GasParams {
	return GasParams{
		SplitPerc: splitPerc,
		UsagePerc: 1,
		Version:   "new",
	}
}

// PartitionStats 分区统计
type PartitionStats struct {
	Name       string    `json:"name"`
	Rows       int       `json:"rows"`
	FirstLabel int       `json:"first_label"`
	LastLabel  int       `json:"last_label"`
	FirstTime  time.Time `json:"first_time,omitempty"`
	LastTime   time.Time `json:"last_time,omitempty"`
}

// StatsOf 计算表的分区统计
func StatsOf(name string, t *Table) PartitionStats {
	stats := PartitionStats{Name: name, FirstLabel: -1, LastLabel: -1}
	if t == nil {
		return stats
	}
	stats.Rows = t.Len()
	stats.FirstLabel, stats.LastLabel = t.Labels()
	if t.HasTimeIndex() && t.Len() > 0 {
		stats.FirstTime = t.Times[0]
		stats.LastTime = t.Times[t.Len()-1]
	}
	return stats
}
