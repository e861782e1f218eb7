package types

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrColumnNotFound 列不存在
	ErrColumnNotFound = errors.New("column not found")
	// ErrLengthMismatch 列长度与行数不一致
	ErrLengthMismatch = errors.New("length does not match row count")
	// ErrNotIncreasing 时间索引不是严格递增
	ErrNotIncreasing = errors.New("time index is not strictly increasing")
)

// Table 按时间排序的数值表 (列存储)
type Table struct {
	Name string

	// Index 行标签 (源数据中的行号，切片后保持不变)
	Index []int
	// Times 时间索引，可选
	Times []time.Time

	columns []string
	values  map[string][]float64
}

// NewTable 创建指定行数的空表，行标签为 0..rows-1
func NewTable(name string, rows int) *Table {
	index := make([]int, rows)
	for i := range index {
		index[i] = i
	}
	return &Table{
		Name:   name,
		Index:  index,
		values: make(map[string][]float64),
	}
}

// Len 返回行数
func (t *Table) Len() int {
	return len(t.Index)
}

// Columns 返回列名 (按插入顺序)
func (t *Table) Columns() []string {
	cols := make([]string, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// HasColumn 判断列是否存在
func (t *Table) HasColumn(name string) bool {
	_, ok := t.values[name]
	return ok
}

// Column 获取列数据
func (t *Table) Column(name string) ([]float64, bool) {
	v, ok := t.values[name]
	return v, ok
}

// AddColumn 添加列，同名列原位替换
func (t *Table) AddColumn(name string, values []float64) error {
	if len(values) != t.Len() {
		return fmt.Errorf("column %q has %d values for %d rows: %w", name, len(values), t.Len(), ErrLengthMismatch)
	}
	if _, ok := t.values[name]; !ok {
		t.columns = append(t.columns, name)
	}
	t.values[name] = values
	return nil
}

// Pop 移除并返回列
func (t *Table) Pop(name string) ([]float64, error) {
	v, ok := t.values[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrColumnNotFound)
	}
	t.removeColumn(name)
	return v, nil
}

// Drop 删除多列，任意一列不存在则不做修改并返回错误
func (t *Table) Drop(names ...string) error {
	for _, name := range names {
		if !t.HasColumn(name) {
			return fmt.Errorf("drop %q: %w", name, ErrColumnNotFound)
		}
	}
	for _, name := range names {
		t.removeColumn(name)
	}
	return nil
}

func (t *Table) removeColumn(name string) {
	delete(t.values, name)
	for i, c := range t.columns {
		if c == name {
			t.columns = append(t.columns[:i:i], t.columns[i+1:]...)
			return
		}
	}
}

// SetTimeIndex 设置时间索引
func (t *Table) SetTimeIndex(times []time.Time) error {
	if len(times) != t.Len() {
		return fmt.Errorf("time index has %d entries for %d rows: %w", len(times), t.Len(), ErrLengthMismatch)
	}
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return fmt.Errorf("at row %d (%s): %w", i, times[i].Format(time.RFC3339), ErrNotIncreasing)
		}
	}
	t.Times = times
	return nil
}

// HasTimeIndex 是否设置了时间索引
func (t *Table) HasTimeIndex() bool {
	return t.Times != nil
}

// Slice 返回 [start, end) 行的新表，越界位置会被截断
func (t *Table) Slice(start, end int) *Table {
	n := t.Len()
	start = clamp(start, 0, n)
	end = clamp(end, 0, n)
	if end < start {
		end = start
	}

	positions := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		positions = append(positions, i)
	}
	return t.take(positions)
}

// Stride 从 start 开始每隔 step 行取一行
func (t *Table) Stride(start, step int) *Table {
	if step <= 0 {
		step = 1
	}
	if start < 0 {
		start = 0
	}
	var positions []int
	for i := start; i < t.Len(); i += step {
		positions = append(positions, i)
	}
	return t.take(positions)
}

// take 按位置复制行
func (t *Table) take(positions []int) *Table {
	out := &Table{
		Name:    t.Name,
		Index:   make([]int, len(positions)),
		columns: t.Columns(),
		values:  make(map[string][]float64, len(t.columns)),
	}
	for i, p := range positions {
		out.Index[i] = t.Index[p]
	}
	if t.Times != nil {
		out.Times = make([]time.Time, len(positions))
		for i, p := range positions {
			out.Times[i] = t.Times[p]
		}
	}
	for _, col := range t.columns {
		src := t.values[col]
		dst := make([]float64, len(positions))
		for i, p := range positions {
			dst[i] = src[p]
		}
		out.values[col] = dst
	}
	return out
}

// Row 返回第 i 行 (列名 -> 值)
func (t *Table) Row(i int) map[string]float64 {
	row := make(map[string]float64, len(t.columns))
	for _, col := range t.columns {
		row[col] = t.values[col][i]
	}
	return row
}

// Labels 返回首尾行标签，空表返回 -1, -1
func (t *Table) Labels() (first, last int) {
	if t.Len() == 0 {
		return -1, -1
	}
	return t.Index[0], t.Index[t.Len()-1]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
