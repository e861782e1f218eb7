package pipeline

import (
	"time"

	"github.com/opsxjacky/forecast-datasets/pkg/types"
)

// Result 流水线运行结果
type Result struct {
	Name      string
	Source    string
	Table     *types.Table
	Split     *types.Split // 未设置划分策略时为 nil
	Strategy  string
	RowsIn    int
	StartedAt time.Time
	Duration  time.Duration
}

// ResultSummary 结果摘要
type ResultSummary struct {
	Dataset    string                 `json:"dataset"`
	Source     string                 `json:"source"`
	Strategy   string                 `json:"strategy,omitempty"`
	RowsIn     int                    `json:"rows_in"`
	RowsOut    int                    `json:"rows_out"`
	Columns    []string               `json:"columns"`
	Partitions []types.PartitionStats `json:"partitions,omitempty"`
	Total      int                    `json:"total"`
	StartedAt  time.Time              `json:"started_at"`
	DurationMS int64                  `json:"duration_ms"`
}

// Summary 生成结果摘要
func (r *Result) Summary() ResultSummary {
	s := ResultSummary{
		Dataset:    r.Name,
		Source:     r.Source,
		Strategy:   r.Strategy,
		RowsIn:     r.RowsIn,
		StartedAt:  r.StartedAt,
		DurationMS: r.Duration.Milliseconds(),
	}
	if r.Table != nil {
		s.RowsOut = r.Table.Len()
		s.Columns = r.Table.Columns()
		s.Total = s.RowsOut
	}
	if r.Split != nil {
		for _, part := range r.Split.Partitions() {
			s.Partitions = append(s.Partitions, types.StatsOf(part.Name, part.Table))
		}
		s.Total = r.Split.Total()
	}
	return s
}
