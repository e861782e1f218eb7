// Package pipeline 数据集准备流水线: 获取 → 投影 → 派生 → 划分
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/opsxjacky/forecast-datasets/internal/data"
	"github.com/opsxjacky/forecast-datasets/internal/strategy"
	"github.com/opsxjacky/forecast-datasets/pkg/types"
)

// Transform 对表的一次变换，可原地修改也可返回新表
type Transform func(ctx context.Context, t *types.Table) (*types.Table, error)

// Hook 流水线完成后的回调
type Hook func(ctx context.Context, r *Result) error

// Stage 命名的变换步骤
type Stage struct {
	Name string
	Fn   Transform
}

// Pipeline 数据集准备流水线
type Pipeline struct {
	name        string
	source      data.DataLoader
	projections []Stage
	derivations []Stage
	strategy    strategy.SplitStrategy
	hooks       []Hook
	logger      *slog.Logger
	result      *Result
}

// New 创建流水线
func New(name string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		name:   name,
		logger: logger.With(slog.String("dataset", name)),
	}
}

// Name 数据集名称
func (p *Pipeline) Name() string {
	return p.name
}

// SetSource 设置数据源
func (p *Pipeline) SetSource(source data.DataLoader) {
	p.source = source
}

// AddProjection 添加列/行投影步骤
func (p *Pipeline) AddProjection(name string, fn Transform) {
	p.projections = append(p.projections, Stage{Name: name, Fn: fn})
}

// AddDerivation 添加特征派生步骤
func (p *Pipeline) AddDerivation(name string, fn Transform) {
	p.derivations = append(p.derivations, Stage{Name: name, Fn: fn})
}

// SetStrategy 设置划分策略，不设置时返回整表
func (p *Pipeline) SetStrategy(s strategy.SplitStrategy) {
	p.strategy = s
}

// OnComplete 注册完成回调
func (p *Pipeline) OnComplete(h Hook) {
	p.hooks = append(p.hooks, h)
}

// Run 运行流水线
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	// 验证配置
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	started := time.Now()
	p.logger.InfoContext(ctx, "loading source",
		slog.String("type", p.source.SourceType()),
		slog.String("location", p.source.Location()))

	table, err := p.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", p.name, err)
	}
	rowsIn := table.Len()
	p.logger.InfoContext(ctx, "source loaded",
		slog.Int("rows", rowsIn),
		slog.Int("columns", len(table.Columns())))

	// 投影与派生
	for _, group := range [][]Stage{p.projections, p.derivations} {
		for _, stage := range group {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			table, err = stage.Fn(ctx, table)
			if err != nil {
				return nil, fmt.Errorf("%s: stage %q: %w", p.name, stage.Name, err)
			}
			p.logger.DebugContext(ctx, "stage complete",
				slog.String("stage", stage.Name),
				slog.Int("rows", table.Len()),
				slog.Int("columns", len(table.Columns())))
		}
	}

	result := &Result{
		Name:      p.name,
		Source:    p.source.Location(),
		Table:     table,
		RowsIn:    rowsIn,
		StartedAt: started,
	}

	// 划分
	if p.strategy != nil {
		split, err := strategy.Apply(p.strategy, table)
		if err != nil {
			return nil, fmt.Errorf("%s: split: %w", p.name, err)
		}
		result.Strategy = p.strategy.Name()
		result.Split = &split
		p.logger.InfoContext(ctx, "split complete",
			slog.String("strategy", result.Strategy),
			slog.Int("train", split.Train.Len()),
			slog.Int("val", split.Val.Len()),
			slog.Int("test", split.Test.Len()))
	}
	result.Duration = time.Since(started)

	for _, h := range p.hooks {
		if err := h(ctx, result); err != nil {
			return nil, err
		}
	}

	p.result = result
	return result, nil
}

// validate 验证配置
func (p *Pipeline) validate() error {
	if p.name == "" {
		return fmt.Errorf("dataset name not set")
	}
	if p.source == nil {
		return fmt.Errorf("source not set")
	}
	for _, s := range append(append([]Stage{}, p.projections...), p.derivations...) {
		if s.Fn == nil {
			return fmt.Errorf("stage %q has no transform", s.Name)
		}
	}
	return nil
}

// GetResult 获取运行结果
func (p *Pipeline) GetResult() *Result {
	return p.result
}

// ExportResults 导出结果摘要到 JSON 文件
func (p *Pipeline) ExportResults(path string) error {
	if p.result == nil {
		return fmt.Errorf("no results to export, run pipeline first")
	}

	output, err := json.MarshalIndent(p.result.Summary(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, output, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	p.logger.Info("results exported", slog.String("path", path))
	return nil
}

// SaveTables 将结果表写为 CSV: 有划分时写 <name>_train/_val/_test.csv，否则写 <name>.csv
func (p *Pipeline) SaveTables(dir string) ([]string, error) {
	if p.result == nil {
		return nil, fmt.Errorf("no results to save, run pipeline first")
	}

	var paths []string
	if p.result.Split == nil {
		path := filepath.Join(dir, p.name+".csv")
		if err := data.SaveTableCSV(path, p.result.Table); err != nil {
			return nil, err
		}
		return append(paths, path), nil
	}

	for _, part := range p.result.Split.Partitions() {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", p.name, part.Name))
		if err := data.SaveTableCSV(path, part.Table); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// PrintSummary 打印结果摘要
func (p *Pipeline) PrintSummary(w io.Writer) {
	if p.result == nil {
		fmt.Fprintln(w, "No results available")
		return
	}

	s := p.result.Summary()
	fmt.Fprintf(w, "\n========== %s ==========\n", s.Dataset)
	fmt.Fprintf(w, "Source: %s\n", s.Source)
	fmt.Fprintf(w, "Rows: %d loaded, %d prepared\n", s.RowsIn, s.RowsOut)
	fmt.Fprintf(w, "Columns: %d\n", len(s.Columns))
	if s.Strategy != "" {
		fmt.Fprintf(w, "Strategy: %s\n", s.Strategy)
		for _, part := range s.Partitions {
			fmt.Fprintf(w, "  %-5s %8d rows\n", part.Name, part.Rows)
		}
		fmt.Fprintf(w, "  total %8d rows\n", s.Total)
	}
	fmt.Fprintf(w, "Elapsed: %s\n", p.result.Duration.Round(time.Millisecond))
	fmt.Fprintln(w, "========================================")
}
