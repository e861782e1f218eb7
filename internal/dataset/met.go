package dataset

import (
	"context"
	"log/slog"

	"github.com/opsxjacky/forecast-datasets/internal/data"
	"github.com/opsxjacky/forecast-datasets/internal/features"
	"github.com/opsxjacky/forecast-datasets/internal/pipeline"
	"github.com/opsxjacky/forecast-datasets/pkg/types"
)

const (
	// MetURL Jena 气候数据压缩包地址
	MetURL = "https://storage.googleapis.com/tensorflow/tf-keras-datasets/jena_climate_2009_2016.csv.zip"
	// MetArchive 缓存中的压缩包文件名
	MetArchive = "jena_climate_2009_2016.csv.zip"
	// MetDateColumn 时间列
	MetDateColumn = "Date Time"
	// MetDateFormat 时间列格式
	MetDateFormat = "%d.%m.%Y %H:%M:%S"
)

// MetSource 气象数据源
type MetSource struct {
	URL     string
	Archive string
	CSV     data.CSVOptions
	// 原始数据每 10 分钟一条，从第 Start 行起每 Step 行取一行得到整点数据
	Start int
	Step  int
	Wind  features.WindColumns
}

// DefaultMetSource 默认气象数据源
func DefaultMetSource() MetSource {
	return MetSource{
		URL:     MetURL,
		Archive: MetArchive,
		CSV: data.CSVOptions{
			Delimiter:  ',',
			DateColumn: MetDateColumn,
			DateFormat: MetDateFormat,
		},
		Start: 5,
		Step:  6,
		Wind:  features.DefaultWindColumns(),
	}
}

// MetPipeline 构建气象数据集流水线
func (l *Loader) MetPipeline() *pipeline.Pipeline {
	src := l.sources.Met
	p := pipeline.New(string(types.DatasetMeteorological), l.logger)
	p.SetSource(data.NewArchiveLoader(string(types.DatasetMeteorological), src.URL, src.Archive, l.cache, src.CSV))

	p.AddProjection("hourly rows", func(ctx context.Context, t *types.Table) (*types.Table, error) {
		return t.Stride(src.Start, src.Step), nil
	})
	p.AddProjection("time index", func(ctx context.Context, t *types.Table) (*types.Table, error) {
		// 原始数据含重复时间戳，只告警不报错
		if i := firstNonIncreasing(t); i > 0 {
			l.logger.WarnContext(ctx, "time index is not strictly increasing",
				slog.Int("row", t.Index[i]),
				slog.Time("time", t.Times[i]))
		}
		return t, nil
	})
	p.AddDerivation("wind vectors", func(ctx context.Context, t *types.Table) (*types.Table, error) {
		return t, features.AddWindVectors(t, src.Wind)
	})
	p.AddDerivation("cyclical time", func(ctx context.Context, t *types.Table) (*types.Table, error) {
		return t, features.AddCyclical(t, features.DefaultPeriods()...)
	})
	return p
}

// firstNonIncreasing 返回第一个不大于前一时间点的位置，没有则返回 -1
func firstNonIncreasing(t *types.Table) int {
	for i := 1; i < len(t.Times); i++ {
		if !t.Times[i].After(t.Times[i-1]) {
			return i
		}
	}
	return -1
}
