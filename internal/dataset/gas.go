package dataset

import (
	"github.com/opsxjacky/forecast-datasets/internal/data"
	"github.com/opsxjacky/forecast-datasets/internal/pipeline"
	"github.com/opsxjacky/forecast-datasets/internal/strategy"
	"github.com/opsxjacky/forecast-datasets/pkg/types"
)

const (
	// GasVersionNew 新版价格文件
	GasVersionNew = "new"
	// GasPriceColumn 价格列
	GasPriceColumn = "Price"
)

// GasSource 天然气价格数据源
type GasSource struct {
	NewPath string // version 为 "new" 时读取
	OldPath string // 其他 version 读取
	CSV     data.CSVOptions
}

// DefaultGasSource 默认天然气价格数据源
func DefaultGasSource() GasSource {
	return GasSource{
		NewPath: "./TTF_FM_new.csv",
		OldPath: "./TTF_FM_old.csv",
		CSV: data.CSVOptions{
			Delimiter: ';',
			Columns:   []string{GasPriceColumn},
		},
	}
}

// Path 根据版本选择文件
func (s GasSource) Path(version string) string {
	if version == GasVersionNew {
		return s.NewPath
	}
	return s.OldPath
}

// GasPipeline 构建天然气价格数据集流水线，划分参数不合法时在读取文件前返回错误
func (l *Loader) GasPipeline(params types.GasParams) (*pipeline.Pipeline, error) {
	split, err := strategy.NewFractionalStrategy(params)
	if err != nil {
		return nil, err
	}

	src := l.sources.Gas
	p := pipeline.New(string(types.DatasetGas), l.logger)
	p.SetSource(data.NewFileLoader(string(types.DatasetGas), src.Path(params.Version), src.CSV))
	p.SetStrategy(split)
	return p, nil
}
