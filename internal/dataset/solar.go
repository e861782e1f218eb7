package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/opsxjacky/forecast-datasets/internal/data"
	"github.com/opsxjacky/forecast-datasets/internal/pipeline"
	"github.com/opsxjacky/forecast-datasets/internal/strategy"
	"github.com/opsxjacky/forecast-datasets/pkg/types"
)

// SolarURL Webberville 光伏电站 2017-2020 小时发电量
const SolarURL = "https://raw.githubusercontent.com/Duvey314/austin-green-energy-predictor/master/Resources/Output/Webberville_Solar_2017-2020_MWH.csv"

// SolarDropColumns 加载后删除的描述性与原始时间列
var SolarDropColumns = []string{
	"Weather_Description",
	"Year",
	"Month",
	"Day",
	"Hour",
	"Date_Time",
	"Temperature_F",
	"Humidity_percent",
	"Sunhour",
	"CloudCover_percent",
	"uvIndex",
}

// SolarSource 光伏数据源
type SolarSource struct {
	URL      string
	CSV      data.CSVOptions
	FirstDay time.Time // 小时索引的第一天
	LastDay  time.Time // 小时索引的最后一天 (含)
	Window   int       // 每个分区的行数
}

// DefaultSolarSource 默认光伏数据源
func DefaultSolarSource() SolarSource {
	return SolarSource{
		URL: SolarURL,
		CSV: data.CSVOptions{
			Delimiter: ',',
			Drop:      SolarDropColumns,
		},
		FirstDay: time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC),
		LastDay:  time.Date(2020, 7, 31, 0, 0, 0, 0, time.UTC),
		Window:   strategy.HoursPerYear,
	}
}

// HourlyIndex 生成 [first, last] 每天 0..23 时的时间戳，并去掉最后一个
func HourlyIndex(first, last time.Time) []time.Time {
	days := int(last.Sub(first).Hours()/24) + 1
	if days <= 0 {
		return nil
	}
	index := make([]time.Time, 0, days*24)
	for d := 0; d < days; d++ {
		day := first.AddDate(0, 0, d)
		for h := 0; h < 24; h++ {
			index = append(index, day.Add(time.Duration(h)*time.Hour))
		}
	}
	return index[:len(index)-1]
}

// SolarPipeline 构建光伏数据集流水线
func (l *Loader) SolarPipeline() (*pipeline.Pipeline, error) {
	src := l.sources.Solar
	if src.Window <= 0 {
		return nil, fmt.Errorf("solar window must be positive, got %d", src.Window)
	}

	p := pipeline.New(string(types.DatasetSolar), l.logger)
	p.SetSource(data.NewHTTPLoader(string(types.DatasetSolar), src.URL, l.fetcher, src.CSV))

	p.AddProjection("hourly index", func(ctx context.Context, t *types.Table) (*types.Table, error) {
		index := HourlyIndex(src.FirstDay, src.LastDay)
		if len(index) != t.Len() {
			return nil, fmt.Errorf("hourly index has %d entries for %d rows: %w", len(index), t.Len(), types.ErrLengthMismatch)
		}
		return t, t.SetTimeIndex(index)
	})
	p.SetStrategy(strategy.NewFixedWindowStrategy(src.Window))

	p.OnComplete(func(ctx context.Context, r *pipeline.Result) error {
		_, err := fmt.Fprintln(l.out, r.Split.Total())
		return err
	})
	return p, nil
}
