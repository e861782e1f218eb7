package features

import (
	"errors"
	"math"
	"time"

	"github.com/opsxjacky/forecast-datasets/pkg/types"
)

const (
	// DaySeconds 一天的秒数
	DaySeconds = 24 * 60 * 60
	// YearSeconds 一年的秒数 (365.2425 天)
	YearSeconds = 365.2425 * DaySeconds
)

// Period 周期编码定义
type Period struct {
	Name    string  // 列名前缀，如 "Day" 生成 "Day sin"/"Day cos"
	Seconds float64 // 周期长度 (秒)
}

// DefaultPeriods 日周期与年周期
func DefaultPeriods() []Period {
	return []Period{
		{Name: "Day", Seconds: DaySeconds},
		{Name: "Year", Seconds: YearSeconds},
	}
}

// Encode 计算 sin(2π·t/period), cos(2π·t/period)，t 为 POSIX 秒
func Encode(times []time.Time, period float64) (sin, cos []float64) {
	sin = make([]float64, len(times))
	cos = make([]float64, len(times))
	w := 2 * math.Pi / period
	for i, ts := range times {
		s := posixSeconds(ts)
		sin[i] = math.Sin(s * w)
		cos[i] = math.Cos(s * w)
	}
	return sin, cos
}

func posixSeconds(ts time.Time) float64 {
	return float64(ts.Unix()) + float64(ts.Nanosecond())/1e9
}

// AddCyclical 按表的时间索引追加周期编码列
func AddCyclical(t *types.Table, periods ...Period) error {
	if !t.HasTimeIndex() {
		return errors.New("cyclical encoding requires a time index")
	}
	for _, p := range periods {
		sin, cos := Encode(t.Times, p.Seconds)
		if err := t.AddColumn(p.Name+" sin", sin); err != nil {
			return err
		}
		if err := t.AddColumn(p.Name+" cos", cos); err != nil {
			return err
		}
	}
	return nil
}
