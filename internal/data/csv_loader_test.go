package data

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsxjacky/forecast-datasets/pkg/types"
)

const metSample = `"Date Time","p (mbar)","T (degC)","wv (m/s)","max. wv (m/s)","wd (deg)"
01.01.2009 00:10:00,996.52,-8.02,1.03,1.75,152.3
01.01.2009 00:20:00,996.57,-8.41,0.72,1.50,136.1
01.01.2009 00:30:00,996.53,-8.51,0.19,0.63,171.6
`

func TestReadTableWithDates(t *testing.T) {
	opts := CSVOptions{
		Delimiter:  ',',
		DateColumn: "Date Time",
		DateFormat: "%d.%m.%Y %H:%M:%S",
	}
	tbl, err := ReadTable(strings.NewReader(metSample), "met", opts)
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"p (mbar)", "T (degC)", "wv (m/s)", "max. wv (m/s)", "wd (deg)"}, tbl.Columns())
	require.Len(t, tbl.Times, 3)
	assert.Equal(t, time.Date(2009, 1, 1, 0, 10, 0, 0, time.UTC), tbl.Times[0])
	assert.Equal(t, time.Date(2009, 1, 1, 0, 30, 0, 0, time.UTC), tbl.Times[2])

	temp, ok := tbl.Column("T (degC)")
	require.True(t, ok)
	assert.Equal(t, []float64{-8.02, -8.41, -8.51}, temp)
}

func TestReadTableSemicolon(t *testing.T) {
	data := "Date;Price;Volume\n2020-01-01;12.5;100\n2020-01-02;NA;110\n2020-01-03;13.25;\n"
	tbl, err := ReadTable(strings.NewReader(data), "gas", CSVOptions{
		Delimiter: ';',
		Columns:   []string{"Price"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Price"}, tbl.Columns())
	assert.Equal(t, []int{0, 1, 2}, tbl.Index)
	assert.False(t, tbl.HasTimeIndex())

	price, _ := tbl.Column("Price")
	assert.Equal(t, 12.5, price[0])
	assert.True(t, math.IsNaN(price[1]))
	assert.Equal(t, 13.25, price[2])
}

func TestReadTableDrop(t *testing.T) {
	data := "Weather_Description,Hour,MWH\nsunny,0,1.5\ncloudy,1,2\n"
	tbl, err := ReadTable(strings.NewReader(data), "solar", CSVOptions{
		Delimiter: ',',
		Drop:      []string{"Weather_Description", "Hour"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"MWH"}, tbl.Columns())

	_, err = ReadTable(strings.NewReader(data), "solar", CSVOptions{
		Delimiter: ',',
		Drop:      []string{"uvIndex"},
	})
	assert.ErrorIs(t, err, types.ErrColumnNotFound)
}

func TestReadTableHeaderOnly(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader("Date;Price\n"), "gas", CSVOptions{
		Delimiter: ';',
		Columns:   []string{"Price"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, []string{"Price"}, tbl.Columns())

	tbl, err = ReadTable(strings.NewReader(`"Date Time","T (degC)","wd (deg)"`+"\n"), "met", CSVOptions{
		Delimiter:  ',',
		DateColumn: "Date Time",
		DateFormat: "%d.%m.%Y %H:%M:%S",
		Drop:       []string{"wd (deg)"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"T (degC)"}, tbl.Columns())
	assert.True(t, tbl.HasTimeIndex())

	_, err = ReadTable(strings.NewReader("Date;Volume\n"), "gas", CSVOptions{
		Delimiter: ';',
		Columns:   []string{"Price"},
	})
	assert.ErrorIs(t, err, types.ErrColumnNotFound)

	_, err = ReadTable(strings.NewReader(""), "gas", CSVOptions{Delimiter: ';'})
	assert.ErrorContains(t, err, "empty input")
}

func TestReadTableErrors(t *testing.T) {
	data := "name,value\na,1\nb,2\n"

	_, err := ReadTable(strings.NewReader(data), "x", CSVOptions{})
	assert.Error(t, err, "delimiter is required")

	_, err = ReadTable(strings.NewReader(data), "x", CSVOptions{Delimiter: ','})
	assert.ErrorContains(t, err, "not numeric")

	_, err = ReadTable(strings.NewReader(data), "x", CSVOptions{Delimiter: ',', DateColumn: "name"})
	assert.ErrorContains(t, err, "requires a date format")

	_, err = ReadTable(strings.NewReader(data), "x", CSVOptions{
		Delimiter:  ',',
		DateColumn: "name",
		DateFormat: "%Y-%m-%d",
	})
	assert.ErrorContains(t, err, "unable to parse date")
}

func TestDateLayout(t *testing.T) {
	layout, err := DateLayout("%d.%m.%Y %H:%M:%S")
	require.NoError(t, err)
	assert.Equal(t, "02.01.2006 15:04:05", layout)

	_, err = DateLayout("")
	assert.Error(t, err)

	times, err := ParseDates([]string{" 2017-01-01 ", "2020-07-31"}, "%Y-%m-%d", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 7, 31, 0, 0, 0, 0, time.UTC), times[1])
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte("Price;Other\n1;x\n2;y\n"), 0644))

	loader := NewFileLoader("gas", path, CSVOptions{Delimiter: ';', Columns: []string{"Price"}})
	assert.Equal(t, "file", loader.SourceType())
	assert.Equal(t, path, loader.Location())

	tbl, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())

	_, err = NewFileLoader("gas", filepath.Join(dir, "missing.csv"), CSVOptions{Delimiter: ';'}).Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHTTPLoader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/solar.csv" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("MWH,Hour\n1.5,0\n2.5,1\n"))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), nil, nil)
	loader := NewHTTPLoader("solar", server.URL+"/solar.csv", fetcher, CSVOptions{Delimiter: ','})
	tbl, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http", loader.SourceType())
	assert.Equal(t, []string{"MWH", "Hour"}, tbl.Columns())

	_, err = NewHTTPLoader("solar", server.URL+"/missing.csv", fetcher, CSVOptions{Delimiter: ','}).Load(context.Background())
	assert.ErrorContains(t, err, "unexpected status 404")
}

func TestWriteTableCSV(t *testing.T) {
	tbl := types.NewTable("gas", 3)
	require.NoError(t, tbl.AddColumn("Price", []float64{1.5, 0.1, math.NaN()}))

	var sb strings.Builder
	require.NoError(t, WriteTableCSV(&sb, tbl.Slice(1, 3)))
	assert.Equal(t, "index,Price\n1,0.1\n2,NaN\n", sb.String())

	timed := types.NewTable("solar", 2)
	require.NoError(t, timed.AddColumn("MWH", []float64{3, 4}))
	base := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, timed.SetTimeIndex([]time.Time{base, base.Add(time.Hour)}))

	sb.Reset()
	require.NoError(t, WriteTableCSV(&sb, timed))
	assert.Equal(t, "time,MWH\n2017-01-01T00:00:00Z,3\n2017-01-01T01:00:00Z,4\n", sb.String())

	sb.Reset()
	require.NoError(t, WriteTableCSV(&sb, timed.Slice(2, 2)))
	assert.Equal(t, "time,MWH\n", sb.String())
}

func TestSaveTableCSV(t *testing.T) {
	tbl := types.NewTable("gas", 1)
	require.NoError(t, tbl.AddColumn("Price", []float64{2}))

	path := filepath.Join(t.TempDir(), "out", "gas_train.csv")
	require.NoError(t, SaveTableCSV(path, tbl))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "index,Price\n0,2\n", string(data))
}
