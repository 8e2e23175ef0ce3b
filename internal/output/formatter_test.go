package output

import (
	"encoding/csv"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/RyanBlaney/bode-analyzer/internal/bode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() *Report {
	grid := bode.RFFTFreq(8, 8)
	bins := []bode.Bin{
		{Value: 1, Valid: true},
		{Value: 10, Valid: true},
		{},
		{Value: 0.1, Valid: true},
		{Value: 1, Valid: true},
	}

	r := &Report{}
	r.Add("mode", "dut")
	r.Add("iterations", 20)
	r.Add("tau_ns", 37.5)
	r.Add("band_gain_db", math.Inf(-1))
	r.Bins = BinsFromBode(bode.BinsToBode(grid, bins, true))
	return r
}

func TestBinsFromBode(t *testing.T) {
	rows := sampleReport().Bins
	require.Len(t, rows, 4)

	assert.Equal(t, 1.0, rows[0].FrequencyHz)
	require.NotNil(t, rows[0].MagnitudeDB)
	assert.InDelta(t, 20, *rows[0].MagnitudeDB, 1e-9)

	assert.Equal(t, 2.0, rows[1].FrequencyHz)
	assert.Nil(t, rows[1].MagnitudeDB)
	assert.Nil(t, rows[1].PhaseRad)

	assert.Nil(t, BinsFromBode(nil))
}

func TestReportGet(t *testing.T) {
	r := sampleReport()
	v, ok := r.Get("mode")
	assert.True(t, ok)
	assert.Equal(t, "dut", v)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestJSONFormatter(t *testing.T) {
	out, err := NewFormatter("json", 3).Format(sampleReport(), true)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "dut", decoded["mode"])
	assert.Equal(t, 37.5, decoded["tau_ns"])
	assert.Equal(t, 0.0, decoded["band_gain_db"], "non-finite values are zeroed")

	bins := decoded["bins"].([]any)
	require.Len(t, bins, 4)
	invalid := bins[1].(map[string]any)
	assert.Contains(t, invalid, "magnitude_db")
	assert.Nil(t, invalid["magnitude_db"], "undefined bins are null")
	assert.Nil(t, invalid["phase_rad"])

	compact, err := (&JSONFormatter{}).Format(sampleReport(), false)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(compact), "}\n"))
	require.NoError(t, json.Unmarshal(compact, &decoded))
	assert.Equal(t, 0.0, decoded["band_gain_db"])
}

func TestYAMLFormatter(t *testing.T) {
	out, err := NewFormatter("yaml", 3).Format(sampleReport(), true)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, "dut", decoded["mode"])
	assert.Equal(t, 20, decoded["iterations"])
	assert.Len(t, decoded["bins"], 4)
}

func TestCSVFormatterBins(t *testing.T) {
	out, err := NewFormatter("csv", 2).Format(sampleReport(), true)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"frequency_hz", "magnitude_db", "phase_rad", "valid"}, records[0])
	assert.Equal(t, []string{"1", "20.00", "0.00", "true"}, records[1])
	assert.Equal(t, []string{"2", "", "", "false"}, records[2])
}

func TestCSVFormatterSummary(t *testing.T) {
	r := sampleReport()
	r.Bins = nil

	out, err := NewFormatter("csv", 1).Format(r, true)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"key", "value"}, records[0])
	assert.Equal(t, []string{"mode", "dut"}, records[1])
	assert.Equal(t, []string{"tau_ns", "37.5"}, records[3])
}

func TestTableFormatter(t *testing.T) {
	out, err := NewFormatter("table", 3).Format(sampleReport(), true)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "Tau Ns:")
	assert.Contains(t, text, "Band Gain Db:")
	assert.Contains(t, text, "37.500")
	assert.Contains(t, text, "Frequency (Hz)")
	assert.Contains(t, text, "20.000")
	assert.Contains(t, text, "-")
}

func TestNewFormatterFallsBackToJSON(t *testing.T) {
	assert.IsType(t, &JSONFormatter{}, NewFormatter("xml", 3))
}

func TestSanitizeForJSON(t *testing.T) {
	data := map[string]any{
		"nan":  math.NaN(),
		"ok":   1.5,
		"list": []any{math.Inf(1), "text"},
	}
	clean := SanitizeForJSON(data).(map[string]any)
	assert.Equal(t, 0.0, clean["nan"])
	assert.Equal(t, 1.5, clean["ok"])
	assert.Equal(t, []any{0.0, "text"}, clean["list"])
}
