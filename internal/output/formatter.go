package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	commonoutput "github.com/RyanBlaney/latency-benchmark-common/output"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// Field is one named summary value. Values are scalars.
type Field struct {
	Key   string
	Value any
}

// BinRow is one frequency bin of a response. Magnitude and phase are nil
// where the bin is undefined.
type BinRow struct {
	FrequencyHz float64  `json:"frequency_hz" yaml:"frequency_hz"`
	MagnitudeDB *float64 `json:"magnitude_db" yaml:"magnitude_db"`
	PhaseRad    *float64 `json:"phase_rad" yaml:"phase_rad"`
}

// Report is the rendered outcome of a run: an ordered summary and optionally
// the per-bin response.
type Report struct {
	Summary []Field
	Bins    []BinRow
}

// Add appends a summary field.
func (r *Report) Add(key string, value any) {
	r.Summary = append(r.Summary, Field{Key: key, Value: value})
}

// Get returns the value of the first summary field named key.
func (r *Report) Get(key string) (any, bool) {
	for _, f := range r.Summary {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Map flattens the report into a map for structured encoders.
func (r *Report) Map() map[string]any {
	data := make(map[string]any, len(r.Summary)+1)
	for _, f := range r.Summary {
		data[f.Key] = f.Value
	}
	if r.Bins != nil {
		data["bins"] = r.Bins
	}
	return data
}

// Formatter renders a report
type Formatter interface {
	Format(report *Report, pretty bool) ([]byte, error)
}

// NewFormatter returns the formatter for format. Unknown formats fall back to JSON.
func NewFormatter(format string, precision int) Formatter {
	switch format {
	case "yaml":
		return &YAMLFormatter{}
	case "csv":
		return &CSVFormatter{Precision: precision}
	case "table":
		return &TableFormatter{Precision: precision}
	default:
		return &JSONFormatter{}
	}
}

// JSONFormatter renders reports as JSON. Non-finite values are zeroed first.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(report *Report, pretty bool) ([]byte, error) {
	out, err := (&commonoutput.JSONFormatter{}).Format(SanitizeForJSON(report.Map()), pretty)
	if err != nil {
		return nil, err
	}
	if !bytes.HasSuffix(out, []byte("\n")) {
		out = append(out, '\n')
	}
	return out, nil
}

// YAMLFormatter renders reports as YAML
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(report *Report, pretty bool) ([]byte, error) {
	return (&commonoutput.YAMLFormatter{}).Format(report.Map(), pretty)
}

// CSVFormatter renders the bin table when present and the summary otherwise.
type CSVFormatter struct {
	Precision int
}

func (f *CSVFormatter) Format(report *Report, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if report.Bins != nil {
		if err := w.Write([]string{"frequency_hz", "magnitude_db", "phase_rad", "valid"}); err != nil {
			return nil, err
		}
		for _, row := range report.Bins {
			record := []string{
				strconv.FormatFloat(row.FrequencyHz, 'g', -1, 64),
				formatOptional(row.MagnitudeDB, f.Precision),
				formatOptional(row.PhaseRad, f.Precision),
				strconv.FormatBool(row.MagnitudeDB != nil),
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	} else {
		if err := w.Write([]string{"key", "value"}); err != nil {
			return nil, err
		}
		for _, field := range report.Summary {
			if err := w.Write([]string{field.Key, formatValue(field.Value, f.Precision)}); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TableFormatter renders an aligned, human-readable table
type TableFormatter struct {
	Precision int
}

func (f *TableFormatter) Format(report *Report, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	for _, field := range report.Summary {
		label := titleCaser.String(strings.ReplaceAll(field.Key, "_", " "))
		fmt.Fprintf(tw, "%s:\t%s\n", label, formatValue(field.Value, f.Precision))
	}

	if len(report.Bins) > 0 {
		fmt.Fprintf(tw, "\nFrequency (Hz)\tMagnitude (dB)\tPhase (rad)\n")
		fmt.Fprintf(tw, "--------------\t--------------\t-----------\n")
		for _, row := range report.Bins {
			fmt.Fprintf(tw, "%s\t%s\t%s\n",
				strconv.FormatFloat(row.FrequencyHz, 'g', -1, 64),
				orDash(formatOptional(row.MagnitudeDB, f.Precision)),
				orDash(formatOptional(row.PhaseRad, f.Precision)),
			)
		}
	}

	if err := tw.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatOptional(v *float64, precision int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', precision, 64)
}

func formatValue(v any, precision int) string {
	switch val := v.(type) {
	case float64:
		return strconv.FormatFloat(val, 'f', precision, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// SanitizeForJSON recursively replaces infinite and NaN floats with zero
func SanitizeForJSON(data any) any {
	switch v := data.(type) {
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return 0.0
		}
		return v
	case map[string]any:
		clean := make(map[string]any, len(v))
		for key, value := range v {
			clean[key] = SanitizeForJSON(value)
		}
		return clean
	case []any:
		clean := make([]any, len(v))
		for i, value := range v {
			clean[i] = SanitizeForJSON(value)
		}
		return clean
	default:
		return v
	}
}
