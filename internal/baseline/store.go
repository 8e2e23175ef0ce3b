package baseline

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/RyanBlaney/bode-analyzer/internal/bode"
	"github.com/RyanBlaney/sonido-sonar/logging"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// Archive entry names.
const (
	EntryFreqs    = "freqs.bin"
	EntryReal     = "h_real.bin"
	EntryImag     = "h_imag.bin"
	EntryMask     = "mask.bin"
	EntryMetadata = "metadata.yaml"
)

// Save writes rec to path as a zip archive. The file is written to a
// temporary sibling first and renamed into place, so readers never observe a
// partial archive. Missing parent directories are created.
func Save(path string, rec *Record) (err error) {
	if err := validateRecord(rec); err != nil {
		return &IOError{Op: "save", Path: path, Err: err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &IOError{Op: "save", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".baseline-*.tmp")
	if err != nil {
		return &IOError{Op: "save", Path: path, Err: err}
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = writeArchive(tmp, rec); err != nil {
		return &IOError{Op: "save", Path: path, Err: err}
	}
	if err = tmp.Sync(); err != nil {
		return &IOError{Op: "save", Path: path, Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &IOError{Op: "save", Path: path, Err: err}
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return &IOError{Op: "save", Path: path, Err: err}
	}

	return nil
}

func validateRecord(rec *Record) error {
	if rec == nil || len(rec.H) == 0 {
		return fmt.Errorf("%w: empty response", bode.ErrInvalidReference)
	}
	if len(rec.Grid) != len(rec.H) {
		return fmt.Errorf("%w: %d bins on a %d-bin grid", bode.ErrLengthMismatch, len(rec.H), len(rec.Grid))
	}
	if len(rec.Mask) != 0 && len(rec.Mask) != len(rec.H) {
		return fmt.Errorf("%w: mask has %d bins, response has %d", bode.ErrLengthMismatch, len(rec.Mask), len(rec.H))
	}
	return nil
}

func writeArchive(w io.Writer, rec *Record) error {
	re := make([]float64, len(rec.H))
	im := make([]float64, len(rec.H))
	for i, v := range rec.H {
		re[i] = real(v)
		im[i] = imag(v)
	}

	mask := make([]byte, len(rec.Mask))
	for i, ok := range rec.Mask {
		if ok {
			mask[i] = 1
		}
	}

	meta, err := yaml.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	zw := zip.NewWriter(w)

	entries := []struct {
		name string
		data func() ([]byte, error)
	}{
		{EntryFreqs, func() ([]byte, error) { return marshalVector(rec.Grid) }},
		{EntryReal, func() ([]byte, error) { return marshalVector(re) }},
		{EntryImag, func() ([]byte, error) { return marshalVector(im) }},
		{EntryMask, func() ([]byte, error) { return mask, nil }},
		{EntryMetadata, func() ([]byte, error) { return meta, nil }},
	}

	for _, entry := range entries {
		data, err := entry.data()
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", entry.name, err)
		}
		f, err := zw.Create(entry.name)
		if err != nil {
			return err
		}
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("failed to write %s: %w", entry.name, err)
		}
	}

	return zw.Close()
}

func marshalVector(values []float64) ([]byte, error) {
	return mat.NewVecDense(len(values), values).MarshalBinary()
}

// Load reads a baseline archive written by Save. A missing file yields an
// error wrapping ErrNotFound; an unreadable archive one wrapping ErrFormat.
func Load(path string) (*Record, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &IOError{Op: "load", Path: path, Err: fmt.Errorf("%w: %w", ErrNotFound, err)}
		}
		return nil, &IOError{Op: "load", Path: path, Err: err}
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, &IOError{Op: "load", Path: path, Err: fmt.Errorf("%w: %w", ErrFormat, err)}
	}
	defer zr.Close()

	rec, err := readArchive(&zr.Reader)
	if err != nil {
		return nil, &IOError{Op: "load", Path: path, Err: fmt.Errorf("%w: %w", ErrFormat, err)}
	}

	return rec, nil
}

func readArchive(zr *zip.Reader) (*Record, error) {
	entries := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		entries[f.Name] = data
	}

	for _, name := range []string{EntryFreqs, EntryReal, EntryImag, EntryMask, EntryMetadata} {
		if _, ok := entries[name]; !ok {
			return nil, fmt.Errorf("missing entry %s", name)
		}
	}

	grid, err := unmarshalVector(entries[EntryFreqs])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EntryFreqs, err)
	}
	re, err := unmarshalVector(entries[EntryReal])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EntryReal, err)
	}
	im, err := unmarshalVector(entries[EntryImag])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EntryImag, err)
	}

	if len(re) != len(im) {
		return nil, fmt.Errorf("real part has %d bins, imaginary part has %d", len(re), len(im))
	}
	if len(grid) != len(re) {
		return nil, fmt.Errorf("response has %d bins, grid has %d", len(re), len(grid))
	}

	h := make([]complex128, len(re))
	for i := range h {
		h[i] = complex(re[i], im[i])
	}

	rawMask := entries[EntryMask]
	mask := make([]bool, len(rawMask))
	for i, b := range rawMask {
		mask[i] = b != 0
	}

	var meta Metadata
	if err := yaml.Unmarshal(entries[EntryMetadata], &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", EntryMetadata, err)
	}

	return &Record{
		Grid:     bode.Grid(grid),
		H:        h,
		Mask:     mask,
		Metadata: meta,
	}, nil
}

func unmarshalVector(data []byte) ([]float64, error) {
	var v mat.VecDense
	if err := v.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return v.RawVector().Data[:v.Len()], nil
}

// LoadOptional loads the baseline at path for normalization. A missing or
// unreadable baseline is logged as a warning and yields nil, so the caller can
// continue without normalization. An empty path yields nil silently.
func LoadOptional(path string, logger logging.Logger) *Record {
	if path == "" {
		return nil
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	rec, err := Load(path)
	if err != nil {
		logger.Warn("Baseline unavailable, continuing without normalization", logging.Fields{
			"path":      path,
			"error":     err.Error(),
			"not_found": errors.Is(err, ErrNotFound),
		})
		return nil
	}

	logger.Info("Loaded baseline", logging.Fields{
		"path":       path,
		"bins":       len(rec.H),
		"valid_bins": rec.ValidBins(),
		"created_at": rec.Metadata.CreatedAt,
	})

	return rec
}
