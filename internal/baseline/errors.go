package baseline

import "errors"

var (
	// ErrNotFound means no baseline exists at the given path.
	ErrNotFound = errors.New("baseline: not found")

	// ErrFormat means the archive exists but cannot be decoded.
	ErrFormat = errors.New("baseline: malformed archive")
)

// IOError records a failed baseline read or write.
type IOError struct {
	Op   string `json:"op"`
	Path string `json:"path"`
	Err  error  `json:"-"`
}

func (e *IOError) Error() string {
	return "baseline " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error {
	return e.Err
}
