package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasureResult(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantErr   error
		wantNotes bool
	}{
		{name: "success", err: nil},
		{
			name:      "user interrupt exits cleanly",
			err:       fmt.Errorf("estimation interrupted after 3 iterations: %w", context.Canceled),
			wantNotes: true,
		},
		{
			name:    "timeout is an error",
			err:     fmt.Errorf("estimation interrupted after 3 iterations: %w", context.DeadlineExceeded),
			wantErr: context.DeadlineExceeded,
		},
		{
			name: "other failures are errors",
			err:  errors.New("capture failed"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			err := measureResult(tt.err, &stderr)

			switch {
			case tt.wantErr != nil:
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), "measurement failed")
			case tt.err != nil && !tt.wantNotes:
				require.Error(t, err)
				assert.Contains(t, err.Error(), "capture failed")
			default:
				assert.NoError(t, err)
			}

			if tt.wantNotes {
				assert.Contains(t, stderr.String(), "interrupted")
			} else {
				assert.Empty(t, stderr.String())
			}
		})
	}
}
