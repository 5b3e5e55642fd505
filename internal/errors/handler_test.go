package apperrors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

type MockColorProvider struct{}

func (m MockColorProvider) Yellow() string { return "[YELLOW]" }
func (m MockColorProvider) Red() string    { return "[RED]" }
func (m MockColorProvider) Reset() string  { return "[RESET]" }

func TestHandleRunError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		err          error
		duration     time.Duration
		colors       ColorProvider
		expectedCode int
		expectedMsg  string
	}{
		{
			name:         "No Error",
			err:          nil,
			expectedCode: ExitSuccess,
		},
		{
			name:         "Timeout Error",
			err:          context.DeadlineExceeded,
			duration:     1 * time.Second,
			colors:       MockColorProvider{},
			expectedCode: ExitErrorTimeout,
			expectedMsg:  "Status: Failure (Timeout). The execution limit was reached after [YELLOW]1s[RESET].",
		},
		{
			name:         "Canceled Error",
			err:          fmt.Errorf("batch: %w", context.Canceled),
			duration:     500 * time.Millisecond,
			colors:       MockColorProvider{},
			expectedCode: ExitErrorCanceled,
			expectedMsg:  "[YELLOW]Status: Canceled after [YELLOW]500ms[RESET].[RESET]",
		},
		{
			name:         "Backend Error",
			err:          NewBackendInitError("accelerator", errors.New("no lanes")),
			colors:       MockColorProvider{},
			expectedCode: ExitErrorBackend,
			expectedMsg:  "[RED]Failed to initialize backend:[RESET] no lanes",
		},
		{
			name:         "Prime Table Error",
			err:          PrimeTableError{Path: "primes.bin", Cause: errors.New("disk full")},
			expectedCode: ExitErrorPrimes,
			expectedMsg:  "Prime table unavailable: prime table primes.bin: disk full",
		},
		{
			name:         "Config Error",
			err:          NewConfigError("bad flag"),
			expectedCode: ExitErrorConfig,
			expectedMsg:  "Configuration error: bad flag",
		},
		{
			name:         "Generic Error",
			err:          fmt.Errorf("random error"),
			expectedCode: ExitErrorGeneric,
			expectedMsg:  "Status: Failure. An unexpected error occurred: random error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := new(bytes.Buffer)
			code := HandleRunError(tt.err, tt.duration, out, tt.colors)

			if code != tt.expectedCode {
				t.Errorf("HandleRunError() code = %v, want %v", code, tt.expectedCode)
			}
			if tt.expectedMsg != "" && !strings.Contains(out.String(), tt.expectedMsg) {
				t.Errorf("HandleRunError() output = %q, want %q", out.String(), tt.expectedMsg)
			}
			if tt.err == nil && out.Len() != 0 {
				t.Errorf("HandleRunError() wrote %q for nil error", out.String())
			}
		})
	}
}
