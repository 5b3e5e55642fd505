package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agbru/pm1factor/internal/calibration"
	apperrors "github.com/agbru/pm1factor/internal/errors"
	"github.com/agbru/pm1factor/internal/logging"
	"github.com/agbru/pm1factor/internal/pollard"
	"github.com/agbru/pm1factor/internal/testutil"
	"github.com/agbru/pm1factor/pkg/models"
)

// smallArgs returns arguments for a fast run: sequential backend, a
// thousand primes and a 4096 ceiling, with the cache in a temp dir.
func smallArgs(t *testing.T, extra ...string) []string {
	t.Helper()
	args := []string{
		"pm1", "-cpu",
		"-primes", "1000",
		"-bound-max", "4096",
		"-prime-cache", filepath.Join(t.TempDir(), "primes.bin"),
	}
	return append(args, extra...)
}

func newTestApp(t *testing.T, args []string) (*Application, *bytes.Buffer) {
	t.Helper()
	var errBuf bytes.Buffer
	app, err := New(args, &errBuf)
	if err != nil {
		t.Fatalf("New() returned unexpected error: %v (stderr %q)", err, errBuf.String())
	}
	return app, &errBuf
}

// TestNew tests the New function for creating Application instances.
func TestNew(t *testing.T) {
	t.Parallel()
	t.Run("Valid args create application", func(t *testing.T) {
		t.Parallel()
		app, _ := newTestApp(t, []string{"pm1", "-cpu", "0x9aae03", "0x2711"})

		if got := app.Config.Inputs; len(got) != 2 || got[0] != "0x9aae03" || got[1] != "0x2711" {
			t.Errorf("Inputs = %v", got)
		}
		if app.Config.BackendName() != pollard.SequentialName {
			t.Errorf("backend = %s", app.Config.BackendName())
		}
		if app.Factory == nil || app.Logger == nil {
			t.Error("Factory and Logger should not be nil")
		}
	})

	t.Run("Invalid args return error", func(t *testing.T) {
		t.Parallel()
		var errBuf bytes.Buffer
		app, err := New([]string{"pm1", "-invalid-flag"}, &errBuf)
		if err == nil {
			t.Error("New() should return error for invalid args")
		}
		if app != nil {
			t.Error("New() should return nil application on error")
		}
	})

	t.Run("Help flag returns error", func(t *testing.T) {
		t.Parallel()
		var errBuf bytes.Buffer
		_, err := New([]string{"pm1", "-h"}, &errBuf)
		if !IsHelpError(err) {
			t.Errorf("expected help error, got %v", err)
		}
	})

	t.Run("Missing inputs is a configuration error", func(t *testing.T) {
		t.Parallel()
		var errBuf bytes.Buffer
		_, err := New([]string{"pm1"}, &errBuf)
		var cfgErr apperrors.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigError, got %v", err)
		}
		if !strings.Contains(errBuf.String(), "Configuration error") {
			t.Errorf("stderr = %q", errBuf.String())
		}
	})

	t.Run("Unknown backend is rejected", func(t *testing.T) {
		t.Parallel()
		var errBuf bytes.Buffer
		_, err := New([]string{"pm1", "-backend", "quantum", "0x9aae03"}, &errBuf)
		var cfgErr apperrors.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigError, got %v", err)
		}
	})
}

// TestApplicationRun runs complete batches through the text and JSON reporters.
func TestApplicationRun(t *testing.T) {
	t.Parallel()

	t.Run("Text output", func(t *testing.T) {
		t.Parallel()
		app, errBuf := newTestApp(t, smallArgs(t, "0x9aae03", "zz"))
		var out bytes.Buffer

		code := app.Run(context.Background(), &out)
		if code != apperrors.ExitSuccess {
			t.Fatalf("exit code = %d, stderr %q", code, errBuf.String())
		}
		text := testutil.StripAnsiCodes(out.String())
		for _, want := range []string{
			"--- Execution Configuration ---",
			"Backend: sequential",
			"Prime table: 1000 primes.",
			"Factoring 0x9aae03",
			"0x3f5 ^ 1",
			"0x2717 ^ 1",
			"Test run completed! Success rate 1/2",
		} {
			if !strings.Contains(text, want) {
				t.Errorf("output is missing %q:\n%s", want, text)
			}
		}
		if !strings.Contains(testutil.StripAnsiCodes(errBuf.String()), "Invalid input") {
			t.Errorf("stderr = %q", errBuf.String())
		}
	})

	t.Run("Quiet output", func(t *testing.T) {
		t.Parallel()
		app, _ := newTestApp(t, smallArgs(t, "-quiet", "0x2711", "0x2717"))
		var out bytes.Buffer

		if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
			t.Fatalf("exit code = %d", code)
		}
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %q", out.String())
		}
		if !strings.HasPrefix(lines[0], "0x2711: ") ||
			!strings.Contains(lines[0], "0x49^1") || !strings.Contains(lines[0], "0x89^1") {
			t.Errorf("line 1 = %q", lines[0])
		}
		if lines[1] != "0x2717: 0x2717^1" {
			t.Errorf("line 2 = %q", lines[1])
		}
	})

	t.Run("JSON output with minus one", func(t *testing.T) {
		t.Parallel()
		app, _ := newTestApp(t, smallArgs(t, "-json", "-n-1", "0x9aae04", "0x61"))
		var out bytes.Buffer

		if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
			t.Fatalf("exit code = %d", code)
		}
		var report models.BatchReport
		if err := json.Unmarshal(out.Bytes(), &report); err != nil {
			t.Fatalf("invalid JSON %q: %v", out.String(), err)
		}
		if report.Attempted != 2 || report.Factored != 2 || len(report.Results) != 2 {
			t.Fatalf("report = %+v", report)
		}
		first := report.Results[0]
		if first.N != "0x9aae03" || !first.MinusOne || first.Status != "complete" {
			t.Errorf("first result = %+v", first)
		}
		if first.Backend != pollard.SequentialName {
			t.Errorf("backend = %s", first.Backend)
		}
		if second := report.Results[1]; second.N != "0x60" || len(second.Factors) != 2 {
			t.Errorf("second result = %+v", second)
		}
	})

	t.Run("Max factor stop", func(t *testing.T) {
		t.Parallel()
		app, _ := newTestApp(t, smallArgs(t, "-quiet", "-max-factor-bits", "7", "0x17c9e9081d"))
		var out bytes.Buffer

		if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
			t.Fatalf("exit code = %d", code)
		}
		if got := strings.TrimSpace(out.String()); got != "0x17c9e9081d: 0x3f5^1 (stopped_at_max_factor)" {
			t.Errorf("output = %q", got)
		}
	})

	t.Run("Prime table too small for bound", func(t *testing.T) {
		t.Parallel()
		args := []string{
			"pm1", "-cpu", "-primes", "10", "-bound-max", "4096",
			"-prime-cache", filepath.Join(t.TempDir(), "primes.bin"), "0x9aae03",
		}
		app, errBuf := newTestApp(t, args)
		var out bytes.Buffer

		if code := app.Run(context.Background(), &out); code != apperrors.ExitErrorConfig {
			t.Fatalf("exit code = %d, want %d", code, apperrors.ExitErrorConfig)
		}
		if !strings.Contains(errBuf.String(), "does not reach bound max 4096") {
			t.Errorf("stderr = %q", errBuf.String())
		}
	})

	t.Run("Canceled context", func(t *testing.T) {
		t.Parallel()
		app, _ := newTestApp(t, smallArgs(t, "0x9aae03"))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if code := app.Run(ctx, &bytes.Buffer{}); code != apperrors.ExitErrorCanceled {
			t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorCanceled)
		}
	})

	t.Run("Reuses prime cache", func(t *testing.T) {
		t.Parallel()
		args := smallArgs(t, "-quiet", "0x9aae03")
		for i := 0; i < 2; i++ {
			app, _ := newTestApp(t, args)
			var out bytes.Buffer
			if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
				t.Fatalf("run %d: exit code = %d", i, code)
			}
		}
	})
}

func TestNewUsesCalibrationProfile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "profile.json")
	profile := calibration.NewProfile()
	profile.OptimalLanes = 3
	if err := profile.SaveProfile(path); err != nil {
		t.Fatal(err)
	}

	app, _ := newTestApp(t, []string{"pm1", "-calibration-profile", path, "0x9aae03"})
	if app.Config.Lanes != 3 {
		t.Errorf("Lanes = %d, want the calibrated 3", app.Config.Lanes)
	}

	app, _ = newTestApp(t, []string{"pm1", "-calibration-profile", path, "-lanes", "5", "0x9aae03"})
	if app.Config.Lanes != 5 {
		t.Errorf("Lanes = %d, an explicit -lanes must win", app.Config.Lanes)
	}

	missing := filepath.Join(t.TempDir(), "missing.json")
	app, _ = newTestApp(t, []string{"pm1", "-calibration-profile", missing, "0x9aae03"})
	if app.Config.Lanes != calibration.EstimateOptimalLanes() {
		t.Errorf("Lanes = %d, want the CPU estimate", app.Config.Lanes)
	}
}

func TestRunCalibration(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "profile.json")
	app, errBuf := newTestApp(t, smallArgs(t, "-calibrate", "-calibration-profile", path))
	var out bytes.Buffer

	if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d, stderr %q", code, errBuf.String())
	}
	if !strings.Contains(testutil.StripAnsiCodes(out.String()), "Calibration Summary") {
		t.Errorf("output = %q", out.String())
	}
	if _, ok := calibration.LoadCachedLanes(path); !ok {
		t.Error("calibration should save a valid profile")
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()
	app, _ := newTestApp(t, []string{"pm1", "-version"})
	var out bytes.Buffer

	if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(out.String(), "pm1 ") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunListBackends(t *testing.T) {
	t.Parallel()
	app, _ := newTestApp(t, []string{"pm1", "-list-backends", "-cpu"})
	var out bytes.Buffer

	if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	text := testutil.StripAnsiCodes(out.String())
	if !strings.Contains(text, "NAME") || !strings.Contains(text, pollard.AcceleratorName) {
		t.Errorf("output = %q", text)
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, pollard.SequentialName) && !strings.Contains(line, "*") {
			t.Errorf("sequential backend should be marked active: %q", line)
		}
	}
}

func TestRunCompletion(t *testing.T) {
	t.Parallel()
	app, _ := newTestApp(t, []string{"pm1", "-completion", "bash"})
	var out bytes.Buffer

	if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	for _, want := range []string{"-bound-max", "-n-1", pollard.SequentialName} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("completion script is missing %q", want)
		}
	}
}

func TestRunCompletionInvalid(t *testing.T) {
	t.Parallel()
	var errBuf bytes.Buffer
	app := &Application{
		Factory:   pollard.NewDefaultFactory(),
		ErrWriter: &errBuf,
		Logger:    logging.Nop(),
	}
	app.Config.Completion = "powershell"

	if code := app.Run(context.Background(), &bytes.Buffer{}); code != apperrors.ExitErrorConfig {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorConfig)
	}
	if !strings.Contains(errBuf.String(), "Error generating completion") {
		t.Errorf("stderr = %q", errBuf.String())
	}
}

func TestRunServer(t *testing.T) {
	t.Parallel()
	app, errBuf := newTestApp(t, smallArgs(t, "-server", "-port", "0"))
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan int, 1)
	go func() { done <- app.Run(ctx, &bytes.Buffer{}) }()

	select {
	case code := <-done:
		if code != apperrors.ExitSuccess {
			t.Errorf("exit code = %d, stderr %q", code, errBuf.String())
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}

func TestIsHelpError(t *testing.T) {
	t.Parallel()
	if IsHelpError(errors.New("other")) {
		t.Error("IsHelpError should be false for unrelated errors")
	}
	if IsHelpError(nil) {
		t.Error("IsHelpError should be false for nil")
	}
}

func TestSetupContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := SetupContext(context.Background(), 0)
	if _, ok := ctx.Deadline(); ok {
		t.Error("zero timeout should not set a deadline")
	}
	cancel()
	if ctx.Err() == nil {
		t.Error("cancel should cancel the context")
	}

	ctx, cancel = SetupContext(context.Background(), time.Hour)
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Error("positive timeout should set a deadline")
	}
}

func TestSetupLifecycle(t *testing.T) {
	t.Parallel()
	ctx, funcs := SetupLifecycle(context.Background(), time.Hour)
	if ctx.Err() != nil {
		t.Fatal("context should not be canceled yet")
	}
	funcs.Cleanup()
	if ctx.Err() == nil {
		t.Error("Cleanup should cancel the context")
	}
	(&CancelFuncs{}).Cleanup()
}
