package cli

import (
	"fmt"
	"io"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/agbru/pm1factor/internal/orchestration"
	"github.com/agbru/pm1factor/internal/pollard"
	"github.com/agbru/pm1factor/internal/ui"
)

// FormatExecutionDuration shows microseconds below a millisecond,
// milliseconds below a second, and the default representation otherwise.
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

// PrintExecutionConfig prints the backend and bound schedule of a run.
func PrintExecutionConfig(out io.Writer, backend pollard.Backend, cfg orchestration.Config, primeCount int) {
	fmt.Fprintf(out, "%s--- Execution Configuration ---%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(out, "Backend: %s%s%s (%s)\n", ui.ColorAccent(), backend.Name(), ui.ColorReset(), backend.Description())
	fmt.Fprintf(out, "Bounds: start %d, step %d, ceiling %d, minimum step %d\n",
		cfg.BoundStart, cfg.BoundStep, cfg.BoundMax, cfg.MinStep)
	fmt.Fprintf(out, "Prime table: %d primes. Environment: %d logical processors, Go %s.\n",
		primeCount, runtime.NumCPU(), runtime.Version())
}

// PrintBackends lists the registered backends as an aligned table, marking
// the active one.
func PrintBackends(out io.Writer, factory pollard.BackendFactory, active string) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tACTIVE\tDEVICE")
	for _, name := range factory.List() {
		b, err := factory.Create(name, pollard.Options{})
		if err != nil {
			return err
		}
		mark := ""
		if name == active {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, mark, b.Description())
	}
	return tw.Flush()
}
