package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/agbru/pm1factor/internal/ui"
)

var usageExamples = []struct{ args, what string }{
	{"0x9aae03", "factor 0x9aae03 with the default backend"},
	{"-n-1 0x61", "factor 0x60, that is N - 1"},
	{"-cpu -max-factor-bits 32 0x17c9e9081d", "stop once a factor of at least 2^32 is found"},
	{"-server -port 8080", "serve /factor over HTTP"},
	{"-calibrate", "benchmark accelerator lane counts and save the best one"},
}

// setCustomUsage configures the flag set with a colored usage function.
func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		// NO_COLOR applies before the theme is initialized
		t := ui.GetCurrentTheme()
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			t = ui.NoColorTheme
		}

		out := fs.Output()

		fmt.Fprintf(out, "\n%sPollard p-1 factorizer%s\n", t.Bold, t.Reset)
		fmt.Fprintf(out, "Factors hexadecimal integers whose prime factors p have a smooth p-1.\n\n")
		fmt.Fprintf(out, "%sUsage:%s\n  %s [-n-1] [-cpu] [flags] hex...\n\n%sFlags:%s\n", t.Warning, t.Reset, fs.Name(), t.Warning, t.Reset)

		fs.VisitAll(func(f *flag.Flag) {
			name, usage := flag.UnquoteUsage(f)
			flagSig := "-" + f.Name
			if len(name) > 0 {
				flagSig += " " + name
			}
			fmt.Fprintf(out, "  %s%-25s%s %s", t.Accent, flagSig, t.Reset, usage)
			if f.DefValue != "" && f.DefValue != "0" && f.DefValue != "false" && f.DefValue != "0s" {
				fmt.Fprintf(out, " %s(default %s)%s", t.Muted, f.DefValue, t.Reset)
			}
			fmt.Fprintln(out)
		})

		fmt.Fprintf(out, "\n%sExamples:%s\n", t.Warning, t.Reset)
		for _, ex := range usageExamples {
			fmt.Fprintf(out, "  %s%s %s%s\n      %s\n", t.Accent, fs.Name(), ex.args, t.Reset, ex.what)
		}
		fmt.Fprintf(out, "\nEnvironment variables %sPM1_*%s override defaults; flags override both.\n\n", t.Accent, t.Reset)
	}
}
