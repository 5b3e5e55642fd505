package cli

import (
	"fmt"
	"io"
	"strings"
)

// GenerateCompletion writes a completion script for shell ("bash", "zsh" or
// "fish"). flags are option names without dashes; backends are the values
// offered after -backend.
func GenerateCompletion(out io.Writer, shell string, flags, backends []string) error {
	switch shell {
	case "bash":
		return writeBashCompletion(out, flags, backends)
	case "zsh":
		return writeZshCompletion(out, flags, backends)
	case "fish":
		return writeFishCompletion(out, flags, backends)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish)", shell)
	}
}

func dashed(flags []string) string {
	opts := make([]string, len(flags))
	for i, f := range flags {
		opts[i] = "-" + f
	}
	return strings.Join(opts, " ")
}

func writeBashCompletion(out io.Writer, flags, backends []string) error {
	_, err := fmt.Fprintf(out, `# Bash completion script for pm1
# Add this to your ~/.bashrc or ~/.bash_completion

_pm1_completions() {
    local cur prev
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    case "${prev}" in
        -backend)
            COMPREPLY=( $(compgen -W "%s" -- "${cur}") )
            return 0
            ;;
        -completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- "${cur}") )
            return 0
            ;;
        -log-level)
            COMPREPLY=( $(compgen -W "debug info warn error disabled" -- "${cur}") )
            return 0
            ;;
        -prime-cache)
            COMPREPLY=( $(compgen -f -- "${cur}") )
            return 0
            ;;
    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "%s" -- "${cur}") )
    fi
}

complete -F _pm1_completions pm1
`, strings.Join(backends, " "), dashed(flags))
	return err
}

func writeZshCompletion(out io.Writer, flags, backends []string) error {
	var b strings.Builder
	for _, f := range flags {
		switch f {
		case "backend":
			fmt.Fprintf(&b, "    '-backend[compute backend]:backend:(%s)' \\\n", strings.Join(backends, " "))
		case "prime-cache":
			b.WriteString("    '-prime-cache[prime table cache file]:file:_files' \\\n")
		default:
			fmt.Fprintf(&b, "    '-%s' \\\n", f)
		}
	}
	_, err := fmt.Fprintf(out, `#compdef pm1
# Zsh completion script for pm1

_pm1() {
    _arguments \
%s    '*:number (hex):'
}

_pm1 "$@"
`, b.String())
	return err
}

func writeFishCompletion(out io.Writer, flags, backends []string) error {
	var b strings.Builder
	b.WriteString("# Fish completion script for pm1\n\n")
	for _, f := range flags {
		switch f {
		case "backend":
			fmt.Fprintf(&b, "complete -c pm1 -o backend -x -a '%s'\n", strings.Join(backends, " "))
		case "completion":
			b.WriteString("complete -c pm1 -o completion -x -a 'bash zsh fish'\n")
		default:
			fmt.Fprintf(&b, "complete -c pm1 -o %s\n", f)
		}
	}
	_, err := io.WriteString(out, b.String())
	return err
}
