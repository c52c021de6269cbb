// Package cmd provides shell completion scripts for the pkgguard CLI.
package cmd

import (
	"fmt"
	"strings"
)

// flag is one completable command-line option.
type flag struct {
	long  string
	short string
	desc  string
	value bool // takes an argument
}

// command describes a subcommand for completion purposes.
type command struct {
	name  string
	desc  string
	flags []flag
	args  []string // fixed positional words, e.g. shell names
}

var (
	flagJSON    = flag{long: "json", desc: "JSON output"}
	flagQuiet   = flag{long: "quiet", short: "q", desc: "Only errors"}
	flagVerbose = flag{long: "verbose", short: "v", desc: "Debug logging"}
	flagConfig  = flag{long: "config", desc: "Fleet file", value: true}
	flagMetrics = flag{long: "metrics-file", desc: "Prometheus textfile output", value: true}
	flagTrace   = flag{long: "trace-file", desc: "OpenTelemetry span output", value: true}
	flagYes     = flag{long: "yes", short: "y", desc: "Do not ask before migrating"}
	flagRun     = flag{long: "run", desc: "Run ID to restore", value: true}
)

var fleetFlags = []flag{flagConfig, flagJSON, flagQuiet, flagVerbose, flagMetrics, flagTrace}

// commands available in pkgguard, in help order.
var commands = []command{
	{name: "audit", desc: "Classify repositories by supply-chain risk", flags: fleetFlags},
	{name: "migrate", desc: "Migrate repositories to pnpm in priority order", flags: append([]flag{flagYes}, fleetFlags...)},
	{name: "hook", desc: "Sanitize one package JSON from stdin"},
	{name: "sanitize", desc: "Strip forbidden lifecycle scripts in place", flags: []flag{flagJSON, flagQuiet, flagMetrics}},
	{name: "restore", desc: "Restore a pre-migration snapshot", flags: []flag{flagRun, flagConfig, flagJSON, flagQuiet}},
	{name: "watch", desc: "Re-audit when fleet.yml or the policy changes", flags: []flag{flagConfig, flagVerbose}},
	{name: "policy", desc: "Validate a script policy file", args: []string{"check"}},
	{name: "completion", desc: "Generate shell completion script", args: []string{"bash", "zsh", "fish", "powershell"}},
	{name: "version", desc: "Show version information"},
	{name: "help", desc: "Show help information"},
}

func commandNames() []string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.name
	}
	return names
}

// words returns the flag spellings and positional words offered after c.
func (c command) words() []string {
	var out []string
	for _, f := range c.flags {
		out = append(out, "--"+f.long)
		if f.short != "" {
			out = append(out, "-"+f.short)
		}
	}
	return append(out, c.args...)
}

// GenerateBashCompletion generates bash completion script
func GenerateBashCompletion() string {
	var cases strings.Builder
	for _, c := range commands {
		if words := c.words(); len(words) > 0 {
			fmt.Fprintf(&cases, "        %s)\n            opts=\"%s\"\n            ;;\n", c.name, strings.Join(words, " "))
		}
	}

	return fmt.Sprintf(`# bash completion for pkgguard
_pkgguard_completions() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    # Commands
    opts="%s"

    # Command-specific options
    case "${prev}" in
%s    esac

    COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
    return 0
}

complete -F _pkgguard_completions pkgguard
`, strings.Join(commandNames(), " "), cases.String())
}

// GenerateZshCompletion generates zsh completion script
func GenerateZshCompletion() string {
	cmdList := make([]string, len(commands))
	var cases strings.Builder
	for i, c := range commands {
		cmdList[i] = fmt.Sprintf("        '%s:%s'", c.name, c.desc)

		var specs []string
		for _, f := range c.flags {
			suffix := ""
			if f.value {
				suffix = ":value:_files"
			}
			specs = append(specs, fmt.Sprintf("'--%s[%s]%s'", f.long, f.desc, suffix))
			if f.short != "" {
				specs = append(specs, fmt.Sprintf("'-%s[%s]'", f.short, f.desc))
			}
		}
		if len(c.args) > 0 {
			specs = append(specs, fmt.Sprintf("'1:%s:(%s)'", c.name, strings.Join(c.args, " ")))
		}
		if len(specs) == 0 {
			continue
		}
		fmt.Fprintf(&cases, "                %s)\n                    _arguments \\\n                        %s\n                    ;;\n",
			c.name, strings.Join(specs, " \\\n                        "))
	}

	return fmt.Sprintf(`#compdef pkgguard

_pkgguard() {
    local -a commands
    commands=(
%s
    )

    _arguments -C \
        '1: :->command' \
        '*::arg:->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
%s            esac
            ;;
    esac
}

_pkgguard "$@"
`, strings.Join(cmdList, "\n"), cases.String())
}

// GenerateFishCompletion generates fish completion script
func GenerateFishCompletion() string {
	var completions []string

	for _, c := range commands {
		completions = append(completions, fmt.Sprintf("complete -c pkgguard -f -n '__fish_use_subcommand' -a '%s' -d '%s'", c.name, c.desc))
	}

	for _, c := range commands {
		if len(c.flags) == 0 && len(c.args) == 0 {
			continue
		}
		completions = append(completions, "# "+c.name)
		cond := fmt.Sprintf("'__fish_seen_subcommand_from %s'", c.name)
		for _, f := range c.flags {
			line := fmt.Sprintf("complete -c pkgguard -n %s -l %s", cond, f.long)
			if f.short != "" {
				line += " -s " + f.short
			}
			line += fmt.Sprintf(" -d '%s'", f.desc)
			if f.value {
				line += " -r"
			}
			completions = append(completions, line)
		}
		if len(c.args) > 0 {
			completions = append(completions, fmt.Sprintf("complete -c pkgguard -n %s -f -a '%s'", cond, strings.Join(c.args, " ")))
		}
	}

	return strings.Join(completions, "\n")
}

// GeneratePowerShellCompletion generates PowerShell completion script
func GeneratePowerShellCompletion() string {
	quote := func(words []string) string {
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = fmt.Sprintf("'%s'", w)
		}
		return strings.Join(quoted, ", ")
	}

	var cases strings.Builder
	for _, c := range commands {
		words := c.words()
		if len(words) == 0 {
			continue
		}
		fmt.Fprintf(&cases, `            '%s' {
                @(%s) |
                    Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
                    }
            }
`, c.name, quote(words))
	}

	return fmt.Sprintf(`# PowerShell completion for pkgguard
Register-ArgumentCompleter -Native -CommandName pkgguard -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)

    $commands = @(%s)

    $line = $commandAst.ToString()
    $tokens = $line.Split(' ')

    if ($tokens.Count -eq 2) {
        # Complete command
        $commands | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
        }
    }
    elseif ($tokens.Count -gt 2) {
        $subcommand = $tokens[1]

        switch ($subcommand) {
%s        }
    }
}
`, quote(commandNames()), cases.String())
}

// Generate returns the completion script for shell.
func Generate(shell string) (string, error) {
	switch shell {
	case "bash":
		return GenerateBashCompletion(), nil
	case "zsh":
		return GenerateZshCompletion(), nil
	case "fish":
		return GenerateFishCompletion(), nil
	case "powershell":
		return GeneratePowerShellCompletion(), nil
	}
	return "", fmt.Errorf("unsupported shell %q (bash, zsh, fish, powershell)", shell)
}

// getCommandDescription returns a short description for a command
func getCommandDescription(name string) string {
	for _, c := range commands {
		if c.name == name {
			return c.desc
		}
	}
	return ""
}
