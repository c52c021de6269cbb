package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/EmundoT/pkgguard/internal/types"
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	styleErr     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleCard    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).BorderForeground(lipgloss.Color("238"))
)

// tierStyles colour the tier column of the audit table.
var tierStyles = map[types.RiskTier]lipgloss.Style{
	types.RiskHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true),
	types.RiskMedium: styleWarn,
	types.RiskLow:    styleSuccess,
}

// outcomeMarks prefix each migration step line.
var outcomeMarks = map[types.StepOutcome]string{
	types.StepOK:      styleSuccess.Render("✔"),
	types.StepWarning: styleWarn.Render("!"),
	types.StepFailed:  styleErr.Render("✖"),
}

// PrintError displays an error message with styling to the terminal.
func PrintError(title, msg string) { fmt.Println(styleErr.Render("✖ " + title)); fmt.Println(msg) }

// PrintSuccess displays a success message with styling to the terminal.
func PrintSuccess(msg string) { fmt.Println(styleSuccess.Render("✔ " + msg)) }

// PrintInfo displays an informational message to the terminal.
func PrintInfo(msg string) {
	fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(msg))
}

// PrintWarning displays a warning message with styling to the terminal.
func PrintWarning(title, msg string) { fmt.Println(styleWarn.Render("! " + title)); fmt.Println(msg) }

// StyleTitle applies title styling to the given text string.
func StyleTitle(text string) string { return styleTitle.Render(text) }

// FormatStep renders the one line shown for a finished migration step.
func FormatStep(repository string, step types.MigrationStep) string {
	line := fmt.Sprintf("%s %s %-15s %s", outcomeMarks[step.Outcome], repository, step.Name, step.Outcome)
	if step.Detail != "" {
		line += styleDim.Render("  " + step.Detail)
	}
	return line
}

// RenderAuditTable renders audit records in input order, then the fleet summary card.
func RenderAuditTable(w io.Writer, records []types.AuditRecord, summary types.FleetSummary) {
	width := len("REPOSITORY")
	for _, r := range records {
		width = max(width, len(r.Repository))
	}

	header := fmt.Sprintf("%-*s  %-6s  %5s  %-9s  %-11s  %s", width, "REPOSITORY", "TIER", "VULNS", "LIFECYCLE", "RISKPACKAGE", "STATUS")
	fmt.Fprintln(w, styleDim.Render(header))
	fmt.Fprintln(w, styleDim.Render(strings.Repeat("─", lipgloss.Width(header))))

	for _, r := range records {
		tier := "-"
		if r.Tier != "" {
			tier = string(r.Tier)
		}
		status := r.Status
		if r.Failed() {
			status = styleErr.Render("failed: " + r.Error)
		}
		styled := fmt.Sprintf("%-6s", tier)
		if st, ok := tierStyles[r.Tier]; ok {
			styled = st.Render(styled)
		}
		fmt.Fprintf(w, "%-*s  %s  %5d  %-9s  %-11s  %s\n", width, r.Repository, styled,
			r.VulnerabilityCount, yesNo(r.LifecycleFlag), yesNo(r.RiskPackageFlag), status)
	}

	fmt.Fprintln(w, RenderSummaryCard(summary))
}

// RenderSummaryCard renders tier counts and the migration order.
func RenderSummaryCard(summary types.FleetSummary) string {
	lines := []string{
		styleTitle.Render("Fleet summary"),
		fmt.Sprintf("HIGH %d   MEDIUM %d   LOW %d   failed %d",
			summary.HighCount, summary.MediumCount, summary.LowCount, summary.FailedCount),
	}
	if len(summary.PrioritizedOrder) > 0 {
		lines = append(lines, "Migration order: "+strings.Join(summary.PrioritizedOrder, " → "))
	}
	if len(summary.FailedRepositories) > 0 {
		lines = append(lines, styleErr.Render("Not classified: "+strings.Join(summary.FailedRepositories, ", ")))
	}
	return styleCard.Render(strings.Join(lines, "\n"))
}

// RenderMigrationResults renders one line per migrated repository.
func RenderMigrationResults(w io.Writer, traces []types.MigrationTrace) {
	fmt.Fprintln(w, styleTitle.Render("Migration results"))
	for _, t := range traces {
		var mark string
		switch t.Result() {
		case types.MigrationResultPass:
			mark = styleSuccess.Render(t.Result())
		case types.MigrationResultWarn:
			mark = styleWarn.Render(t.Result())
		default:
			mark = styleErr.Render(t.Result())
		}
		line := fmt.Sprintf("  %-4s %s (%d steps)", mark, t.Repository, len(t.Steps))
		if t.BackupDir != "" {
			line += styleDim.Render("  backup: " + t.BackupDir)
		}
		fmt.Fprintln(w, line)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// PrintHelp displays usage information for pkgguard commands.
func PrintHelp(version string) {
	fmt.Println(styleTitle.Render("pkgguard " + version))
	fmt.Println("Classify a fleet of npm repositories by supply-chain risk and migrate them to pnpm with lifecycle scripts filtered")
	fmt.Println("\nCommands:")
	fmt.Println("  audit               Classify every repository in fleet.yml (HIGH / MEDIUM / LOW)")
	fmt.Println("  migrate             Audit, then migrate repositories to pnpm in priority order")
	fmt.Println("  hook                Sanitize one package JSON from stdin (called by .pnpmfile.cjs)")
	fmt.Println("  sanitize <file>...  Strip forbidden lifecycle scripts from package.json files in place")
	fmt.Println("  restore <repo>      Restore the lockfiles and scripts snapshotted before migration")
	fmt.Println("    --run <id>        Restore a specific run (default: latest)")
	fmt.Println("  watch               Re-run the audit when fleet.yml or the policy changes")
	fmt.Println("  policy check [file] Validate a script policy file (default: .pkgguard-policy.yml)")
	fmt.Println("  completion <shell>  Generate shell completion script (bash/zsh/fish/powershell)")
	fmt.Println("  version             Show version information")
	fmt.Println("\nFlags:")
	fmt.Println("  --config <path>     Fleet file (default: fleet.yml)")
	fmt.Println("  --json              Structured JSON output")
	fmt.Println("  --quiet, -q         Only errors")
	fmt.Println("  --yes, -y           Do not ask before migrating")
	fmt.Println("  --verbose, -v       Debug logging and tool commands on stderr")
	fmt.Println("  --metrics-file <p>  Write Prometheus metrics in textfile format")
	fmt.Println("  --trace-file <p>    Write OpenTelemetry spans as JSON")
	fmt.Println("\nEnvironment:")
	fmt.Println("  PKGGUARD_AUDIT_LOG          Audit log the hook appends to")
	fmt.Println("  PKGGUARD_POLICY             Script policy file")
	fmt.Println("  PKGGUARD_TRUSTED_NAMESPACE  Scope whose packages keep their scripts, e.g. @acme")
	fmt.Println("\nExamples:")
	fmt.Println("  pkgguard audit --json")
	fmt.Println("  pkgguard migrate --yes --metrics-file /var/lib/node_exporter/pkgguard.prom")
	fmt.Println("  pkgguard sanitize packages/*/package.json")
	fmt.Println("  pkgguard restore web-frontend")
	fmt.Println("  pkgguard policy check")
	fmt.Println("  pkgguard completion bash > /etc/bash_completion.d/pkgguard")
}
