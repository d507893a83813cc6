package progress

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
)

// Renderer prints a report as a console status page. Colours are only
// emitted when the writer is a terminal.
type Renderer struct {
	out   io.Writer
	width int

	title   lipgloss.Style
	section lipgloss.Style
	dim     lipgloss.Style
	tiers   map[Status]lipgloss.Style
	overall map[OverallStatus]lipgloss.Style
	good    lipgloss.Style
	bad     lipgloss.Style
}

// NewRenderer creates a renderer that writes to out.
// It detects terminal width when out is a TTY.
func NewRenderer(out io.Writer) *Renderer {
	width := 60
	if f, ok := out.(*os.File); ok {
		tty := isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		if tty {
			if w, _, err := term.GetSize(f.Fd()); err == nil && w > 0 {
				width = w
			}
		}
	}
	if width < 40 {
		width = 40
	}
	if width > 72 {
		width = 72
	}

	lr := lipgloss.NewRenderer(out)
	green := lr.NewStyle().Foreground(lipgloss.Color("#04B575"))
	yellow := lr.NewStyle().Foreground(lipgloss.Color("#F2C94C"))
	orange := lr.NewStyle().Foreground(lipgloss.Color("#F2994A"))
	red := lr.NewStyle().Foreground(lipgloss.Color("#FF5555"))

	return &Renderer{
		out:     out,
		width:   width,
		title:   lr.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		section: lr.NewStyle().Bold(true),
		dim:     lr.NewStyle().Foreground(lipgloss.Color("#626262")),
		tiers: map[Status]lipgloss.Style{
			StatusComplete:  green.Bold(true),
			StatusOnTrack:   green,
			StatusAttention: yellow,
			StatusAtRisk:    orange,
			StatusCritical:  red,
		},
		overall: map[OverallStatus]lipgloss.Style{
			OverallOnTrack:        green.Bold(true),
			OverallNeedsAttention: yellow.Bold(true),
			OverallBehindSchedule: red.Bold(true),
		},
		good: green,
		bad:  red,
	}
}

// Render writes the report. check supplies the individual self-check answers.
func (r *Renderer) Render(rep Report, check SelfCheck) {
	heavy := strings.Repeat("=", r.width)
	light := r.dim.Render(strings.Repeat("-", r.width))

	fmt.Fprintf(r.out, "\n%s\n", heavy)
	fmt.Fprintf(r.out, "%s\n", r.title.Render("PROGRESS TRACKER"))
	fmt.Fprintf(r.out, "%s\n", heavy)
	fmt.Fprintf(r.out, "\nReport Time: %s\n", rep.Timestamp.Format("2006-01-02 15:04"))
	fmt.Fprintf(r.out, "Overall Status: %s\n", r.overall[rep.OverallStatus].Render(OverallLabel(rep.OverallStatus)))

	fmt.Fprintf(r.out, "\n%s\n%s\n%s\n", light, r.section.Render("CONTENT CREATION PROGRESS"), light)
	for _, mp := range rep.ContentProgress {
		bar := renderBar(mp.Percentage/100, r.barWidth())
		line := fmt.Sprintf("%-9s %-12s %5s/%-4s %s %5.1f%%",
			TierLabel(mp.Status), mp.Metric.Label(), formatCount(mp.Actual), formatCount(mp.Goal), bar, mp.Percentage)
		fmt.Fprintln(r.out, r.tiers[mp.Status].Render(line))
	}

	fmt.Fprintf(r.out, "\n%s\n%s\n%s\n", light, r.section.Render("REVENUE & ENGAGEMENT METRICS"), light)
	fmt.Fprintf(r.out, "Weekly Revenue:    $%.2f\n", rep.RevenueMetrics.WeeklyRevenue)
	fmt.Fprintf(r.out, "New Subscribers:   %d\n", rep.RevenueMetrics.NewSubscribers)
	fmt.Fprintf(r.out, "Customs Completed: %d\n", rep.RevenueMetrics.CustomsCompleted)

	fmt.Fprintf(r.out, "\n%s\n%s\n%s\n", light, r.section.Render("WEEKLY SELF-CHECK"), light)
	fmt.Fprintf(r.out, "Status: %s\n", SelfCheckLabel(rep.SelfCheckStatus))
	for _, f := range check.flags() {
		if f.value == nil {
			continue
		}
		if *f.value {
			fmt.Fprintf(r.out, "  %s %s\n", r.good.Render("[x]"), flagLabel(f.name))
		} else {
			fmt.Fprintf(r.out, "  %s %s\n", r.bad.Render("[ ]"), flagLabel(f.name))
		}
	}

	if len(rep.Recommendations) > 0 {
		fmt.Fprintf(r.out, "\n%s\n%s\n%s\n", light, r.section.Render("RECOMMENDATIONS"), light)
		for _, rec := range rep.Recommendations {
			fmt.Fprintf(r.out, "  - %s\n", rec)
		}
	}

	fmt.Fprintf(r.out, "\n%s\n\n", heavy)
}

// OverallLabel returns the headline text for an overall status.
func OverallLabel(s OverallStatus) string {
	switch s {
	case OverallOnTrack:
		return "ON TRACK"
	case OverallNeedsAttention:
		return "NEEDS ATTENTION"
	case OverallBehindSchedule:
		return "BEHIND SCHEDULE"
	}
	return strings.ToUpper(string(s))
}

// SelfCheckLabel returns a readable self-check summary.
func SelfCheckLabel(s SelfCheckStatus) string {
	switch s {
	case SelfCheckExcellent:
		return "Excellent - all checks passed"
	case SelfCheckNeedsAttention:
		return "Needs attention"
	default:
		return "Pending completion"
	}
}

// TierLabel returns a short tag for a status tier.
func TierLabel(s Status) string {
	switch s {
	case StatusComplete:
		return "DONE"
	case StatusOnTrack:
		return "ON TRACK"
	case StatusAttention:
		return "ATTENTION"
	case StatusAtRisk:
		return "AT RISK"
	default:
		return "CRITICAL"
	}
}

func flagLabel(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// barWidth leaves room for the status tag, label, counts and percent.
func (r *Renderer) barWidth() int {
	w := r.width - 44
	if w < 10 {
		w = 10
	}
	return w
}

// renderBar draws a [####....] style bar of the given width.
func renderBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	empty := width - filled
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", empty) + "]"
}
