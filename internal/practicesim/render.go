package practicesim

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/okian/mimicoo/internal/domain/risk"
)

// Summary theme.

const (
	IconMic     = "🎤"
	IconTrophy  = "🏆"
	IconChart   = "📊"
	IconWarn    = "⚠️"
	IconError   = "🧨"
	IconReport  = "📄"
	IconSparkle = "✨"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)
	Muted = lipgloss.NewStyle().Foreground(cMuted)

	Panel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
)

func Heading(icon, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// ScoreText colours a score the way the practice screen does.
func ScoreText(score float64) string {
	text := fmt.Sprintf("%.1f", score)
	switch {
	case score >= 80:
		return Good.Render(text)
	case score >= 60:
		return Warn.Render(text)
	default:
		return Bad.Render(text)
	}
}

// StatusText colours an overall screening status.
func StatusText(status string) string {
	switch status {
	case risk.OverallNormal:
		return Good.Render(status)
	case risk.OverallMonitor:
		return Warn.Render(status)
	case risk.OverallConsult:
		return Bad.Render(status)
	default:
		return Muted.Render(status)
	}
}

// RenderSummary formats a run for the terminal.
func RenderSummary(s Stats) string {
	var b strings.Builder
	line := func(v string) { b.WriteString(v + "\n") }

	line(Heading(IconMic, "Practice Simulation"))
	line(LabelValue("Sessions", s.Sessions))
	line(LabelValue("Analyses", s.Analyses))
	line(LabelValue("Duration", s.Duration.Round(time.Millisecond)))
	line("")

	line(H2.Render(IconChart + " Scores"))
	line(LabelValue("Average", ScoreText(s.AverageScore())))
	line(LabelValue("Best", ScoreText(float64(s.BestScore))))
	sources := make([]string, 0, len(s.Sources))
	for k := range s.Sources {
		sources = append(sources, k)
	}
	slices.Sort(sources)
	for _, k := range sources {
		name := k
		if name == "" {
			name = "unknown"
		}
		line(fmt.Sprintf("- %s %d", Key.Render(name+":"), s.Sources[k]))
	}
	line("")

	line(H2.Render(IconTrophy + " Progress"))
	line(LabelValue("Max level", Gold.Render(fmt.Sprint(s.MaxLevel))))
	line(LabelValue("Achievements unlocked", s.Unlocked))
	line(LabelValue("Notifications", s.Notifications))
	line("")

	checks := []string{
		LabelValue("Duplicate submissions", s.Duplicates),
		LabelValue("Permission denials", s.PermissionDenied),
	}
	if s.Failures > 0 {
		checks = append(checks, Bad.Render(fmt.Sprintf("%s %d failures", IconWarn, s.Failures)))
	} else {
		checks = append(checks, Good.Render("no failures"))
	}
	line(Panel.Render(strings.Join(checks, "\n")))

	if s.ReportID != "" {
		line("")
		line(H2.Render(IconReport + " Baseline"))
		line(LabelValue("Report", s.ReportID))
		line(LabelValue("Overall", StatusText(s.OverallStatus)))
	}
	return b.String()
}
