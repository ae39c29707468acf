package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/wilnd/excel-handle/internal/reconcile"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF")).
			MarginBottom(1)
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1)
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginTop(1)
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)
)

func badge(color string) lipgloss.Style {
	return lipgloss.NewStyle().
		Background(lipgloss.Color("#" + color)).
		Foreground(lipgloss.Color("#000000")).
		Padding(0, 1)
}

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("excel-handle · upload plan reconciliation"))
	b.WriteString("\n")

	inputs := make([]string, len(a.inputs))
	for i := range a.inputs {
		inputs[i] = a.inputs[i].View()
	}
	b.WriteString(boxStyle.Render(strings.Join(inputs, "\n")))
	b.WriteString("\n\n")

	b.WriteString(a.bar.ViewAs(float64(a.percent) / 100))
	b.WriteString("\n")

	if a.err != nil {
		b.WriteString(errorStyle.Render(a.status))
	} else {
		b.WriteString(statusStyle.Render(a.status))
	}
	b.WriteString("\n")

	if a.result != nil {
		b.WriteString("\n")
		b.WriteString(renderStats(a.result))
		b.WriteString("\n")
	}

	help := "tab: next field · enter: start · esc: quit"
	if a.running {
		help = "working... · ctrl+c: abort"
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

func renderStats(res *reconcile.Result) string {
	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		badge(reconcile.ColorYellow).Render(fmt.Sprintf("yellow %d", res.YellowCount)),
		" ",
		badge(reconcile.ColorOrange).Render(fmt.Sprintf("orange %d", res.OrangeCount)),
		" ",
		fmt.Sprintf("pending upload %d", res.PlannedCount),
	)
	detail := fmt.Sprintf("%d plan entries · %d data rows · %d exact · %d prefix · %s",
		res.PlanEntries, res.DataRows, res.ExactMatches, res.PrefixMatches, res.Duration.Round(time.Millisecond))
	return boxStyle.Render(stats + "\n" + detail)
}
