package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

const (
	defaultTitleWidth = 80
	maxErrWidth       = 100
)

func renderListView(snap Snapshot, selected int, message string, width int) string {
	var b strings.Builder

	b.WriteString(renderHeader(snap))
	b.WriteString("\n")

	if snap.Notice != "" {
		b.WriteString(noticeStyle.Render(snap.Notice))
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render(fmt.Sprintf("📦 Watched Repositories (%d)", len(snap.Repos))))
	b.WriteString("\n")
	b.WriteString(renderRepos(snap.Repos, selected, titleWidth(width)))

	b.WriteString(renderFooter(snap, message,
		"q:quit r:refresh ↑↓:select ⏎:run a:actor c:commit o:repo R:rerun space:details"))

	return b.String()
}

func renderHeader(snap Snapshot) string {
	header := fmt.Sprintf("%s actions-status │ %s │ %d repos",
		snap.Overall.Glyph(), snap.Overall, len(snap.Repos))
	if snap.Auth != "" {
		header += " │ " + snap.Auth
	}
	return headerStyle.Render(header)
}

func titleWidth(width int) int {
	if width <= 4 {
		return defaultTitleWidth
	}
	return width - 4
}

func renderRepos(repos []RepoState, selected, width int) string {
	if len(repos) == 0 {
		return emptyStyle.Render("  (no repos configured)") + "\n"
	}

	var b strings.Builder
	for i, r := range repos {
		title := r.Title
		if runewidth.StringWidth(title) > width {
			title = runewidth.Truncate(title, width-3, "...")
		}

		cursor := "  "
		style := repoStyle.Foreground(statusColor(r.Status))
		if i == selected {
			cursor = "▸ "
			style = selectedRepoStyle
		}
		b.WriteString(style.Render(cursor + title))
		b.WriteString("\n")

		if r.Err != "" {
			b.WriteString(errStyle.Render("    └─ " + runewidth.Truncate(r.Err, maxErrWidth, "...")))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderDetailView(snap Snapshot, r RepoState, message string) string {
	var b strings.Builder

	b.WriteString(renderHeader(snap))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("🔍 " + r.FullName))
	b.WriteString("\n")

	field := func(name, value string) {
		b.WriteString(fmt.Sprintf("  %-8s %s\n", name+":", value))
	}
	field("status", lipgloss.NewStyle().Foreground(statusColor(r.Status)).Render(r.Status.Glyph()+" "+r.Status.String()))
	field("summary", r.Title)
	if r.Err != "" {
		field("error", errStyle.Render(r.Err))
	}
	if r.Rerunnable {
		field("rerun", "available (R)")
	}

	b.WriteString(renderFooter(snap, message,
		"esc:back q:quit r:refresh ⏎:run a:actor c:commit o:repo R:rerun"))
	return b.String()
}

func renderFooter(snap Snapshot, message, keys string) string {
	var b strings.Builder
	b.WriteString("\n")

	parts := []string{"Updated: " + snap.Timestamp.Format("15:04:05")}
	if !snap.LastTick.IsZero() {
		parts = append(parts, "Polled: "+humanize.RelTime(snap.LastTick, snap.Timestamp, "ago", "from now"))
	}
	style := footerStyle
	if rl := snap.RateLimit; rl.Known {
		parts = append(parts, fmt.Sprintf("API: %d/%d, resets %s",
			rl.Remaining, rl.Limit, humanize.RelTime(rl.Reset, snap.Timestamp, "ago", "from now")))
		if rl.Low {
			style = warnFooterStyle
		}
	}
	b.WriteString(style.Render(strings.Join(parts, " │ ")))
	b.WriteString("\n")

	if message != "" {
		b.WriteString(message)
		b.WriteString("\n")
	}
	b.WriteString(footerStyle.UnsetMarginTop().Render(keys))
	return b.String()
}
