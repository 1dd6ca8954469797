package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/courier/internal/logtail"
	"github.com/five82/courier/internal/state"
	"github.com/five82/courier/internal/updates"
)

const maxRestaurantRows = 8

func (m Model) renderMain() string {
	sections := []string{
		m.renderHeader(),
		m.renderBody(),
		m.renderLogs(),
		m.renderFooter(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader shows app, backend and transport on one line.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	snap := m.snapshot

	backend := snap.BaseURL
	if backend == "" {
		backend = "resolving…"
	}

	parts := []string{
		styles.Logo.Render("courier"),
		styles.MutedText.Render(m.app),
		styles.AccentText.Render(backend),
	}
	if m.app == "rider" {
		parts = append(parts, styles.BadgeStyle(snap.ChannelState.String()).Render(channelLabel(snap)))
	}
	if snap.IsOffline() {
		parts = append(parts, styles.DangerText.Render("OFFLINE"))
	}
	line := strings.Join(parts, "  ")
	return styles.Header.Width(m.width).Render(line)
}

func channelLabel(snap state.Snapshot) string {
	label := snap.ChannelState.String()
	if snap.ChannelState == updates.StatePolling && snap.Transport == updates.TransportPoll {
		label += " (fallback)"
	}
	return label
}

func (m Model) renderBody() string {
	if m.app == "rider" {
		return m.renderRider()
	}
	return m.renderRestaurants()
}

func (m Model) renderRider() string {
	styles := m.theme.Styles()
	snap := m.snapshot

	count := "–"
	if snap.HasCount {
		count = fmt.Sprintf("%d", snap.PendingCount)
	}
	counter := lipgloss.JoinVertical(lipgloss.Center,
		styles.MutedText.Render("pending orders"),
		styles.Count.Render(count),
	)

	status := styles.MutedText.Render("status unknown")
	if snap.HasRiderStatus {
		if snap.RiderOnline {
			status = styles.BadgeStyle("online").Render("ONLINE")
		} else {
			status = styles.BadgeStyle("offline").Render("OFFLINE")
		}
	}

	details := []string{status}
	if !snap.LastUpdated.IsZero() {
		details = append(details, styles.FaintText.Render("updated "+relativeTime(snap.LastUpdated, time.Now())+" via "+string(snap.Transport)))
	}
	if snap.LastError != nil {
		details = append(details, styles.WarningText.Render(truncate(snap.LastError.Error(), m.width-30)))
	}
	details = append(details, m.renderStatusLine())

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Panel.Render(counter),
		"  ",
		lipgloss.JoinVertical(lipgloss.Left, details...),
	)
	return body
}

func (m Model) renderRestaurants() string {
	styles := m.theme.Styles()
	items := m.snapshot.Restaurants

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(fmt.Sprintf("Restaurants (%d)", len(items))))
	b.WriteString("\n")
	if len(items) == 0 {
		b.WriteString(styles.MutedText.Render("none loaded, press r to refresh"))
	}
	for i, r := range items {
		if i == maxRestaurantRows {
			b.WriteString(styles.FaintText.Render(fmt.Sprintf("… and %d more", len(items)-i)))
			break
		}
		open := styles.DangerText.Render("closed")
		if r.IsOpen {
			open = styles.SuccessText.Render("open")
		}
		line := fmt.Sprintf("%-28s %s", truncate(r.Name, 28), open)
		if r.Rating > 0 {
			line += styles.FaintText.Render(fmt.Sprintf("  ★ %.1f", r.Rating))
		}
		b.WriteString(line)
		if i < len(items)-1 {
			b.WriteString("\n")
		}
	}
	if status := m.renderStatusLine(); status != "" {
		b.WriteString("\n")
		b.WriteString(status)
	}
	return styles.Panel.Width(max(m.width-2, 20)).Render(b.String())
}

func (m Model) renderStatusLine() string {
	styles := m.theme.Styles()
	switch {
	case m.busy != "":
		return m.spinner.View() + " " + styles.InfoText.Render(m.busy+"…")
	case m.status != "" && m.statusErr:
		return styles.DangerText.Render(truncate(m.status, m.width-4))
	case m.status != "":
		return styles.SuccessText.Render(m.status)
	}
	return ""
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	title := "Log"
	if !m.follow {
		title += " (paused)"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.MutedText.Render(title),
		m.logs.View(),
	)
}

func (m Model) renderFooter() string {
	return m.theme.Styles().Footer.Render(m.help.View(m.keys))
}

// resizeLogs gives the log pane whatever height the other sections leave.
func (m *Model) resizeLogs() {
	used := lipgloss.Height(m.renderHeader()) +
		lipgloss.Height(m.renderBody()) +
		lipgloss.Height(m.renderFooter()) + 1
	h := m.height - used
	if h < 3 {
		h = 3
	}
	if m.logs.Width == 0 && m.logs.Height == 0 {
		m.logs = viewport.New(m.width, h)
	} else {
		m.logs.Width = m.width
		m.logs.Height = h
	}
	m.refreshLogContent()
}

func (m *Model) refreshLogContent() {
	styles := m.theme.Styles()
	lines := make([]string, 0, len(m.logLines))
	for _, line := range m.logLines {
		lines = append(lines, formatLogLine(styles, logtail.ParseLine(line)))
	}
	m.logs.SetContent(strings.Join(lines, "\n"))
	if m.follow {
		m.logs.GotoBottom()
	}
}

func formatLogLine(styles Styles, e logtail.Entry) string {
	if e.Level == "" {
		return styles.Text.Render(e.Message)
	}
	var level lipgloss.Style
	switch e.Level {
	case "ERROR", "DPANIC", "PANIC", "FATAL":
		level = styles.DangerText
	case "WARN":
		level = styles.WarningText
	case "DEBUG":
		level = styles.InfoText
	default:
		level = styles.SuccessText
	}

	parts := make([]string, 0, 5)
	if !e.Time.IsZero() {
		parts = append(parts, styles.FaintText.Render(e.Time.Local().Format("15:04:05")))
	}
	parts = append(parts, level.Render(fmt.Sprintf("%-5s", e.Level)))
	if e.Logger != "" {
		parts = append(parts, styles.AccentText.Render(e.Logger))
	}
	parts = append(parts, styles.Text.Render(e.Message))
	if e.Fields != "" {
		parts = append(parts, styles.MutedText.Render(e.Fields))
	}
	return strings.Join(parts, " ")
}

func relativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < 5*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return t.Local().Format("15:04")
	}
}

func truncate(s string, n int) string {
	if n <= 1 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
