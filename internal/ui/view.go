package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/spotunisia/internal/player"
)

// View renders the current view with the player bar underneath.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")
	b.WriteString(m.renderBody())
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(styles.warn.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(styles.bar.Width(m.listWidth()).Render(RenderPlayerBar(m.state, m.elapsed, m.duration)))
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(tabs))
	for _, v := range tabs {
		style := styles.tab
		if v == m.view || (m.view == DetailView && v == m.previous) {
			style = styles.active
		}
		parts = append(parts, style.Render(v.String()))
	}
	return strings.Join(parts, " ")
}

func (m *Model) renderBody() string {
	var header string
	if m.view == SearchView {
		header = m.input.View() + "\n\n"
	}

	if m.loading[m.view] {
		return header + fmt.Sprintf("%s Loading %s...", m.spinner.View(), strings.ToLower(m.view.String()))
	}
	if err := m.errs[m.view]; err != nil {
		return header + m.renderNoData()
	}

	switch m.view {
	case HomeView:
		if m.home.Empty() {
			return m.renderNoData()
		}
	case SearchView:
		if m.results == nil {
			return header + styles.help.Render("Press / to search.")
		}
		if m.results.Empty() {
			return header + styles.help.Render(fmt.Sprintf("No results for %q.", m.results.Term))
		}
	case QueueView:
		if m.state.Current == nil && len(m.state.Queue) == 0 {
			return styles.help.Render("Nothing queued. Pick a song to start playing.")
		}
	}

	l, ok := m.lists[m.view]
	if !ok {
		return header
	}
	return header + l.View()
}

func (m *Model) renderNoData() string {
	return styles.err.Render("No data available.") + "\n" + styles.help.Render("Press r to retry.")
}

// RenderPlayerBar draws the persistent player line for state.
func RenderPlayerBar(state player.State, elapsed, duration time.Duration) string {
	volume := fmt.Sprintf("vol %d%%", int(state.Volume*100+0.5))
	if state.Current == nil {
		return styles.help.Render("Nothing playing") + "  " + volume
	}

	icon := "⏸"
	if state.IsPlaying {
		icon = "▶"
	}
	title := styles.ok.Render(state.Current.Title)
	pos := fmt.Sprintf("%s / %s", clockTime(elapsed), clockTime(duration))
	return fmt.Sprintf("%s %s • %s  %s  %s", icon, title, state.Current.Artist.Name, pos, volume)
}

func clockTime(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
