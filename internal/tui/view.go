package tui

import (
	"fmt"
	"strings"

	"flexchat/internal/widget"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// three content lines plus the border
const compactPanelHeight = 5

// View implements tea.Model.
func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "Starting flexchat…\n"
	}

	chat := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.typingView(),
		m.inputView(),
		m.counterView(),
	)

	body := chat
	layout := m.snap.Layout
	switch {
	case layout.ConfigCollapsed:
	case layout.CompactToggleVisible:
		body = lipgloss.JoinVertical(lipgloss.Left, m.compactPanelView(m.width), chat)
	default:
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.panelView(panelWidth), chat)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.formatter.Status(m.snap.Status, m.width),
		body,
		m.helpView(),
	)
}

func (m Model) headerView() string {
	theme := m.formatter.Theme()
	title := theme.Accent.Render("flexchat")
	toggle := theme.Muted.Render(m.snap.Layout.ToggleIcon + " settings")
	summary := theme.Muted.Render(m.snap.Config.Summary())

	left := title + "  " + toggle
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(summary)
	if gap < 2 {
		return ansi.Truncate(left, m.width, "…")
	}
	return left + strings.Repeat(" ", gap) + summary
}

func (m Model) typingView() string {
	if !m.snap.UI.IsTyping {
		return ""
	}
	return m.formatter.Typing(m.spinner.View())
}

func (m Model) inputView() string {
	return m.boxStyle().Render(m.textarea.View())
}

func (m Model) helpView() string {
	if m.editingContext {
		return m.help.View(m.contextKeys)
	}
	return m.help.View(m.keys)
}

func (m Model) counterView() string {
	if m.editingContext {
		note := m.formatter.Theme().Accent.Render("Editing initial context")
		return lipgloss.PlaceHorizontal(m.viewport.Width, lipgloss.Right, note)
	}
	return lipgloss.PlaceHorizontal(m.viewport.Width, lipgloss.Right, m.formatter.CharCount(m.snap.CharCount))
}

func (m Model) boxStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.formatter.Theme().Border.GetForeground())
}

// panelView renders the full settings panel at the given outer width.
func (m Model) panelView(width int) string {
	theme := m.formatter.Theme()
	cfg := m.snap.Config
	inner := width - 4

	var b strings.Builder
	b.WriteString(theme.Accent.Render("Settings") + "\n\n")

	b.WriteString(theme.Muted.Render("Model") + "\n")
	if len(m.snap.Models) == 0 {
		b.WriteString("  " + theme.Warning.Render("no models available") + "\n")
	}
	for _, opt := range m.snap.Models {
		marker, label := "○", opt.Label
		if opt.ID == cfg.SelectedModel {
			marker, label = "●", theme.Selected.Render(opt.Label)
		}
		fmt.Fprintf(&b, "  %s %s\n", marker, label)
	}

	b.WriteString("\n" + theme.Muted.Render("Memory") + "\n")
	fmt.Fprintf(&b, "  %s\n", memoryLabel(cfg.MemoryMode))

	b.WriteString("\n" + theme.Muted.Render("Initial context") + "\n")
	fmt.Fprintf(&b, "  %s\n", ansi.Truncate(contextLabel(cfg.InitialContext), inner-2, "…"))

	b.WriteString("\n" + theme.Muted.Render("Use context persistently") + "\n")
	fmt.Fprintf(&b, "  %s\n", onOff(cfg.UseContextPersistently))

	b.WriteString("\n" + theme.Muted.Render("Session") + "\n")
	b.WriteString("  " + ansi.Truncate(m.snap.SessionID, inner-2, "…"))

	return m.boxStyle().
		Width(width - 2).
		Padding(0, 1).
		Height(m.viewport.Height + inputHeight + 2).
		Render(b.String())
}

// compactPanelView renders the settings as three lines stacked above the chat.
func (m Model) compactPanelView(width int) string {
	theme := m.formatter.Theme()
	cfg := m.snap.Config
	inner := max(width-4, 1)

	model, ok := widget.LabelFor(cfg.SelectedModel)
	if !ok {
		model = string(cfg.SelectedModel)
	}
	lines := []string{
		theme.Muted.Render("Model ") + theme.Selected.Render(model),
		theme.Muted.Render("Memory ") + memoryLabel(cfg.MemoryMode) +
			theme.Muted.Render("  Persistent ") + onOff(cfg.UseContextPersistently),
		theme.Muted.Render("Context ") + contextLabel(cfg.InitialContext),
	}
	for i, line := range lines {
		lines[i] = ansi.Truncate(line, inner, "…")
	}

	return m.boxStyle().
		Width(width - 2).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

func memoryLabel(mode widget.MemoryMode) string {
	if mode == widget.MemoryMemoryless {
		return "Memoryless"
	}
	return "Active"
}

func contextLabel(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "(none)"
	}
	return text
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
