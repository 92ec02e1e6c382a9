package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/parallaxd/internal/engine"
)

// layerItem adapts a layer snapshot to list.Item.
type layerItem struct {
	layer engine.LayerStatus
}

func (i layerItem) Title() string {
	return fmt.Sprintf("#%d %s", i.layer.ID, filepath.Base(i.layer.Path))
}

func (i layerItem) Description() string {
	return fmt.Sprintf("shift x%.2f/%.2f  opacity %.2f", i.layer.Multiplier.X, i.layer.Multiplier.Y, i.layer.Opacity)
}

func (i layerItem) FilterValue() string { return i.layer.Path }

// LayersTab lists the engine's layers with a detail pane for the selection.
type LayersTab struct {
	client Controller
	list   list.Model
	width  int
	height int
}

func NewLayersTab(client Controller) LayersTab {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Layers"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	return LayersTab{client: client, list: l}
}

// SetLayers replaces the list contents, keeping the selection on the same
// layer ID when it still exists.
func (t *LayersTab) SetLayers(layers []engine.LayerStatus) tea.Cmd {
	var selected uint32
	hadSelection := false
	if it, ok := t.list.SelectedItem().(layerItem); ok {
		selected, hadSelection = it.layer.ID, true
	}

	items := make([]list.Item, len(layers))
	idx := 0
	for i, l := range layers {
		items[i] = layerItem{layer: l}
		if hadSelection && l.ID == selected {
			idx = i
		}
	}
	cmd := t.list.SetItems(items)
	if len(items) > 0 {
		t.list.Select(idx)
	}
	return cmd
}

func (t LayersTab) Update(msg tea.Msg) (LayersTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		t.width = msg.Width
		t.height = msg.Height
		t.list.SetSize(t.listWidth(), msg.Height)
		return t, nil
	case tea.KeyMsg:
		if msg.String() == "x" || msg.String() == "delete" {
			it, ok := t.list.SelectedItem().(layerItem)
			if !ok || t.client == nil {
				return t, nil
			}
			client, id := t.client, it.layer.ID
			return t, func() tea.Msg {
				text, err := runCommand(client, fmt.Sprintf("layer remove %d", id))
				return commandResultMsg{text: text, err: err}
			}
		}
	}
	var cmd tea.Cmd
	t.list, cmd = t.list.Update(msg)
	return t, cmd
}

func (t LayersTab) listWidth() int {
	return max(t.width/2, 20)
}

func (t LayersTab) View() string {
	if len(t.list.Items()) == 0 {
		return dimStyle.Render("  no layers loaded")
	}
	detail := ""
	if it, ok := t.list.SelectedItem().(layerItem); ok {
		detail = renderLayerDetail(it.layer)
	}
	left := lipgloss.NewStyle().Width(t.listWidth()).Render(t.list.View())
	right := lipgloss.NewStyle().PaddingLeft(2).Render(detail)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func renderLayerDetail(l engine.LayerStatus) string {
	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}
	rows := []string{
		headerStyle.Render(fmt.Sprintf("Layer %d", l.ID)),
		row("path", l.Path),
		row("multiplier", fmt.Sprintf("%.3f, %.3f", l.Multiplier.X, l.Multiplier.Y)),
		row("opacity", fmt.Sprintf("%.2f", l.Opacity)),
		row("blur", fmt.Sprintf("%.2f", l.Blur)),
		row("invert ws", invertString(l.InvertWorkspace.X, l.InvertWorkspace.Y)),
		row("invert cursor", invertString(l.InvertCursor.X, l.InvertCursor.Y)),
		row("offset", fmt.Sprintf("%.1f, %.1f", l.Offset.X, l.Offset.Y)),
		row("animating", fmt.Sprintf("%t", l.Animating)),
		"",
		dimStyle.Render("x: remove layer"),
	}
	return strings.Join(rows, "\n")
}

func invertString(x, y bool) string {
	var axes []string
	if x {
		axes = append(axes, "x")
	}
	if y {
		axes = append(axes, "y")
	}
	if len(axes) == 0 {
		return "none"
	}
	return strings.Join(axes, "+")
}
