package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/parallaxd/internal/config"
	"github.com/1broseidon/parallaxd/internal/engine"
)

const (
	pollInterval = 250 * time.Millisecond
	noticeTTL    = 4 * time.Second
)

type tickMsg time.Time

type statusMsg struct {
	status *engine.Status
	err    error
}

type clearNoticeMsg struct{ seq int }

// model is the root bubbletea model for the TUI.
type model struct {
	configPath string
	cfg        *config.Config
	loadErr    error
	client     Controller

	activeTab   Tab
	statusTab   StatusTab
	layersTab   LayersTab
	settingsTab SettingsTab

	original    *config.Config
	saveOverlay SaveOverlay

	status  *engine.Status
	connErr error

	notice    string
	noticeSeq int

	width  int
	height int
}

func newModel(configPath string, client Controller) model {
	m := model{
		configPath: configPath,
		client:     client,
		activeTab:  TabStatus,
	}
	m.loadConfig()
	m.original = cloneConfig(m.cfg)
	m.statusTab = NewStatusTab(client)
	m.layersTab = NewLayersTab(client)
	m.settingsTab = NewSettingsTab(m.cfg)
	return m
}

func (m *model) loadConfig() {
	var res *config.LoadResult
	var err error
	if m.configPath == "" {
		res, err = config.LoadWithSources()
	} else {
		res, err = config.LoadFromPath(m.configPath)
	}
	if err != nil {
		m.loadErr = err
		return
	}
	m.cfg = res.Config
}

func (m model) saveConfig() error {
	if m.configPath == "" {
		return m.cfg.Save()
	}
	return m.cfg.SaveTo(m.configPath)
}

func pollStatus(c Controller) tea.Cmd {
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		s, err := c.GetStatus()
		return statusMsg{status: s, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *model) setNotice(text string) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	seq := m.noticeSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg { return clearNoticeMsg{seq: seq} })
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(pollStatus(m.client), tick())
}

func (m model) capturing() bool {
	return (m.activeTab == TabStatus && m.statusTab.prompting) ||
		(m.activeTab == TabSettings && m.settingsTab.editing)
}

func (m *model) resize(w, h int) {
	m.width, m.height = w, h
	sub := tea.WindowSizeMsg{Width: w, Height: max(h-4, 1)}
	m.statusTab, _ = m.statusTab.Update(sub)
	m.layersTab, _ = m.layersTab.Update(sub)
	m.settingsTab, _ = m.settingsTab.Update(sub)
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Background messages are handled regardless of focus.
	switch msg := msg.(type) {
	case tickMsg:
		return m, tea.Batch(pollStatus(m.client), tick())
	case statusMsg:
		m.connErr = msg.err
		if msg.err != nil {
			m.status = nil
			m.statusTab.SetStatus(nil)
			return m, nil
		}
		m.status = msg.status
		m.statusTab.SetStatus(msg.status)
		cmd := m.layersTab.SetLayers(msg.status.Layers)
		return m, cmd
	case commandResultMsg:
		if msg.err != nil {
			cmd := m.setNotice("error: " + msg.err.Error())
			return m, cmd
		}
		cmd := m.setNotice(msg.text)
		return m, tea.Batch(cmd, pollStatus(m.client))
	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	}

	km, isKey := msg.(tea.KeyMsg)
	if isKey && km.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.saveOverlay.Active() {
		var reload func() error
		if m.client != nil && m.connErr == nil {
			reload = m.client.Reload
		}
		m.saveOverlay = m.saveOverlay.Update(msg, m.saveConfig, reload)
		if m.saveOverlay.Saved() {
			m.original = cloneConfig(m.cfg)
		}
		return m, nil
	}

	if isKey && km.String() == "ctrl+s" {
		if m.cfg != nil {
			m.saveOverlay.Show(m.original, m.cfg)
		}
		return m, nil
	}

	if !m.capturing() && isKey {
		switch km.String() {
		case "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil
		case "1":
			m.activeTab = TabStatus
			return m, nil
		case "2":
			m.activeTab = TabLayers
			return m, nil
		case "3":
			m.activeTab = TabSettings
			return m, nil
		case "p":
			if m.client != nil && m.status != nil {
				line := "pause"
				if m.status.Paused {
					line = "resume"
				}
				client := m.client
				return m, func() tea.Msg {
					text, err := runCommand(client, line)
					return commandResultMsg{text: text, err: err}
				}
			}
		}
	}

	var cmd tea.Cmd
	switch m.activeTab {
	case TabStatus:
		m.statusTab, cmd = m.statusTab.Update(msg)
	case TabLayers:
		m.layersTab, cmd = m.layersTab.Update(msg)
	case TabSettings:
		m.settingsTab, cmd = m.settingsTab.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.status, m.connErr, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	notice := m.notice
	if m.loadErr != nil && notice == "" {
		notice = "config: " + m.loadErr.Error()
	}
	helpBar := renderHelpBar(m.width, notice)

	used := lipgloss.Height(statusBar) + lipgloss.Height(tabBar) + lipgloss.Height(helpBar)
	contentHeight := max(m.height-used, 1)

	var content string
	if m.saveOverlay.Active() {
		content = m.saveOverlay.View(m.width, contentHeight)
	} else {
		switch m.activeTab {
		case TabStatus:
			content = m.statusTab.View()
		case TabLayers:
			content = m.layersTab.View()
		case TabSettings:
			content = m.settingsTab.View()
		}
		content = lipgloss.NewStyle().Height(contentHeight).MaxHeight(contentHeight).Render(content)
	}

	return lipgloss.JoinVertical(lipgloss.Left, statusBar, tabBar, content, helpBar)
}
