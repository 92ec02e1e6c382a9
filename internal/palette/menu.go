package palette

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MenuItem is a leaf action or a submenu.
type MenuItem struct {
	Label   string
	Action  string
	Icon    string
	Active  bool
	Header  bool
	Submenu []MenuItem
}

const (
	actionBack    = "__back__"
	submenuPrefix = "__submenu__:"
)

// Menu walks a MenuItem tree through a Backend.
type Menu struct {
	backend Backend
	root    []MenuItem
	prompt  string
	message string
}

func NewMenu(backend Backend, prompt string, items []MenuItem) *Menu {
	return &Menu{backend: backend, root: items, prompt: prompt}
}

// SetMessage sets the line rofi shows above the rows.
func (m *Menu) SetMessage(msg string) { m.message = msg }

// Show returns the Action of the chosen leaf or ErrCancelled.
func (m *Menu) Show() (string, error) {
	return m.level(m.root, m.prompt, false)
}

func (m *Menu) level(items []MenuItem, prompt string, nested bool) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("menu: no items to show")
	}
	rows := m.rows(items, nested)
	for {
		picked, err := m.backend.Show(prompt, rows, m.message)
		if err != nil {
			return "", err
		}
		switch {
		case picked.IsHeader:
			continue // launchers that cannot disable rows
		case picked.Action == actionBack:
			return "", ErrCancelled
		case strings.HasPrefix(picked.Action, submenuPrefix):
			idx, err := strconv.Atoi(strings.TrimPrefix(picked.Action, submenuPrefix))
			if err != nil || idx < 0 || idx >= len(items) {
				continue
			}
			action, err := m.level(items[idx].Submenu, items[idx].Label, true)
			if errors.Is(err, ErrCancelled) {
				continue
			}
			return action, err
		default:
			return picked.Action, nil
		}
	}
}

func (m *Menu) rows(items []MenuItem, nested bool) []Item {
	rows := make([]Item, 0, len(items)+1)
	if nested {
		rows = append(rows, Item{Label: "← Back", Action: actionBack, Icon: "go-previous"})
	}
	for i, it := range items {
		row := Item{Label: it.Label, Action: it.Action, Icon: it.Icon, IsActive: it.Active, IsHeader: it.Header}
		if len(it.Submenu) > 0 {
			row.Label += " →"
			row.Action = submenuPrefix + strconv.Itoa(i)
			if row.Icon == "" {
				row.Icon = "folder"
			}
		}
		rows = append(rows, row)
	}
	return rows
}
