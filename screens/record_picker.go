package screens

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/riskdesk/core"
	"github.com/jask/riskdesk/widgets"
)

// PickerItem is one record offered by the picker, e.g. a transaction or a
// rule. Section groups items under a heading.
type PickerItem struct {
	ID      string
	Label   string
	Desc    string
	Section string
}

// PickerModal filters records with core.Picker and reports the chosen one
// through onSelected.
type PickerModal struct {
	title      string
	scope      string
	picker     *core.Picker
	allItems   map[string]PickerItem
	onSelected func(PickerItem) tea.Msg
}

func NewPickerModal(title, scope string, items []PickerItem, onSelected func(PickerItem) tea.Msg) *PickerModal {
	listItems := make([]core.PickerItem, 0, len(items))
	all := make(map[string]PickerItem, len(items))
	for _, it := range items {
		all[it.ID] = it
		listItems = append(listItems, core.PickerItem{
			ID:      it.ID,
			Label:   it.Label,
			Section: it.Section,
			Meta:    it.Desc,
			Search:  it.Label + " " + it.Desc,
		})
	}
	return &PickerModal{
		title:      title,
		scope:      scope,
		picker:     core.NewPicker(title, listItems),
		allItems:   all,
		onSelected: onSelected,
	}
}

func (s *PickerModal) Title() string { return s.title }
func (s *PickerModal) Scope() string { return s.scope }

// Items returns the records matching the current query in display order.
func (s *PickerModal) Items() []core.PickerItem { return s.picker.Items() }

func (s *PickerModal) Update(msg tea.Msg) (core.Screen, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil, false
	}
	result := s.picker.HandleKey(keyMsg.String())
	switch result.Action {
	case core.PickerActionCancelled:
		return s, nil, true
	case core.PickerActionSelected:
		item, exists := s.allItems[result.Item.ID]
		if !exists || s.onSelected == nil {
			return s, nil, true
		}
		return s, func() tea.Msg { return s.onSelected(item) }, true
	default:
		return s, nil, false
	}
}

var (
	sectionStyle = lipgloss.NewStyle().Foreground(widgets.ColorMuted).Bold(true)
	cursorStyle  = lipgloss.NewStyle().Foreground(widgets.ColorSelected).Bold(true)
	metaStyle    = lipgloss.NewStyle().Foreground(widgets.ColorMuted)
)

func (s *PickerModal) View(width, height int) string {
	filter := s.picker.Query()
	if filter == "" {
		filter = screenHintStyle.Render("type to filter")
	}
	lines := []string{screenTitleStyle.Render(s.title), "› " + filter, ""}

	items := s.picker.Items()
	if len(items) == 0 {
		lines = append(lines, metaStyle.Render("  No records"))
	}
	// Keep the cursor row on screen when the list is longer than the box.
	room := max(1, height-len(lines)-2)
	cursor := s.picker.Cursor()
	start := max(0, cursor-room+1)
	section := ""
	for idx := start; idx < len(items) && len(lines) < height-2; idx++ {
		item := items[idx]
		if item.Section != section {
			section = item.Section
			if section != "" {
				lines = append(lines, sectionStyle.Render(section))
			}
		}
		prefix := "  "
		label := item.Label
		if idx == cursor {
			prefix = cursorStyle.Render("› ")
			label = cursorStyle.Render(label)
		}
		if item.Meta != "" {
			label += metaStyle.Render("  " + item.Meta)
		}
		lines = append(lines, prefix+label)
	}
	lines = append(lines, "", screenHintStyle.Render("↑/↓ move · enter open · esc cancel"))
	return core.ClipHeight(core.TrimToWidth(strings.Join(lines, "\n"), width), max(6, height))
}
