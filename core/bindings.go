package core

import "fmt"

// Action names shared by the router, the footer and the command palette.
const (
	ActionQuit            = "quit"
	ActionJump            = "jump"
	ActionCommandPalette  = "open-command-palette"
	ActionRecordPicker    = "open-record-picker"
	ActionFocusToggle     = "focus-toggle"
	ActionPanelToggle     = "artifact-toggle"
	ActionNewTab          = "artifact-new-tab"
	ActionCloseTab        = "artifact-close-tab"
	ActionBack            = "artifact-back"
	ActionForward         = "artifact-forward"
	ActionNextTab         = "artifact-next-tab"
	ActionPrevTab         = "artifact-prev-tab"
	ActionMoveTabLeft     = "artifact-move-left"
	ActionMoveTabRight    = "artifact-move-right"
	ActionDuplicateTab    = "artifact-duplicate"
	ActionSwitchPagePrefx = "switch-page-"
)

// SwitchPageAction is the action for the page at position n, counted from 1.
func SwitchPageAction(n int) string {
	return fmt.Sprintf("%s%d", ActionSwitchPagePrefx, n)
}

func DefaultKeyBindings() []KeyBinding {
	bindings := []KeyBinding{
		{Keys: []string{"q"}, Action: ActionQuit, Description: "quit", Scopes: []string{"*"}},
		{Keys: []string{"tab"}, Action: ActionFocusToggle, Description: "focus panel", Scopes: []string{"*"}},
		{Keys: []string{"\\"}, Action: ActionPanelToggle, Description: "collapse", Scopes: []string{"*"}},
		{Keys: []string{"ctrl+t"}, Action: ActionNewTab, Description: "new tab", Scopes: []string{"*"}},
		{Keys: []string{"ctrl+w"}, Action: ActionCloseTab, Description: "close tab", Scopes: []string{"*"}},
		{Keys: []string{"["}, Action: ActionBack, Description: "back", Scopes: []string{"*"}},
		{Keys: []string{"]"}, Action: ActionForward, Description: "forward", Scopes: []string{"*"}},
		{Keys: []string{"{"}, Action: ActionPrevTab, Description: "prev tab", Scopes: []string{"*"}, Hidden: true},
		{Keys: []string{"}"}, Action: ActionNextTab, Description: "next tab", Scopes: []string{"*"}, Hidden: true},
		{Keys: []string{"<"}, Action: ActionMoveTabLeft, Description: "move tab left", Scopes: []string{"*"}, Hidden: true},
		{Keys: []string{">"}, Action: ActionMoveTabRight, Description: "move tab right", Scopes: []string{"*"}, Hidden: true},
		{Keys: []string{"ctrl+d"}, Action: ActionDuplicateTab, Description: "duplicate tab", Scopes: []string{"*"}, Hidden: true},
		{Keys: []string{"v"}, Action: ActionJump, Description: "jump", Scopes: []string{"page:*", "pane:*"}},
		{Keys: []string{"left"}, Action: "pane-nav", Description: "pane prev", Scopes: []string{"page:*", "pane:*"}, Hidden: true},
		{Keys: []string{"right"}, Action: "pane-nav", Description: "pane next", Scopes: []string{"page:*", "pane:*"}, Hidden: true},
		{Keys: []string{"enter"}, Action: "pane-focus", Description: "focus pane", Scopes: []string{"page:*"}},
		{Keys: []string{"enter"}, Action: "open-record", Description: "open", Scopes: []string{"pane:records:*"}},
		{Keys: []string{"j", "down"}, Action: "row-down", Description: "row down", Scopes: []string{"pane:records:*"}, Hidden: true},
		{Keys: []string{"k", "up"}, Action: "row-up", Description: "row up", Scopes: []string{"pane:records:*"}, Hidden: true},
		{Keys: []string{"esc"}, Action: "pane-blur", Description: "back", Scopes: []string{"pane:*"}},
		{Keys: []string{"up", "k", "pgup"}, Action: "scroll-up", Description: "scroll", Scopes: []string{ScopeArtifacts}, Hidden: true},
		{Keys: []string{"down", "j", "pgdown"}, Action: "scroll-down", Description: "scroll", Scopes: []string{ScopeArtifacts}, Hidden: true},
		{Keys: []string{"ctrl+k"}, Action: ActionCommandPalette, Description: "commands", Scopes: []string{"*"}},
		{Keys: []string{"ctrl+o"}, Action: ActionRecordPicker, Description: "find record", Scopes: []string{"*"}},
		{Keys: []string{"esc"}, Action: "close", Description: "close", Scopes: []string{"screen:*"}},
		{Keys: []string{"enter"}, Action: "select", Description: "select", Scopes: []string{"screen:*"}},
	}
	for i := 1; i <= 9; i++ {
		bindings = append(bindings, KeyBinding{
			Keys:        []string{fmt.Sprint(i)},
			Action:      SwitchPageAction(i),
			Description: fmt.Sprintf("page %d", i),
			Scopes:      []string{"page:*", "pane:*", ScopeArtifacts},
			Hidden:      true,
		})
	}
	return bindings
}

// ApplyActionKeybindings overrides the keys of bindings whose action appears
// in actionKeys.
func ApplyActionKeybindings(bindings []KeyBinding, actionKeys map[string][]string) []KeyBinding {
	out := make([]KeyBinding, 0, len(bindings))
	for _, b := range bindings {
		next := b
		next.Keys = append([]string(nil), b.Keys...)
		next.Scopes = append([]string(nil), b.Scopes...)
		if keys, ok := actionKeys[b.Action]; ok && len(keys) > 0 {
			next.Keys = append([]string(nil), keys...)
		}
		out = append(out, next)
	}
	return out
}
