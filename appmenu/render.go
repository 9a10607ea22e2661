package appmenu

import (
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
)

// Actions receives menu activations from the rendered menu.
type Actions interface {
	// Dispatch is called with the id of a clicked text item.
	Dispatch(id string)
	About()
	Hide()
	HideOthers()
	Quit()
}

// Render converts the descriptor into a Wails menu for the given GOOS.
// On darwin an App submenu made only of predefined entries becomes the
// native app menu role; elsewhere those entries become text items.
func Render(m *Menu, goos string, actions Actions) *menu.Menu {
	root := menu.NewMenu()
	for _, it := range m.Items {
		if it.Kind == KindSubmenu && goos == "darwin" && onlyPredefined(it.Items) {
			root.Append(menu.AppMenu())
			continue
		}
		if r := renderItem(it, goos, actions); r != nil {
			root.Append(r)
		}
	}
	return root
}

func onlyPredefined(items []*Item) bool {
	for _, it := range items {
		switch it.Kind {
		case KindAboutMetadata, KindHide, KindHideOthers, KindQuit, KindSeparator:
		default:
			return false
		}
	}
	return true
}

func renderItem(it *Item, goos string, actions Actions) *menu.MenuItem {
	switch it.Kind {
	case KindSeparator:
		return menu.Separator()

	case KindSubmenu:
		sub := menu.NewMenu()
		for _, child := range it.Items {
			if r := renderItem(child, goos, actions); r != nil {
				sub.Append(r)
			}
		}
		return menu.SubMenu(it.Label, sub)

	case KindText:
		id := it.ID
		return menu.Text(it.Label, it.Accelerator, func(_ *menu.CallbackData) {
			actions.Dispatch(id)
		})

	case KindAboutMetadata:
		return menu.Text("About", nil, func(_ *menu.CallbackData) {
			actions.About()
		})

	case KindHide:
		return menu.Text("Hide", keys.CmdOrCtrl("h"), func(_ *menu.CallbackData) {
			actions.Hide()
		})

	case KindHideOthers:
		// Hiding other applications only exists on macOS.
		if goos != "darwin" {
			return nil
		}
		return menu.Text("Hide Others", keys.Combo("h", keys.CmdOrCtrlKey, keys.OptionOrAltKey), func(_ *menu.CallbackData) {
			actions.HideOthers()
		})

	case KindQuit:
		return menu.Text("Quit", keys.CmdOrCtrl("q"), func(_ *menu.CallbackData) {
			actions.Quit()
		})
	}
	return nil
}
