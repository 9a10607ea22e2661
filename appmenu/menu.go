// Package appmenu builds the application menu as a plain descriptor tree and
// renders it into a Wails menu. Keeping the tree separate from the toolkit
// lets the structure be inspected without a running window.
package appmenu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wailsapp/wails/v2/pkg/menu/keys"
)

// Stable identifiers other layers may depend on.
const (
	MenuID  = "menu"
	AboutID = "about"
	OpenID  = "open"
)

var (
	ErrEmptyID     = errors.New("menu item id cannot be empty")
	ErrEmptyLabel  = errors.New("menu item label cannot be empty")
	ErrDuplicateID = errors.New("duplicate menu item id")
)

// Kind tells the renderer how to realise an item.
type Kind int

const (
	KindText Kind = iota
	KindSeparator
	KindSubmenu
	// Predefined entries, the equivalent of the platform's app menu.
	KindAboutMetadata
	KindHide
	KindHideOthers
	KindQuit
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindSeparator:
		return "separator"
	case KindSubmenu:
		return "submenu"
	case KindAboutMetadata:
		return "about-metadata"
	case KindHide:
		return "hide"
	case KindHideOthers:
		return "hide-others"
	case KindQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Item is one node of the menu tree. Only KindText items carry an ID and
// dispatch clicks; KindSubmenu items carry children.
type Item struct {
	ID          string
	Label       string
	Accelerator *keys.Accelerator
	Kind        Kind
	Items       []*Item
}

// NewItem constructs a clickable text item. accelerator may be empty.
func NewItem(id, label, accelerator string) (*Item, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrEmptyID
	}
	if strings.TrimSpace(label) == "" {
		return nil, ErrEmptyLabel
	}

	item := &Item{ID: id, Label: label, Kind: KindText}
	if accelerator != "" {
		acc, err := keys.Parse(accelerator)
		if err != nil {
			return nil, fmt.Errorf("menu item %q: invalid accelerator %q: %w", id, accelerator, err)
		}
		item.Accelerator = acc
	}
	return item, nil
}

// Separator returns a separator entry.
func Separator() *Item {
	return &Item{Kind: KindSeparator}
}

func predefined(kind Kind) *Item {
	return &Item{Kind: kind}
}

// NewSubmenu groups items under label.
func NewSubmenu(label string, items ...*Item) (*Item, error) {
	if strings.TrimSpace(label) == "" {
		return nil, ErrEmptyLabel
	}
	for _, it := range items {
		if it == nil {
			return nil, fmt.Errorf("submenu %q: nil item", label)
		}
	}
	return &Item{Label: label, Kind: KindSubmenu, Items: items}, nil
}

// Menu is the built, immutable application menu.
type Menu struct {
	ID    string
	Items []*Item

	// About is constructed alongside the other items but is not attached to
	// any submenu; the App submenu uses the platform about entry instead.
	About *Item
}

// Find returns the attached item with the given id.
func (m *Menu) Find(id string) (*Item, bool) {
	var walk func(items []*Item) *Item
	walk = func(items []*Item) *Item {
		for _, it := range items {
			if it.Kind == KindText && it.ID == id {
				return it
			}
			if found := walk(it.Items); found != nil {
				return found
			}
		}
		return nil
	}
	it := walk(m.Items)
	return it, it != nil
}

// Submenu returns the top-level submenu with the given label.
func (m *Menu) Submenu(label string) (*Item, bool) {
	for _, it := range m.Items {
		if it.Kind == KindSubmenu && it.Label == label {
			return it, true
		}
	}
	return nil, false
}

// IDs lists the ids of every attached clickable item in tree order.
func (m *Menu) IDs() []string {
	var ids []string
	var walk func(items []*Item)
	walk = func(items []*Item) {
		for _, it := range items {
			if it.Kind == KindText {
				ids = append(ids, it.ID)
			}
			walk(it.Items)
		}
	}
	walk(m.Items)
	return ids
}

func newMenu(id string, items ...*Item) (*Menu, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrEmptyID
	}
	m := &Menu{ID: id, Items: items}

	seen := map[string]bool{id: true}
	for _, itemID := range m.IDs() {
		if seen[itemID] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, itemID)
		}
		seen[itemID] = true
	}
	return m, nil
}

// Build constructs the application menu: an App submenu made of the
// platform entries and a File submenu holding Open.
func Build() (*Menu, error) {
	aboutItem, err := NewItem(AboutID, "About", "CmdOrCtrl+A")
	if err != nil {
		return nil, err
	}

	openItem, err := NewItem(OpenID, "Open", "CmdOrCtrl+O")
	if err != nil {
		return nil, err
	}

	appSubmenu, err := NewSubmenu("App",
		predefined(KindAboutMetadata),
		Separator(),
		predefined(KindHide),
		predefined(KindHideOthers),
		predefined(KindQuit),
	)
	if err != nil {
		return nil, err
	}

	fileSubmenu, err := NewSubmenu("File",
		openItem,
		Separator(),
	)
	if err != nil {
		return nil, err
	}

	m, err := newMenu(MenuID, appSubmenu, fileSubmenu)
	if err != nil {
		return nil, err
	}
	m.About = aboutItem
	return m, nil
}
