package navigation

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/frahmantamala/appraisal-portal/internal/core/role"
)

//go:embed menu.yaml
var defaultMenu []byte

// Item is one menu entry. An item without roles is shown to every user.
type Item struct {
	Label string   `yaml:"label"`
	Path  string   `yaml:"path"`
	Icon  string   `yaml:"icon"`
	Roles []string `yaml:"roles"`
}

// Link is an item resolved for one user.
type Link struct {
	Label  string
	Path   string
	Icon   string
	Active bool
}

type Menu struct {
	items []Item
}

type document struct {
	Items []Item `yaml:"items"`
}

// Parse reads a menu definition.
func Parse(data []byte) (*Menu, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse menu: %w", err)
	}
	for i, it := range doc.Items {
		if it.Label == "" || !strings.HasPrefix(it.Path, "/") {
			return nil, fmt.Errorf("menu item %d: label and absolute path are required", i)
		}
	}
	return &Menu{items: doc.Items}, nil
}

// Default returns the built-in menu.
func Default() *Menu {
	m, err := Parse(defaultMenu)
	if err != nil {
		panic(err)
	}
	return m
}

// For returns the links visible to roles, in definition order.
func (m *Menu) For(roles role.Set, currentPath string) []Link {
	links := make([]Link, 0, len(m.items))
	for _, it := range m.items {
		if !visible(it, roles) {
			continue
		}
		links = append(links, Link{
			Label:  it.Label,
			Path:   it.Path,
			Icon:   it.Icon,
			Active: active(it.Path, currentPath),
		})
	}
	return links
}

// RolesFor returns the roles of the menu section owning path, the longest
// matching item. Nil means any signed in user may open it.
func (m *Menu) RolesFor(path string) []role.Role {
	var best *Item
	for i := range m.items {
		it := &m.items[i]
		if !active(it.Path, path) {
			continue
		}
		if best == nil || len(it.Path) > len(best.Path) {
			best = it
		}
	}
	if best == nil || len(best.Roles) == 0 {
		return nil
	}
	return role.FromStrings(best.Roles).Slice()
}

func visible(it Item, roles role.Set) bool {
	if len(it.Roles) == 0 {
		return true
	}
	return roles.HasAny(role.FromStrings(it.Roles).Slice()...)
}

func active(itemPath, current string) bool {
	if itemPath == "/" {
		return current == "/"
	}
	return current == itemPath || strings.HasPrefix(current, itemPath+"/")
}
