package param

import (
	"errors"
	"fmt"
	"strings"
)

var errDuplicateName = errors.New("param: duplicate name")

// Separator joins path segments.
const Separator = "."

// Group is a named node holding parameters and child groups in insertion
// order.
type Group struct {
	name     string
	params   []Param
	children []*Group
	names    map[string]struct{}
}

// NewGroup returns an empty group.
func NewGroup(name string) *Group {
	return &Group{name: name, names: make(map[string]struct{})}
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// Add registers parameters. Names must be unique within the group and must
// not contain the separator.
func (g *Group) Add(params ...Param) error {
	for _, p := range params {
		if err := g.claim(p.Name()); err != nil {
			return err
		}

		g.params = append(g.params, p)
	}

	return nil
}

// AddGroup registers child groups under the same uniqueness rule.
func (g *Group) AddGroup(children ...*Group) error {
	for _, c := range children {
		if err := g.claim(c.name); err != nil {
			return err
		}

		g.children = append(g.children, c)
	}

	return nil
}

// MustAdd is like Add but panics on error.
func (g *Group) MustAdd(params ...Param) *Group {
	if err := g.Add(params...); err != nil {
		panic(err.Error())
	}

	return g
}

// MustAddGroup is like AddGroup but panics on error.
func (g *Group) MustAddGroup(children ...*Group) *Group {
	if err := g.AddGroup(children...); err != nil {
		panic(err.Error())
	}

	return g
}

func (g *Group) claim(name string) error {
	if name == "" || strings.Contains(name, Separator) {
		return fmt.Errorf("param: invalid name %q in group %q", name, g.name)
	}

	if _, exists := g.names[name]; exists {
		return fmt.Errorf("%w: %s in group %q", errDuplicateName, name, g.name)
	}

	g.names[name] = struct{}{}

	return nil
}

func (g *Group) param(name string) Param {
	for _, p := range g.params {
		if p.Name() == name {
			return p
		}
	}

	return nil
}

func (g *Group) child(name string) *Group {
	for _, c := range g.children {
		if c.name == name {
			return c
		}
	}

	return nil
}

// Tree resolves dotted paths against a set of top-level groups.
type Tree struct {
	root *Group
}

// NewTree returns a tree over the given top-level groups.
func NewTree(groups ...*Group) (*Tree, error) {
	root := NewGroup("")
	if err := root.AddGroup(groups...); err != nil {
		return nil, err
	}

	return &Tree{root: root}, nil
}

// Lookup resolves path to a parameter.
func (t *Tree) Lookup(path string) (Param, error) {
	segments := strings.Split(path, Separator)
	g := t.root

	for _, seg := range segments[:len(segments)-1] {
		g = g.child(seg)
		if g == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPath, path)
		}
	}

	p := g.param(segments[len(segments)-1])
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}

	return p, nil
}

// Get returns the formatted value at path.
func (t *Tree) Get(path string) (string, error) {
	p, err := t.Lookup(path)
	if err != nil {
		return "", err
	}

	return p.Format(), nil
}

// Set parses value and applies it to the parameter at path.
func (t *Tree) Set(path, value string) error {
	p, err := t.Lookup(path)
	if err != nil {
		return err
	}

	return p.Parse(value)
}

// Paths returns every parameter path, depth first in insertion order.
func (t *Tree) Paths() []string {
	var paths []string
	for _, g := range t.root.children {
		paths = collect(paths, g, g.name)
	}

	return paths
}

// Groups returns the names of the top-level groups.
func (t *Tree) Groups() []string {
	names := make([]string, len(t.root.children))
	for i, g := range t.root.children {
		names[i] = g.name
	}

	return names
}

func collect(paths []string, g *Group, prefix string) []string {
	for _, p := range g.params {
		paths = append(paths, prefix+Separator+p.Name())
	}

	for _, c := range g.children {
		paths = collect(paths, c, prefix+Separator+c.name)
	}

	return paths
}
