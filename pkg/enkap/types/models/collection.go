package models

import (
	"slices"

	"github.com/camoo/enkap-go/pkg/enkap/types"
)

// Collection is the ordered list of nested models held by an array field.
// Removing elements marks the owning field of every associated parent dirty.
type Collection struct {
	items      []types.Model
	associated map[string]*Base
}

func NewCollection(items ...types.Model) *Collection {
	return &Collection{
		items:      slices.Clone(items),
		associated: map[string]*Base{},
	}
}

func (c *Collection) associate(field string, parent *Base) {
	c.associated[field] = parent

	for _, m := range c.items {
		if child, ok := m.(baseHolder); ok {
			child.base().associate(field, parent)
		}
	}
}

func (c *Collection) touch() {
	for field, parent := range c.associated {
		parent.MarkDirty(field)
	}
}

func (c *Collection) Len() int {
	return len(c.items)
}

func (c *Collection) Empty() bool {
	return len(c.items) == 0
}

// At returns the element at index, or nil if index is out of range
func (c *Collection) At(index int) types.Model {
	if index < 0 || index >= len(c.items) {
		return nil
	}
	return c.items[index]
}

func (c *Collection) First() types.Model {
	return c.At(0)
}

func (c *Collection) Last() types.Model {
	return c.At(len(c.items) - 1)
}

func (c *Collection) Items() []types.Model {
	return slices.Clone(c.items)
}

func (c *Collection) IndexOf(m types.Model) int {
	for i, item := range c.items {
		if item == m {
			return i
		}
	}
	return -1
}

// Append adds m to the collection and attaches it to the collection's
// parents so later edits of m mark them dirty.
func (c *Collection) Append(m types.Model) {
	if child, ok := m.(baseHolder); ok {
		for field, parent := range c.associated {
			child.base().associate(field, parent)
		}
	}

	c.items = append(c.items, m)
	c.touch()
}

// RemoveAt removes the element at index. Out of range indexes are ignored.
func (c *Collection) RemoveAt(index int) {
	if index < 0 || index >= len(c.items) {
		return
	}

	c.touch()
	c.items = slices.Delete(c.items, index, index+1)
}

func (c *Collection) Remove(m types.Model) {
	c.RemoveAt(c.IndexOf(m))
}

func (c *Collection) RemoveAll() {
	if len(c.items) == 0 {
		return
	}

	c.touch()
	c.items = nil
}
