package store

import "github.com/afcommunity/fieldmap/internal/entity"

// Collection is an append-only list of records with a key index kept in
// step with every append. When two records share a key the index points at
// the first, matching entity.Resolve.
type Collection[T entity.Record] struct {
	items []T
	index map[string]int
}

// NewCollection builds a collection from items in order.
func NewCollection[T entity.Record](items ...T) *Collection[T] {
	c := &Collection[T]{}
	c.Replace(items)
	return c
}

// Append adds item at the end. It reports false when the key was already
// present; the item is still appended.
func (c *Collection[T]) Append(item T) bool {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	c.items = append(c.items, item)
	key := item.Key()
	if _, exists := c.index[key]; exists {
		return false
	}
	c.index[key] = len(c.items) - 1
	return true
}

// Replace discards the current contents and returns the number of
// duplicate keys found in items.
func (c *Collection[T]) Replace(items []T) int {
	c.items = make([]T, 0, len(items))
	c.index = make(map[string]int, len(items))
	dups := 0
	for _, item := range items {
		if !c.Append(item) {
			dups++
		}
	}
	return dups
}

// Get returns the record indexed under key.
func (c *Collection[T]) Get(key string) (T, bool) {
	i, ok := c.index[key]
	if !ok {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

// Update applies fn to the record indexed under key in place.
func (c *Collection[T]) Update(key string, fn func(*T)) bool {
	i, ok := c.index[key]
	if !ok {
		return false
	}
	fn(&c.items[i])
	return true
}

// Len returns the number of records, duplicates included.
func (c *Collection[T]) Len() int {
	return len(c.items)
}

// All returns a copy of the records in append order.
func (c *Collection[T]) All() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}
