package memory

import "leasehub/internal/domain/shared/errs"

// versioned describes how a table stores one aggregate type.
type versioned[V any] struct {
	clone      func(V) V
	version    func(V) int64
	setVersion func(V, int64)
}

// change is a staged write. expected is the version the unit observed when
// it first touched the row; zero means the row must not exist yet.
type change[V any] struct {
	value    V
	expected int64
	deleted  bool
}

type changes[K comparable, V any] map[K]*change[V]

// stage records a save or delete of v. It fails when v was read before an
// earlier staged write of the same unit.
func (c changes[K, V]) stage(ops versioned[V], id K, v V, deleted bool) error {
	observed := ops.version(v)
	expected := observed
	if prev, ok := c[id]; ok {
		if prev.deleted || ops.version(prev.value) != observed {
			return errs.ErrConcurrentUpdate
		}
		expected = prev.expected
	}
	if deleted {
		c[id] = &change[V]{value: ops.clone(v), expected: expected, deleted: true}
		return nil
	}
	ops.setVersion(v, observed+1)
	c[id] = &change[V]{value: ops.clone(v), expected: expected}
	return nil
}

// lookup resolves id against staged writes first, then the committed rows.
func (c changes[K, V]) lookup(ops versioned[V], committed map[K]V, id K) (V, bool) {
	var zero V
	if ch, ok := c[id]; ok {
		if ch.deleted {
			return zero, false
		}
		return ops.clone(ch.value), true
	}
	v, ok := committed[id]
	if !ok {
		return zero, false
	}
	return ops.clone(v), true
}

// overlay returns clones of every row visible to the unit that matches keep.
func (c changes[K, V]) overlay(ops versioned[V], committed map[K]V, keep func(V) bool) []V {
	out := make([]V, 0)
	for id, v := range committed {
		if _, staged := c[id]; staged {
			continue
		}
		if keep(v) {
			out = append(out, ops.clone(v))
		}
	}
	for _, ch := range c {
		if !ch.deleted && keep(ch.value) {
			out = append(out, ops.clone(ch.value))
		}
	}
	return out
}

// validate checks every staged write against the committed versions.
func (c changes[K, V]) validate(ops versioned[V], committed map[K]V) error {
	for id, ch := range c {
		current, exists := committed[id]
		if ch.expected == 0 {
			if exists {
				return errs.ErrConcurrentUpdate
			}
			continue
		}
		if !exists || ops.version(current) != ch.expected {
			return errs.ErrConcurrentUpdate
		}
	}
	return nil
}

func (c changes[K, V]) apply(committed map[K]V) {
	for id, ch := range c {
		if ch.deleted {
			delete(committed, id)
			continue
		}
		committed[id] = ch.value
	}
}
