// Package reference implements the pull-based value and versioning model
// that every dynamic binding in the runtime is built on.
//
// A Tag represents "the thing that can change". Reading a tag yields a
// Revision; a previously captured Revision can later be validated against
// the tag to learn, without recomputing anything, whether the value behind
// the tag may have changed.
package reference

import (
	"math"
	"sync/atomic"
)

// Revision is a monotonically non-decreasing snapshot of a tag's state.
type Revision uint64

const (
	// ConstantRevision is the value of tags that never change.
	ConstantRevision Revision = 0
	// InitialRevision is the revision every fresh dirtyable tag starts at.
	InitialRevision Revision = 1
	// VolatileRevision is the value of tags that never validate.
	VolatileRevision Revision = math.MaxUint64
)

// clock is the process-wide revision counter. It is the only piece of the
// runtime that is safe for concurrent use.
var clock atomic.Uint64

func init() {
	clock.Store(uint64(InitialRevision))
}

// Current returns the latest revision handed out by the clock.
func Current() Revision {
	return Revision(clock.Load())
}

// Bump advances the clock and returns the new revision.
func Bump() Revision {
	return Revision(clock.Add(1))
}

// Tag is a versioning handle for a mutable dependency.
type Tag interface {
	// Value returns the tag's current revision.
	Value() Revision
	// Validate reports whether nothing behind the tag changed since the
	// given snapshot was taken.
	Validate(snapshot Revision) bool
}

// Value returns tag's current revision. A nil tag is treated as constant.
func Value(tag Tag) Revision {
	if tag == nil {
		return ConstantRevision
	}
	return tag.Value()
}

// Validate reports whether tag is still valid at snapshot. A nil tag is
// treated as constant.
func Validate(tag Tag, snapshot Revision) bool {
	if tag == nil {
		return true
	}
	return tag.Validate(snapshot)
}

// ---------------------------------------------------------------------------
// Constant and volatile tags
// ---------------------------------------------------------------------------

type constantTag struct{}

func (constantTag) Value() Revision           { return ConstantRevision }
func (constantTag) Validate(_ Revision) bool { return true }

// Constant is the tag of values that never change.
var Constant Tag = constantTag{}

// IsConstTag reports whether tag is the constant tag. Callers use it to skip
// recording updating work entirely.
func IsConstTag(tag Tag) bool {
	return tag == nil || tag == Constant
}

type volatileTag struct{}

func (volatileTag) Value() Revision           { return VolatileRevision }
func (volatileTag) Validate(_ Revision) bool { return false }

// Volatile is a tag that never validates. Use it for values that must be
// recomputed on every pass.
var Volatile Tag = volatileTag{}

// ---------------------------------------------------------------------------
// DirtyableTag
// ---------------------------------------------------------------------------

// DirtyableTag is a tag owned by a mutable root value. Dirty must be called
// whenever that value changes.
type DirtyableTag struct {
	revision Revision
}

// NewDirtyableTag creates a tag at the current clock revision.
func NewDirtyableTag() *DirtyableTag {
	return &DirtyableTag{revision: Current()}
}

// Value implements Tag.
func (t *DirtyableTag) Value() Revision {
	return t.revision
}

// Validate implements Tag.
func (t *DirtyableTag) Validate(snapshot Revision) bool {
	return snapshot >= t.revision
}

// Dirty records a change. The new revision strictly exceeds every revision
// captured before the call.
func (t *DirtyableTag) Dirty() {
	t.revision = Bump()
}

// ---------------------------------------------------------------------------
// UpdatableTag
// ---------------------------------------------------------------------------

// UpdatableTag forwards to an inner tag that can be replaced. Replacing the
// inner tag counts as a change.
type UpdatableTag struct {
	inner    Tag
	replaced Revision
}

// NewUpdatableTag wraps inner.
func NewUpdatableTag(inner Tag) *UpdatableTag {
	return &UpdatableTag{inner: inner, replaced: ConstantRevision}
}

// Value implements Tag.
func (t *UpdatableTag) Value() Revision {
	return max(t.replaced, Value(t.inner))
}

// Validate implements Tag.
func (t *UpdatableTag) Validate(snapshot Revision) bool {
	return snapshot >= t.replaced && Validate(t.inner, snapshot)
}

// Update swaps the inner tag.
func (t *UpdatableTag) Update(inner Tag) {
	if inner == t.inner {
		return
	}
	t.inner = inner
	t.replaced = Bump()
}

// ---------------------------------------------------------------------------
// Combinators
// ---------------------------------------------------------------------------

type combinedTag struct {
	tags []Tag
}

func (t *combinedTag) Value() Revision {
	var rev Revision
	for _, tag := range t.tags {
		rev = max(rev, tag.Value())
	}
	return rev
}

func (t *combinedTag) Validate(snapshot Revision) bool {
	for _, tag := range t.tags {
		if !tag.Validate(snapshot) {
			return false
		}
	}
	return true
}

// Combine returns a tag that is invalid whenever any member is. Constant
// members are dropped; if nothing remains the result is Constant.
func Combine(tags ...Tag) Tag {
	var live []Tag
	for _, tag := range tags {
		if IsConstTag(tag) {
			continue
		}
		if tag == Volatile {
			return Volatile
		}
		live = append(live, tag)
	}
	switch len(live) {
	case 0:
		return Constant
	case 1:
		return live[0]
	default:
		return &combinedTag{tags: live}
	}
}
