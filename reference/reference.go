package reference

// Reference is a pure accessor over a value plus the tag describing
// everything that value depends on.
//
// Value must be free of side effects and return equal results between
// invalidations of Tag. Under-reporting dependencies in Tag produces stale
// reads; over-reporting only costs spurious revalidation.
type Reference[T any] interface {
	Value() T
	Tag() Tag
}

// IsConst reports whether ref was declared constant by its producer. The
// runtime trusts the declaration and never re-checks a const reference.
func IsConst[T any](ref Reference[T]) bool {
	return IsConstTag(ref.Tag())
}

// ---------------------------------------------------------------------------
// Constant references
// ---------------------------------------------------------------------------

type constReference[T any] struct {
	value T
}

func (r constReference[T]) Value() T { return r.value }
func (r constReference[T]) Tag() Tag { return Constant }

// Const returns a reference that always yields v.
func Const[T any](v T) Reference[T] {
	return constReference[T]{value: v}
}

// Undefined is the constant nil reference.
var Undefined = Const[any](nil)

// ---------------------------------------------------------------------------
// Cell: a mutable root
// ---------------------------------------------------------------------------

// Cell is a mutable root value with its own dirtyable tag.
type Cell[T any] struct {
	value T
	tag   *DirtyableTag
}

// NewCell creates a cell holding v.
func NewCell[T any](v T) *Cell[T] {
	return &Cell[T]{value: v, tag: NewDirtyableTag()}
}

// Value implements Reference.
func (c *Cell[T]) Value() T {
	return c.value
}

// Tag implements Reference.
func (c *Cell[T]) Tag() Tag {
	return c.tag
}

// Set stores v and dirties the cell's tag.
func (c *Cell[T]) Set(v T) {
	c.value = v
	c.tag.Dirty()
}

// Update applies fn to the current value and stores the result.
func (c *Cell[T]) Update(fn func(T) T) {
	c.Set(fn(c.value))
}

// Invalidate dirties the tag without changing the value.
func (c *Cell[T]) Invalidate() {
	c.tag.Dirty()
}

// ---------------------------------------------------------------------------
// Derived references
// ---------------------------------------------------------------------------

type funcReference[T any] struct {
	tag Tag
	fn  func() T
}

func (r *funcReference[T]) Value() T { return r.fn() }
func (r *funcReference[T]) Tag() Tag { return r.tag }

// Func builds a reference from a compute function and the tag covering
// everything fn reads.
func Func[T any](tag Tag, fn func() T) Reference[T] {
	if tag == nil {
		tag = Constant
	}
	return &funcReference[T]{tag: tag, fn: fn}
}

// Map derives a reference by applying fn to src. The result shares src's tag,
// so mapping a constant reference yields a constant reference.
func Map[T, U any](src Reference[T], fn func(T) U) Reference[U] {
	if IsConst(src) {
		return Const(fn(src.Value()))
	}
	return &funcReference[U]{tag: src.Tag(), fn: func() U { return fn(src.Value()) }}
}

type erased[T any] struct {
	inner Reference[T]
}

func (r erased[T]) Value() any { return r.inner.Value() }
func (r erased[T]) Tag() Tag   { return r.inner.Tag() }

// Erase widens ref to Reference[any] so it can travel on the operand stack.
func Erase[T any](ref Reference[T]) Reference[any] {
	if r, ok := any(ref).(Reference[any]); ok {
		return r
	}
	return erased[T]{inner: ref}
}
