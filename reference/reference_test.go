package reference

import "testing"

// ---------------------------------------------------------------------------
// Tag tests
// ---------------------------------------------------------------------------

func TestConstantTagAlwaysValidates(t *testing.T) {
	for _, rev := range []Revision{ConstantRevision, InitialRevision, Current(), Bump()} {
		if !Validate(Constant, rev) {
			t.Errorf("Validate(Constant, %d) = false, want true", rev)
		}
	}
	if !IsConstTag(Constant) {
		t.Error("IsConstTag(Constant) = false")
	}
	if IsConstTag(NewDirtyableTag()) {
		t.Error("IsConstTag(dirtyable) = true")
	}
}

func TestDirtyableTagMonotonic(t *testing.T) {
	tag := NewDirtyableTag()
	snapshot := Value(tag)

	for i := 0; i < 3; i++ {
		if !Validate(tag, snapshot) {
			t.Fatalf("read %d: tag invalid before any change", i)
		}
	}

	tag.Dirty()
	if Validate(tag, snapshot) {
		t.Fatal("tag still valid after Dirty")
	}
	if Value(tag) <= snapshot {
		t.Errorf("Value after Dirty = %d, want > %d", Value(tag), snapshot)
	}

	snapshot = Value(tag)
	if !Validate(tag, snapshot) {
		t.Error("fresh snapshot should validate")
	}
}

func TestDirtyStrictlyExceedsEarlierSnapshots(t *testing.T) {
	a := NewDirtyableTag()
	b := NewDirtyableTag()
	b.Dirty()
	bSnap := Value(b)

	a.Dirty()
	if Value(a) <= bSnap {
		t.Errorf("later Dirty produced revision %d, not above %d", Value(a), bSnap)
	}
}

func TestVolatileNeverValidates(t *testing.T) {
	if Validate(Volatile, Value(Volatile)) {
		t.Error("Volatile validated")
	}
}

func TestCombine(t *testing.T) {
	if Combine() != Constant {
		t.Error("Combine() should be Constant")
	}
	if Combine(Constant, Constant) != Constant {
		t.Error("Combine of constants should be Constant")
	}

	a := NewDirtyableTag()
	if Combine(Constant, a) != Tag(a) {
		t.Error("Combine with a single live tag should return it")
	}

	b := NewDirtyableTag()
	c := Combine(a, b)
	snap := Value(c)
	if !Validate(c, snap) {
		t.Fatal("combined tag invalid before change")
	}
	b.Dirty()
	if Validate(c, snap) {
		t.Error("combined tag valid after member change")
	}
	if Combine(a, Volatile) != Volatile {
		t.Error("Combine with Volatile should be Volatile")
	}
}

func TestUpdatableTag(t *testing.T) {
	inner := NewDirtyableTag()
	tag := NewUpdatableTag(inner)
	snap := Value(tag)

	tag.Update(inner)
	if !Validate(tag, snap) {
		t.Error("updating to the same inner tag should not invalidate")
	}

	other := NewDirtyableTag()
	tag.Update(other)
	if Validate(tag, snap) {
		t.Error("replacing inner tag should invalidate")
	}

	snap = Value(tag)
	other.Dirty()
	if Validate(tag, snap) {
		t.Error("inner change should invalidate")
	}
}

// ---------------------------------------------------------------------------
// Reference tests
// ---------------------------------------------------------------------------

func TestConstReference(t *testing.T) {
	ref := Const("x")
	if !IsConst(ref) {
		t.Error("Const reference not const")
	}
	if ref.Value() != "x" {
		t.Errorf("Value = %q, want x", ref.Value())
	}
}

func TestCellSet(t *testing.T) {
	cell := NewCell("a")
	if IsConst[string](cell) {
		t.Fatal("cell reported const")
	}
	snap := Value(cell.Tag())
	cell.Set("b")
	if cell.Value() != "b" {
		t.Errorf("Value = %q, want b", cell.Value())
	}
	if Validate(cell.Tag(), snap) {
		t.Error("tag valid after Set")
	}

	cell.Update(func(s string) string { return s + "c" })
	if cell.Value() != "bc" {
		t.Errorf("Value = %q, want bc", cell.Value())
	}
}

func TestMap(t *testing.T) {
	cell := NewCell(2)
	doubled := Map[int, int](cell, func(v int) int { return v * 2 })
	if doubled.Value() != 4 {
		t.Errorf("Value = %d, want 4", doubled.Value())
	}
	if doubled.Tag() != cell.Tag() {
		t.Error("mapped reference should share the source tag")
	}
	cell.Set(5)
	if doubled.Value() != 10 {
		t.Errorf("Value = %d, want 10", doubled.Value())
	}

	if !IsConst(Map(Const(1), func(v int) string { return "n" })) {
		t.Error("mapping a const reference should stay const")
	}
}

func TestErase(t *testing.T) {
	cell := NewCell("v")
	ref := Erase[string](cell)
	if ref.Value() != "v" {
		t.Errorf("Value = %v, want v", ref.Value())
	}
	if ref.Tag() != cell.Tag() {
		t.Error("erased reference should keep the tag")
	}
	if got := Erase(Undefined); got != Undefined {
		t.Error("erasing a Reference[any] should return it unchanged")
	}
}

// ---------------------------------------------------------------------------
// Cache tests
// ---------------------------------------------------------------------------

type countingRef struct {
	cell  *Cell[string]
	calls int
}

func (r *countingRef) Value() string {
	r.calls++
	return r.cell.Value()
}

func (r *countingRef) Tag() Tag { return r.cell.Tag() }

func TestCachePeekComputesOnce(t *testing.T) {
	ref := &countingRef{cell: NewCell("a")}
	cache := NewCache[string](ref)

	for i := 0; i < 3; i++ {
		if got := cache.Peek(); got != "a" {
			t.Fatalf("Peek = %q, want a", got)
		}
	}
	if ref.calls != 1 {
		t.Errorf("reference computed %d times, want 1", ref.calls)
	}
}

func TestCacheRevalidate(t *testing.T) {
	ref := &countingRef{cell: NewCell("a")}
	cache := NewCache[string](ref)
	cache.Peek()

	if _, changed := cache.Revalidate(); changed {
		t.Error("Revalidate reported change with valid tag")
	}
	if ref.calls != 1 {
		t.Errorf("valid tag caused recomputation (%d calls)", ref.calls)
	}

	ref.cell.Invalidate()
	if v, changed := cache.Revalidate(); changed || v != "a" {
		t.Errorf("Revalidate after invalidate-without-change = (%q, %v), want (a, false)", v, changed)
	}

	ref.cell.Set("b")
	v, changed := cache.Revalidate()
	if !changed || v != "b" {
		t.Errorf("Revalidate = (%q, %v), want (b, true)", v, changed)
	}
	if cache.Peek() != "b" {
		t.Errorf("Peek after revalidate = %q, want b", cache.Peek())
	}
}

func TestCacheRevalidateFirstUse(t *testing.T) {
	cache := NewCache(Const(7))
	v, changed := cache.Revalidate()
	if !changed || v != 7 {
		t.Errorf("first Revalidate = (%d, %v), want (7, true)", v, changed)
	}
}

func TestCacheUncomparableValues(t *testing.T) {
	cell := NewCell[any]([]string{"a"})
	cache := NewCache(Erase[any](cell))
	cache.Peek()

	cell.Set([]string{"b"})
	v, changed := cache.Revalidate()
	if !changed {
		t.Error("Revalidate on a new slice reported no change")
	}
	if got := v.([]string); len(got) != 1 || got[0] != "b" {
		t.Errorf("Revalidate = %v, want [b]", v)
	}

	// Same slice again: still reported, since slices cannot be compared.
	cell.Invalidate()
	if _, changed := cache.Revalidate(); !changed {
		t.Error("uncomparable value should count as changed")
	}
}

func TestSame(t *testing.T) {
	type pair struct{ a, b any }
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"both nil", nil, nil, true},
		{"one nil", nil, "x", false},
		{"equal strings", "x", "x", true},
		{"different types", 1, int64(1), false},
		{"slices", []int{1}, []int{1}, false},
		{"maps", map[string]int{}, map[string]int{}, false},
		{"struct holding slice", pair{[]int{1}, 2}, pair{[]int{1}, 2}, false},
		{"comparable struct", pair{1, "x"}, pair{1, "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Same(tt.a, tt.b); got != tt.want {
				t.Errorf("Same(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
