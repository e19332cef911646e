package resolver

import (
	"errors"
	"testing"

	"github.com/chazu/filament/vm"
)

type testComponent struct{ name string }

func fixture(t *testing.T) (*Modules, *ModuleTable) {
	t.Helper()
	modules := NewModules()
	modules.Register("app/ui/components/button", Module{DefaultExport: testComponent{"button"}})
	modules.Register("app/ui/components/card/header", Module{DefaultExport: testComponent{"card header"}})
	modules.Register("app/ui/components/card/index", Module{DefaultExport: testComponent{"card"}})
	modules.Register("app/ui/helpers/upper", Module{DefaultExport: "upper helper"})
	modules.Register("app/ui/modifiers/focus", Module{DefaultExport: "focus modifier", "alt": "alt focus"})
	modules.Register("ui/partials/footer", Module{DefaultExport: "footer partial"})

	table := NewModuleTable()
	for handle, locator := range map[int]Locator{
		1: NewLocator("app/ui/components/button"),
		2: NewLocator("app/ui/helpers/upper"),
		3: NewLocator("app/ui/modifiers/focus"),
		4: {Module: "app/ui/modifiers/focus", Export: "alt"},
		5: NewLocator("ui/partials/footer"),
		6: NewLocator("app/ui/missing"),
	} {
		if err := table.Register(handle, locator); err != nil {
			t.Fatalf("Register(%d): %v", handle, err)
		}
	}
	return modules, table
}

func TestModulesResolve(t *testing.T) {
	modules, _ := fixture(t)

	tests := []struct {
		name     string
		referrer string
		root     string
		want     string
		ok       bool
	}{
		{"header", "app/ui/components/card/index", ComponentsRoot, "app/ui/components/card/header", true},
		{"button", "app/ui/components/card/index", ComponentsRoot, "app/ui/components/button", true},
		{"button", "app/templates/application", ComponentsRoot, "app/ui/components/button", true},
		{"footer", "app/templates/application", PartialsRoot, "ui/partials/footer", true},
		{"app/ui/helpers/upper", "other/thing", "", "app/ui/helpers/upper", true},
		{"missing", "app/templates/application", ComponentsRoot, "", false},
	}
	for _, tt := range tests {
		got, ok := modules.Resolve(tt.name, NewLocator(tt.referrer), tt.root)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Resolve(%q from %q) = (%q, %v), want (%q, %v)", tt.name, tt.referrer, got, ok, tt.want, tt.ok)
		}
	}
}

func TestModuleTable(t *testing.T) {
	_, table := fixture(t)

	if err := table.Register(1, NewLocator("elsewhere")); err == nil {
		t.Error("expected error rebinding a handle")
	}
	if err := table.Register(99, NewLocator("app/ui/components/button")); err == nil {
		t.Error("expected error rebinding a locator")
	}
	if h, ok := table.HandleFor(Locator{Module: "app/ui/components/button"}); !ok || h != 1 {
		t.Errorf("HandleFor(empty export) = (%d, %v), want (1, true)", h, ok)
	}
	if l, ok := table.ByHandle(4); !ok || l.String() != "app/ui/modifiers/focus#alt" {
		t.Errorf("ByHandle(4) = %v", l)
	}
	if table.Len() != 6 {
		t.Errorf("Len = %d, want 6", table.Len())
	}
}

func TestEagerResolver(t *testing.T) {
	r := NewEagerResolver(fixture(t))
	referrer := NewLocator("app/templates/application")

	def, ok, err := r.LookupComponent("button", &referrer)
	if err != nil || !ok || def != (testComponent{"button"}) {
		t.Errorf("LookupComponent(button) = (%v, %v, %v)", def, ok, err)
	}

	// Not found is not an error.
	if def, ok, err := r.LookupComponent("nope", &referrer); err != nil || ok || def != nil {
		t.Errorf("LookupComponent(nope) = (%v, %v, %v), want not found", def, ok, err)
	}
	if _, ok, err := r.LookupComponent("button", nil); err != nil || ok {
		t.Errorf("nil referrer should find nothing, got (%v, %v)", ok, err)
	}

	// Unsupported is an error, and a distinct one.
	lookups := map[string]func() (int, bool, error){
		"LookupHelper":   func() (int, bool, error) { return r.LookupHelper("upper", &referrer) },
		"LookupModifier": func() (int, bool, error) { return r.LookupModifier("focus", &referrer) },
		"LookupPartial":  func() (int, bool, error) { return r.LookupPartial("footer", &referrer) },
	}
	for op, lookup := range lookups {
		_, ok, err := lookup()
		if ok || !IsUnsupported(err) {
			t.Errorf("%s = (%v, %v), want unsupported", op, ok, err)
		}
		var unsupported *UnsupportedError
		if !errors.As(err, &unsupported) || unsupported.Op != op {
			t.Errorf("%s error = %#v", op, err)
		}
	}

	if r.Capabilities() != Components {
		t.Errorf("Capabilities = %s, want components", r.Capabilities())
	}
}

func TestResolveHandles(t *testing.T) {
	r := NewEagerResolver(fixture(t))

	tests := []struct {
		handle int
		want   any
	}{
		{1, testComponent{"button"}},
		{3, "focus modifier"},
		{4, "alt focus"},
		{6, nil},
		{42, nil},
	}
	for _, tt := range tests {
		if got := r.Resolve(tt.handle); got != tt.want {
			t.Errorf("Resolve(%d) = %v, want %v", tt.handle, got, tt.want)
		}
	}

	if h, err := r.GetVMHandle(NewLocator("ui/partials/footer")); err != nil || h != 5 {
		t.Errorf("GetVMHandle = (%d, %v), want 5", h, err)
	}
	if _, err := r.GetVMHandle(NewLocator("nowhere")); err == nil {
		t.Error("expected error for unknown locator")
	}
}

func TestTableResolver(t *testing.T) {
	modules, table := fixture(t)
	referrer := NewLocator("app/templates/application")

	full := NewTableResolver(modules, table, AllCapabilities)
	tests := []struct {
		name   string
		lookup func(string, *Locator) (int, bool, error)
		arg    string
		want   int
	}{
		{"helper", full.LookupHelper, "upper", 2},
		{"modifier", full.LookupModifier, "focus", 3},
		{"partial", full.LookupPartial, "footer", 5},
	}
	for _, tt := range tests {
		h, ok, err := tt.lookup(tt.arg, &referrer)
		if err != nil || !ok || h != tt.want {
			t.Errorf("%s(%q) = (%d, %v, %v), want %d", tt.name, tt.arg, h, ok, err, tt.want)
		}
	}
	if _, ok, err := full.LookupHelper("lower", &referrer); ok || err != nil {
		t.Errorf("missing helper = (%v, %v), want not found", ok, err)
	}

	limited := NewTableResolver(modules, table, Components|Modifiers)
	if _, _, err := limited.LookupHelper("upper", &referrer); !IsUnsupported(err) {
		t.Errorf("helpers disabled: err = %v, want unsupported", err)
	}
	if _, ok, err := limited.LookupModifier("focus", &referrer); !ok || err != nil {
		t.Errorf("modifiers enabled: (%v, %v)", ok, err)
	}
	if _, _, err := NewTableResolver(modules, table, 0).LookupComponent("button", &referrer); !IsUnsupported(err) {
		t.Errorf("components disabled: err = %v, want unsupported", err)
	}
}

func TestCapabilities(t *testing.T) {
	c, err := ParseCapabilities([]string{"components", "Helpers"})
	if err != nil {
		t.Fatalf("ParseCapabilities: %v", err)
	}
	if c != Components|Helpers {
		t.Errorf("parsed %s", c)
	}
	if got := c.String(); got != "components|helpers" {
		t.Errorf("String = %q", got)
	}
	if Capability(0).String() != "none" {
		t.Error("empty set should print none")
	}
	if _, err := ParseCapabilities([]string{"teleport"}); err == nil {
		t.Error("expected error for unknown capability")
	}
	if !AllCapabilities.Has(Partials | Helpers) {
		t.Error("AllCapabilities should include partials and helpers")
	}
}

// The resolvers double as the VM's handle resolver.
var _ vm.HandleResolver = (*EagerResolver)(nil)

func TestResolverFeedsModifierHandles(t *testing.T) {
	modules := NewModules()
	def := &vm.ModifierDefinition{State: "s"}
	modules.Register("app/ui/modifiers/noop", Module{DefaultExport: def})
	table := NewModuleTable()
	if err := table.Register(10, NewLocator("app/ui/modifiers/noop")); err != nil {
		t.Fatal(err)
	}
	r := NewTableResolver(modules, table, AllCapabilities)

	p := vm.NewProgramBuilder().Build(r)
	if got := p.Constants.ResolveHandle(10); got != def {
		t.Errorf("ResolveHandle(10) = %v, want the registered definition", got)
	}
}
