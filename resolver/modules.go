// Package resolver maps names used by templates to definition handles and
// handles back to definitions.
package resolver

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultExport is the export a locator names when none is given.
const DefaultExport = "default"

// Locator identifies one export of one module.
type Locator struct {
	Module string
	Export string
}

// NewLocator returns the locator of module's default export.
func NewLocator(module string) Locator {
	return Locator{Module: module, Export: DefaultExport}
}

func (l Locator) String() string {
	if l.Export == "" || l.Export == DefaultExport {
		return l.Module
	}
	return l.Module + "#" + l.Export
}

func (l Locator) export() string {
	if l.Export == "" {
		return DefaultExport
	}
	return l.Export
}

// Module is a module's exports by name.
type Module map[string]any

// ---------------------------------------------------------------------------
// Modules: the module registry
// ---------------------------------------------------------------------------

// Modules is a registry of modules keyed by specifier, e.g.
// "app/ui/components/button".
type Modules struct {
	registry map[string]Module
}

// NewModules returns an empty registry.
func NewModules() *Modules {
	return &Modules{registry: make(map[string]Module)}
}

// Register adds or replaces the module at specifier.
func (m *Modules) Register(specifier string, exports Module) {
	m.registry[specifier] = exports
}

// Has reports whether specifier is registered.
func (m *Modules) Has(specifier string) bool {
	_, ok := m.registry[specifier]
	return ok
}

// Get returns the module at specifier.
func (m *Modules) Get(specifier string) (Module, bool) {
	mod, ok := m.registry[specifier]
	return mod, ok
}

// Specifiers returns every registered specifier, sorted.
func (m *Modules) Specifiers() []string {
	out := make([]string, 0, len(m.registry))
	for s := range m.registry {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Resolve finds the module name refers to, as seen from referrer. A sibling
// of the referring module wins, then defaultRoot/name under the referrer's
// top-level namespace, then name itself.
func (m *Modules) Resolve(name string, referrer Locator, defaultRoot string) (string, bool) {
	if dir, _, ok := cut(referrer.Module); ok {
		if local := dir + "/" + name; m.Has(local) {
			return local, true
		}
	}

	if defaultRoot != "" {
		if ns, _, ok := strings.Cut(referrer.Module, "/"); ok {
			if global := ns + "/" + defaultRoot + "/" + name; m.Has(global) {
				return global, true
			}
		}
		if global := defaultRoot + "/" + name; m.Has(global) {
			return global, true
		}
	}

	if m.Has(name) {
		return name, true
	}
	return "", false
}

// cut splits a specifier at its last slash.
func cut(specifier string) (dir, base string, ok bool) {
	i := strings.LastIndexByte(specifier, '/')
	if i < 0 {
		return "", specifier, false
	}
	return specifier[:i], specifier[i+1:], true
}

// ---------------------------------------------------------------------------
// ModuleTable: handle <-> locator
// ---------------------------------------------------------------------------

// ModuleTable assigns VM handles to module locators.
type ModuleTable struct {
	byHandle  map[int]Locator
	byLocator map[Locator]int
}

// NewModuleTable returns an empty table.
func NewModuleTable() *ModuleTable {
	return &ModuleTable{
		byHandle:  make(map[int]Locator),
		byLocator: make(map[Locator]int),
	}
}

// Register binds handle to locator. Each handle and each locator may be
// bound once.
func (t *ModuleTable) Register(handle int, locator Locator) error {
	locator.Export = locator.export()
	if prev, ok := t.byHandle[handle]; ok {
		return fmt.Errorf("handle %d already bound to %s", handle, prev)
	}
	if prev, ok := t.byLocator[locator]; ok {
		return fmt.Errorf("module %s already bound to handle %d", locator, prev)
	}
	t.byHandle[handle] = locator
	t.byLocator[locator] = handle
	return nil
}

// ByHandle returns the locator bound to handle.
func (t *ModuleTable) ByHandle(handle int) (Locator, bool) {
	l, ok := t.byHandle[handle]
	return l, ok
}

// HandleFor returns the handle bound to locator.
func (t *ModuleTable) HandleFor(locator Locator) (int, bool) {
	locator.Export = locator.export()
	h, ok := t.byLocator[locator]
	return h, ok
}

// Len returns the number of bindings.
func (t *ModuleTable) Len() int {
	return len(t.byHandle)
}
