package resolver

import (
	"fmt"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("filament.resolver")

// Conventional roots searched for each kind of lookup.
const (
	ComponentsRoot = "ui/components"
	HelpersRoot    = "ui/helpers"
	ModifiersRoot  = "ui/modifiers"
	PartialsRoot   = "ui/partials"
)

// Resolver turns names into definitions or handles. It is consumed by
// whatever encodes instruction streams, and by the VM's handle resolution.
//
// Every lookup has three outcomes: found (ok is true), not found (ok is
// false, err is nil), and unsupported (err wraps ErrUnsupported).
type Resolver interface {
	Capabilities() Capability
	LookupComponent(name string, referrer *Locator) (definition any, ok bool, err error)
	LookupHelper(name string, referrer *Locator) (handle int, ok bool, err error)
	LookupModifier(name string, referrer *Locator) (handle int, ok bool, err error)
	LookupPartial(name string, referrer *Locator) (handle int, ok bool, err error)
	// Resolve returns the definition behind a VM handle, or nil.
	Resolve(handle int) any
}

// source is the module registry and handle table shared by resolvers.
type source struct {
	modules *Modules
	table   *ModuleTable
}

// Resolve returns the export bound to handle, or nil when the handle or
// its module is unknown.
func (s source) Resolve(handle int) any {
	locator, ok := s.table.ByHandle(handle)
	if !ok {
		return nil
	}
	mod, ok := s.modules.Get(locator.Module)
	if !ok {
		return nil
	}
	return mod[locator.export()]
}

// GetVMHandle returns the handle of locator.
func (s source) GetVMHandle(locator Locator) (int, error) {
	h, ok := s.table.HandleFor(locator)
	if !ok {
		return 0, fmt.Errorf("could not find handle for module %s", locator)
	}
	return h, nil
}

func (s source) lookupDefinition(name string, referrer *Locator, root string) (any, bool) {
	if referrer == nil {
		return nil, false
	}
	specifier, ok := s.modules.Resolve(name, *referrer, root)
	if !ok {
		return nil, false
	}
	mod, _ := s.modules.Get(specifier)
	def, ok := mod[DefaultExport]
	return def, ok
}

func (s source) lookupHandle(name string, referrer *Locator, root string) (int, bool) {
	if referrer == nil {
		return 0, false
	}
	specifier, ok := s.modules.Resolve(name, *referrer, root)
	if !ok {
		return 0, false
	}
	return s.table.HandleFor(NewLocator(specifier))
}

// ---------------------------------------------------------------------------
// EagerResolver
// ---------------------------------------------------------------------------

// EagerResolver serves ahead-of-time compiled programs: components are
// looked up by module convention and everything else was already turned
// into handles at compile time, so helper, modifier and partial lookups are
// unsupported.
type EagerResolver struct {
	source
}

// NewEagerResolver creates a resolver over modules and table.
func NewEagerResolver(modules *Modules, table *ModuleTable) *EagerResolver {
	return &EagerResolver{source{modules: modules, table: table}}
}

// Capabilities implements Resolver.
func (r *EagerResolver) Capabilities() Capability {
	return Components
}

// LookupComponent implements Resolver. A nil referrer finds nothing.
func (r *EagerResolver) LookupComponent(name string, referrer *Locator) (any, bool, error) {
	def, ok := r.lookupDefinition(name, referrer, ComponentsRoot)
	return def, ok, nil
}

// LookupHelper implements Resolver.
func (r *EagerResolver) LookupHelper(string, *Locator) (int, bool, error) {
	return 0, false, r.unsupported("LookupHelper")
}

// LookupModifier implements Resolver.
func (r *EagerResolver) LookupModifier(string, *Locator) (int, bool, error) {
	return 0, false, r.unsupported("LookupModifier")
}

// LookupPartial implements Resolver.
func (r *EagerResolver) LookupPartial(string, *Locator) (int, bool, error) {
	return 0, false, r.unsupported("LookupPartial")
}

func (r *EagerResolver) unsupported(op string) error {
	log.Debugf("eager resolver: %s is not supported", op)
	return &UnsupportedError{Resolver: "eager", Op: op}
}

// ---------------------------------------------------------------------------
// TableResolver
// ---------------------------------------------------------------------------

// TableResolver resolves every kind of lookup through the module registry,
// limited to a configured capability set.
type TableResolver struct {
	source
	caps Capability
}

// NewTableResolver creates a resolver supporting caps.
func NewTableResolver(modules *Modules, table *ModuleTable, caps Capability) *TableResolver {
	return &TableResolver{source: source{modules: modules, table: table}, caps: caps}
}

// Capabilities implements Resolver.
func (r *TableResolver) Capabilities() Capability {
	return r.caps
}

// LookupComponent implements Resolver.
func (r *TableResolver) LookupComponent(name string, referrer *Locator) (any, bool, error) {
	if err := r.require(Components, "LookupComponent"); err != nil {
		return nil, false, err
	}
	def, ok := r.lookupDefinition(name, referrer, ComponentsRoot)
	return def, ok, nil
}

// LookupHelper implements Resolver.
func (r *TableResolver) LookupHelper(name string, referrer *Locator) (int, bool, error) {
	return r.lookup(Helpers, "LookupHelper", name, referrer, HelpersRoot)
}

// LookupModifier implements Resolver.
func (r *TableResolver) LookupModifier(name string, referrer *Locator) (int, bool, error) {
	return r.lookup(Modifiers, "LookupModifier", name, referrer, ModifiersRoot)
}

// LookupPartial implements Resolver.
func (r *TableResolver) LookupPartial(name string, referrer *Locator) (int, bool, error) {
	return r.lookup(Partials, "LookupPartial", name, referrer, PartialsRoot)
}

func (r *TableResolver) lookup(c Capability, op, name string, referrer *Locator, root string) (int, bool, error) {
	if err := r.require(c, op); err != nil {
		return 0, false, err
	}
	h, ok := r.lookupHandle(name, referrer, root)
	return h, ok, nil
}

func (r *TableResolver) require(c Capability, op string) error {
	if !r.caps.Has(c) {
		return &UnsupportedError{Resolver: "table", Op: op}
	}
	return nil
}

var (
	_ Resolver = (*EagerResolver)(nil)
	_ Resolver = (*TableResolver)(nil)
)
