package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/filament/resolver"
	"github.com/chazu/filament/vm"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[runtime]
debug-checks = false
trace = true
log-verbosity = 2
log-file = "filament.log"

[resolver]
kind = "table"
capabilities = ["components", "modifiers"]

[program]
image = "app.flmt"

[[modules]]
specifier = "app/ui/components/button"
handle = 1

[[modules]]
specifier = "app/ui/modifiers/focus"
export = "alt"
handle = 2
`)

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	opts := c.Options()
	if opts.DebugChecks {
		t.Error("debug-checks = true, want false")
	}
	if !opts.Trace {
		t.Error("trace = false, want true")
	}
	if c.Runtime.LogVerbosity != 2 {
		t.Errorf("log-verbosity = %d, want 2", c.Runtime.LogVerbosity)
	}
	caps, err := c.Capabilities()
	if err != nil {
		t.Fatalf("Capabilities: %v", err)
	}
	if caps != resolver.Components|resolver.Modifiers {
		t.Errorf("capabilities = %s", caps)
	}
	if got, want := c.ImagePath(), filepath.Join(c.Dir, "app.flmt"); got != want {
		t.Errorf("ImagePath = %q, want %q", got, want)
	}

	table, err := c.ModuleTable()
	if err != nil {
		t.Fatalf("ModuleTable: %v", err)
	}
	if l, ok := table.ByHandle(2); !ok || l.Export != "alt" {
		t.Errorf("handle 2 = %v", l)
	}
	if h, ok := table.HandleFor(resolver.NewLocator("app/ui/components/button")); !ok || h != 1 {
		t.Errorf("button handle = %d", h)
	}

	r, err := c.NewResolver(resolver.NewModules())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	if _, ok := r.(*resolver.TableResolver); !ok {
		t.Errorf("resolver = %T, want *resolver.TableResolver", r)
	}
}

func TestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "")

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !c.Options().DebugChecks {
		t.Error("debug checks should default to on")
	}
	if c.Resolver.Kind != EagerResolver {
		t.Errorf("resolver kind = %q, want eager", c.Resolver.Kind)
	}
	if caps, _ := c.Capabilities(); caps != resolver.Components {
		t.Errorf("eager default capabilities = %s", caps)
	}
	if c.ImagePath() != "" {
		t.Errorf("ImagePath = %q, want empty", c.ImagePath())
	}
	r, err := c.NewResolver(resolver.NewModules())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(*resolver.EagerResolver); !ok {
		t.Errorf("resolver = %T, want *resolver.EagerResolver", r)
	}

	if d := Default(); !d.Options().DebugChecks || d.Resolver.Kind != EagerResolver {
		t.Errorf("Default() = %+v", d)
	}
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[runtime\n", ""},
		{"kind", "[resolver]\nkind = \"lazy\"\n", "resolver kind"},
		{"capability", "[resolver]\ncapabilities = [\"teleport\"]\n", "capability"},
		{"verbosity", "[runtime]\nlog-verbosity = -1\n", "log-verbosity"},
		{"specifier", "[[modules]]\nhandle = 1\n", "specifier"},
		{"handle", "[[modules]]\nspecifier = \"a\"\nhandle = 70000\n", "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}

	c, err := Parse([]byte("[[modules]]\nspecifier = \"a\"\nhandle = 1\n[[modules]]\nspecifier = \"b\"\nhandle = 1\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := c.ModuleTable(); err == nil {
		t.Error("expected duplicate handle error")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[runtime]\ntrace = true\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad: %v", err)
	}
	if c == nil || !c.Runtime.Trace {
		t.Fatalf("FindAndLoad returned %+v", c)
	}
	want, _ := filepath.Abs(root)
	if c.Dir != want {
		t.Errorf("Dir = %q, want %q", c.Dir, want)
	}
	if dir, ok, err := Find(nested); err != nil || !ok || dir != want {
		t.Errorf("Find = (%q, %v, %v), want %q", dir, ok, err, want)
	}
}

func TestFindWithoutConfig(t *testing.T) {
	dir := t.TempDir()
	if found, ok, err := Find(dir); err != nil || (ok && found == dir) {
		t.Errorf("Find(empty dir) = (%q, %v, %v)", found, ok, err)
	}
}

func TestLoadProgram(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[program]\nimage = \"app.flmt\"\n")

	b := vm.NewProgramBuilder()
	b.OpenElement("p").FlushElement().Text("hi").CloseElement()
	data, err := vm.MarshalProgram(b.Build(nil))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.flmt"), data, 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	p, err := c.LoadProgram(nil)
	if err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
	if !strings.Contains(p.Disassemble(), "CLOSE_ELEMENT") {
		t.Errorf("unexpected program:\n%s", p.Disassemble())
	}

	// A structurally broken image is rejected when debug checks are on.
	broken := vm.NewProgramBuilder()
	broken.OpenElement("p")
	data, err = vm.MarshalProgram(broken.Build(nil))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.flmt"), data, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := c.LoadProgram(nil); err == nil || !strings.Contains(err.Error(), "verifying") {
		t.Errorf("expected verification error, got %v", err)
	}

	if _, err := Default().LoadProgram(nil); err == nil {
		t.Error("expected error without a configured image")
	}
}

func TestConfigureLogging(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[runtime]\nlog-verbosity = 0\nlog-file = \"out.log\"\n")
	c, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	c.ConfigureLogging()
	Default().ConfigureLogging()
}
