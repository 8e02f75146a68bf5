// Package hle holds the compile-time-constant policy describing, per
// module and library, whether the loader should prefer the guest's own
// (LLE) symbol over a host reimplementation (HLE), and which functions
// each HLE library actually provides.
package hle

// Mode selects whether a module or library defaults to its own guest
// code (LLE) or a host reimplementation (HLE).
type Mode int

const (
	LLE Mode = iota
	HLE
)

// Library describes one HLE-eligible library within a Module. A library
// normally declares one of LowPriority / HighPriority; DefaultMode does not
// choose between them, and both lists are honoured when both are set. A
// library declared HLE with a HighPriority list always wins
// except for the functions it names in LleSymbols, while its other public
// Functions publish as overwritable low-priority HLE; a library declared
// HLE with a LowPriority list is the mirror image — its named functions
// publish as overwritable low-priority HLE (a real guest symbol always
// wins), while its other public Functions publish as non-overwritable
// high-priority HLE, symmetrically with the HighPriority case (§4.10
// phase 3's "symmetrically for the non-listed siblings of libraries
// declared low_priority").
type Library struct {
	Name        string
	DefaultMode Mode

	// Functions is the library's complete set of public function names.
	// Used to compute each side's "every other public function"
	// complement, whichever of LowPriority/HighPriority is set.
	Functions []string

	LowPriority  []string
	HighPriority []string
	LleSymbols   []string
}

func containsName(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}

func (l *Library) isHighPriority(name string) bool {
	return containsName(l.HighPriority, name)
}

func (l *Library) isLowPriority(name string) bool {
	return containsName(l.LowPriority, name)
}

// hasLle reports whether name should still resolve to the guest's own LLE
// implementation despite the library's HLE default: either because it's
// explicitly listed under LleSymbols, because it's named under LowPriority
// (the low-priority HLE publication is meant to be overwritable by a real
// guest symbol), or because the library partitions its functions into
// high/low priority and name falls on the low-priority side of that split.
func (l *Library) hasLle(name string) bool {
	if containsName(l.LleSymbols, name) {
		return true
	}
	if l.isLowPriority(name) {
		return true
	}
	if len(l.HighPriority) > 0 && !l.isHighPriority(name) {
		return containsName(l.Functions, name)
	}
	return false
}

// LowPriorityPublications returns the functions the low-priority pass
// publishes for this library: its own LowPriority list, plus — for a
// library declared with a HighPriority list — every function in Functions
// that isn't also in HighPriority.
func (l *Library) LowPriorityPublications() []string {
	out := append([]string(nil), l.LowPriority...)
	if len(l.HighPriority) == 0 {
		return out
	}
	for _, fn := range l.Functions {
		if !l.isHighPriority(fn) {
			out = append(out, fn)
		}
	}
	return out
}

// HighPriorityPublications returns the functions the high-priority pass
// publishes for this library: its own HighPriority list, plus —
// symmetrically, for a library declared with a LowPriority list instead —
// every function in Functions that isn't also in LowPriority.
func (l *Library) HighPriorityPublications() []string {
	out := append([]string(nil), l.HighPriority...)
	if len(l.LowPriority) == 0 {
		return out
	}
	for _, fn := range l.Functions {
		if !l.isLowPriority(fn) {
			out = append(out, fn)
		}
	}
	return out
}

// Module is one entry of the HLE module registry.
type Module struct {
	Name        string
	DefaultMode Mode
	Libraries   []Library
}

func (m *Module) library(name string) *Library {
	for i := range m.Libraries {
		if m.Libraries[i].Name == name {
			return &m.Libraries[i]
		}
	}
	return nil
}

// Registry is an ordered set of HLE modules, looked up by name.
type Registry struct {
	Modules []Module
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{}
}

// Add appends a module to the registry. Self-registering HLE packages
// call this from their init() via Register.
func (r *Registry) Add(m Module) {
	r.Modules = append(r.Modules, m)
}

func (r *Registry) module(name string) *Module {
	for i := range r.Modules {
		if r.Modules[i].Name == name {
			return &r.Modules[i]
		}
	}
	return nil
}

// ShouldLoadLLE implements the decision tree: unknown modules default to
// LLE; an unknown library within a known module falls back to the
// module's default; a library declared LLE always wins; a library
// declared HLE wins except for symbols it lists under LleSymbols, names it
// lists under LowPriority, and (when it has a HighPriority list) functions
// in Functions that HighPriority does not name.
func (r *Registry) ShouldLoadLLE(symbolName, moduleName, libraryName string) bool {
	mod := r.module(moduleName)
	if mod == nil {
		return true
	}
	lib := mod.library(libraryName)
	if lib == nil {
		return mod.DefaultMode == LLE
	}
	if lib.DefaultMode == LLE {
		return true
	}
	return lib.hasLle(symbolName)
}

// DefaultRegistry is the process-wide registry self-registering HLE
// module packages populate from their init() functions.
var DefaultRegistry = New()

// Register adds m to DefaultRegistry.
func Register(m Module) {
	DefaultRegistry.Add(m)
}
