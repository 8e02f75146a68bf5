// Package symtab is the process-global symbol table: a single map from
// symbol name to a resolved address, populated once by internal/publish
// and then read for the lifetime of the process. Keys are the names
// internal/publish registers: plain symbol names read from a module's
// string table, reconstructed NID names, and HLE synthetic names built
// with fmt.Sprintf.
package symtab

import "github.com/zboralski/orbisloader/internal/ptr"

// hleStub is the shared sentinel address registered for any LLE symbol an
// HLE binding shadows. Its value carries no meaning beyond "not the real
// guest address"; callers compare entries against it to detect a stub.
const hleStub ptr.Addr = ptr.Addr(^uintptr(0))

// HLEStubSentinel is the shared placeholder address LLE symbols get when
// an HLE binding is authoritative for them instead.
var HLEStubSentinel = hleStub

// Table is the process-global symbol map.
type Table struct {
	entries map[string]ptr.Addr
}

// New returns an empty Table.
func New() *Table {
	return &Table{entries: make(map[string]ptr.Addr)}
}

// Register inserts or overwrites name's address. There is a single
// register operation; priority between competing registrations (HLE vs
// LLE, low- vs high-priority HLE) is enforced entirely by the order in
// which internal/publish calls Register, not by anything this method does.
func (t *Table) Register(name string, addr ptr.Addr) {
	t.entries[name] = addr
}

// Lookup returns name's registered address, if any.
func (t *Table) Lookup(name string) (ptr.Addr, bool) {
	addr, ok := t.entries[name]
	return addr, ok
}

// Len reports how many symbols are currently registered.
func (t *Table) Len() int { return len(t.entries) }

// Names returns every registered symbol name, in no particular order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	return names
}
