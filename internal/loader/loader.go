package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/zboralski/orbisloader/internal/align"
	"github.com/zboralski/orbisloader/internal/log"
	"github.com/zboralski/orbisloader/internal/nid"
	"github.com/zboralski/orbisloader/internal/oelf"
	"github.com/zboralski/orbisloader/internal/ostream"
	"github.com/zboralski/orbisloader/internal/pagemap"
	"github.com/zboralski/orbisloader/internal/ptr"
	"github.com/zboralski/orbisloader/internal/selfelf"
)

// Runtime owns the module registry, the arena backing every duplicated
// string, and the ordered directories searched when resolving a
// dependency that isn't already present as a bare file path.
//
// Scheduling is single-threaded: Runtime performs no internal locking and
// must not be driven concurrently (see the resource-model notes this
// mirrors from the original design).
type Runtime struct {
	EbootDir string
	ExeDir   string

	// RunID tags every log line this Runtime emits, so operators
	// correlating logs across a batch of titles loaded back to back can
	// tell one load session's lines from another's.
	RunID string

	modules []*Module
	byName  map[string]int
	arena   arena
	logger  *log.Logger
}

// New returns a Runtime rooted at ebootDir (where the root executable's
// sce_module directory lives) and exeDir (where system/common/lib and
// system/priv/lib live).
func New(ebootDir, exeDir string, logger *log.Logger) *Runtime {
	if logger == nil {
		logger = log.NewNop()
	}
	runID := uuid.NewString()
	return &Runtime{
		EbootDir: ebootDir,
		ExeDir:   exeDir,
		RunID:    runID,
		byName:   make(map[string]int),
		logger:   logger.With(runID),
	}
}

// Modules returns the registry in load order; index 0 is always the root.
func (rt *Runtime) Modules() []*Module { return rt.modules }

// ModuleByName returns the already-loaded module with the given stem.
func (rt *Runtime) ModuleByName(name string) (*Module, bool) {
	idx, ok := rt.byName[stem(name)]
	if !ok {
		return nil, false
	}
	return rt.modules[idx], true
}

// Close frees every module's RWX region. The arena is released with it;
// callers must not use any Module or symbol name afterward.
func (rt *Runtime) Close() error {
	var firstErr error
	for _, m := range rt.modules {
		if m.Data == nil {
			continue
		}
		if err := pagemap.Free(m.Data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	rt.modules = nil
	rt.byName = nil
	rt.arena = arena{}
	return firstErr
}

// LoadFile loads path, idempotently: if stem(path) is already registered
// the existing module is returned. Dispatches on the first 4 bytes to
// decide between a fake SELF container and a bare OELF.
func (rt *Runtime) LoadFile(path string) (*Module, error) {
	name := stem(path)
	if idx, ok := rt.byName[name]; ok {
		return rt.modules[idx], nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: opening %q: %w", path, err)
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := f.ReadAt(magic, 0); err != nil {
		return nil, fmt.Errorf("loader: reading magic of %q: %w", path, err)
	}

	var buf []byte
	switch {
	case matchesMagic(magic, selfelf.Magic[:]):
		buf, err = selfelf.Reconstruct(ostream.NewFileStream(f))
		if err != nil {
			return nil, fmt.Errorf("loader: reconstructing %q: %w", path, err)
		}
	case matchesMagic(magic, oelf.Magic[:]):
		buf, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loader: reading %q: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSelfOrOElf, path)
	}

	parsed, err := oelf.Parse(buf)
	if err != nil {
		rt.logger.ModuleLoadFailed(name, err)
		return nil, fmt.Errorf("loader: parsing %q: %w", path, err)
	}
	if parsed.MappedSize == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNothingToLoad, path)
	}
	if len(parsed.ExportModules) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoModuleInfo, path)
	}

	m := &Module{}
	if err := rt.populate(m, name, parsed); err != nil {
		rt.logger.ModuleLoadFailed(name, err)
		if m.Data != nil {
			pagemap.Free(m.Data)
		}
		return nil, err
	}

	// Only register the module once it's fully populated: a failed
	// populate() must not leave a half-built Module permanently bound to
	// this stem, which a later LoadFile(path) for the same name would
	// then hand back silently instead of retrying.
	idx := len(rt.modules)
	rt.modules = append(rt.modules, m)
	rt.byName[name] = idx

	rt.logger.ModuleLoaded(m.Name, m.ID, parsed.MappedSize, m.IsLib)
	return m, nil
}

func (rt *Runtime) populate(m *Module, name string, p *oelf.Parsed) error {
	m.IsLib = p.Header.Type == ETSceDynamic
	m.ID = p.ExportModules[0].ID()

	region, err := pagemap.Alloc(int(p.MappedSize), pagemap.RWX)
	if err != nil {
		return fmt.Errorf("loader: allocating %d bytes for %q: %w", p.MappedSize, name, err)
	}
	m.Data = region

	if p.HasInitProc && p.InitProcOffset != 0 {
		m.InitProc = ptr.FromPointer(&region.Data[p.InitProcOffset])
	}
	if p.HasProcParam && p.ProcParamOffset != 0 {
		m.ProcParam = ptr.FromPointer(&region.Data[p.ProcParamOffset])
	}
	if p.Header.Entry != 0 {
		m.EntryPoint = ptr.FromPointer(&region.Data[p.Header.Entry])
	}

	if err := mapSegments(m, p); err != nil {
		return err
	}

	m.Name = rt.arena.dup(name)
	m.ExportName = rt.arena.dup(p.ExportModules[0].Name)
	m.Dependencies = rt.arena.dupAll(p.NeededFiles)

	m.RawSymbols, m.Locals, err = buildSymbols(p, region.Data)
	if err != nil {
		return err
	}

	m.ImportModuleNames = make(map[uint16]string, len(p.ImportModules))
	for _, ref := range p.ImportModules {
		if ref.ID() == 0 {
			return ErrImportModuleIdNotDefined
		}
		m.ImportModuleNames[ref.ID()] = rt.arena.dup(ref.Name)
	}
	m.ImportLibraryNames = make(map[uint16]string, len(p.ImportLibs))
	for _, ref := range p.ImportLibs {
		m.ImportLibraryNames[ref.ID()] = rt.arena.dup(ref.Name)
	}

	return nil
}

// mapSegments scans program headers once, categorising each loadable
// segment into code/data/relro by flags/type, copying its file content
// into the module's RWX region at the aligned destination.
func mapSegments(m *Module, p *oelf.Parsed) error {
	var haveCode, haveData, haveRelro bool

	src := p.RawBuffer()

	for _, ph := range p.Progs {
		isRelro := uint32(ph.Type) == oelf.PTSceRelro
		isLoad := ph.Type == oelf.PTLoad
		if !isRelro && !isLoad {
			continue
		}

		dstStart := align.Down(ph.Vaddr, ph.Align) - p.LoadAddrBegin
		if ph.Filesz > ph.Memsz || dstStart+ph.Memsz > uint64(len(m.Data.Data)) ||
			ph.Offset+ph.Filesz > uint64(len(src)) {
			return ErrSegmentOutOfRange
		}
		dst := m.Data.Data[dstStart : dstStart+ph.Memsz]
		copy(dst, src[ph.Offset:ph.Offset+ph.Filesz])

		switch {
		case isRelro:
			if haveRelro {
				return ErrMoreThanOneRelroSection
			}
			m.RelroSection, haveRelro = dst, true
		case ph.Flags&oelf.PFExec != 0:
			if haveCode {
				return ErrMoreThanOneCodeSection
			}
			m.CodeSection, haveCode = dst, true
		case ph.Flags&oelf.PFRead != 0:
			if haveData {
				return ErrMoreThanOneDataSection
			}
			m.DataSection, haveData = dst, true
		}
	}

	if !haveCode || !haveData || !haveRelro {
		return ErrNotAllSectionsArePresent
	}
	return nil
}

func buildSymbols(p *oelf.Parsed, data []byte) ([]RawSymbol, map[string]RawSymbol, error) {
	raw := make([]RawSymbol, 0, len(p.SymTab))
	locals := make(map[string]RawSymbol)

	for _, sym := range p.SymTab {
		name, err := p.StringAt(uint64(sym.NameOff))
		if err != nil {
			continue
		}
		rs := RawSymbol{
			Name:      name,
			IsEncoded: nid.IsEncodedSymbol(name),
			Type:      sym.Type(),
			Binding:   sym.Binding(),
		}
		if sym.Value != 0 {
			if sym.Value >= uint64(len(data)) {
				return nil, nil, fmt.Errorf("%w: symbol %q value 0x%x", ErrSymbolOutOfRange, name, sym.Value)
			}
			rs.Address = ptr.FromPointer(&data[sym.Value])
			rs.HasAddress = true
		}
		raw = append(raw, rs)
		if rs.Binding == oelf.STBLocal {
			locals[name] = rs
		}
	}
	return raw, locals, nil
}

// LoadAllDependencies walks the dependency closure of root, breadth-first,
// using an explicit visited set keyed by dependency name.
func (rt *Runtime) LoadAllDependencies(root *Module) error {
	visited := make(map[string]bool)
	queue := append([]string(nil), root.Dependencies...)
	for _, d := range queue {
		visited[stem(d)] = true
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		path := rt.searchForModuleFile(name)
		dep, err := rt.LoadFile(path)
		if err != nil {
			return fmt.Errorf("loader: loading dependency %q: %w", name, err)
		}
		rt.logger.DependencyResolved(name, path)

		for _, next := range dep.Dependencies {
			key := stem(next)
			if visited[key] {
				continue
			}
			visited[key] = true
			queue = append(queue, next)
		}
	}
	return nil
}

// searchForModuleFile resolves a dependency name to a file path by
// searching, in order, eboot_dir/sce_module, exe_dir/system/common/lib,
// and exe_dir/system/priv/lib for a stem match. On a total miss it
// returns name unchanged so the subsequent open fails with a clear error.
func (rt *Runtime) searchForModuleFile(name string) string {
	want := stem(name)
	dirs := []string{
		filepath.Join(rt.EbootDir, "sce_module"),
		filepath.Join(rt.ExeDir, "system", "common", "lib"),
		filepath.Join(rt.ExeDir, "system", "priv", "lib"),
	}
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() && stem(e.Name()) == want {
				return filepath.Join(dir, e.Name())
			}
		}
	}
	return name
}

// LinkModules applies RELA/JMPREL fix-ups against the global symbol table.
// It is a deliberate no-op here: fix-up application is a distinct pass
// that consumes the already-published symbol map, out of this core's
// scope, and implementers are expected to model it separately.
func (rt *Runtime) LinkModules() error { return nil }

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func matchesMagic(got, want []byte) bool {
	if len(got) < len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
