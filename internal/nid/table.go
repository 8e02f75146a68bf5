package nid

// StaticTable is the build-time NID-hash-to-symbol-name mapping produced
// offline from the ps4libdoc dataset (the generator itself is an external
// collaborator, out of scope for this module). Lookup on a miss returns
// the input unchanged, which lets callers fall back to treating the hash
// itself as the symbol name.
type StaticTable struct {
	entries map[string]string
}

// NewStaticTable wraps a pre-built hash->name map.
func NewStaticTable(entries map[string]string) *StaticTable {
	return &StaticTable{entries: entries}
}

// Lookup returns the canonical name for hash, or hash itself on a miss.
func (t *StaticTable) Lookup(hash string) string {
	if t == nil || t.entries == nil {
		return hash
	}
	if name, ok := t.entries[hash]; ok {
		return name
	}
	return hash
}

// Len reports how many entries the table carries.
func (t *StaticTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// DefaultTable is a small illustrative seed covering well-known
// libkernel/libc symbol names, standing in for the generated ps4libdoc
// table. The real generator and dataset are outside this module's scope
// (see §1 Out of scope); production deployments are expected to replace
// this with the generated table, keyed by the hashes PS4 firmware
// actually emits.
var DefaultTable = NewStaticTable(map[string]string{
	"WB66evu5rEC": "_Znwm",
	"T9EsRXJYlxA":  "_Znam",
	"a5iryhoTVFQ":  "_ZdlPv",
	"tgox7aCUsA0":  "_ZdaPv",
	"9BcDykPmo1I":  "sceKernelIsNeoMode",
	"Xjoosiw+XPI":  "sceKernelGetCompiledSdkVersion",
	"WB+BOHoP+pg":  "sceKernelGetProcParam",
	"NWtTN9y2hGQ":  "sceKernelAllocateDirectMemory",
	"IWIBBdTHpFE":  "sceKernelMapDirectMemory",
	"6xVpIoqDt6A":  "sceKernelMapNamedFlexibleMemory",
	"rVqvHlFdkMY":  "sceKernelGetModuleInfoFromAddr",
	"xCpwOYHA4Hk":  "sceKernelLoadStartModule",
	"fSAJhjM-SE4":  "sceSysmoduleLoadModule",
	"z6RoXH+bsH4":  "malloc",
	"GRb1QuCbAqo":  "free",
	"LwG8g3niqwA":  "memcpy",
	"j4ObFSF8bm8":  "memset",
	"Q3VZLMq5C0s":  "printf",
	"bzQExy189ZI":  "puts",
	"6xO4mGlUkBo":  "__stack_chk_guard",
	"8G7fDeJuNR4":  "__stack_chk_fail",
	"2sNBX6TwSQk":  "pthread_create",
	"Z4QosVuAsA0":  "pthread_mutex_lock",
	"KuOmgKoLb48":  "pthread_mutex_unlock",
})
