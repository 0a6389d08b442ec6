package resource

import (
	"fmt"
	"sync"
)

// Kind identifies which of the six PBS resource value representations a
// Def uses.
type Kind int

const (
	KindLong Kind = iota
	KindSize
	KindString
	KindStringArray
	KindBoolean
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindLong:
		return "long"
	case KindSize:
		return "size"
	case KindString:
		return "string"
	case KindStringArray:
		return "string_array"
	case KindBoolean:
		return "boolean"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Flag is a bitmask of behavioral flags a Def carries.
type Flag uint8

const (
	// FlagConsumable marks a resource whose values combine by arithmetic
	// (Add/Subtract) rather than simple equality.
	FlagConsumable Flag = 1 << iota
	// FlagHost marks a resource that is summed across every vnode of a
	// host when computing host-level totals.
	FlagHost
	// FlagRassn marks a resource whose job-wide (select-wide) usage is
	// aggregated and checked against availability at eligibility time.
	FlagRassn
	// FlagBool marks a resource whose natural comparisons are boolean
	// rather than ordered.
	FlagBool
	// FlagCvtslt marks a resource that participates in select-string
	// matching beyond simple equality (cvtslt = "convert select").
	FlagCvtslt
)

func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// Def is a resource definition: a stable identity plus the type and flags
// that govern how its values are parsed, compared and combined. All
// comparisons in the scheduler core go through Def pointers, never names.
type Def struct {
	Name  string
	Kind  Kind
	Flags Flag
}

// Registry is a process-wide name -> *Def table. A SchedulerContext holds
// exactly one Registry, built once per config reload.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Def
}

// NewRegistry returns an empty registry seeded with no definitions.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Def)}
}

// Register adds a new definition. It returns an error if a definition
// with the same name already exists with different type/flags, so that
// repeated registration from multiple config sources is idempotent.
func (r *Registry) Register(name string, kind Kind, flags Flag) (*Def, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.defs[name]; ok {
		if existing.Kind != kind || existing.Flags != flags {
			return nil, fmt.Errorf("resource %q already registered with different type/flags", name)
		}
		return existing, nil
	}

	d := &Def{Name: name, Kind: kind, Flags: flags}
	r.defs[name] = d
	return d, nil
}

// MustRegister is Register but panics on conflict; intended for tests and
// for the built-in resource set seeded at startup.
func (r *Registry) MustRegister(name string, kind Kind, flags Flag) *Def {
	d, err := r.Register(name, kind, flags)
	if err != nil {
		panic(err)
	}
	return d
}

// Lookup resolves a definition by name, the only place a name-based lookup
// should occur (snapshot ingestion and config parsing).
func (r *Registry) Lookup(name string) (*Def, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[name]
	return d, ok
}

// All returns every registered definition, for diagnostics/CLI output.
func (r *Registry) All() []*Def {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Def, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	return out
}

// Builtin seeds a registry with the standard PBS resource set used by the
// test fixtures and examples in this module. The module has no parser
// for a site resource definition file; further definitions are added
// with Register.
func Builtin() *Registry {
	r := NewRegistry()
	r.MustRegister("ncpus", KindLong, FlagConsumable|FlagRassn)
	r.MustRegister("mem", KindSize, FlagConsumable|FlagRassn)
	r.MustRegister("vmem", KindSize, FlagConsumable)
	r.MustRegister("walltime", KindLong, FlagConsumable|FlagRassn)
	r.MustRegister("cput", KindLong, FlagConsumable|FlagRassn)
	r.MustRegister("ngpus", KindLong, FlagConsumable|FlagRassn)
	r.MustRegister("host", KindString, 0)
	r.MustRegister("vnode", KindString, 0)
	r.MustRegister("switch", KindString, FlagCvtslt)
	r.MustRegister("aoe", KindString, FlagCvtslt)
	r.MustRegister("arch", KindString, 0)
	r.MustRegister("features", KindStringArray, 0)
	r.MustRegister("shared", KindBoolean, 0)
	r.MustRegister("provision_enable", KindBoolean, 0)
	r.MustRegister("load", KindFloat, FlagHost)
	return r
}
