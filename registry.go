package relevec

import (
	"context"
	"sort"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"
)

// HostNamespace reports names that are already bound by the surrounding
// program. Registries reject such names even though they are not registered.
type HostNamespace interface {
	Has(name string) bool
}

// HostNames is a fixed set of host names.
type HostNames map[string]struct{}

// NewHostNames returns a HostNames holding names.
func NewHostNames(names ...string) HostNames {
	h := make(HostNames, len(names))
	for _, n := range names {
		h[n] = struct{}{}
	}
	return h
}

// Has implements HostNamespace.
func (h HostNames) Has(name string) bool {
	_, ok := h[name]
	return ok
}

// Registry is a catalog of named schemas. It is the only way to create a
// Schema and is used to resolve schema names during deserialization.
//
// Entries are never removed or replaced. Registry is safe for concurrent use;
// each call is atomic.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema

	host    HostNamespace
	logger  *Logger
	metrics MetricsCollector
}

// NewRegistry creates an empty registry.
func NewRegistry(optFns ...Option) *Registry {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{
		schemas: make(map[string]*Schema),
		host:    opts.host,
		logger:  opts.logger,
		metrics: opts.metricsCollector,
	}
}

// ValidateName checks the registry key format: a non-empty name starting with
// an uppercase letter, or with '_' followed by an uppercase letter.
func ValidateName(name string) error {
	reject := func(reason string) error {
		return &NameError{Name: name, Reason: reason, cause: ErrInvalidNameFormat}
	}
	first, size := utf8.DecodeRuneInString(name)
	switch {
	case name == "":
		return reject("name is empty")
	case unicode.IsUpper(first):
		return nil
	case unicode.IsLower(first):
		return reject("name begins with a lowercase letter")
	case unicode.IsDigit(first):
		return reject("name begins with a digit")
	case first == '_':
		second, _ := utf8.DecodeRuneInString(name[size:])
		if !unicode.IsUpper(second) {
			return reject("a leading underscore must be followed by an uppercase letter")
		}
		return nil
	default:
		return reject("name does not begin with an uppercase letter or underscore")
	}
}

// ValidateName checks the registry key format; see the package-level ValidateName.
func (r *Registry) ValidateName(name string) error { return ValidateName(name) }

// CheckNameAvailable fails if name is registered or bound in the host namespace.
func (r *Registry) CheckNameAvailable(name string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.checkAvailableLocked(name)
}

func (r *Registry) checkAvailableLocked(name string) error {
	if _, ok := r.schemas[name]; ok {
		return &NameError{Name: name, Reason: "already registered", cause: ErrNameAlreadyRegistered}
	}
	if r.host != nil && r.host.Has(name) {
		return &NameError{Name: name, Reason: "already bound in the host namespace", cause: ErrNameCollidesWithHost}
	}
	return nil
}

// Lookup returns the schema registered under name.
func (r *Registry) Lookup(name string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	return s, ok
}

// GetOrCreate returns the schema registered under name, or builds and
// registers one from the shape options.
//
// An existing schema is returned as is; the shape options are not compared
// against it.
func (r *Registry) GetOrCreate(name string, shapeFns ...ShapeOption) (*Schema, error) {
	var sh shape
	for _, fn := range shapeFns {
		fn(&sh)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.schemas[name]; ok {
		return s, nil
	}

	start := time.Now()
	s, err := r.defineLocked(name, sh)
	r.metrics.RecordDefine(time.Since(start), err)
	kind := KindUnconstrained
	if s != nil {
		kind = s.Kind()
	}
	r.logger.LogDefine(context.Background(), name, kind, err)
	return s, err
}

func (r *Registry) defineLocked(name string, sh shape) (*Schema, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if sh.err != nil {
		return nil, sh.err
	}
	if err := r.checkAvailableLocked(name); err != nil {
		return nil, err
	}
	s, err := buildSchema(name, sh.record)
	if err != nil {
		return nil, err
	}
	r.schemas[name] = s
	return s, nil
}

// ImportOne registers a schema from its record. Unlike GetOrCreate it fails
// with ErrNameAlreadyRegistered when name is taken.
func (r *Registry) ImportOne(name string, rec SchemaRecord) (*Schema, error) {
	start := time.Now()
	r.mu.Lock()
	s, err := r.importLocked(name, rec)
	r.mu.Unlock()

	imported := 0
	if err == nil {
		imported = 1
	}
	r.metrics.RecordImport(1, imported, time.Since(start))
	r.logger.WithSchema(name).LogImport(context.Background(), 1, imported, err)
	return s, err
}

func (r *Registry) importLocked(name string, rec SchemaRecord) (*Schema, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := r.checkAvailableLocked(name); err != nil {
		return nil, err
	}
	s, err := buildSchema(name, rec)
	if err != nil {
		return nil, err
	}
	r.schemas[name] = s
	return s, nil
}

// ImportAll applies ImportOne to every entry of rec in ascending name order.
//
// It stops at the first failure and returns an *ImportError. Schemas imported
// before the failure stay registered.
func (r *Registry) ImportAll(rec RegistryRecord) error {
	start := time.Now()
	names := rec.Names()

	r.mu.Lock()
	imported := 0
	var err error
	for _, name := range names {
		if _, err = r.importLocked(name, rec[name]); err != nil {
			err = &ImportError{Name: name, Err: err}
			break
		}
		imported++
	}
	r.mu.Unlock()

	r.metrics.RecordImport(len(names), imported, time.Since(start))
	r.logger.LogImport(context.Background(), len(names), imported, err)
	return err
}

// ExportAll describes every registered schema.
func (r *Registry) ExportAll() RegistryRecord {
	start := time.Now()
	r.mu.RLock()
	out := make(RegistryRecord, len(r.schemas))
	for name, s := range r.schemas {
		out[name] = s.Describe()
	}
	r.mu.RUnlock()

	r.metrics.RecordExport(len(out), time.Since(start))
	r.logger.LogExport(context.Background(), len(out))
	return out
}

// Names returns the registered schema names in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schemas)
}

func buildSchema(name string, rec SchemaRecord) (*Schema, error) {
	switch {
	case rec.DimCount != nil && rec.DimNames != nil:
		return nil, ErrAmbiguousShape
	case rec.DimNames != nil:
		return newNamedSchema(name, rec.DimNames)
	case rec.DimCount != nil:
		return newBoundedSchema(name, *rec.DimCount)
	default:
		return newUnconstrainedSchema(name), nil
	}
}
