package relevec

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/relevec/codec"
)

// Serializer converts vectors and registry contents to and from their
// interchange records, and to bytes through a codec.Codec.
type Serializer struct {
	registry *Registry
	codec    codec.Codec
	logger   *Logger
	metrics  MetricsCollector
}

// NewSerializer creates a Serializer that resolves schema names in registry.
func NewSerializer(registry *Registry, optFns ...Option) *Serializer {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Serializer{
		registry: registry,
		codec:    opts.codec,
		logger:   opts.logger,
		metrics:  opts.metricsCollector,
	}
}

// Registry returns the registry used to resolve schema names.
func (s *Serializer) Registry() *Registry { return s.registry }

// Codec returns the codec used by the byte-level methods.
func (s *Serializer) Codec() codec.Codec { return s.codec }

// ExportVector returns the interchange record of v. Entries are keyed by
// name for named schemas and by index otherwise, in ascending index order.
func (s *Serializer) ExportVector(v *Vector) VectorRecord {
	start := time.Now()
	entries := v.Entries()
	for i, e := range entries {
		if name, ok := v.Schema().NameForIndex(e.Key.Index()); ok {
			entries[i].Key = NameKey(name)
		}
	}
	s.metrics.RecordVectorExport(len(entries), time.Since(start))
	return VectorRecord{SchemaName: v.Schema().Name(), Entries: entries}
}

// ImportVector rebuilds a vector from its record. The schema must already be
// registered.
func (s *Serializer) ImportVector(rec VectorRecord) (*Vector, error) {
	start := time.Now()
	v, err := s.importVector(rec)
	s.metrics.RecordVectorImport(time.Since(start), err)
	if err != nil {
		s.logger.WithSchema(rec.SchemaName).DebugContext(context.Background(), "vector import failed", "error", err)
	}
	return v, err
}

func (s *Serializer) importVector(rec VectorRecord) (*Vector, error) {
	if err := ValidateName(rec.SchemaName); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	schema, ok := s.registry.Lookup(rec.SchemaName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchema, rec.SchemaName)
	}
	entries := rec.Entries
	if schema.Kind() != KindNamed && len(entries) > 0 && entries[0].Key.IsName() {
		for _, e := range entries {
			if !e.Key.IsName() {
				return nil, ErrMixedKeyTypes
			}
		}
		var err error
		if entries, err = indexEntries(entries); err != nil {
			return nil, err
		}
	}
	return NewVector(schema, entries...)
}

// ExportRegistry returns the registry record of every registered schema.
func (s *Serializer) ExportRegistry() RegistryRecord {
	return s.registry.ExportAll()
}

// ImportRegistry registers every schema of rec; see Registry.ImportAll.
func (s *Serializer) ImportRegistry(rec RegistryRecord) error {
	return s.registry.ImportAll(rec)
}

// MarshalVector encodes the record of v with the configured codec.
func (s *Serializer) MarshalVector(v *Vector) ([]byte, error) {
	return s.codec.Marshal(s.ExportVector(v).Map())
}

// UnmarshalVector decodes a vector record with the configured codec and
// rebuilds the vector.
func (s *Serializer) UnmarshalVector(data []byte) (*Vector, error) {
	var raw any
	if err := s.codec.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	rec, err := DecodeVectorRecord(raw)
	if err != nil {
		return nil, err
	}
	return s.ImportVector(rec)
}

// MarshalRegistry encodes the registry record with the configured codec.
func (s *Serializer) MarshalRegistry() ([]byte, error) {
	return s.codec.Marshal(s.ExportRegistry().Map())
}

// UnmarshalRegistry decodes a registry record with the configured codec and
// imports it strictly.
func (s *Serializer) UnmarshalRegistry(data []byte) error {
	var raw any
	if err := s.codec.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	rec, err := DecodeRegistryRecord(raw)
	if err != nil {
		return err
	}
	return s.ImportRegistry(rec)
}
