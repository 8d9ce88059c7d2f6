// Package config loads field profiles from YAML.
//
// A profile lists the synchronized fields of an application with their value kind,
// wire quantization and blending settings, plus defaults shared by every field:
//
//	compression: zstd
//	defaults:
//	  send_interval: 50ms
//	  presentation_lead: 250ms
//	fields:
//	  - name: position
//	    kind: vector3
//	    quantization: {lower: -512, upper: 512, bits: 20, clamp: true}
//	  - name: rotation
//	    kind: rotation
//	    rotation_bits: 10
//	    smoothing: true
//
// Durations are Go duration strings. Profile.Build turns a profile into a
// field.Registry.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/snapsync/errs"
	"github.com/arloliu/snapsync/field"
	"github.com/arloliu/snapsync/format"
)

// Profile is the top-level document.
type Profile struct {
	// Compression names the codec of history blobs: none, zstd, s2 or lz4.
	Compression string      `yaml:"compression"`
	Defaults    Timing      `yaml:"defaults"`
	Fields      []FieldSpec `yaml:"fields"`
}

// Timing holds the blending settings a field may override. Zero values and nil
// pointers mean "not set".
type Timing struct {
	SendInterval     time.Duration `yaml:"send_interval"`
	PresentationLead *time.Duration `yaml:"presentation_lead"`
	Staleness        time.Duration `yaml:"staleness"`
	MaxExtrapolation time.Duration `yaml:"max_extrapolation"`
	MinCapacity      int           `yaml:"min_capacity"`
	Smoothing        *bool         `yaml:"smoothing"`
	Acceleration     *bool         `yaml:"acceleration"`
}

// QuantizationSpec bounds the wire encoding of a scalar or vector field.
type QuantizationSpec struct {
	Lower float32 `yaml:"lower"`
	Upper float32 `yaml:"upper"`
	Bits  uint32  `yaml:"bits"`
	Clamp bool    `yaml:"clamp"`
}

// FieldSpec describes one field.
type FieldSpec struct {
	Name         string            `yaml:"name"`
	Kind         string            `yaml:"kind"`
	Quantization *QuantizationSpec `yaml:"quantization"`
	RotationBits uint32            `yaml:"rotation_bits"`
	Timing       `yaml:",inline"`
}

// Parse decodes and validates a YAML profile.
func Parse(data []byte) (*Profile, error) {
	return Load(bytes.NewReader(data))
}

// Load decodes and validates a YAML profile read from r. Unknown keys are rejected.
func Load(r io.Reader) (*Profile, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil reader", errs.ErrInvalidConfigSource)
	}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Profile
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", errs.ErrInvalidConfigSource)
		}

		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidConfigSource, err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

// LoadFile reads a YAML profile from path.
func LoadFile(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return p, nil
}

// Validate checks every field entry and reports all problems found.
func (p *Profile) Validate() error {
	var problems []error

	if _, err := p.CompressionType(); err != nil {
		problems = append(problems, err)
	}
	if len(p.Fields) == 0 {
		problems = append(problems, fmt.Errorf("%w: profile declares no fields", errs.ErrInvalidConfigSource))
	}

	seen := make(map[string]struct{}, len(p.Fields))
	for i, spec := range p.Fields {
		if _, dup := seen[spec.Name]; dup && spec.Name != "" {
			problems = append(problems, fmt.Errorf("fields[%d]: %w: %q", i, errs.ErrFieldAlreadyRegistered, spec.Name))
			continue
		}
		seen[spec.Name] = struct{}{}

		kind, opts, err := p.resolve(spec).Options()
		if err == nil {
			_, err = field.New(spec.Name, kind, opts...)
		}
		if err != nil {
			problems = append(problems, fmt.Errorf("fields[%d]: %w", i, err))
		}
	}

	return errors.Join(problems...)
}

// CompressionType returns the history blob codec named by the profile.
// An empty name selects format.CompressionNone.
func (p *Profile) CompressionType() (format.CompressionType, error) {
	return format.ParseCompressionType(p.Compression)
}

// Build creates a field for every entry and registers them, in document order.
// shared options apply to every field before the entry's own settings.
func (p *Profile) Build(shared ...field.Option) (*field.Registry, error) {
	reg := field.NewRegistry()
	for i, spec := range p.Fields {
		kind, opts, err := p.resolve(spec).Options()
		if err != nil {
			return nil, fmt.Errorf("fields[%d]: %w", i, err)
		}

		f, err := field.New(spec.Name, kind, append(append([]field.Option{}, shared...), opts...)...)
		if err != nil {
			return nil, fmt.Errorf("fields[%d]: %w", i, err)
		}
		if err := reg.Register(f); err != nil {
			return nil, fmt.Errorf("fields[%d]: %w", i, err)
		}
	}

	return reg, nil
}

// resolve fills the unset timing settings of spec from the profile defaults.
func (p *Profile) resolve(spec FieldSpec) FieldSpec {
	d := p.Defaults
	t := &spec.Timing
	if t.SendInterval == 0 {
		t.SendInterval = d.SendInterval
	}
	if t.PresentationLead == nil {
		t.PresentationLead = d.PresentationLead
	}
	if t.Staleness == 0 {
		t.Staleness = d.Staleness
	}
	if t.MaxExtrapolation == 0 {
		t.MaxExtrapolation = d.MaxExtrapolation
	}
	if t.MinCapacity == 0 {
		t.MinCapacity = d.MinCapacity
	}
	if t.Smoothing == nil {
		t.Smoothing = d.Smoothing
	}
	if t.Acceleration == nil {
		t.Acceleration = d.Acceleration
	}

	return spec
}

// Options converts the entry into a value kind and the field options it sets.
// Unset settings produce no option, leaving the field defaults in place.
func (s FieldSpec) Options() (format.ValueKind, []field.Option, error) {
	kind, err := format.ParseValueKind(s.Kind)
	if err != nil {
		return 0, nil, fmt.Errorf("field %q: %w", s.Name, err)
	}

	var opts []field.Option
	if q := s.Quantization; q != nil {
		opts = append(opts, field.WithQuantization(q.Lower, q.Upper, q.Bits, q.Clamp))
	}
	if s.RotationBits != 0 {
		opts = append(opts, field.WithRotationBits(s.RotationBits))
	}
	if s.SendInterval != 0 {
		opts = append(opts, field.WithSendInterval(s.SendInterval))
	}
	if s.PresentationLead != nil {
		opts = append(opts, field.WithPresentationLead(*s.PresentationLead))
	}
	if s.Staleness != 0 {
		opts = append(opts, field.WithStaleness(s.Staleness))
	}
	if s.MaxExtrapolation != 0 {
		opts = append(opts, field.WithMaxExtrapolation(s.MaxExtrapolation))
	}
	if s.MinCapacity != 0 {
		opts = append(opts, field.WithMinCapacity(s.MinCapacity))
	}
	if s.Smoothing != nil {
		opts = append(opts, field.WithSmoothing(*s.Smoothing))
	}
	if s.Acceleration != nil {
		opts = append(opts, field.WithAcceleration(*s.Acceleration))
	}

	return kind, opts, nil
}
