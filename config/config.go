// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package config loads fxc build manifests.
//
// A manifest lists the effects of a project together with the options they
// share:
//
//	target: glsl
//	es: true
//	debug: false
//	novalidate: false
//	include: [shaders/include]
//	defines: {QUALITY: "2"}
//	cache: .fxc/cache.db
//	jobs: 4
//	effects:
//	  - source: shaders/basic.fx
//	    output: build/basic.fxb
//	    defines: {SKINNED: "1"}
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/fxc/binfmt"
)

// DefaultName is the manifest file name looked up by the CLI.
const DefaultName = "fxc.yaml"

// Manifest is a parsed build manifest.
type Manifest struct {
	Target  string            `yaml:"target"`
	Debug   bool              `yaml:"debug"`
	Include []string          `yaml:"include"`
	Defines map[string]string `yaml:"defines"`

	// ES selects GLSL ES 3.0. It requires the glsl target.
	ES bool `yaml:"es"`

	// NoValidate compiles without validating the shader IR.
	NoValidate bool `yaml:"novalidate"`

	// Cache is the build cache database. Empty disables caching.
	Cache string `yaml:"cache"`

	// Jobs bounds concurrent compiles. Zero means one per CPU.
	Jobs int `yaml:"jobs"`

	Effects []Effect `yaml:"effects"`

	// Dir is the directory relative paths were resolved against. It is
	// empty for manifests from Parse.
	Dir string `yaml:"-"`
}

// Effect is one effect to build.
type Effect struct {
	Source string `yaml:"source"`

	// Output defaults to Source with the extension replaced by ".fxb".
	Output string `yaml:"output"`

	// Defines override the manifest-wide defines for this effect.
	Defines map[string]string `yaml:"defines"`
}

// ErrNoEffects is returned for a manifest without effects.
var ErrNoEffects = errors.New("manifest lists no effects")

// Load reads and validates the manifest at path. Relative paths inside it
// are resolved against the manifest's directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.resolve(filepath.Dir(path))
	return m, nil
}

// Parse decodes and validates a manifest. Unknown keys are errors.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	for i := range m.Effects {
		if m.Effects[i].Output == "" {
			m.Effects[i].Output = outputName(m.Effects[i].Source)
		}
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func outputName(source string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + ".fxb"
}

func (m *Manifest) validate() error {
	if m.Target != "" {
		if _, err := binfmt.ParseTarget(m.Target); err != nil {
			return err
		}
	}
	if m.ES && m.TargetValue() != binfmt.TargetGLSL {
		return fmt.Errorf("es requires target glsl, got %s", m.TargetValue())
	}
	if m.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", m.Jobs)
	}
	if len(m.Effects) == 0 {
		return ErrNoEffects
	}
	outputs := make(map[string]int, len(m.Effects))
	for i, e := range m.Effects {
		if e.Source == "" {
			return fmt.Errorf("effect %d: missing source", i+1)
		}
		out := filepath.Clean(e.Output)
		if j, dup := outputs[out]; dup {
			return fmt.Errorf("effects %d and %d both write %s", j+1, i+1, e.Output)
		}
		outputs[out] = i
	}
	return nil
}

func (m *Manifest) resolve(dir string) {
	m.Dir = dir
	join := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	for i, p := range m.Include {
		m.Include[i] = join(p)
	}
	m.Cache = join(m.Cache)
	for i := range m.Effects {
		m.Effects[i].Source = join(m.Effects[i].Source)
		m.Effects[i].Output = join(m.Effects[i].Output)
	}
}

// TargetValue returns the parsed target, SPIR-V when none is set.
func (m *Manifest) TargetValue() binfmt.Target {
	if m.Target == "" {
		return binfmt.TargetSPIRV
	}
	t, err := binfmt.ParseTarget(m.Target)
	if err != nil {
		return binfmt.TargetUnknown
	}
	return t
}

// DefinesFor returns the manifest defines with e's defines merged over
// them. The result is a new map.
func (m *Manifest) DefinesFor(e Effect) map[string]string {
	defs := make(map[string]string, len(m.Defines)+len(e.Defines))
	for k, v := range m.Defines {
		defs[k] = v
	}
	for k, v := range e.Defines {
		defs[k] = v
	}
	return defs
}
