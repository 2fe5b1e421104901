// Package catalog loads, validates and stores the selectable entities of the
// brain model.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/playperu/brainlab/internal/brainlab"
)

//go:embed default.yaml
var defaultYAML []byte

//go:embed entity.schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("entity.schema.json", schemaJSON)

var ErrDuplicate = errors.New("duplicate entity name")

// Doc is the stored and wire form of an entity.
type Doc struct {
	Name      string    `json:"name" yaml:"name"`
	Category  string    `json:"category" yaml:"category"`
	Function  string    `json:"function,omitempty" yaml:"function"`
	Info      string    `json:"info" yaml:"info"`
	Instances int       `json:"instances,omitempty" yaml:"instances"`
	Nerve     *NerveDoc `json:"nerve,omitempty" yaml:"nerve"`
}

type NerveDoc struct {
	Number    int    `json:"number" yaml:"number"`
	ShortName string `json:"shortName" yaml:"short_name"`
	Modality  string `json:"modality" yaml:"modality"`
}

type file struct {
	Entities []Doc `yaml:"entities"`
}

// Entity converts d to the domain type.
func (d Doc) Entity() brainlab.Entity {
	e := brainlab.Entity{
		Name:     d.Name,
		Category: brainlab.Category(d.Category),
		Function: d.Function,
		InfoText: d.Info,
	}
	if d.Nerve != nil {
		e.Nerve = &brainlab.NerveInfo{
			Number:    d.Nerve.Number,
			ShortName: d.Nerve.ShortName,
			Modality:  d.Nerve.Modality,
		}
	}
	return e
}

// Validate checks d against the entity JSON schema.
func (d Doc) Validate() error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("entity %q: %w", d.Name, err)
	}
	return nil
}

// Expand returns one entity per scene mesh, so names with several instances
// repeat.
func Expand(docs []Doc) []brainlab.Entity {
	var out []brainlab.Entity
	for _, d := range docs {
		for range max(1, d.Instances) {
			out = append(out, d.Entity())
		}
	}
	return out
}

// Parse decodes a YAML catalog and validates every entry.
func Parse(raw []byte) ([]Doc, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(f.Entities))
	var errs []error
	for i, d := range f.Entities {
		d.Name = strings.TrimSpace(d.Name)
		f.Entities[i] = d
		if err := d.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[d.Name] {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicate, d.Name))
		}
		seen[d.Name] = true
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return f.Entities, nil
}

func Load(path string) ([]Doc, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	docs, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

// Default returns the built-in catalog.
func Default() []Doc {
	docs, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in catalog invalid: %v", err))
	}
	return docs
}
