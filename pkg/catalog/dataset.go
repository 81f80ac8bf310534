// Package catalog holds the reference lists the survey offers: districts and
// their blocks, and the crop, irrigation, soil, seed, fertilizer and pest
// choices. Lists come from the embedded defaults or are imported from
// workbooks, CSV exports and HTML tables.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"krushi/entities"
)

var (
	ErrUnknownDistrict = errors.New("unknown district")
	ErrUnknownKind     = errors.New("unknown catalog kind")
	ErrEmptyImport     = errors.New("import contains no rows")
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Item struct {
	Name  string `yaml:"name" json:"name"`
	Label string `yaml:"label" json:"label"`
}

// UnmarshalYAML accepts either a bare name or a {name, label} mapping.
func (it *Item) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		it.Name = n.Value
		return nil
	}
	type plain Item
	return n.Decode((*plain)(it))
}

type DistrictBlocks struct {
	Name   string   `yaml:"name"`
	Blocks []string `yaml:"blocks"`
}

// Dataset is one import unit. Districts keep their source order; Items is
// keyed by entities.Kind*.
type Dataset struct {
	State     string            `yaml:"state"`
	Districts []DistrictBlocks  `yaml:"districts"`
	Items     map[string][]Item `yaml:"items"`
}

// Defaults returns the built-in Odisha lists.
func Defaults() Dataset {
	ds, err := LoadDataset(bytes.NewReader(defaultsYAML))
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded defaults.yaml: %v", err))
	}
	return ds
}

func LoadDataset(r io.Reader) (Dataset, error) {
	var ds Dataset
	if err := yaml.NewDecoder(r).Decode(&ds); err != nil {
		return Dataset{}, fmt.Errorf("decode catalog: %w", err)
	}
	if err := ds.Normalize(); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

// Normalize trims names, merges repeated districts and drops duplicate blocks
// and items, keeping first occurrences.
func (ds *Dataset) Normalize() error {
	var out []DistrictBlocks
	idx := map[string]int{}
	for _, d := range ds.Districts {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			continue
		}
		i, ok := idx[strings.ToLower(name)]
		if !ok {
			i = len(out)
			idx[strings.ToLower(name)] = i
			out = append(out, DistrictBlocks{Name: name, Blocks: []string{}})
		}
		for _, b := range d.Blocks {
			b = strings.TrimSpace(b)
			if b != "" && !slices.Contains(out[i].Blocks, b) {
				out[i].Blocks = append(out[i].Blocks, b)
			}
		}
	}
	ds.Districts = out

	for kind, items := range ds.Items {
		if !validKind(kind) {
			return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
		}
		seen := map[string]bool{}
		clean := make([]Item, 0, len(items))
		for _, it := range items {
			it.Name = strings.TrimSpace(it.Name)
			if it.Name == "" || seen[it.Name] {
				continue
			}
			seen[it.Name] = true
			if it.Label == "" {
				it.Label = it.Name
			}
			clean = append(clean, it)
		}
		ds.Items[kind] = clean
	}
	return nil
}

func (ds Dataset) Empty() bool {
	n := 0
	for _, items := range ds.Items {
		n += len(items)
	}
	return len(ds.Districts) == 0 && n == 0
}

// Rows flattens the dataset into table rows.
func (ds Dataset) Rows() ([]entities.District, []entities.Block, []entities.CatalogItem) {
	var (
		districts []entities.District
		blocks    []entities.Block
		items     []entities.CatalogItem
	)
	for _, d := range ds.Districts {
		districts = append(districts, entities.District{Name: d.Name, State: ds.State})
		for i, b := range d.Blocks {
			blocks = append(blocks, entities.Block{District: d.Name, Name: b, Ord: i})
		}
	}
	for _, kind := range entities.CatalogKinds {
		for i, it := range ds.Items[kind] {
			items = append(items, entities.CatalogItem{Kind: kind, Name: it.Name, Label: it.Label, Ord: i})
		}
	}
	return districts, blocks, items
}

func validKind(kind string) bool { return slices.Contains(entities.CatalogKinds, kind) }

// ParseKind checks a kind coming from outside.
func ParseKind(s string) (string, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.ReplaceAll(k, "-", "_")
	if !validKind(k) {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}
