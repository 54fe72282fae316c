package catalog

import (
	"fmt"
	"sort"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
)

// Country groups the regions, provinces and zones used by activities in one
// country.
type Country struct {
	// Regions maps region to its provinces.
	Regions map[string]map[string]bool `json:"regions"`
	Zones   map[string]bool            `json:"zones,omitempty"`
}

// LocationIndex maps a country to the locations used in it.
type LocationIndex map[string]*Country

// Locations aggregates the locations of every activity in the data root.
func (c *Catalog) Locations() (LocationIndex, error) {
	entries, err := c.Activities()
	if err != nil {
		return nil, err
	}
	index := LocationIndex{}
	for _, e := range entries {
		data, err := afero.ReadFile(c.fs, e.Path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Path, err)
		}
		loc := gjson.GetManyBytes(data,
			"location.country", "location.region", "location.province", "location.zone")
		index.add(loc[0].String(), loc[1].String(), loc[2].String(), loc[3].String())
	}
	return index, nil
}

func (idx LocationIndex) add(country, region, province, zone string) {
	if country == "" {
		return
	}
	entry, ok := idx[country]
	if !ok {
		entry = &Country{Regions: map[string]map[string]bool{}}
		idx[country] = entry
	}
	if region != "" {
		if entry.Regions[region] == nil {
			entry.Regions[region] = map[string]bool{}
		}
		if province != "" {
			entry.Regions[region][province] = true
		}
	}
	if zone != "" {
		if entry.Zones == nil {
			entry.Zones = map[string]bool{}
		}
		entry.Zones[zone] = true
	}
}

// Countries returns the known countries sorted.
func (idx LocationIndex) Countries() []string {
	out := make([]string, 0, len(idx))
	for name := range idx {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Regions returns the known regions of country sorted.
func (idx LocationIndex) Regions(country string) []string {
	entry, ok := idx[country]
	if !ok {
		return nil
	}
	return sortedKeys(entry.Regions)
}

// Provinces returns the known provinces of a region sorted.
func (idx LocationIndex) Provinces(country, region string) []string {
	entry, ok := idx[country]
	if !ok {
		return nil
	}
	return sortedKeys(entry.Regions[region])
}

// Zones returns the known zones of country sorted.
func (idx LocationIndex) Zones(country string) []string {
	entry, ok := idx[country]
	if !ok {
		return nil
	}
	return sortedKeys(entry.Zones)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
