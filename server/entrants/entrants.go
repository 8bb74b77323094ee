// Package entrants is the country roster the tournament draws its field
// from. The roster is embedded YAML; selection follows continent quotas.
package entrants

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"gopkg.in/yaml.v3"

	"tombala-cup/server/rng"
	"tombala-cup/server/tournament"
)

//go:embed roster.yaml
var rosterYAML []byte

const (
	Europe   = "Europe"
	Asia     = "Asia"
	Africa   = "Africa"
	Americas = "Americas"
	Oceania  = "Oceania"
)

// Regions is the order quotas are filled in.
var Regions = []string{Europe, Asia, Africa, Americas, Oceania}

// Quotas for a 32-team field.
var Quotas = map[string]int{
	Europe:   8,
	Asia:     8,
	Africa:   8,
	Americas: 5,
	Oceania:  3,
}

var ErrNotEnough = errors.New("roster too small for requested field")

type roster struct {
	Countries []tournament.Entrant `yaml:"countries"`
}

var (
	loadOnce sync.Once
	all      []tournament.Entrant
	byID     map[string]tournament.Entrant
	loadErr  error
)

func load() {
	var r roster
	if err := yaml.Unmarshal(rosterYAML, &r); err != nil {
		loadErr = fmt.Errorf("parse roster: %w", err)
		return
	}
	byID = make(map[string]tournament.Entrant, len(r.Countries))
	for _, c := range r.Countries {
		if _, dup := byID[c.ID]; dup {
			loadErr = fmt.Errorf("roster: duplicate id %q", c.ID)
			return
		}
		byID[c.ID] = c
	}
	all = r.Countries
}

// All returns a copy of the roster in file order.
func All() ([]tournament.Entrant, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	return append([]tournament.Entrant(nil), all...), nil
}

// Lookup finds a country by id.
func Lookup(id string) (tournament.Entrant, bool) {
	loadOnce.Do(load)
	e, ok := byID[id]
	return e, ok
}

// Draw picks count distinct countries. For a full 32-team field each
// continent contributes its quota; first, when set, is kept at index 0 and
// counted against its own continent. Short quotas are topped up from the
// rest of the roster. Other counts are a plain random pick.
func Draw(r *rand.Rand, count int, first *tournament.Entrant) ([]tournament.Entrant, error) {
	pool, err := All()
	if err != nil {
		return nil, err
	}
	if count > len(pool) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrNotEnough, count, len(pool))
	}
	if count <= 0 {
		return nil, nil
	}

	taken := map[string]bool{}
	var out []tournament.Entrant
	if first != nil {
		out = append(out, *first)
		taken[first.ID] = true
	}

	if count == tournament.EntrantCount {
		quotas := make(map[string]int, len(Quotas))
		for k, v := range Quotas {
			quotas[k] = v
		}
		if first != nil && quotas[first.Continent] > 0 {
			quotas[first.Continent]--
		}
		for _, region := range Regions {
			var candidates []tournament.Entrant
			for _, c := range pool {
				if c.Continent == region && !taken[c.ID] {
					candidates = append(candidates, c)
				}
			}
			rng.Shuffle(r, candidates)
			for _, c := range candidates[:min(quotas[region], len(candidates))] {
				out = append(out, c)
				taken[c.ID] = true
			}
		}
	}

	if len(out) < count {
		var rest []tournament.Entrant
		for _, c := range pool {
			if !taken[c.ID] {
				rest = append(rest, c)
			}
		}
		rng.Shuffle(r, rest)
		out = append(out, rest[:count-len(out)]...)
	}
	out = out[:count]

	if first != nil {
		rng.Shuffle(r, out[1:])
	} else {
		rng.Shuffle(r, out)
	}
	return out, nil
}
