// Package expand computes the run space declared by run groups: the
// cartesian product of each group's swept variables in odometer
// order, with static parameters merged into every instance.
package expand

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/chauffeur/pkg/core"
)

// Group declares the swept variables of one run group.
type Group struct {
	// Variables maps each variable name to its ordered, non-empty
	// candidate values.
	Variables map[string][]core.Value

	// Order lists the variable names fastest-varying first. Its name
	// set must equal the key set of Variables.
	Order []string

	// Parameters are static overrides merged into every instance,
	// winning over swept values on key collision.
	Parameters map[string]core.Value
}

// Instance is one concrete assignment of values to all swept
// variables of a group, plus merged static parameters. Instances are
// read-only after creation.
type Instance struct {
	Group  string
	Index  int
	Params map[string]core.Value
}

// Expand enumerates a group's instances in odometer order: the first
// variable in Order changes fastest.
func Expand(name string, g Group) ([]Instance, error) {
	if err := validate(name, g); err != nil {
		return nil, err
	}

	total := 1
	for _, candidates := range g.Variables {
		total *= len(candidates)
	}

	instances := make([]Instance, 0, total)
	for n := 0; n < total; n++ {
		params := make(map[string]core.Value, len(g.Order)+len(g.Parameters))
		rem := n
		for _, v := range g.Order {
			candidates := g.Variables[v]
			params[v] = candidates[rem%len(candidates)]
			rem /= len(candidates)
		}
		for k, v := range g.Parameters {
			params[k] = v
		}
		instances = append(instances, Instance{Group: name, Index: n, Params: params})
	}

	return instances, nil
}

// ExpandAll expands every group and concatenates the results in
// lexicographic order of group name.
func ExpandAll(groups map[string]Group) ([]Instance, error) {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var all []Instance
	for _, name := range names {
		instances, err := Expand(name, groups[name])
		if err != nil {
			return nil, err
		}
		all = append(all, instances...)
	}
	return all, nil
}

func validate(name string, g Group) error {
	if len(g.Variables) == 0 {
		return fmt.Errorf("run group %q declares no variables", name)
	}
	if len(g.Order) != len(g.Variables) {
		return fmt.Errorf("run group %q: variable order and variables do not match", name)
	}
	seen := make(map[string]bool, len(g.Order))
	for _, v := range g.Order {
		candidates, ok := g.Variables[v]
		if !ok {
			return fmt.Errorf("run group %q: variable order names unknown variable %q", name, v)
		}
		if seen[v] {
			return fmt.Errorf("run group %q: variable %q listed twice in variable order", name, v)
		}
		seen[v] = true
		if len(candidates) == 0 {
			return fmt.Errorf("run group %q: variable %q has no candidate values", name, v)
		}
	}
	return nil
}
