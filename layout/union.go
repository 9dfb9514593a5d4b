package layout

import (
	"github.com/huben1337/static-protocol/errors"
	"github.com/huben1337/static-protocol/schema"
)

// MaxCases is the number of distinct one byte discriminants.
const MaxCases = 256

// CasePlan is one union case with its assigned discriminant.
type CasePlan struct {
	Key     any    // uint8 for numeric cases, string for mapped cases
	Payload *Scope // nil for unit cases
	Disc    uint8
}

// UnionPlan maps discriminants and keys to cases.
type UnionPlan struct {
	byKey  map[string]int
	Cases  []CasePlan
	byDisc [MaxCases]int16
	Mapped bool
}

// ByDisc returns the case written with discriminant d.
func (u *UnionPlan) ByDisc(d uint8) (*CasePlan, bool) {
	i := u.byDisc[d]
	if i < 0 {
		return nil, false
	}
	return &u.Cases[i], true
}

// ByName returns the mapped case called name.
func (u *UnionPlan) ByName(name string) (*CasePlan, bool) {
	i, ok := u.byKey[name]
	if !ok {
		return nil, false
	}
	return &u.Cases[i], true
}

// ByID returns the numeric case with id. Mapped cases are never matched by
// their assigned discriminant.
func (u *UnionPlan) ByID(id uint8) (*CasePlan, bool) {
	c, ok := u.ByDisc(id)
	if !ok {
		return nil, false
	}
	if _, mapped := c.Key.(string); mapped {
		return nil, false
	}
	return c, true
}

// assignDiscriminants reserves explicit ids first, then gives each mapped case
// the lowest unused id in declaration order.
func assignDiscriminants(u *schema.Union, path []string) ([]uint8, error) {
	if len(u.Cases) == 0 {
		return nil, errors.New(errors.PhaseCompile, errors.KindInvalidSchema).
			Path(path...).
			Detail("enum has no cases").
			Build()
	}
	if len(u.Cases) > MaxCases {
		return nil, errors.New(errors.PhaseCompile, errors.KindTooManyCases).
			Path(path...).
			Detail("%d cases, at most %d fit a one byte discriminant", len(u.Cases), MaxCases).
			Build()
	}

	discs := make([]uint8, len(u.Cases))
	var used [MaxCases]bool
	for i, c := range u.Cases {
		if c.Mapped() {
			continue
		}
		if c.ID < 0 || c.ID >= MaxCases {
			return nil, errors.New(errors.PhaseCompile, errors.KindCaseRange).
				Path(path...).
				Value(c.ID).
				Detail("case id %d outside 0..255", c.ID).
				Build()
		}
		if used[c.ID] {
			return nil, errors.New(errors.PhaseCompile, errors.KindDuplicateCase).
				Path(path...).
				Value(c.ID).
				Detail("case id %d declared twice", c.ID).
				Build()
		}
		used[c.ID] = true
		discs[i] = uint8(c.ID)
	}

	names := make(map[string]struct{})
	next := 0
	for i, c := range u.Cases {
		if !c.Mapped() {
			continue
		}
		if _, dup := names[c.Name]; dup {
			return nil, errors.New(errors.PhaseCompile, errors.KindDuplicateCase).
				Path(path...).
				Value(c.Name).
				Detail("case %q declared twice", c.Name).
				Build()
		}
		names[c.Name] = struct{}{}
		for next < MaxCases && used[next] {
			next++
		}
		if next >= MaxCases {
			return nil, errors.New(errors.PhaseCompile, errors.KindTooManyCases).
				Path(path...).
				Detail("ran out of discriminants mapping case %q", c.Name).
				Build()
		}
		used[next] = true
		discs[i] = uint8(next)
	}
	return discs, nil
}
