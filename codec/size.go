package codec

import (
	"strconv"

	"github.com/huben1337/static-protocol/errors"
	"github.com/huben1337/static-protocol/layout"
)

// measureScope evaluates BaseSize plus every contribution of s against v.
func measureScope(s *layout.Scope, v any) (int, error) {
	size := s.BaseSize
	for i := range s.Contribs {
		ct := &s.Contribs[i]
		x, err := fieldOf(v, ct.Path)
		if err != nil {
			return 0, err
		}
		var n int
		switch ct.Kind {
		case layout.ContribVar:
			n, err = byteLen(x)
		case layout.ContribArray:
			n, err = measureArray(ct.Array, x)
		case layout.ContribUnion:
			n, err = measureUnion(ct.Union, x)
		}
		if err != nil {
			return 0, prefixWithPath(err, ct.Path...)
		}
		size += n
	}
	return size, nil
}

func measureUnion(u *layout.UnionPlan, x any) (int, error) {
	id, payload, err := enumParts(x)
	if err != nil {
		return 0, err
	}
	c, err := caseOf(u, id)
	if err != nil {
		return 0, err
	}
	if c.Payload == nil {
		return 0, nil
	}
	n, err := measureScope(c.Payload, payload)
	if err != nil {
		return 0, prefixWithPath(err, caseLabel(c))
	}
	return n, nil
}

// measureArray returns the bytes of an array after its count prefix. Aligned
// blocks are never measured here; padded layouts use the grow strategy.
func measureArray(a *layout.ArrayPlan, x any) (int, error) {
	items, err := seqOf(x)
	if err != nil {
		return 0, err
	}
	n := items.n
	switch a.Kind {
	case layout.ElemBools:
		return (n + 7) / 8, nil
	case layout.ElemBlock, layout.ElemFixed:
		return n * a.Type.Width, nil
	case layout.ElemVar:
		total := n * a.Type.Width
		for i := 0; i < n; i++ {
			l, err := byteLen(items.at(i))
			if err != nil {
				return 0, prefixWithPath(err, strconv.Itoa(i))
			}
			total += l
		}
		return total, nil
	}

	total := n * a.Elem.BaseSize
	if a.Elem.Fixed() {
		return total, nil
	}
	for i := 0; i < n; i++ {
		l, err := measureScope(a.Elem, items.at(i))
		if err != nil {
			return 0, prefixWithPath(err, strconv.Itoa(i))
		}
		total += l - a.Elem.BaseSize
	}
	return total, nil
}

// Contributions returns each root contribution evaluated against v, in
// layout order.
func (c *Codec) Contributions(v any) ([]int, error) {
	if c.layout.Padded {
		return nil, errors.Unsupported(errors.PhaseEncode, "contributions of a padded layout")
	}
	out := make([]int, len(c.layout.Contribs()))
	for i := range c.layout.Root.Contribs {
		ct := &c.layout.Root.Contribs[i]
		sub := &layout.Scope{Contribs: []layout.Contrib{*ct}}
		n, err := measureScope(sub, v)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
