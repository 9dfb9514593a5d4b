package layout

import (
	"strconv"

	"github.com/huben1337/static-protocol/errors"
	"github.com/huben1337/static-protocol/schema"
)

// Compile plans def. It does not consult any cache; see Compiler.
func Compile(def *schema.Definition, opts Options) (*Layout, error) {
	if def == nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindInvalidSchema).
			Detail("definition cannot be nil").
			Build()
	}
	p := &planner{opts: opts}
	root, err := p.record(def, "")
	if err != nil {
		return nil, err
	}
	l := &Layout{
		Root:       root,
		Validators: p.validators,
		Options:    opts,
		Padded:     p.padded,
	}
	if opts.HasChannel {
		l.HeaderSize = 1
	}
	return l, nil
}

type planner struct {
	validators []Validator
	opts       Options
	padded     bool
}

// entry is one leaf, union or array reached by flattening nested records.
type entry struct {
	kind  schema.Kind
	path  []string // relative to the scope value
	where string   // structural path for validators and errors
}

func (p *planner) record(def *schema.Definition, where string) (*Scope, error) {
	var entries []entry
	var nested [][]string
	if err := p.flatten(def, nil, where, &entries, &nested); err != nil {
		return nil, err
	}
	s, err := p.scope(entries)
	if err != nil {
		return nil, err
	}
	s.Nested = nested
	return s, nil
}

func (p *planner) flatten(def *schema.Definition, prefix []string, where string, out *[]entry, nested *[][]string) error {
	seen := make(map[string]struct{}, len(def.Fields))
	for _, f := range def.Fields {
		if _, dup := seen[f.Name]; dup {
			return errors.DuplicateField(prefix, f.Name)
		}
		seen[f.Name] = struct{}{}

		path := append(append(make([]string, 0, len(prefix)+1), prefix...), f.Name)
		w := join(where, f.Name)
		if f.Kind == nil {
			return errors.New(errors.PhaseCompile, errors.KindInvalidSchema).
				Path(path...).
				Detail("field has no kind").
				Build()
		}
		if sub, ok := f.Kind.(*schema.Definition); ok {
			*nested = append(*nested, path)
			if err := p.flatten(sub, path, w, out, nested); err != nil {
				return err
			}
			continue
		}
		*out = append(*out, entry{kind: f.Kind, path: path, where: w})
	}
	return nil
}

// kindScope plans the scope of an array element or union payload.
func (p *planner) kindScope(k schema.Kind, where string) (*Scope, error) {
	if def, ok := k.(*schema.Definition); ok {
		return p.record(def, where)
	}
	s, err := p.scope([]entry{{kind: k, where: where}})
	if err != nil {
		return nil, err
	}
	s.Value = true
	return s, nil
}

func leafOf(k schema.Kind) (schema.Type, func(any) bool, bool) {
	switch k := k.(type) {
	case schema.Type:
		return k, nil, true
	case schema.Validated:
		return k.Type, k.Test, true
	}
	return schema.Type{}, nil, false
}

func (p *planner) validator(test func(any) bool, where string) int {
	if test == nil {
		return -1
	}
	p.validators = append(p.validators, Validator{Path: where, Test: test})
	return len(p.validators) - 1
}

func leafOp(t schema.Type, path []string, validator int) Op {
	op := Op{Path: path, Width: t.Width, Validator: validator}
	switch t.Class {
	case schema.ClassUint:
		op.Code = OpUint
	case schema.ClassInt:
		op.Code = OpInt
	case schema.ClassChars:
		op.Code = OpChars
	case schema.ClassBytes:
		op.Code = OpBytes
	case schema.ClassVarChars:
		op.Code = OpVarChars
	case schema.ClassVarBytes:
		op.Code = OpVarBytes
	}
	return op
}

func noneOutsideEnum(path []string) error {
	return errors.New(errors.PhaseCompile, errors.KindInvalidSchema).
		Path(path...).
		SchemaType("none").
		Detail("none is only valid as an enum case").
		Build()
}

func (p *planner) scope(entries []entry) (*Scope, error) {
	s := &Scope{}
	emit := func(op Op) {
		s.EncodeOps = append(s.EncodeOps, op)
		s.DecodeOps = append(s.DecodeOps, op)
	}

	offset := 0
	i := 0
	var bools []entry
	for ; i < len(entries); i++ {
		e := entries[i]
		t, test, ok := leafOf(e.kind)
		if !ok {
			break
		}
		if t.Class == schema.ClassBool {
			bools = append(bools, e)
			continue
		}
		if !t.Fixed() {
			break
		}
		op := leafOp(t, e.path, p.validator(test, e.where))
		op.Static = true
		op.Offset = offset
		offset += t.Width
		emit(op)
	}

	var dynamic []entry
	for _, e := range entries[i:] {
		if t, _, ok := leafOf(e.kind); ok && t.Class == schema.ClassBool {
			bools = append(bools, e)
			continue
		}
		dynamic = append(dynamic, e)
	}

	for g := 0; g < len(bools); g += 8 {
		group := bools[g:min(g+8, len(bools))]
		pack := Op{Code: OpPackBools, Static: true, Offset: offset, Validator: -1}
		for bit, e := range group {
			_, test, _ := leafOf(e.kind)
			pack.Bools = append(pack.Bools, e.path)
			s.DecodeOps = append(s.DecodeOps, Op{
				Code:      OpBool,
				Path:      e.path,
				Static:    true,
				Offset:    offset,
				Bit:       uint8(bit),
				Validator: p.validator(test, e.where),
			})
		}
		s.EncodeOps = append(s.EncodeOps, pack)
		offset++
	}
	s.StaticSize = offset

	base := offset
	for _, e := range dynamic {
		switch k := e.kind.(type) {
		case *schema.Union:
			plan, err := p.union(k, e.path, e.where)
			if err != nil {
				return nil, err
			}
			emit(Op{Code: OpUnion, Path: e.path, Width: 1, Union: plan, Validator: -1})
			s.Contribs = append(s.Contribs, Contrib{Kind: ContribUnion, Path: e.path, Union: plan})
			base++
		case *schema.Array:
			plan, err := p.array(k, e.path, e.where)
			if err != nil {
				return nil, err
			}
			emit(Op{Code: OpArray, Path: e.path, Width: plan.PrefixWidth, Array: plan, Validator: -1})
			s.Contribs = append(s.Contribs, Contrib{Kind: ContribArray, Path: e.path, Array: plan})
			base += plan.PrefixWidth
		default:
			t, test, ok := leafOf(k)
			if !ok {
				return nil, errors.New(errors.PhaseCompile, errors.KindInvalidSchema).
					Path(e.path...).
					Detail("unsupported field kind %T", k).
					Build()
			}
			if t.Class == schema.ClassNone {
				return nil, noneOutsideEnum(e.path)
			}
			emit(leafOp(t, e.path, p.validator(test, e.where)))
			base += t.Width
			if t.Class.IsVar() {
				s.Contribs = append(s.Contribs, Contrib{Kind: ContribVar, Path: e.path})
			}
		}
	}
	s.BaseSize = base
	return s, nil
}

func (p *planner) union(u *schema.Union, path []string, where string) (*UnionPlan, error) {
	discs, err := assignDiscriminants(u, path)
	if err != nil {
		return nil, err
	}
	plan := &UnionPlan{
		Cases:  make([]CasePlan, len(u.Cases)),
		Mapped: u.Mapped(),
	}
	for i := range plan.byDisc {
		plan.byDisc[i] = -1
	}
	for i, c := range u.Cases {
		cp := CasePlan{Key: c.Key(), Disc: discs[i]}
		if !c.Unit() {
			label := caseLabel(c)
			scope, err := p.kindScope(c.Payload, join(where, label))
			if err != nil {
				return nil, errors.WithPrefix(errors.WithPrefix(err, label), path...)
			}
			cp.Payload = scope
		}
		plan.Cases[i] = cp
		plan.byDisc[cp.Disc] = int16(i)
		if c.Mapped() {
			if plan.byKey == nil {
				plan.byKey = make(map[string]int)
			}
			plan.byKey[c.Name] = i
		}
	}
	return plan, nil
}

func (p *planner) array(a *schema.Array, path []string, where string) (*ArrayPlan, error) {
	plan := &ArrayPlan{PrefixWidth: a.PrefixWidth(), Validator: -1}
	w := where + "[]"

	if t, test, ok := leafOf(a.Elem); ok {
		plan.Type = t
		switch {
		case t.Class == schema.ClassNone:
			return nil, noneOutsideEnum(path)
		case t.Class == schema.ClassBool:
			plan.Kind = ElemBools
		case t.Class.IsInteger():
			plan.Kind = ElemBlock
			if p.opts.AlignArrays && t.Width&(t.Width-1) == 0 && t.Width > 1 {
				plan.Aligned = true
				p.padded = true
			}
		case t.Class.IsVar():
			plan.Kind = ElemVar
		default:
			plan.Kind = ElemFixed
		}
		plan.Validator = p.validator(test, w)
		return plan, nil
	}

	if a.Elem == nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindInvalidSchema).
			Path(path...).
			Detail("array has no element kind").
			Build()
	}
	elem, err := p.kindScope(a.Elem, w)
	if err != nil {
		return nil, errors.WithPrefix(err, path...)
	}
	plan.Kind = ElemScope
	plan.Elem = elem
	return plan, nil
}

func caseLabel(c schema.Case) string {
	if c.Mapped() {
		return c.Name
	}
	return strconv.Itoa(c.ID)
}

func join(where, name string) string {
	if where == "" {
		return name
	}
	return where + "." + name
}
