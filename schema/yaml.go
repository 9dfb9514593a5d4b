package schema

import (
	"fmt"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/huben1337/static-protocol/errors"
)

// YAML tags understood by ParseYAML.
const (
	TagEnum   = "!enum"
	TagList   = "!list"
	TagList16 = "!list16"
)

var numericCaseRe = regexp.MustCompile(`^[0-9]{1,3}$`)

// ParseYAML reads a Definition from a YAML mapping. Key order is wire order.
//
//	flag: bool
//	name: varchar:10
//	kind: !enum
//	  0: uint8
//	  text: varchar
//	  empty: none
//	tags: !list varchar
//	points: !list16
//	  x: int16
//	  y: int16
//	grid: !list [!list uint8]
//
// Predicates cannot be expressed in YAML.
func ParseYAML(data []byte) (*Definition, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidSchema, err, "malformed YAML")
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, invalidNode(nil, root, "empty document")
		}
		root = root.Content[0]
	}
	return parseDefinition(root, nil)
}

func parseDefinition(n *yaml.Node, path []string) (*Definition, error) {
	if n.Kind != yaml.MappingNode {
		return nil, invalidNode(path, n, "expected a mapping of fields")
	}
	def := &Definition{Fields: make([]Field, 0, len(n.Content)/2)}
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		k, err := parseKind(n.Content[i+1], append(path, name))
		if err != nil {
			return nil, err
		}
		def.Fields = append(def.Fields, Field{Name: name, Kind: k})
	}
	return def, nil
}

func parseKind(n *yaml.Node, path []string) (Kind, error) {
	switch n.Tag {
	case TagEnum:
		return parseUnion(n, path)
	case TagList, TagList16:
		elem, err := parseElem(n, path)
		if err != nil {
			return nil, err
		}
		return &Array{Elem: elem, Long: n.Tag == TagList16}, nil
	}

	switch n.Kind {
	case yaml.ScalarNode:
		t, err := ParseType(n.Value)
		if err != nil {
			return nil, errors.WithPrefix(err, path...)
		}
		return t, nil
	case yaml.MappingNode:
		return parseDefinition(n, path)
	case yaml.AliasNode:
		return parseKind(n.Alias, path)
	}
	return nil, invalidNode(path, n, "unexpected node")
}

// parseElem reads the element kind of a list node. The element is the scalar
// or mapping itself, or the single item of a sequence when it needs a tag.
func parseElem(n *yaml.Node, path []string) (Kind, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		t, err := ParseType(n.Value)
		if err != nil {
			return nil, errors.WithPrefix(err, path...)
		}
		return t, nil
	case yaml.MappingNode:
		return parseDefinition(n, path)
	case yaml.SequenceNode:
		if len(n.Content) != 1 {
			return nil, invalidNode(path, n, "list element sequence must hold exactly one kind")
		}
		return parseKind(n.Content[0], path)
	}
	return nil, invalidNode(path, n, "unexpected list element")
}

func parseUnion(n *yaml.Node, path []string) (*Union, error) {
	if n.Kind != yaml.MappingNode {
		return nil, invalidNode(path, n, "enum must be a mapping of cases")
	}
	u := &Union{Cases: make([]Case, 0, len(n.Content)/2)}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		payload, err := parseKind(n.Content[i+1], append(path, key))
		if err != nil {
			return nil, err
		}
		if t, ok := payload.(Type); ok && t.Class == ClassNone {
			payload = nil
		}
		if numericCaseRe.MatchString(key) {
			id, _ := strconv.Atoi(key)
			u.Cases = append(u.Cases, Num(id, payload))
		} else {
			u.Cases = append(u.Cases, Named(key, payload))
		}
	}
	return u, nil
}

func invalidNode(path []string, n *yaml.Node, msg string) error {
	return errors.New(errors.PhaseParse, errors.KindInvalidSchema).
		Path(path...).
		Detail("%s (line %d)", msg, n.Line).
		Build()
}

// FormatYAML renders d in the form ParseYAML reads. Validated leaves lose
// their predicate.
func FormatYAML(d *Definition) ([]byte, error) {
	n, err := definitionNode(d)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(n)
}

func definitionNode(d *Definition) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range d.Fields {
		v, err := kindNode(f.Kind)
		if err != nil {
			return nil, errors.WithPrefix(err, f.Name)
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: f.Name}, v)
	}
	return n, nil
}

func kindNode(k Kind) (*yaml.Node, error) {
	switch k := k.(type) {
	case Type:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: k.String()}, nil
	case Validated:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: k.Type.String()}, nil
	case *Definition:
		return definitionNode(k)
	case *Union:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: TagEnum}
		for _, c := range k.Cases {
			var v *yaml.Node
			if c.Unit() {
				v = &yaml.Node{Kind: yaml.ScalarNode, Value: "none"}
			} else {
				var err error
				if v, err = kindNode(c.Payload); err != nil {
					return nil, err
				}
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: c.label()}, v)
		}
		return n, nil
	case *Array:
		elem, err := kindNode(k.Elem)
		if err != nil {
			return nil, err
		}
		tag := TagList
		if k.Long {
			tag = TagList16
		}
		if elem.Tag != "" {
			return &yaml.Node{Kind: yaml.SequenceNode, Tag: tag, Style: yaml.FlowStyle, Content: []*yaml.Node{elem}}, nil
		}
		elem.Tag = tag
		return elem, nil
	}
	return nil, errors.InvalidData(errors.PhaseParse, nil, fmt.Sprintf("cannot render %T", k))
}
