package vals

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tag used for names in YAML documents. Other kinds use the standard tags.
const yamlNameTag = "!name"

// MarshalYAML implements yaml.Marshaler. Names are written with the !name
// tag so that they survive a round trip distinct from strings.
func (v Value) MarshalYAML() (any, error) {
	return v.yamlNode(), nil
}

func (v Value) yamlNode() *yaml.Node {
	switch v.kind {
	case BoolKind:
		return scalarNode("!!bool", strconv.FormatBool(v.b))
	case NumberKind:
		text := yamlFloat(v.n)
		if _, err := strconv.ParseInt(text, 10, 64); err == nil {
			return scalarNode("!!int", text)
		}
		return scalarNode("!!float", text)
	case StringKind:
		return scalarNode("!!str", v.s)
	case NameKind:
		return scalarNode(yamlNameTag, v.s)
	case ArrayKind:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, elem := range v.a {
			n.Content = append(n.Content, elem.yamlNode())
		}
		return n
	case DictKind:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range SortedKeys(v.d) {
			n.Content = append(n.Content,
				scalarNode("!!str", string(k)), v.d[k].yamlNode())
		}
		return n
	default:
		return scalarNode("!!null", "null")
	}
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func yamlFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	return FormatNum(f)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	w, err := fromYAMLNode(n)
	if err != nil {
		return err
	}
	*v = w
	return nil
}

func fromYAMLNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Empty, nil
		}
		return fromYAMLNode(n.Content[0])
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias)
	case yaml.SequenceNode:
		a := make(Array, len(n.Content))
		for i, c := range n.Content {
			elem, err := fromYAMLNode(c)
			if err != nil {
				return Empty, err
			}
			a[i] = elem
		}
		return ArrayValue(a), nil
	case yaml.MappingNode:
		d := make(Dict, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			elem, err := fromYAMLNode(n.Content[i+1])
			if err != nil {
				return Empty, err
			}
			d[Name(n.Content[i].Value)] = elem
		}
		return DictValue(d), nil
	case yaml.ScalarNode:
		return fromYAMLScalar(n)
	}
	return Empty, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}

func fromYAMLScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Empty, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Empty, err
		}
		return Bool(b), nil
	case "!!int", "!!float":
		f, err := parseYAMLFloat(n.Value)
		if err != nil {
			return Empty, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return Num(f), nil
	case "!!str":
		return String(n.Value), nil
	case yamlNameTag:
		return NameValue(Name(n.Value)), nil
	}
	return Empty, fmt.Errorf("line %d: unsupported YAML tag %s", n.Line, n.Tag)
}

func parseYAMLFloat(s string) (float64, error) {
	switch strings.ToLower(s) {
	case ".inf", "+.inf":
		return math.Inf(1), nil
	case "-.inf":
		return math.Inf(-1), nil
	case ".nan":
		return math.NaN(), nil
	}
	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return float64(i), nil
	}
	return strconv.ParseFloat(s, 64)
}

// MarshalDict encodes a dictionary as a YAML document.
func MarshalDict(d Dict) ([]byte, error) {
	return yaml.Marshal(DictValue(d))
}

// UnmarshalDict decodes a YAML document holding a mapping.
func UnmarshalDict(data []byte) (Dict, error) {
	var v Value
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	if v.IsEmpty() {
		return Dict{}, nil
	}
	return Cast[Dict](v)
}
