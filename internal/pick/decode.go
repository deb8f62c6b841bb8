package pick

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ErrInvalidTemplate is returned when a template document cannot be decoded
// into a Template.
var ErrInvalidTemplate = errors.New("invalid pick template")

// Wire keys of a nested template. sourcePathKey is accepted as an alias of
// keyNameKey on input.
const (
	keyNameKey    = "keyName"
	sourcePathKey = "sourcePath"
	fieldsKey     = "fields"
)

type nodeKind int

const (
	kindOther nodeKind = iota
	kindString
	kindList
	kindObject
)

// node is the ordered, format-neutral form of a template document.
type node struct {
	kind  nodeKind
	str   string
	items []node
	keys  []string
	vals  []node
}

func (n node) lookup(key string) (node, bool) {
	for i, k := range n.keys {
		if k == key {
			return n.vals[i], true
		}
	}
	return node{}, false
}

// ParseJSON decodes a template from its JSON wire form, keeping the
// declaration order of object keys.
func ParseJSON(data []byte) (Template, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	root, err := readJSON(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after template", ErrInvalidTemplate)
	}
	return build(root, "$")
}

// ParseYAML decodes a template from YAML, keeping the declaration order of
// mapping keys.
func ParseYAML(data []byte) (Template, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidTemplate)
	}
	root, err := fromYAML(doc.Content[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	return build(root, "$")
}

func readJSON(dec *json.Decoder) (node, error) {
	tok, err := dec.Token()
	if err != nil {
		return node{}, err
	}

	switch v := tok.(type) {
	case string:
		return node{kind: kindString, str: v}, nil
	case json.Delim:
		switch v {
		case '[':
			n := node{kind: kindList}
			for dec.More() {
				item, err := readJSON(dec)
				if err != nil {
					return node{}, err
				}
				n.items = append(n.items, item)
			}
			if _, err := dec.Token(); err != nil {
				return node{}, err
			}
			return n, nil
		case '{':
			n := node{kind: kindObject}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return node{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return node{}, fmt.Errorf("unexpected object key %v", keyTok)
				}
				val, err := readJSON(dec)
				if err != nil {
					return node{}, err
				}
				n.keys = append(n.keys, key)
				n.vals = append(n.vals, val)
			}
			if _, err := dec.Token(); err != nil {
				return node{}, err
			}
			return n, nil
		}
	}

	return node{kind: kindOther, str: fmt.Sprint(tok)}, nil
}

func fromYAML(y *yaml.Node) (node, error) {
	switch y.Kind {
	case yaml.AliasNode:
		return fromYAML(y.Alias)
	case yaml.ScalarNode:
		if y.ShortTag() == "!!str" {
			return node{kind: kindString, str: y.Value}, nil
		}
		return node{kind: kindOther, str: y.Value}, nil
	case yaml.SequenceNode:
		n := node{kind: kindList}
		for _, c := range y.Content {
			item, err := fromYAML(c)
			if err != nil {
				return node{}, err
			}
			n.items = append(n.items, item)
		}
		return n, nil
	case yaml.MappingNode:
		n := node{kind: kindObject}
		for i := 0; i+1 < len(y.Content); i += 2 {
			val, err := fromYAML(y.Content[i+1])
			if err != nil {
				return node{}, err
			}
			n.keys = append(n.keys, y.Content[i].Value)
			n.vals = append(n.vals, val)
		}
		return n, nil
	default:
		return node{}, fmt.Errorf("line %d: unsupported yaml node", y.Line)
	}
}

func build(n node, at string) (Template, error) {
	switch n.kind {
	case kindString:
		return buildLeaf(n, at)
	case kindList:
		list := make(FieldList, 0, len(n.items))
		for i, item := range n.items {
			if item.kind != kindString {
				return nil, fmt.Errorf("%w: %s[%d]: field list entries must be paths", ErrInvalidTemplate, at, i)
			}
			leaf, err := buildLeaf(item, fmt.Sprintf("%s[%d]", at, i))
			if err != nil {
				return nil, err
			}
			list = append(list, leaf)
		}
		return list, nil
	case kindObject:
		if isNested(n) {
			return buildNested(n, at)
		}
		obj := make(Object, 0, len(n.keys))
		for i, key := range n.keys {
			if key == "" {
				return nil, fmt.Errorf("%w: %s: empty output key", ErrInvalidTemplate, at)
			}
			sel, err := buildSelector(n.vals[i], at+"."+key)
			if err != nil {
				return nil, err
			}
			if key == flattenKey {
				obj = append(obj, Flat(sel))
				continue
			}
			obj = append(obj, Key(key, sel))
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("%w: %s: unexpected value %q", ErrInvalidTemplate, at, n.str)
	}
}

func buildLeaf(n node, at string) (LeafPath, error) {
	if n.str == "" {
		return "", fmt.Errorf("%w: %s: empty path", ErrInvalidTemplate, at)
	}
	return LeafPath(n.str), nil
}

func buildSelector(n node, at string) (Selector, error) {
	switch {
	case n.kind == kindString:
		return buildLeaf(n, at)
	case n.kind == kindObject && isNested(n):
		return buildNested(n, at)
	default:
		return nil, fmt.Errorf("%w: %s: entry must be a path or a {%s, %s} object", ErrInvalidTemplate, at, keyNameKey, fieldsKey)
	}
}

func isNested(n node) bool {
	if _, ok := n.lookup(keyNameKey); ok {
		return true
	}
	_, ok := n.lookup(sourcePathKey)
	return ok
}

func buildNested(n node, at string) (Nested, error) {
	for _, key := range n.keys {
		if key != keyNameKey && key != sourcePathKey && key != fieldsKey {
			return Nested{}, fmt.Errorf("%w: %s: unknown nested template key %q", ErrInvalidTemplate, at, key)
		}
	}

	src, ok := n.lookup(keyNameKey)
	if !ok {
		src, _ = n.lookup(sourcePathKey)
	}
	if src.kind != kindString || src.str == "" {
		return Nested{}, fmt.Errorf("%w: %s: %s must be a non-empty path", ErrInvalidTemplate, at, keyNameKey)
	}

	fieldsNode, ok := n.lookup(fieldsKey)
	if !ok {
		return Nested{}, fmt.Errorf("%w: %s: %s is required", ErrInvalidTemplate, at, fieldsKey)
	}
	fields, err := build(fieldsNode, at+"."+fieldsKey)
	if err != nil {
		return Nested{}, err
	}

	return Nested{SourcePath: src.str, Fields: fields}, nil
}

// MarshalJSON writes the nested template in its wire form.
func (n Nested) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		KeyName string   `json:"keyName"`
		Fields  Template `json:"fields"`
	}{n.SourcePath, n.Fields})
}

// MarshalJSON writes the entries in declaration order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Key.Name())
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(entry.Value)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry.Key.Name(), err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
