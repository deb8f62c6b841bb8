package pick

import (
	"fmt"

	"github.com/andywolf/jiracomments/internal/docpath"
)

// Project applies t to source. The boolean is false when the projection
// yields no value, which happens when a path required at the top level of t
// does not resolve. A JSON null found at a path is a value.
//
// Project never mutates source. Leaf values in the result are shared with
// source; mappings and sequences built by the projection are fresh.
func Project(source any, t Template) (any, bool) {
	switch t := t.(type) {
	case nil:
		return nil, false
	case LeafPath:
		return docpath.Lookup(source, string(t))
	case FieldList:
		return projectFieldList(source, t)
	case Object:
		return projectObject(source, t)
	case Nested:
		// A bare nested template behaves like a single flattened entry.
		return projectObject(source, Object{Flat(t)})
	default:
		panic(fmt.Sprintf("pick: unknown template variant %T", t))
	}
}

// projectObject is the strict routine: any entry whose path does not resolve
// discards the whole level, including siblings already projected.
func projectObject(source any, obj Object) (any, bool) {
	out := make(map[string]any, len(obj))
	var flat []any
	flattened := false

	for _, entry := range obj {
		if entry.Value == nil {
			return nil, false
		}

		value, ok := docpath.Lookup(source, entry.Value.sourcePath())
		if !ok {
			return nil, false
		}

		switch sel := entry.Value.(type) {
		case Nested:
			items, isArray := value.([]any)
			if !isArray {
				// An object that projects to nothing only omits its own key.
				if sub, ok := Project(value, sel.Fields); ok {
					out[entry.Key.Name()] = sub
				}
				continue
			}

			switch grouped := projectArray(items, sel.Fields, entry.Key).(type) {
			case []any:
				if flattened {
					flat = docpath.MergeSequence(flat, grouped)
				} else {
					flat = grouped
				}
				flattened = true
			case map[string]any:
				out = docpath.Merge(out, grouped)
			}
		case LeafPath:
			docpath.Set(out, entry.Key.Name(), value)
		default:
			panic(fmt.Sprintf("pick: unknown selector variant %T", sel))
		}
	}

	if flattened {
		return flat, true
	}
	return out, true
}

// projectArray is the lenient routine: elements whose projection yields no
// value are dropped and the rest keep their source order. The result is the
// sequence itself for Flatten, or a single-key mapping otherwise.
func projectArray(items []any, fields Template, key Grouping) any {
	seq := make([]any, 0, len(items))
	for _, item := range items {
		if v, ok := Project(item, fields); ok {
			seq = append(seq, v)
		}
	}

	if key.IsFlatten() {
		return seq
	}
	return map[string]any{key.Name(): seq}
}

// projectFieldList reuses one result slot for every entry, so the last
// entry wins. Any missing entry aborts. An empty list yields an empty
// sequence.
func projectFieldList(source any, list FieldList) (any, bool) {
	if len(list) == 0 {
		return []any{}, true
	}

	var result any
	for _, path := range list {
		value, ok := docpath.Lookup(source, string(path))
		if !ok {
			return nil, false
		}
		result = value
	}

	return result, true
}
