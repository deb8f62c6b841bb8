// Package pick reshapes decoded JSON documents with declarative pick
// templates.
//
// A Template is one of a closed set of variants:
//
//	LeafPath   "author.name"                         copy the value at a path
//	Nested     {keyName: "comments", fields: ...}    descend, then apply fields
//	FieldList  ["self", "body"]                      flat extraction, last entry wins
//	Object     {"total": "total", "bodies": Nested}  ordered output mapping
//
// Projection walks the template, not the document. Inside an Object every
// entry must resolve or the whole level yields nothing; inside an array
// projection elements that yield nothing are dropped.
package pick

// Template is implemented by LeafPath, Nested, FieldList and Object only.
type Template interface {
	isTemplate()
}

// Selector is a Template allowed as the value of an Object entry.
type Selector interface {
	Template
	sourcePath() string
}

// LeafPath is a dotted path whose value is copied verbatim.
type LeafPath string

// Nested descends into the sub-structure at SourcePath and applies Fields to
// it, or to each of its elements when it is an array.
type Nested struct {
	SourcePath string
	Fields     Template
}

// FieldList extracts several paths from one object into a single slot. Each
// entry overwrites the previous one, so only the last entry's value is
// returned. Callers relying on a composite of several fields must use an
// Object instead.
type FieldList []LeafPath

// Object is an ordered output mapping. Declaration order decides which
// missing path aborts first and how sibling array projections merge.
type Object []Entry

// Entry is one output key of an Object.
type Entry struct {
	Key   Grouping
	Value Selector
}

func (LeafPath) isTemplate()  {}
func (Nested) isTemplate()    {}
func (FieldList) isTemplate() {}
func (Object) isTemplate()    {}

func (p LeafPath) sourcePath() string { return string(p) }
func (n Nested) sourcePath() string   { return n.SourcePath }

// flattenKey is the wire spelling of the Flatten grouping.
const flattenKey = "-"

// Grouping says where the sequence produced by an array projection goes:
// under a named key of the enclosing mapping, or in place of it.
type Grouping struct {
	name    string
	flatten bool
}

// Flatten returns the grouping that yields an array projection's sequence
// directly, without a wrapping key.
func Flatten() Grouping {
	return Grouping{flatten: true}
}

// GroupUnderKey returns the grouping that stores a sequence under name.
func GroupUnderKey(name string) Grouping {
	return Grouping{name: name}
}

// IsFlatten reports whether g is the Flatten grouping.
func (g Grouping) IsFlatten() bool {
	return g.flatten
}

// Name returns the output key. For Flatten it is the wire marker, which is
// also the key used when a Flatten entry meets a non-array value.
func (g Grouping) Name() string {
	if g.flatten {
		return flattenKey
	}
	return g.name
}

// String implements fmt.Stringer.
func (g Grouping) String() string {
	return g.Name()
}

// Key returns an Object entry that groups its result under name.
func Key(name string, value Selector) Entry {
	return Entry{Key: GroupUnderKey(name), Value: value}
}

// Flat returns an Object entry with the Flatten grouping.
func Flat(value Selector) Entry {
	return Entry{Key: Flatten(), Value: value}
}
