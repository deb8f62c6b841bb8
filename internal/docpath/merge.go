package docpath

// Merge folds src into dst and returns dst. Keys present on both sides take
// the src value, except that two mappings are merged recursively and two
// sequences are merged index by index. Sequences are never concatenated.
// A nil dst is allocated.
func Merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}

	for key, value := range src {
		existing, ok := dst[key]
		if !ok {
			dst[key] = value
			continue
		}
		dst[key] = mergeValue(existing, value)
	}

	return dst
}

func mergeValue(dst, src any) any {
	switch s := src.(type) {
	case map[string]any:
		if d, ok := dst.(map[string]any); ok {
			return Merge(clone(d), s)
		}
		return s
	case []any:
		if d, ok := dst.([]any); ok {
			return MergeSequence(d, s)
		}
		return s
	default:
		return src
	}
}

// clone copies the top level of m so nested merges never write through to a
// mapping shared with the caller's input.
func clone(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// MergeSequence merges src into dst position by position and returns a fresh
// slice. Elements of dst beyond the length of src are kept.
func MergeSequence(dst, src []any) []any {
	size := len(dst)
	if len(src) > size {
		size = len(src)
	}

	out := make([]any, size)
	copy(out, dst)
	for i, value := range src {
		if i < len(dst) {
			out[i] = mergeValue(dst[i], value)
			continue
		}
		out[i] = value
	}

	return out
}
