package docpath

// Set writes value into m at path, creating intermediate mappings as needed.
// Existing intermediate mappings are copied before being written, and one
// that is not a mapping is replaced. A path with no segments, such as "",
// is used as a literal key.
func Set(m map[string]any, path string, value any) {
	segments := Split(path)
	if len(segments) == 0 {
		m[path] = value
		return
	}

	current := m
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if ok {
			next = clone(next)
		} else {
			next = make(map[string]any)
		}
		current[segment] = next
		current = next
	}
	current[segments[len(segments)-1]] = value
}
