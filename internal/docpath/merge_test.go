package docpath

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		dst  map[string]any
		src  map[string]any
		want map[string]any
	}{
		{
			name: "nil dst",
			dst:  nil,
			src:  map[string]any{"a": 1},
			want: map[string]any{"a": 1},
		},
		{
			name: "disjoint keys",
			dst:  map[string]any{"a": 1},
			src:  map[string]any{"b": 2},
			want: map[string]any{"a": 1, "b": 2},
		},
		{
			name: "src wins on scalar conflict",
			dst:  map[string]any{"a": 1},
			src:  map[string]any{"a": 2},
			want: map[string]any{"a": 2},
		},
		{
			name: "nested mappings merge",
			dst:  map[string]any{"a": map[string]any{"x": 1, "y": 1}},
			src:  map[string]any{"a": map[string]any{"y": 2, "z": 2}},
			want: map[string]any{"a": map[string]any{"x": 1, "y": 2, "z": 2}},
		},
		{
			name: "sequences merge by index",
			dst:  map[string]any{"a": []any{"x", "y", "z"}},
			src:  map[string]any{"a": []any{"p", "q"}},
			want: map[string]any{"a": []any{"p", "q", "z"}},
		},
		{
			name: "longer src sequence extends",
			dst:  map[string]any{"a": []any{"x"}},
			src:  map[string]any{"a": []any{"p", "q"}},
			want: map[string]any{"a": []any{"p", "q"}},
		},
		{
			name: "mapping replaces scalar",
			dst:  map[string]any{"a": "x"},
			src:  map[string]any{"a": map[string]any{"b": 1}},
			want: map[string]any{"a": map[string]any{"b": 1}},
		},
		{
			name: "sequence replaces mapping",
			dst:  map[string]any{"a": map[string]any{"b": 1}},
			src:  map[string]any{"a": []any{1}},
			want: map[string]any{"a": []any{1}},
		},
		{
			name: "explicit null wins",
			dst:  map[string]any{"a": 1},
			src:  map[string]any{"a": nil},
			want: map[string]any{"a": nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.dst, tt.src)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Merge mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMerge_SameSequenceTwiceYieldsSecond(t *testing.T) {
	first := map[string]any{"comments_body": []any{"hi", "yo"}}
	second := map[string]any{"comments_body": []any{"hi", "yo"}}

	got := Merge(Merge(nil, first), second)
	want := map[string]any{"comments_body": []any{"hi", "yo"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_DoesNotWriteThroughNestedInput(t *testing.T) {
	shared := map[string]any{"x": 1}
	dst := map[string]any{"a": shared}

	Merge(dst, map[string]any{"a": map[string]any{"y": 2}})

	if _, ok := shared["y"]; ok {
		t.Error("nested mapping from dst was mutated")
	}
}

func TestMergeSequence(t *testing.T) {
	dst := []any{map[string]any{"a": 1}, "keep"}
	src := []any{map[string]any{"b": 2}}

	got := MergeSequence(dst, src)
	want := []any{map[string]any{"a": 1, "b": 2}, "keep"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergeSequence mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{map[string]any{"a": 1}, "keep"}, dst); diff != "" {
		t.Errorf("dst was modified (-want +got):\n%s", diff)
	}
}
