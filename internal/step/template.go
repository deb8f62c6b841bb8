package step

import "github.com/andywolf/jiracomments/internal/pick"

// commentFields are the per-comment fields extracted into sibling arrays,
// in output order.
var commentFields = []struct {
	output string
	path   pick.LeafPath
}{
	{"comments_self", "self"},
	{"comments_author", "author.name"},
	{"comments_body", "body"},
	{"comments_created", "created"},
	{"comments_updated", "updated"},
	{"comments_visibility", "visibility.value"},
}

// CommentsTemplate returns the template applied to a comment page: the
// total plus one array per comment field. A comment missing a field is
// dropped from that field's array only.
func CommentsTemplate() pick.Object {
	tmpl := pick.Object{pick.Key("total", pick.LeafPath("total"))}
	for _, f := range commentFields {
		tmpl = append(tmpl, pick.Key(f.output, pick.Nested{
			SourcePath: "comments",
			Fields:     pick.FieldList{f.path},
		}))
	}
	return tmpl
}
