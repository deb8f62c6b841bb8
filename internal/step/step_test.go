package step

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/andywolf/jiracomments/internal/jira"
	"github.com/andywolf/jiracomments/internal/logging"
	"github.com/andywolf/jiracomments/internal/pick"
	"github.com/google/go-cmp/cmp"
)

// fakeFetcher serves canned documents per issue
type fakeFetcher struct {
	mu    sync.Mutex
	docs  map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) GetComments(_ context.Context, issue, expand string) (any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, issue+"|"+expand)
	f.mu.Unlock()

	if err, ok := f.errs[issue]; ok {
		return nil, err
	}
	raw, ok := f.docs[issue]
	if !ok {
		return nil, errors.New("unknown issue")
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

const twoComments = `{
	"startAt": 0,
	"total": 3,
	"comments": [
		{"self": "u1", "author": {"name": "alice"}, "body": "hi"},
		{"self": "u2", "author": {"name": "bob"}, "body": "yo"}
	]
}`

func newTestStep(f Fetcher, opts ...Option) *Step {
	s := New(f, opts...)
	s.newID = func() string { return "run-fixed" }
	return s
}

func TestRun_ProjectsComments(t *testing.T) {
	fetcher := &fakeFetcher{docs: map[string]string{"PRJ-1": twoComments}}
	s := newTestStep(fetcher)

	res, err := s.Run(context.Background(), Inputs{Issue: "PRJ-1", Expand: "renderedBody"})
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	want := map[string]any{
		"total":               json.Number("3"),
		"comments_self":       []any{"u1", "u2"},
		"comments_author":     []any{"alice", "bob"},
		"comments_body":       []any{"hi", "yo"},
		"comments_created":    []any{},
		"comments_updated":    []any{},
		"comments_visibility": []any{},
	}
	if diff := cmp.Diff(want, res.Output); diff != "" {
		t.Errorf("Run() output mismatch (-want +got):\n%s", diff)
	}
	if res.RunID != "run-fixed" || res.Issue != "PRJ-1" {
		t.Errorf("unexpected result metadata: %+v", res)
	}
	if diff := cmp.Diff([]string{"PRJ-1|renderedBody"}, fetcher.calls); diff != "" {
		t.Errorf("unexpected fetches (-want +got):\n%s", diff)
	}
}

func TestRun_FullComment(t *testing.T) {
	doc := `{"total": 1, "comments": [{
		"self": "u1", "author": {"name": "alice"}, "body": "hi",
		"created": "2026-01-01T00:00:00.000+0000",
		"updated": "2026-01-02T00:00:00.000+0000",
		"visibility": {"type": "role", "value": "Developers"}
	}]}`
	s := newTestStep(&fakeFetcher{docs: map[string]string{"PRJ-2": doc}})

	res, err := s.Run(context.Background(), Inputs{Issue: "PRJ-2"})
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	out := res.Output.(map[string]any)
	if diff := cmp.Diff([]any{"Developers"}, out["comments_visibility"]); diff != "" {
		t.Errorf("visibility mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"2026-01-02T00:00:00.000+0000"}, out["comments_updated"]); diff != "" {
		t.Errorf("updated mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_MissingIssue(t *testing.T) {
	fetcher := &fakeFetcher{}
	s := newTestStep(fetcher)

	_, err := s.Run(context.Background(), Inputs{})
	if !errors.Is(err, ErrMissingIssue) {
		t.Fatalf("expected ErrMissingIssue, got %v", err)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("expected no fetch, got %v", fetcher.calls)
	}
}

func TestRun_InvalidInputs(t *testing.T) {
	tests := []struct {
		name string
		in   Inputs
	}{
		{name: "bad issue", in: Inputs{Issue: "../admin"}},
		{name: "bad expand", in: Inputs{Issue: "PRJ-1", Expand: "a&b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{}
			if _, err := newTestStep(fetcher).Run(context.Background(), tt.in); err == nil {
				t.Error("expected validation error")
			}
			if len(fetcher.calls) != 0 {
				t.Errorf("expected no fetch, got %v", fetcher.calls)
			}
		})
	}
}

func TestRun_MissingTotalIsNoData(t *testing.T) {
	doc := `{"comments": [{"self": "u1", "author": {"name": "alice"}, "body": "hi"}]}`
	s := newTestStep(&fakeFetcher{docs: map[string]string{"PRJ-3": doc}})

	res, err := s.Run(context.Background(), Inputs{Issue: "PRJ-3"})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if res != nil {
		t.Errorf("expected nil result, got %+v", res)
	}
}

func TestRun_FetchErrorSurfacedVerbatim(t *testing.T) {
	apiErr := &jira.APIError{StatusCode: 400, Body: `{"errorMessages":["bad"]}`}
	s := newTestStep(&fakeFetcher{errs: map[string]error{"PRJ-4": apiErr}})

	_, err := s.Run(context.Background(), Inputs{Issue: "PRJ-4"})

	var got *jira.APIError
	if !errors.As(err, &got) || got != apiErr {
		t.Fatalf("expected the fetch error, got %v", err)
	}
	if err.Error() != `400: {"errorMessages":["bad"]}` {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestRun_CustomTemplate(t *testing.T) {
	tmpl := pick.Object{pick.Flat(pick.Nested{SourcePath: "comments", Fields: pick.LeafPath("author.name")})}
	s := newTestStep(&fakeFetcher{docs: map[string]string{"PRJ-1": twoComments}}, WithTemplate(tmpl))

	res, err := s.Run(context.Background(), Inputs{Issue: "PRJ-1"})
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if diff := cmp.Diff([]any{"alice", "bob"}, res.Output); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_LogsWithRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.WithWriter(&buf))
	s := newTestStep(&fakeFetcher{docs: map[string]string{"PRJ-1": twoComments}}, WithLogger(logger))

	if _, err := s.Run(context.Background(), Inputs{Issue: "PRJ-1"}); err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"run_id":"run-fixed"`) {
		t.Errorf("log output missing run id: %s", out)
	}
	if !strings.Contains(out, `"issue":"PRJ-1"`) {
		t.Errorf("log output missing issue label: %s", out)
	}
}

func TestNew_GeneratesRunIDs(t *testing.T) {
	s := New(&fakeFetcher{docs: map[string]string{"PRJ-1": twoComments}})

	a, err := s.Run(context.Background(), Inputs{Issue: "PRJ-1"})
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	b, err := s.Run(context.Background(), Inputs{Issue: "PRJ-1"})
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if a.RunID == "" || a.RunID == b.RunID {
		t.Errorf("expected distinct run ids, got %q and %q", a.RunID, b.RunID)
	}
}

func TestCommentsTemplate(t *testing.T) {
	data, err := json.Marshal(CommentsTemplate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"total":"total",` +
		`"comments_self":{"keyName":"comments","fields":["self"]},` +
		`"comments_author":{"keyName":"comments","fields":["author.name"]},` +
		`"comments_body":{"keyName":"comments","fields":["body"]},` +
		`"comments_created":{"keyName":"comments","fields":["created"]},` +
		`"comments_updated":{"keyName":"comments","fields":["updated"]},` +
		`"comments_visibility":{"keyName":"comments","fields":["visibility.value"]}}`
	if string(data) != want {
		t.Errorf("CommentsTemplate() =\n%s\nwant\n%s", data, want)
	}
}
