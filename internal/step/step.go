// Package step implements the workflow step that returns the comments of a
// Jira issue as a flattened record.
package step

import (
	"context"
	"errors"
	"fmt"

	"github.com/andywolf/jiracomments/internal/logging"
	"github.com/andywolf/jiracomments/internal/pick"
	"github.com/andywolf/jiracomments/internal/security"
	"github.com/google/uuid"
)

var (
	// ErrMissingIssue is returned when the required issue input is empty.
	ErrMissingIssue = errors.New("an [issue] input is needed for this module")

	// ErrNoData is returned when the fetched document lacks a field the
	// template requires, so the projection yields nothing.
	ErrNoData = errors.New("response did not contain the expected comment fields")
)

// Fetcher retrieves the raw comment page of an issue.
type Fetcher interface {
	GetComments(ctx context.Context, issue, expand string) (any, error)
}

// Inputs are the step inputs supplied by the workflow runtime.
type Inputs struct {
	Issue  string `json:"issue" yaml:"issue"`
	Expand string `json:"expand,omitempty" yaml:"expand,omitempty"`
}

// Validate checks the inputs before anything is fetched.
func (in Inputs) Validate() error {
	if in.Issue == "" {
		return ErrMissingIssue
	}
	if err := security.ValidateIssue(in.Issue); err != nil {
		return err
	}
	return security.ValidateExpand(in.Expand)
}

// Result is the completed output of one run.
type Result struct {
	RunID  string `json:"run_id" yaml:"run_id"`
	Issue  string `json:"issue" yaml:"issue"`
	Output any    `json:"output" yaml:"output"`
}

// Step fetches an issue's comments and projects them with a template.
type Step struct {
	fetcher  Fetcher
	template pick.Template
	logger   *logging.Logger
	newID    func() string
}

// Option configures a Step.
type Option func(*Step)

// WithTemplate replaces CommentsTemplate.
func WithTemplate(t pick.Template) Option {
	return func(s *Step) {
		s.template = t
	}
}

// WithLogger sets the logger used for run progress.
func WithLogger(l *logging.Logger) Option {
	return func(s *Step) {
		s.logger = l
	}
}

// New creates a Step reading from fetcher.
func New(fetcher Fetcher, opts ...Option) *Step {
	s := &Step{
		fetcher:  fetcher,
		template: CommentsTemplate(),
		logger:   logging.Discard(),
		newID:    func() string { return uuid.New().String() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run executes the step once. It returns ErrMissingIssue or a validation
// error before any fetch, the fetch error verbatim, or ErrNoData when the
// projection yields nothing.
func (s *Step) Run(ctx context.Context, in Inputs) (*Result, error) {
	runID := s.newID()
	log := s.logger.WithRunID(runID).With(map[string]string{"issue": in.Issue})

	if err := in.Validate(); err != nil {
		log.Errorf("invalid inputs: %v", err)
		return nil, err
	}

	log.Debugf("fetching comments (expand=%q)", in.Expand)
	doc, err := s.fetcher.GetComments(ctx, in.Issue, in.Expand)
	if err != nil {
		log.Errorf("failed to fetch comments: %v", err)
		return nil, err
	}

	output, ok := pick.Project(doc, s.template)
	if !ok {
		log.Warningf("projection yielded no value")
		return nil, fmt.Errorf("issue %s: %w", in.Issue, ErrNoData)
	}

	log.Infof("projected comments")
	return &Result{RunID: runID, Issue: in.Issue, Output: output}, nil
}
