package security

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Issue keys such as PRJ-123, or numeric issue ids
	issueKeyPattern = regexp.MustCompile(`^(?:[A-Za-z][A-Za-z0-9_]*-[0-9]+|[0-9]+)$`)

	// One expand entry, e.g. renderedBody or properties
	expandPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.]*$`)
)

// maxExpandEntries bounds the number of comma-separated expand values.
const maxExpandEntries = 16

// ValidateIssue checks that issue is a Jira issue key or id.
func ValidateIssue(issue string) error {
	if issue == "" {
		return fmt.Errorf("issue cannot be empty")
	}
	if !issueKeyPattern.MatchString(issue) {
		return fmt.Errorf("invalid issue key: %q (expected e.g. PRJ-123 or a numeric id)", issue)
	}
	return nil
}

// ValidateExpand checks a comma-separated expand parameter. An empty value
// is valid and means no expansion.
func ValidateExpand(expand string) error {
	if expand == "" {
		return nil
	}

	entries := strings.Split(expand, ",")
	if len(entries) > maxExpandEntries {
		return fmt.Errorf("too many expand values: %d (max %d)", len(entries), maxExpandEntries)
	}
	for _, entry := range entries {
		if !expandPattern.MatchString(strings.TrimSpace(entry)) {
			return fmt.Errorf("invalid expand value: %q", entry)
		}
	}
	return nil
}
