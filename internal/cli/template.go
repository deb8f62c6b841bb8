package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andywolf/jiracomments/internal/pick"
	"github.com/spf13/cobra"
)

// errNoValue is returned when a template yields nothing for the input.
var errNoValue = errors.New("template yielded no value for the input document")

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Project a JSON document with a pick template",
	Long: `Apply a pick template to any JSON document without contacting Jira.

Templates are JSON or YAML (chosen by file extension). A string copies the
value at a dotted path, a list of paths keeps the last one, an object with
keyName and fields descends into a sub-document, and "-" as an output key
yields an array projection directly.

Examples:
  jira-comments template --template t.yaml --input response.json
  curl -s .../comment | jira-comments template --template t.json
  jira-comments template --template t.yaml --print`,
	RunE: runTemplate,
}

func init() {
	rootCmd.AddCommand(templateCmd)

	templateCmd.Flags().String("template", "", "Pick template file (.json, .yaml or .yml)")
	templateCmd.Flags().String("input", "-", "JSON document to project (- for stdin)")
	templateCmd.Flags().StringP("output", "o", formatJSON, "Output format (json, yaml)")
	templateCmd.Flags().Bool("print", false, "Print the parsed template and exit")
	_ = templateCmd.MarkFlagRequired("template")
}

func runTemplate(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("template")
	tmpl, err := loadTemplateFile(path)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("output")
	if err := validateFormat(format); err != nil {
		return err
	}

	if printOnly, _ := cmd.Flags().GetBool("print"); printOnly {
		return writeOutput(cmd.OutOrStdout(), tmpl, formatJSON)
	}

	input, _ := cmd.Flags().GetString("input")
	doc, err := readDocument(cmd.InOrStdin(), input)
	if err != nil {
		return err
	}

	out, ok := pick.Project(doc, tmpl)
	if !ok {
		return errNoValue
	}

	return writeOutput(cmd.OutOrStdout(), out, format)
}

// loadTemplateFile parses a template file, choosing YAML for .yaml and
// .yml and JSON otherwise.
func loadTemplateFile(path string) (pick.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	var tmpl pick.Template
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		tmpl, err = pick.ParseYAML(data)
	default:
		tmpl, err = pick.ParseJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return tmpl, nil
}

// readDocument decodes one JSON document from path, or from stdin for "-".
func readDocument(stdin io.Reader, path string) (any, error) {
	var data []byte
	var err error
	if path == "-" || path == "" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}

	return doc, nil
}
