package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andywolf/jiracomments/internal/cloud/gcp"
	"github.com/andywolf/jiracomments/internal/config"
	"github.com/andywolf/jiracomments/internal/jira"
	"github.com/andywolf/jiracomments/internal/step"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var commentsCmd = &cobra.Command{
	Use:   "comments [issue...]",
	Short: "Fetch and flatten the comments of Jira issues",
	Long: `Fetch the comments of one or more Jira issues and print each as a flat
record with the comment total and one array per comment field
(self, author, body, created, updated, visibility).

A comment that lacks a field is left out of that field's array only. A
response without a total is reported as an error.

Examples:
  jira-comments comments --issue PRJ-123
  jira-comments comments PRJ-1 PRJ-2 --concurrency 2 --output yaml
  jira-comments comments --issue PRJ-1 --template my-template.yaml`,
	RunE: runComments,
}

func init() {
	rootCmd.AddCommand(commentsCmd)

	commentsCmd.Flags().StringSlice("issue", nil, "Issue keys to fetch (comma-separated or repeated)")
	commentsCmd.Flags().String("expand", "", "Jira expand parameter, e.g. renderedBody")
	commentsCmd.Flags().StringP("output", "o", formatJSON, "Output format (json, yaml)")
	commentsCmd.Flags().Int("concurrency", 4, "Maximum issues fetched at once")
	commentsCmd.Flags().String("template", "", "Pick template file replacing the built-in comments template")
	commentsCmd.Flags().String("host", "", "Jira host (overrides config)")
	commentsCmd.Flags().String("api-version", "", "Jira REST API version (overrides config)")

	_ = viper.BindPFlag("host", commentsCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("api_version", commentsCmd.Flags().Lookup("api-version"))
}

// batchEntry is one issue's line in multi-issue output.
type batchEntry struct {
	Issue  string `json:"issue" yaml:"issue"`
	RunID  string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Output any    `json:"output,omitempty" yaml:"output,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runComments(cmd *cobra.Command, args []string) error {
	issues, _ := cmd.Flags().GetStringSlice("issue")
	issues = append(issues, args...)
	if len(issues) == 0 {
		return step.ErrMissingIssue
	}

	format, _ := cmd.Flags().GetString("output")
	if err := validateFormat(format); err != nil {
		return err
	}
	expand, _ := cmd.Flags().GetString("expand")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := resolvePassword(ctx, cfg); err != nil {
		return err
	}

	logger := newLogger(cfg.Password, cfg.JWTSecret)

	client, err := jira.NewClient(cfg)
	if err != nil {
		return err
	}

	opts := []step.Option{step.WithLogger(logger)}
	if path, _ := cmd.Flags().GetString("template"); path != "" {
		tmpl, err := loadTemplateFile(path)
		if err != nil {
			return err
		}
		opts = append(opts, step.WithTemplate(tmpl))
	}
	s := step.New(client, opts...)

	if len(issues) == 1 {
		res, err := s.Run(ctx, step.Inputs{Issue: issues[0], Expand: expand})
		if err != nil {
			return describeFailure(err)
		}
		return writeOutput(cmd.OutOrStdout(), res.Output, format)
	}

	inputs := make([]step.Inputs, len(issues))
	for i, issue := range issues {
		inputs[i] = step.Inputs{Issue: issue, Expand: expand}
	}
	outcomes := s.RunMany(ctx, inputs, concurrency)

	entries := make([]batchEntry, len(outcomes))
	for i, o := range outcomes {
		entries[i] = batchEntry{Issue: o.Inputs.Issue}
		if o.Err != nil {
			entries[i].Error = describeFailure(o.Err).Error()
			continue
		}
		entries[i].RunID = o.Result.RunID
		entries[i].Output = o.Result.Output
	}

	if err := writeOutput(cmd.OutOrStdout(), entries, format); err != nil {
		return err
	}
	if failed := step.Failed(outcomes); failed > 0 {
		return fmt.Errorf("%d of %d issues failed", failed, len(outcomes))
	}
	return nil
}

// resolvePassword reads the password from Secret Manager when the config
// names a secret instead of a literal password.
func resolvePassword(ctx context.Context, cfg *config.Config) error {
	if cfg.Password != "" || cfg.PasswordSecret == "" {
		return nil
	}

	secrets, err := gcp.NewSecretManagerClient(ctx, "")
	if err != nil {
		return err
	}
	defer func() { _ = secrets.Close() }()

	return cfg.ResolvePassword(ctx, secrets)
}

// describeFailure turns Jira API errors into the message shown to users,
// keeping the underlying error for errors.Is/As.
func describeFailure(err error) error {
	var apiErr *jira.APIError
	if errors.As(err, &apiErr) && apiErr.IsBadRequest() {
		return fmt.Errorf("jira rejected the request: %w", err)
	}
	return err
}
