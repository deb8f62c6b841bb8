package cli

import (
	"fmt"
	"os"

	"github.com/andywolf/jiracomments/internal/logging"
	"github.com/andywolf/jiracomments/internal/security"
	"github.com/andywolf/jiracomments/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "jira-comments",
	Short: "Fetch Jira issue comments as a flattened record",
	Long: `jira-comments fetches the comments of Jira issues over the REST API and
reshapes each response with a declarative pick template into a flat record:
the comment total plus one array per comment field.

Connection settings come from .jira-comments.yaml, --config, or the
environment (JIRA_HOST, JIRA_USER, JIRA_PASSWORD, ... or the lower-case
jira_host, jira_user, jira_password names).

Example:
  jira-comments comments --issue PRJ-123 --expand renderedBody`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Version = version.Short()
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .jira-comments.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose output")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error getting working directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(cwd)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".jira-comments")
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// newLogger builds the command logger. Known secrets are redacted from
// every entry.
func newLogger(secrets ...string) *logging.Logger {
	sanitizer := security.NewLogSanitizer()
	for _, s := range secrets {
		sanitizer.AddSecret(s)
	}

	level := logging.SeverityWarning
	if viper.GetBool("verbose") {
		level = logging.SeverityDebug
	}

	return logging.New(
		logging.WithSanitizer(sanitizer),
		logging.WithMinSeverity(level),
		logging.WithLabels(map[string]string{"version": version.Short()}),
	)
}
