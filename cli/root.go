package cli

import (
	"fmt"
	"time"

	"docchat/config"
	"docchat/qaclient"
	"docchat/workspace"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	apiURL   string
	timeout  int
	logLevel string
)

// rootCmd is the root command
var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Ask questions about a document",
	Long: `Upload one document to the question-answering service and ask questions
about it. The service keeps the document only for the life of the session;
nothing is stored locally.`,
	Example: `  # Upload a file and start asking questions
  $ docchat chat report.pdf

  # One question, one answer
  $ docchat ask notes.md "What are the action items?"`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "question-answering service base URL (overrides API_BASE_URL)")
	rootCmd.PersistentFlags().IntVar(&timeout, "timeout", -1, "request timeout in seconds, 0 for none (overrides REQUEST_TIMEOUT)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level written to stderr")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
}

// session bundles what a command needs to talk to the service.
type session struct {
	cfg       *config.Config
	logger    *zap.Logger
	client    *qaclient.Client
	workspace *workspace.Workspace
}

func (s *session) Close() {
	s.workspace.Close()
	_ = s.logger.Sync()
}

// newSession loads configuration, applies flag overrides and builds a
// workspace that prints notices to cmd's output.
func newSession(cmd *cobra.Command) (*session, error) {
	logger, err := config.InitLogger(logLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg := config.Load(logger)
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}
	if timeout >= 0 {
		cfg.RequestTimeoutSeconds = timeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	client, err := qaclient.New(cfg.APIBaseURL, cfg.RequestTimeout(), logger)
	if err != nil {
		return nil, err
	}

	notices := newNoticePrinter(cmd.OutOrStdout())
	ws := workspace.New(client, workspace.NewLogNotifier(notices, logger), workspace.OptionsFromConfig(cfg), logger)

	return &session{cfg: cfg, logger: logger, client: client, workspace: ws}, nil
}

// progressRedraw is how often the upload progress line is redrawn.
const progressRedraw = 100 * time.Millisecond
