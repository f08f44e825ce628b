// Package cli implements casectl, a command line front-end for the collection client.
package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/casedesk/internal/config"
	"github.com/vyrodovalexey/casedesk/pkg/client"
)

// Execute runs casectl and exits non-zero when the command fails.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	baseURL   string
	namespace string
	output    string
	timeout   time.Duration
	debug     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{
		namespace: client.DefaultNamespace,
		output:    outputJSON,
	}

	// Environment settings become the flag defaults.
	if defaults, err := config.LoadClient(); err == nil {
		opts.baseURL = defaults.BaseURL
		opts.namespace = defaults.Namespace
		opts.timeout = defaults.Timeout
	}

	cmd := &cobra.Command{
		Use:          "casectl",
		Short:        "List and edit casedesk collections",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg := config.Client{
				BaseURL:   opts.baseURL,
				Namespace: opts.namespace,
				Timeout:   opts.timeout,
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			_, err := newPrinter(opts.output)
			return err
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.baseURL, "base-url", opts.baseURL, "casedesk server URL (empty targets http://localhost:8080)")
	flags.StringVarP(&opts.namespace, "namespace", "n", opts.namespace, "API namespace")
	flags.StringVarP(&opts.output, "output", "o", opts.output, "output format: json or yaml")
	flags.DurationVar(&opts.timeout, "timeout", opts.timeout, "per-request timeout (0 disables)")
	flags.BoolVar(&opts.debug, "debug", false, "enable verbose logging to stderr")

	cmd.AddCommand(
		listCmd(opts),
		createCmd(opts),
		updateCmd(opts),
		deleteCmd(opts),
		watchCmd(opts),
	)

	return cmd
}

// newClient builds a collection client reporting notifications on the
// command's stderr.
func (o *rootOptions) newClient(cmd *cobra.Command) (*client.Client, error) {
	baseURL, err := client.ParseBaseURL(o.baseURL)
	if err != nil {
		return nil, err
	}

	logger := o.newLogger(cmd)

	var notifier client.Notifier = newTerminalNotifier(cmd.ErrOrStderr())
	if o.debug {
		notifier = client.MultiNotifier{notifier, client.NewLogNotifier(logger)}
	}

	return client.New(
		client.WithBaseURL(baseURL),
		client.WithNamespace(o.namespace),
		client.WithHTTPClient(&http.Client{Timeout: o.timeout}),
		client.WithLogger(logger),
		client.WithNotifier(notifier),
	), nil
}

func (o *rootOptions) newLogger(cmd *cobra.Command) *zap.Logger {
	if !o.debug {
		return zap.NewNop()
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(cmd.ErrOrStderr()),
		zapcore.DebugLevel,
	)

	return zap.New(core)
}
