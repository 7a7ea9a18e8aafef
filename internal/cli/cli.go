// Package cli implements the command-line interface for infra-nli.
package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/infra-nli/internal/config"
	"github.com/infra-nli/internal/controller"
	"github.com/infra-nli/internal/domain"
	"github.com/infra-nli/internal/logging"
	"github.com/infra-nli/internal/web"
)

// CLI encapsulates the command-line interface
type CLI struct {
	rootCmd *cobra.Command
	logger  *logging.Logger
	cfg     *config.Config
	ctrl    *controller.Controller
}

// New creates a new CLI instance from the global configuration
func New() *CLI {
	return NewWithConfig(config.Get())
}

// NewWithConfig creates a CLI around cfg
func NewWithConfig(cfg *config.Config) *CLI {
	lc := controller.LoggerConfig(cfg, "cli")
	// stdout belongs to command output
	lc.ToStderr = true
	if lc.Level < logging.WARN {
		lc.Level = logging.WARN
	}
	logger, err := logging.New(lc)
	if err != nil {
		logger = logging.Nop()
	}

	cli := &CLI{
		logger: logger,
		cfg:    cfg,
		ctrl:   controller.NewWithConfig(cfg, logger),
	}
	cli.buildCommands()
	return cli
}

// Execute runs the CLI
func (c *CLI) Execute() error {
	return c.rootCmd.Execute()
}

// buildCommands constructs the command tree
func (c *CLI) buildCommands() {
	var verbose bool

	c.rootCmd = &cobra.Command{
		Use:   "infra-nli",
		Short: "Compile plain-English infrastructure requests into IaC",
		Long: `
  ━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
   INFRA NLI : natural-language infrastructure compiler
  ━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━

  Describe the infrastructure you need in plain English and get back
  Terraform, Kubernetes manifests or CloudFormation, together with a
  monthly cost estimate, recommendations and cheaper alternatives.

  Everything is rule based and deterministic: the same command always
  produces the same output.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				c.logger.SetLevel(logging.DEBUG)
			}
		},
	}
	c.rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")

	// Add subcommands
	c.rootCmd.AddCommand(c.generateCmd())
	c.rootCmd.AddCommand(c.examplesCmd())
	c.rootCmd.AddCommand(c.batchCmd())
	c.rootCmd.AddCommand(c.serveCmd())
}

// contextFlags binds the optional command context to a command's flags
type contextFlags struct {
	provider    string
	environment string
	budget      float64
}

func (f *contextFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.provider, "provider", "p", "", "Cloud provider: aws, azure, gcp, kubernetes (default: detected from text, else aws)")
	cmd.Flags().StringVarP(&f.environment, "environment", "e", "", "Environment: dev, staging, production (default: detected from text, else production)")
	cmd.Flags().Float64Var(&f.budget, "budget", 0, "Monthly budget in USD; adds a note when the estimate exceeds it")
}

// build returns nil when no context flag was given
func (f *contextFlags) build(cmd *cobra.Command) *domain.CommandContext {
	budgetSet := cmd.Flags().Changed("budget")
	if f.provider == "" && f.environment == "" && !budgetSet {
		return nil
	}
	cc := &domain.CommandContext{
		Provider:    strings.ToLower(f.provider),
		Environment: strings.ToLower(f.environment),
	}
	if budgetSet {
		budget := f.budget
		cc.Budget = &budget
	}
	return cc
}

// generateCmd creates the generate command
func (c *CLI) generateCmd() *cobra.Command {
	var (
		ctxFlags     contextFlags
		outputFormat string
		codeFormat   string
	)

	cmd := &cobra.Command{
		Use:     "generate <command...>",
		Aliases: []string{"gen"},
		Short:   "Compile a natural-language command",
		Long: `Compile a natural-language infrastructure request into code,
a cost estimate, recommendations and alternatives.

Examples:
  # EKS cluster with three nodes
  infra-nli generate "Create a Kubernetes cluster with 3 nodes"

  # Highly available database, printing only the Terraform
  infra-nli generate --output code --format terraform \
    "Deploy a highly available PostgreSQL database with 200GB storage"

  # Web application in staging with a budget check
  infra-nli generate -e staging --budget 40 "Setup a web application with auto-scaling"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := parseOutput(outputFormat, true)
			if err != nil {
				return err
			}
			var format domain.ArtifactFormat
			if codeFormat != "" {
				f, ok := domain.ParseArtifactFormat(strings.ToLower(codeFormat))
				if !ok {
					return fmt.Errorf("unknown format %q (use terraform, kubernetes or cloudformation)", codeFormat)
				}
				format = f
			}

			resp, err := c.ctrl.Parse(cmd.Context(), controller.ParseRequest{
				Command: strings.Join(args, " "),
				Context: ctxFlags.build(cmd),
			})
			if err != nil {
				return err
			}
			return renderResponse(cmd.OutOrStdout(), resp, output, format)
		},
	}

	ctxFlags.bind(cmd)
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml, code")
	cmd.Flags().StringVarP(&codeFormat, "format", "f", "", "With --output code, print only this format: terraform, kubernetes, cloudformation")

	return cmd
}

// examplesCmd creates the examples command
func (c *CLI) examplesCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "examples",
		Short: "List sample commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := parseOutput(outputFormat, false)
			if err != nil {
				return err
			}
			return renderCatalog(cmd.OutOrStdout(), c.ctrl.Examples(), output)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")
	return cmd
}

// batchCmd creates the batch command
func (c *CLI) batchCmd() *cobra.Command {
	var (
		ctxFlags     contextFlags
		concurrency  int
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Compile every command in a file",
		Long: `Compile one command per line from a file ("-" reads stdin).
Blank lines and lines starting with # are skipped. Results are printed
in input order.

Examples:
  infra-nli batch commands.txt
  infra-nli batch --concurrency 8 --output json commands.txt
  cat commands.txt | infra-nli batch -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := parseOutput(outputFormat, false)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			items, err := readCommands(in)
			if err != nil {
				return err
			}

			results, err := c.runBatch(cmd.Context(), items, concurrency, ctxFlags.build(cmd))
			if err != nil {
				return err
			}
			return renderBatch(cmd.OutOrStdout(), results, output)
		},
	}

	ctxFlags.bind(cmd)
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 4, "Commands compiled in parallel")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")
	return cmd
}

// serveCmd creates the API server command
func (c *CLI) serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API server.

Endpoints:
  POST /api/nli/parse      compile a command
  GET  /api/nli/examples   sample commands
  GET  /api/health         health check

Examples:
  infra-nli serve
  infra-nli serve --port 9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "🌐 Starting API at http://localhost:%d\n", port)
			return web.NewServerWithController(port, c.cfg, c.ctrl, c.logger).Run(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", c.cfg.Server.Port, "Port to listen on")
	return cmd
}
