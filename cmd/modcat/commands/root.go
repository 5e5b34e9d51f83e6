package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dyluth/modcat/internal/config"
	"github.com/dyluth/modcat/internal/logging"
	"github.com/dyluth/modcat/internal/printer"
	"github.com/dyluth/modcat/pkg/catalog"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// defaultRedisURL is used when neither the configuration nor MODCAT_REDIS_URL names one.
const defaultRedisURL = "redis://localhost:6379/0"

var (
	version string
	commit  string
	date    string
)

var (
	configPath string
	logLevel   string

	// settings carries MODCAT_* environment variables and the overriding flags below.
	settings = config.NewViper()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "modcat",
	Short: "modcat - environment module software catalog",
	Long: `modcat scans environment-module trees (the directories listed in
MODULEPATH) and builds a catalog of the software they provide.

Every module file becomes one record carrying its name, version, description,
support contact and classification. Catalogs can be printed, or published to
Redis where they can be inspected with 'modcat hoard' and followed with
'modcat watch'.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		printer.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
	// Show help rather than silently succeeding on "modcat --publish"
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Errors are rendered by the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return report(rootCmd.Execute())
}

// report prints errors the printer has not rendered yet, such as cobra's own
// flag and argument errors.
func report(err error) error {
	if err == nil || printer.IsRendered(err) {
		return err
	}
	return printer.Error("Error: "+err.Error(), "", []string{"Run 'modcat --help' for usage."})
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", fmt.Sprintf("Configuration file (default %s if present)", config.DefaultFileName))
	flags.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	flags.String("module-path", "", "Module search path, overrides module_path and MODULEPATH")
	flags.String("strategy", "", "Traversal strategy: flat, recursive or walk")
	flags.String("exclude", "", "Comma separated module names to leave out")
	flags.String("default-support-contact", "", "Support contact for modules that declare none")
	flags.Bool("recurse-module-dirs", false, "walk: name modules after their parent directory")
	flags.Bool("ignore-toplevel-modulefiles", false, "walk: skip files directly under a root")
	flags.String("validity", "", "Record validity, e.g. 168h, 7d or 1w")
	flags.String("resource-name", "", "Resource the catalog describes (default: host name)")
	flags.String("redis-url", "", fmt.Sprintf("Redis URL for publishing (default %s)", defaultRedisURL))

	for _, name := range []string{
		"module-path", "strategy", "exclude", "default-support-contact",
		"recurse-module-dirs", "ignore-toplevel-modulefiles", "validity",
		"resource-name", "redis-url",
	} {
		bindFlag(settings, name)
	}
}

// bindFlag binds a persistent flag to the viper key of the same name in snake case.
func bindFlag(v *viper.Viper, name string) {
	key := strings.ReplaceAll(name, "-", "_")
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name)); err != nil {
		panic(fmt.Sprintf("failed to bind flag %s: %v", name, err))
	}
}

// loadConfig resolves the effective configuration. Without --config the
// default file is read when present.
func loadConfig() (*config.Config, error) {
	path := configPath
	optional := path == ""
	if optional {
		path = config.DefaultFileName
	}

	cfg, err := config.Resolve(settings, path, optional)
	if err != nil {
		return nil, printer.Error(
			"invalid configuration",
			err.Error(),
			[]string{
				fmt.Sprintf("Check %s, or create one with:\n  modcat init", path),
				"Environment overrides use the MODCAT_ prefix, e.g. MODCAT_STRATEGY=flat",
			},
		)
	}
	return cfg, nil
}

// newLogger builds the diagnostic logger on the command's error stream.
// MODCAT_LOG_LEVEL applies unless --log-level was given.
func newLogger(cmd *cobra.Command) (*log.Logger, error) {
	level := logLevel
	if !cmd.Flags().Changed("log-level") && settings.IsSet("log_level") {
		level = settings.GetString("log_level")
	}

	logger, err := logging.New(cmd.ErrOrStderr(), level)
	if err != nil {
		return nil, printer.Error(
			"invalid log level",
			err.Error(),
			[]string{"Valid levels: debug, info, warn, error"},
		)
	}
	return logger, nil
}

// connectCatalog opens the Redis-backed catalog store for the configured resource.
func connectCatalog(ctx context.Context, cfg *config.Config) (*catalog.Client, error) {
	redisURL := cfg.RedisURL
	if redisURL == "" {
		redisURL = defaultRedisURL
	}

	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, printer.Error(
			"invalid Redis URL",
			fmt.Sprintf("Could not parse %q: %v", redisURL, err),
			[]string{"Use the form redis://host:6379/0"},
		)
	}

	client, err := catalog.NewClient(redisOpts, cfg.ResourceName)
	if err != nil {
		return nil, printer.Error("failed to create catalog client", err.Error(), nil)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", redisURL),
			map[string]string{"resource": cfg.ResourceName},
			[]string{
				"Check that Redis is running and reachable",
				"Point modcat at another server:\n  modcat --redis-url redis://host:6379/0 ...",
			},
		)
	}

	return client, nil
}
