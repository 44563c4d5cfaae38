package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/maildummy/s3-magiclink/internal/browser"
	"github.com/maildummy/s3-magiclink/internal/config"
	"github.com/maildummy/s3-magiclink/internal/magiclink"
	"github.com/maildummy/s3-magiclink/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// UsageLine is printed when the positional arguments are missing.
const UsageLine = "Usage: magiclink <bucket-name> <email-address> [--region <region>]"

// ErrUsage marks an invocation without bucket and email.
var ErrUsage = errors.New("bucket name and email address are required")

var cfgFile string

var (
	rootRegion         string
	rootPrefix         string
	rootEndpoint       string
	rootPatterns       []string
	rootSkipUnreadable bool
	rootOpen           bool
)

// newObjectStore builds the S3-backed store; replaced in tests.
var newObjectStore = func(ctx context.Context, opts storage.Options) (magiclink.ObjectStore, error) {
	client, err := storage.NewClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	return storage.New(client), nil
}

var openURLInBrowserFunc = browser.OpenURL

var rootCmd = &cobra.Command{
	Use:   "magiclink <bucket-name> <email-address>",
	Short: "Fetch the latest magic link mailed to an address from S3",
	Long: `magiclink retrieves a one-time login link for end-to-end tests.

Inbound mail is expected as raw RFC 5322 objects under a key prefix
(default "raw/") in an S3 bucket. Objects are read newest first; the
first message addressed (To or Cc) to the given address that contains a
Supabase verify URL, or failing that any URL with a token parameter,
wins. The link is printed to stdout.

Examples:
  magiclink my-maildummy-bucket test@maildummy.example.com
  magiclink my-bucket user@example.com --region us-east-1
  LINK=$(magiclink my-bucket user@example.com)
  magiclink my-bucket user@example.com --endpoint http://localhost:4566
  magiclink my-bucket user@example.com -o json`,
	Args:          validateRootArgs,
	RunE:          runRoot,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// helpCmd replaces cobra's default help command so it stays out of the
// command list; "help" is also a valid bucket name.
var helpCmd = &cobra.Command{
	Use:    "help [command]",
	Short:  "Help about any command",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		target, _, err := cmd.Root().Find(args)
		if err != nil {
			return err
		}
		return target.Help()
	},
}

// Execute runs the root command with the process arguments.
func Execute() error {
	rootCmd.SetArgs(normalizeArgs(os.Args[1:]))
	return rootCmd.Execute()
}

// normalizeArgs prepares raw arguments for rootCmd.
func normalizeArgs(args []string) []string {
	return separatePositionals(rootCmd, trimDanglingRegion(args))
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpCommand(helpCmd)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.config/magiclink/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format: pretty, json")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default warn)")

	rootCmd.Flags().StringVar(&rootRegion, "region", config.DefaultRegion,
		"AWS region of the bucket")
	rootCmd.Flags().StringVar(&rootPrefix, "prefix", config.DefaultPrefix,
		"Key prefix the raw emails are stored under")
	rootCmd.Flags().StringVar(&rootEndpoint, "endpoint", "",
		"S3-compatible endpoint URL (LocalStack, MinIO)")
	rootCmd.Flags().StringArrayVar(&rootPatterns, "pattern", nil,
		"Extra link regex tried after the Supabase pattern (repeatable)")
	rootCmd.Flags().BoolVar(&rootSkipUnreadable, "skip-unreadable", false,
		"Skip objects that fail to download or parse instead of aborting")
	rootCmd.Flags().BoolVar(&rootOpen, "open", false,
		"Also open the link in the default browser")
}

func initConfig() error {
	var configPath string
	if cfgFile != "" {
		configPath = cfgFile
	} else {
		dir, err := config.Dir()
		if err != nil {
			return nil
		}
		configPath = filepath.Join(dir, "config.yaml")
	}
	if err := config.LoadFromFile(configPath); err != nil {
		return fmt.Errorf("failed to load config %s: %w", configPath, err)
	}
	return nil
}

func validateRootArgs(cmd *cobra.Command, args []string) error {
	if len(args) < 2 || args[0] == "" || args[1] == "" {
		return ErrUsage
	}
	return nil
}

// trimDanglingRegion drops a trailing "--region" with no value so the
// default region applies.
func trimDanglingRegion(args []string) []string {
	if n := len(args); n > 0 && args[n-1] == "--region" {
		return args[:n-1]
	}
	return args
}

// separatePositionals keeps a bucket named like a subcommand ("config",
// "help") from being dispatched to it: when the first positional names a
// subcommand and the second is not one of that command's own children, the
// flags are moved to the front and the positionals placed after "--".
func separatePositionals(root *cobra.Command, args []string) []string {
	var flags, positionals []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positionals = append(positionals, args[i+1:]...)
			break
		}
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)
			if flagTakesValue(root, arg) && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
			continue
		}
		positionals = append(positionals, arg)
	}

	if len(positionals) < 2 || !shadowsCommand(root, positionals[0], positionals[1]) {
		return args
	}
	out := append(flags, "--")
	return append(out, positionals...)
}

// flagTakesValue reports whether arg is a flag of root whose value is the
// next argument.
func flagTakesValue(root *cobra.Command, arg string) bool {
	if strings.Contains(arg, "=") {
		return false
	}
	lookup := func(fs *pflag.FlagSet) *pflag.Flag {
		switch {
		case strings.HasPrefix(arg, "--"):
			return fs.Lookup(arg[2:])
		case len(arg) == 2:
			return fs.ShorthandLookup(arg[1:])
		}
		return nil
	}
	f := lookup(root.Flags())
	if f == nil {
		f = lookup(root.PersistentFlags())
	}
	return f != nil && f.NoOptDefVal == ""
}

// shadowsCommand reports whether first would be taken for a subcommand
// even though second shows it is meant as a bucket name.
func shadowsCommand(root *cobra.Command, first, second string) bool {
	var sub *cobra.Command
	if first == "help" {
		// help takes a command name
		sub = root
	} else {
		for _, c := range root.Commands() {
			if c.Name() == first || c.HasAlias(first) {
				sub = c
				break
			}
		}
	}
	if sub == nil {
		return false
	}
	for _, c := range sub.Commands() {
		if c.Name() == second || c.HasAlias(second) {
			return false
		}
	}
	return true
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	bucket, email := args[0], args[1]

	logger, err := newLogger(cmd.ErrOrStderr(), getLogLevel(cmd))
	if err != nil {
		return err
	}

	extractor, err := magiclink.NewExtractor(rootPatterns)
	if err != nil {
		return err
	}

	opts := storage.Options{
		Region:   flagOrConfig(cmd, "region", config.GetRegion),
		Endpoint: flagOrConfig(cmd, "endpoint", config.GetEndpoint),
	}
	// An empty --region means the default, like an absent one.
	if strings.TrimSpace(opts.Region) == "" {
		opts.Region = config.GetRegion()
	}
	store, err := newObjectStore(ctx, opts)
	if err != nil {
		return &magiclink.RetrievalError{Err: err}
	}

	finder := &magiclink.Finder{
		Store:          store,
		Prefix:         flagOrConfig(cmd, "prefix", config.GetPrefix),
		Extractor:      extractor,
		Logger:         logger,
		SkipUnreadable: rootSkipUnreadable,
	}
	logger.Debug("searching for magic link", "bucket", bucket, "email", email, "region", opts.Region, "prefix", finder.Prefix)

	result, err := finder.Find(ctx, bucket, email)
	if err != nil {
		return err
	}

	if getOutput(cmd) == "json" {
		if err := outputJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), result.Link)
	}

	if rootOpen {
		if err := openURLInBrowserFunc(result.Link); err != nil {
			logger.Warn("could not open browser", "err", err)
		}
	}
	return nil
}
