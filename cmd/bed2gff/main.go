// Package main provides the bed2gff command-line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/bed2gff/internal/convert"
	"github.com/inodb/bed2gff/internal/gff"
	"github.com/inodb/bed2gff/internal/output"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "0.1.0"
	commit  = "none"
	date    = "unknown"
)

const configName = ".bed2gff.yaml"

// exitError carries the exit status of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	viper.Reset()

	cmd := newRootCmd(stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n\n", err)
	fmt.Fprint(stderr, cmd.UsageString())
	return ExitUsage
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "bed2gff <bed> <isoforms> <output>",
		Short: "Convert BED12 transcripts to GFF3",
		Long: `Convert BED12 transcripts to GFF3 genes, transcripts, exons, CDS, UTRs
and start/stop codons. The isoforms file maps transcripts to genes with
two tab-separated columns: gene, isoform.`,
		Example: `  bed2gff annotation.bed isoforms.tsv annotation.gff3
  bed2gff annotation.bed.gz isoforms.tsv annotation.gff3.gz
  cat annotation.bed | bed2gff - isoforms.tsv - > annotation.gff3
  bed2gff --db runs.duckdb annotation.bed isoforms.tsv annotation.gff3`,
		Args:          cobra.ExactArgs(3),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, logOut)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default: ~/"+configName+")")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")

	local := cmd.Flags()
	local.String("db", "", "Also export features and run metadata to this DuckDB file")
	local.String("source", gff.DefaultSource, "Value of the GFF source column")
	local.String("provider", "bed2gff", "Provider written to the GFF preamble")
	local.String("contact", "github.com/alejandrogzi/bed2gff", "Contact written to the GFF preamble")

	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("db", local.Lookup("db"))
	viper.BindPFlag("source", local.Lookup("source"))
	viper.BindPFlag("provider", local.Lookup("provider"))
	viper.BindPFlag("contact", local.Lookup("contact"))

	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bed2gff version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// initConfig reads the config file and environment. A missing default
// config file is not an error.
func initConfig(cfgFile string) error {
	viper.SetEnvPrefix("BED2GFF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	viper.SetConfigFile(filepath.Join(home, configName))
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// newLogger builds a console logger with colored level names.
func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

func runConvert(cmd *cobra.Command, args []string, logOut io.Writer) error {
	logger, err := newLogger(viper.GetString("log.level"), logOut)
	if err != nil {
		return err
	}
	defer logger.Sync()

	opts := convert.Options{
		BED:      args[0],
		Isoforms: args[1],
		Output:   args[2],
		DB:       viper.GetString("db"),
		Source:   viper.GetString("source"),
		Header: output.Header{
			Provider: viper.GetString("provider"),
			Version:  version,
			Contact:  viper.GetString("contact"),
			Date:     time.Now(),
		},
	}

	logger.Debug("converting",
		zap.String("bed", opts.BED),
		zap.String("isoforms", opts.Isoforms),
		zap.String("output", opts.Output))

	summary, err := convert.Run(cmd.Context(), opts, logger)
	if err != nil {
		logger.Error("conversion failed", zap.Error(err))
		return &exitError{code: ExitError, err: err}
	}

	logger.Info("converted successfully",
		zap.Int("transcripts", summary.Records),
		zap.Int("genes", summary.Genes),
		zap.Int("features", summary.Features),
		zap.Int("skipped", summary.Skipped))
	if summary.RunID != 0 {
		logger.Info("run exported", zap.String("db", opts.DB), zap.Int64("run_id", summary.RunID))
	}
	summary.Usage.Log(logger)
	return nil
}
