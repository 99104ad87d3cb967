package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/sdkgen/internal/config"
	"github.com/skdltmxn/sdkgen/internal/logging"
)

var (
	outputFile string
	output     io.Writer

	configPath string
	cfg        *config.Config
	logger     *slog.Logger

	targetPid     int
	targetImages  []string
	targetObjects string
	targetNames   string

	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "sdkgen",
	Short: "Rust SDK generator for UE3 reflection data",
	Long: `sdkgen reads the reflection graph of a running UE3 game, or of raw
memory images captured from one, and reconstructs its classes, structs,
enums and constants as Rust source.

The memory source is a live process (--pid, Linux only) or one or more
image files mapped at their base addresses (--image path@0xbase). The
addresses of the global object and name tables are given with --objects
and --names.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := applyFlags(cmd); err != nil {
			return err
		}

		logger, err = logging.New(os.Stderr, logging.Options{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
		})
		if err != nil {
			return err
		}

		path := outputFile
		if path == "" && cmd.Name() == "generate" {
			path = cfg.Output.Path
		}
		if path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			output = f
		} else {
			output = os.Stdout
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if f, ok := output.(*os.File); ok && f != os.Stdout {
			f.Close()
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&outputFile, "output", "o", "", "write output to file instead of stdout")
	flags.StringVarP(&configPath, "config", "c", config.DefaultFileName, "config file")
	flags.IntVarP(&targetPid, "pid", "p", 0, "read the live process with this pid")
	flags.StringArrayVarP(&targetImages, "image", "i", nil, "map a memory image file (path@0xbase), repeatable")
	flags.StringVar(&targetObjects, "objects", "", "address of the global object table")
	flags.StringVar(&targetNames, "names", "", "address of the global name table")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", "", "log format (auto, text, json)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(objectsCmd)
	rootCmd.AddCommand(namesCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(dumpCmd)
}

// applyFlags overrides the loaded config with the flags that were set.
func applyFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()

	if flags.Changed("pid") {
		cfg.Target.Pid = targetPid
		cfg.Target.Images = nil
	}
	if flags.Changed("image") {
		cfg.Target.Images = targetImages
		cfg.Target.Pid = 0
	}
	if flags.Changed("objects") {
		h, err := config.ParseHex(targetObjects)
		if err != nil {
			return fmt.Errorf("--objects: %w", err)
		}
		cfg.Target.Objects = h
	}
	if flags.Changed("names") {
		h, err := config.ParseHex(targetNames)
		if err != nil {
			return fmt.Errorf("--names: %w", err)
		}
		cfg.Target.Names = h
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	return config.Validate(cfg)
}
