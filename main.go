package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath string
	debugMode  bool
	tagArgs    []string
)

var rootCmd = &cobra.Command{
	Use:           "web-clipper",
	Short:         "Save the clipboard to Markdown with browser context",
	Long:          `Captures the clipboard (a web page selection, plain text or an image) along with the active browser tab and appends it to a Markdown file for the page's domain.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var clipCmd = &cobra.Command{
	Use:   "clip",
	Short: "Clip the current clipboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logs := NewLogManager(cmd.ErrOrStderr(), debugMode)
		defer logs.Close()

		cfg, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		if err := logs.Upgrade(cfg.LogFile, cfg.LogLevel); err != nil {
			logs.Logger().Warn("file logging disabled", "error", err)
		}
		logger := logs.Logger()

		clipper := NewClipper(cfg,
			NewClipboardSource(newSystemPasteboard(), logger),
			NewSystemBrowserReader(logger),
			logger,
		)

		result, err := clipper.Clip(cmd.Context(), SplitTags(tagArgs))
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderClipSummary(result, cfg))
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the clips directory and a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		target := configPath
		if target == "" {
			target = defaultConfigPath()
		}
		target = expandHome(target)

		created, err := EnsureConfigFile(target)
		if err != nil {
			return err
		}

		cfg, err := LoadConfig(target)
		if err != nil {
			return err
		}

		imagesDir := filepath.Join(cfg.ClipsDirectory, imagesDirName)
		if err := os.MkdirAll(imagesDir, 0755); err != nil {
			return &StorageError{Op: "create directory", Path: imagesDir, Err: err}
		}

		status := "already present"
		if created {
			status = "created"
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderPanel("✓ web-clipper is ready", colorSuccess, []field{
			{"Config", fmt.Sprintf("%s (%s)", target, status)},
			{"Clips", cfg.ClipsDirectory},
			{"Images", imagesDir},
		}, "Copy something, then run: web-clipper clip --tags reading"))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configPath)
		if err != nil {
			return err
		}

		out, err := cfg.YAML()
		if err != nil {
			return err
		}

		source := cfg.Source
		if source == "" {
			source = "defaults"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n%s", source, out)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	clipCmd.Flags().StringSliceVarP(&tagArgs, "tags", "t", nil, "Comma-separated tags for the clip")

	rootCmd.AddCommand(clipCmd, initCmd, configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		stop()
		os.Exit(1)
	}
}
