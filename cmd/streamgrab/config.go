package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vmunix/streamgrab/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or check the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write an example configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configTestCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "Check a config file without downloading anything",
	Long:  "Validates TOML syntax, known keys, values and environment variable substitution.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigTest,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configTestCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath()
	if len(args) > 0 {
		path = args[0]
	}
	if err := config.WriteDefault(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		found, err := config.Discover()
		if err != nil {
			return err
		}
		path = found
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Checking %s\n\n", path)

	cfg, err := config.Load(path)
	if err != nil {
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			printConfigErrors(out, cfgErr)
			return fmt.Errorf("%s has %d problem(s)", path, len(cfgErr.Missing)+len(cfgErr.Unknown)+len(cfgErr.Errors))
		}
		return fmt.Errorf("load %s: %w", path, err)
	}

	printConfigSummary(out, cfg)
	_, _ = fmt.Fprintln(out, "\nOK")
	return nil
}

func printConfigErrors(w io.Writer, e *config.ConfigError) {
	groups := []struct {
		heading string
		items   []string
	}{
		{"Missing environment variables", e.Missing},
		{"Unknown keys", e.Unknown},
		{"Invalid values", e.Errors},
	}
	for _, g := range groups {
		if len(g.items) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s:\n", g.heading)
		for _, item := range g.items {
			_, _ = fmt.Fprintf(w, "  - %s\n", item)
		}
		_, _ = fmt.Fprintln(w)
	}
}

func printConfigSummary(w io.Writer, cfg *config.Config) {
	d := cfg.Download
	_, _ = fmt.Fprintln(w, "Effective settings:")
	_, _ = fmt.Fprintf(w, "  Output:    %s (%s)\n", d.OutputDir, d.Format)
	_, _ = fmt.Fprintf(w, "  Backend:   %s", d.Backend)
	if d.Backend == "yt-dlp" {
		_, _ = fmt.Fprintf(w, " (%d fragments)", d.Fragments)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "  Codecs:    video %s, audio %s\n", d.VideoCodec, d.AudioCodec)
	_, _ = fmt.Fprintf(w, "  Template:  %s\n", d.FilenameTemplate)
	_, _ = fmt.Fprintf(w, "  Database:  %s\n", cfg.Database.Path)

	s := cfg.Session
	switch {
	case s.AccessToken != "":
		_, _ = fmt.Fprintln(w, "  Session:   static access token")
	case len(s.LoginCommand) > 0:
		_, _ = fmt.Fprintf(w, "  Session:   login helper %s\n", s.LoginCommand[0])
	default:
		_, _ = fmt.Fprintln(w, "  Session:   token cache only")
	}
}
