package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath string
	verbose    bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "streamgrab -f <manifest.txt>",
	Short: "Batch-download videos listed in a manifest",
	Long: `streamgrab - batch video downloader

Reads a manifest of video and group URLs, resolves every entry to a video,
picks a unique output file for each and downloads them one after another
with ffmpeg or yt-dlp.

Manifest lines may be followed by a directive choosing their directory:

  https://web.microsoftstream.com/video/<id>
  https://web.microsoftstream.com/group/<id>
  -dir="lectures/week 1"`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDownload,
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	err := rootCmd.ExecuteContext(context.Background())
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	if hint := exitHint(err); hint != "" {
		fmt.Fprintln(os.Stderr, hint)
	}
	return exitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: discovered)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print additional information")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON where supported")

	registerDownloadFlags(rootCmd)

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("streamgrab {{.Version}}\n")
}
