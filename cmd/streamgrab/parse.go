package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vmunix/streamgrab/internal/manifest"
	"github.com/vmunix/streamgrab/internal/stream"
)

var parseCmd = &cobra.Command{
	Use:   "parse <manifest.txt>",
	Short: "Resolve a manifest without downloading",
	Long: `Resolves every line of the manifest, expanding group URLs, and prints
each video identifier with the directory it would be saved to.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&dlFlags.outputDir, "output-directory", "o", "", "Directory for entries without a -dir directive")
}

type entryJSON struct {
	Identifier string `json:"identifier"`
	Directory  string `json:"directory"`
}

func runParse(cmd *cobra.Command, args []string) error {
	path := args[0]
	if err := validateInputFile(path); err != nil {
		return err
	}
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	db, err := openDB(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	sess, err := newSessionSource(cfg, db, log).acquire(ctx)
	if err != nil {
		return err
	}

	client := stream.New(stream.WithLogger(log))
	res, err := parseManifest(ctx, path, cfg.Download.OutputDir, client, sess, log)
	if err != nil {
		return err
	}
	return writeEntries(cmd.OutOrStdout(), res.Entries(), jsonOutput)
}

func writeEntries(w io.Writer, entries []manifest.Entry, asJSON bool) error {
	if asJSON {
		out := make([]entryJSON, len(entries))
		for i, e := range entries {
			out[i] = entryJSON{Identifier: e.Identifier, Directory: e.OutputDirectory}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No videos found.")
		return err
	}
	printEntries(w, entries)
	return nil
}
