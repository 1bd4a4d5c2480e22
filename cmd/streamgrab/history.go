package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vmunix/streamgrab/internal/download"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded downloads",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var (
	historyRun    string
	historyID     string
	historyStatus string
	historyLimit  int
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Only jobs of this run")
	historyCmd.Flags().StringVar(&historyID, "video", "", "Only jobs for this video identifier")
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "Only jobs in this status (pending, running, succeeded, failed, cancelled)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of jobs, 0 for all")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	f, err := historyFilter(historyRun, historyID, historyStatus, historyLimit)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	db, err := openDB(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	jobs, err := download.NewStore(db).List(cmd.Context(), f)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJobsJSON(cmd.OutOrStdout(), jobs)
	}
	return writeJobs(cmd.OutOrStdout(), jobs, time.Now())
}

var errUnknownStatus = errors.New("unknown status")

// historyFilter builds the store filter from the command flags.
func historyFilter(run, id, status string, limit int) (download.Filter, error) {
	f := download.Filter{Limit: limit}
	if run != "" {
		f.RunID = &run
	}
	if id != "" {
		f.Identifier = &id
	}
	if status != "" {
		s := download.Status(strings.ToLower(status))
		if !s.Valid() {
			return f, fmt.Errorf("%w %q: want pending, running, succeeded, failed or cancelled", errUnknownStatus, status)
		}
		f.Status = &s
	}
	return f, nil
}

type jobJSON struct {
	ID         int64      `json:"id"`
	RunID      string     `json:"run_id"`
	Identifier string     `json:"identifier"`
	Title      string     `json:"title"`
	OutputPath string     `json:"output_path"`
	Backend    string     `json:"backend"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	AddedAt    time.Time  `json:"added_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func writeJobsJSON(w io.Writer, jobs []*download.Job) error {
	out := make([]jobJSON, len(jobs))
	for i, j := range jobs {
		out[i] = jobJSON{
			ID:         j.ID,
			RunID:      j.RunID,
			Identifier: j.Identifier,
			Title:      j.Title,
			OutputPath: j.OutputPath,
			Backend:    string(j.Backend),
			Status:     string(j.Status),
			Error:      j.Error,
			AddedAt:    j.AddedAt,
			FinishedAt: j.FinishedAt,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeJobs(w io.Writer, jobs []*download.Job, now time.Time) error {
	if len(jobs) == 0 {
		_, err := fmt.Fprintln(w, "No downloads recorded.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTATUS\tADDED\tTOOK\tTITLE\tOUTPUT")
	for _, j := range jobs {
		took := "-"
		if j.FinishedAt != nil {
			took = j.FinishedAt.Sub(j.AddedAt).Round(time.Second).String()
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			j.ID, j.Status, humanize.RelTime(j.AddedAt, now, "ago", "from now"), took, j.Title, j.OutputPath)
		if j.Error != "" {
			_, _ = fmt.Fprintf(tw, "\t\t\t\t  error: %s\t\n", j.Error)
		}
	}
	return tw.Flush()
}
