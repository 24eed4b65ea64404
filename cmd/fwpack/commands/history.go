package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/fwpack/internal/fsops"
	"git.home.luguber.info/inful/fwpack/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of runs to show" default:"20"`
	DB    string `name:"db" help:"History database (defaults to the settings file value)" type:"path"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	settings, err := loadSettings(root, PackageFlags{})
	if err != nil {
		return err
	}
	path := settings.History.Path
	if h.DB != "" {
		path = h.DB
	}
	return PrintHistory(context.Background(), os.Stdout, path, h.Limit)
}

// PrintHistory writes the most recent runs as a table.
func PrintHistory(ctx context.Context, out io.Writer, path string, limit int) error {
	if !fsops.IsFile(path) {
		_, err := fmt.Fprintf(out, "No runs recorded in %s\n", path)
		return err
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintf(out, "No runs recorded in %s\n", path)
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN\tSTARTED\tPROJECT\tVERSION\tBOARD\tLAYOUT\tFAILED\tFILES")
	for _, r := range runs {
		files := make([]string, 0, len(r.Files))
		for _, f := range r.Files {
			files = append(files, filepath.Base(f))
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			shortID(r.ID),
			r.StartedAt.Local().Format(time.DateTime),
			r.Project,
			r.Version,
			r.Board,
			r.Layout,
			len(r.Failures),
			strings.Join(files, ","))
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
