package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/config"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/display"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/logging"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/naming"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/planner"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/term"
)

// Action is what a run would do with an inventoried file.
type Action string

const (
	ActionConvert  Action = "convert"
	ActionExists   Action = "exists"   // Every destination is already there.
	ActionFiltered Action = "filtered" // Fails the mode's input criterion.
	ActionUnknown  Action = "unknown"  // Format could not be determined.
	ActionConflict Action = "conflict" // Destinations already claimed by another file.
)

// Row is one line of the inventory table.
type Row struct {
	RelPath   string
	Container string
	Format    string
	Size      int64
	Action    Action
	Detail    string // Destinations, or the exclusion reason.
	Estimate  int64  // Predicted output bytes when Action is convert.
}

// Inventory classifies every candidate file under cfg's source directory
// and reports what a run with cfg would do, without converting anything.
// Progress is drawn on stdout when it is a terminal.
func Inventory(ctx context.Context, cfg *config.Config, cls Classifier, log *logging.Logger) ([]Row, error) {
	c, err := prepare(cfg)
	if err != nil {
		return nil, err
	}

	paths, walkNotes := Discover(c.SourceDir, c.Traversal)
	for _, n := range walkNotes {
		log.Warn("Cannot read %s: %s", n.RelPath, n.Detail)
	}
	if len(paths) == 0 {
		log.Warn("No audio files found in %s", c.SourceDir)
		return nil, nil
	}

	isTTY := term.IsTerminal(os.Stdout)
	targets := planner.Targets(c)
	claims := naming.NewClaimRegistry()
	rows := make([]Row, 0, len(paths))

	for i, path := range paths {
		if ctx.Err() != nil {
			if isTTY {
				clearProgress()
			}
			log.Warn("Interrupted")
			return rows, ctx.Err()
		}
		printProgress(isTTY, i+1, len(paths), filepath.Base(path))

		sf := cls.Classify(ctx, c.SourceDir, path)
		row := Row{
			RelPath:   sf.RelPath,
			Container: string(sf.Container),
			Format:    sf.Format.String(),
			Size:      sf.Size,
		}
		if sf.Note != "" {
			row.Format = sf.Note
		}

		jobs, notes := planner.Plan(c, targets, &sf, claims)
		switch {
		case len(jobs) > 0:
			row.Action, row.Detail = convertAction(c.SourceDir, c.OutputDir, jobs)
			if row.Action == ActionConvert {
				row.Estimate, _ = planner.EstimateTotal(jobs)
			}
		case len(notes) > 0:
			row.Action = noteAction(notes[0].Kind)
			row.Detail = notes[0].Detail
		}
		rows = append(rows, row)
	}
	if isTTY {
		clearProgress()
	}
	return rows, nil
}

func convertAction(sourceRoot, outputRoot string, jobs []planner.Job) (Action, string) {
	base := outputRoot
	if base == "" {
		base = sourceRoot
	}
	dests := make([]string, 0, len(jobs))
	existing := 0
	for _, j := range jobs {
		if rel, err := filepath.Rel(base, j.Destination); err == nil {
			dests = append(dests, rel)
		} else {
			dests = append(dests, j.Destination)
		}
		if _, err := os.Lstat(j.Destination); err == nil && !j.Spec.Overwrite {
			existing++
		}
	}
	if existing == len(jobs) {
		return ActionExists, strings.Join(dests, ", ")
	}
	return ActionConvert, strings.Join(dests, ", ")
}

func noteAction(kind planner.NoteKind) Action {
	switch kind {
	case planner.NoteUnknown:
		return ActionUnknown
	case planner.NoteConflict:
		return ActionConflict
	default:
		return ActionFiltered
	}
}

// PrintInventory writes the table and a one-line tally per action.
func PrintInventory(w io.Writer, log *logging.Logger, rows []Row) {
	if len(rows) == 0 {
		return
	}

	nameW, fmtW := len("File"), len("Format")
	for _, r := range rows {
		nameW = max(nameW, len(r.RelPath))
		fmtW = max(fmtW, len(r.Format))
	}
	nameW = min(nameW, 60)
	fmtW = min(fmtW, 32)

	fmt.Fprintf(w, "  %-*s  %-9s  %-*s  %10s  %s\n", nameW, "File", "Container", fmtW, "Format", "Size", "Action")
	fmt.Fprintf(w, "  %s\n", strings.Repeat("-", nameW+fmtW+36))

	tally := make(map[Action]int)
	var estimate int64
	for _, r := range rows {
		tally[r.Action]++
		estimate += r.Estimate
		action := colorPad(string(r.Action), 9, r.Action)
		if r.Detail != "" {
			action += " " + r.Detail
		}
		fmt.Fprintf(w, "  %-*s  %-9s  %-*s  %10s  %s\n",
			nameW, truncate(r.RelPath, nameW),
			r.Container,
			fmtW, truncate(r.Format, fmtW),
			display.FormatBytes(r.Size),
			action,
		)
	}
	fmt.Fprintln(w)

	log.Info("Inventoried %d files", len(rows))
	if n := tally[ActionConvert]; n > 0 {
		log.Success("  %d to convert (about %s of output)", n, display.FormatBytes(estimate))
	}
	if n := tally[ActionExists]; n > 0 {
		log.Skip("  %d already converted", n)
	}
	if n := tally[ActionFiltered] + tally[ActionUnknown] + tally[ActionConflict]; n > 0 {
		log.Warn("  %d excluded", n)
	}
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width-1] + "…"
}

// colorPad pads a plain string to width, then wraps in ANSI color. This
// ensures %-*s-style alignment works correctly regardless of escape sequences.
func colorPad(s string, width int, a Action) string {
	padded := fmt.Sprintf("%-*s", width, s)
	switch a {
	case ActionConvert:
		return term.Green + padded + term.NC
	case ActionExists:
		return term.Cyan + padded + term.NC
	case ActionUnknown, ActionConflict:
		return term.Yellow + padded + term.NC
	default:
		return term.Dim + padded + term.NC
	}
}

// printProgress shows a live classification counter. On a TTY it writes an
// inline \r-overwritten line; otherwise it is a no-op.
func printProgress(isTTY bool, current, total int, name string) {
	if !isTTY {
		return
	}
	pct := current * 100 / total
	status := fmt.Sprintf("  Reading headers [%d/%d] %d%% ", current, total, pct)
	status += truncate(name, 40)

	// Pad to 80 chars to overwrite previous longer lines, then \r.
	if len(status) < 80 {
		status += strings.Repeat(" ", 80-len(status))
	}
	fmt.Fprintf(os.Stdout, "\r%s", status)
}

// clearProgress erases the inline progress line on a TTY.
func clearProgress() {
	fmt.Fprintf(os.Stdout, "\r%s\r", strings.Repeat(" ", 80))
}
