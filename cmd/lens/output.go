package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/groblegark/linklens/internal/client"
	"github.com/groblegark/linklens/internal/model"
	"github.com/groblegark/linklens/internal/ui"
)

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// printOverlayTable renders overlay entries. The color swatch sits in the
// last column so its ANSI escapes cannot skew tabwriter's padding.
func printOverlayTable(entries []model.OverlayEntry, total int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tTARGET\tTYPE\tPAIR\tCOLOR")
	for _, e := range entries {
		pair := e.PairName
		if pair == "none" {
			pair = ""
		}
		color := e.Color
		if swatch := ui.Swatch(e.Color); swatch != "" {
			color = e.Color + " " + swatch
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Source,
			e.Target,
			e.Type,
			pair,
			color,
		)
	}
	w.Flush()
	fmt.Printf("\n%d entries (%d total)\n", len(entries), total)
}

func printLegendTable(rows []model.LegendRow) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROW\tLABEL\tUSES\tCOLOR")
	for _, r := range rows {
		color := r.Color
		if swatch := ui.Swatch(r.Color); swatch != "" {
			color = r.Color + " " + swatch
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n",
			r.Row,
			r.Label,
			r.UseCount,
			color,
		)
	}
	w.Flush()
}

func printLinksTable(links []*model.Link) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tTARGET\tTYPE\tCREATED_BY\tCREATED_AT")
	for _, l := range links {
		createdAt := ""
		if !l.CreatedAt.IsZero() {
			createdAt = l.CreatedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			l.Source,
			l.Target,
			l.Type,
			l.CreatedBy,
			createdAt,
		)
	}
	w.Flush()
}

func printSettings(s *model.Settings) {
	fmt.Printf("Color Mode:  %s\n", onOff(s.ColorMode))
	fmt.Printf("Labels:      %s\n", onOff(s.ShowLabels))
	fmt.Printf("Legend:      %s\n", onOff(s.ShowLegend))
}

func printLoopStatus(status *client.LoopStatus) {
	state := "stopped"
	if status.Running {
		state = "running"
	}
	fmt.Printf("Loop:  %s (frame %d)\n", state, status.Frame)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
