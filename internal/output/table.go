package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jbweber/vmsnap/internal/descriptor"
	"github.com/jbweber/vmsnap/internal/snapshot"
)

// TableFormatter formats results as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool

	// now is used for snapshot ages. Defaults to time.Now.
	now func() time.Time
}

// FormatMachines formats domains as a table.
func (f *TableFormatter) FormatMachines(machines []MachineInfo) (string, error) {
	if len(machines) == 0 {
		return "No machines found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	// Write header unless NoHeaders is set
	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "NAME\tUUID\tSTATE")
	}

	for _, m := range machines {
		state := m.State
		if state == "" {
			state = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", m.Name, m.UUID, state)
	}

	_ = w.Flush()
	return buf.String(), nil
}

// FormatDisks formats a DiskMapping as a table.
func (f *TableFormatter) FormatDisks(disks descriptor.DiskMapping) (string, error) {
	if len(disks) == 0 {
		return "No disks found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "TARGET\tSOURCE")
	}

	for _, d := range disks {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", d.Target, d.Source)
	}

	_ = w.Flush()
	return buf.String(), nil
}

// FormatSnapshots formats snapshots as a table.
func (f *TableFormatter) FormatSnapshots(snapshots []SnapshotInfo) (string, error) {
	if len(snapshots) == 0 {
		return "No snapshots found\n", nil
	}

	now := time.Now
	if f.now != nil {
		now = f.now
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "NAME\tDOMAIN\tDESCRIPTION\tAGE")
	}

	for _, s := range snapshots {
		desc := s.Description
		if desc == "" {
			desc = "-"
		}

		age := "-"
		if s.CreationTime > 0 {
			age = formatAge(now().Sub(time.Unix(s.CreationTime, 0)))
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, s.Domain, desc, age)
	}

	_ = w.Flush()
	return buf.String(), nil
}

// FormatExportCommands prints one shell command line per export, so the
// output can be piped to a shell. NoHeaders has no effect.
func (f *TableFormatter) FormatExportCommands(cmds []snapshot.ExportCommand) (string, error) {
	var buf bytes.Buffer
	for _, c := range cmds {
		buf.WriteString(c.String())
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}

// formatAge formats a duration as a human-readable age string.
// Examples: "5s", "2m", "3h", "4d", "2w", "1y"
func formatAge(d time.Duration) string {
	// Clock skew can yield a creation time in the future
	if d < 0 {
		return "unknown"
	}

	seconds := int(d.Seconds())

	// Less than 1 minute
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	// Less than 1 hour
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}

	hours := minutes / 60
	// Less than 1 day
	if hours < 24 {
		return fmt.Sprintf("%dh", hours)
	}

	days := hours / 24
	// Less than 1 week
	if days < 7 {
		return fmt.Sprintf("%dd", days)
	}

	weeks := days / 7
	// Less than ~2 months (8 weeks)
	if weeks < 8 {
		return fmt.Sprintf("%dw", weeks)
	}

	// More than 2 months, show in approximate years/days
	years := days / 365
	if years > 0 {
		return fmt.Sprintf("%dy", years)
	}

	return fmt.Sprintf("%dd", days)
}
