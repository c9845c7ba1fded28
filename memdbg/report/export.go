package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/memtools/memkit/pkg/types"
)

// JSON writes the whole snapshot as indented JSON.
func JSON(w io.Writer, snap types.TrackerSnapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// WriteText writes the full text report to a file.
func WriteText(path string, snap types.TrackerSnapshot) error {
	if err := os.WriteFile(path, []byte(Text(snap)), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteCSV writes the active-allocation export to a file.
func WriteCSV(path string, snap types.TrackerSnapshot) error {
	return writeWith(path, snap, CSV)
}

// WriteUsageHistory writes the usage-timeline export to a file.
func WriteUsageHistory(path string, snap types.TrackerSnapshot) error {
	return writeWith(path, snap, UsageHistoryCSV)
}

// WriteJSON writes the JSON export to a file.
func WriteJSON(path string, snap types.TrackerSnapshot) error {
	return writeWith(path, snap, JSON)
}

func writeWith(path string, snap types.TrackerSnapshot, render func(io.Writer, types.TrackerSnapshot) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := render(f, snap); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	return nil
}
