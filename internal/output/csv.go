package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/groupstat/groupstat/pkg/analyzer/activity"
)

// WriteGlobalCSV writes one row per group member with all-history totals.
func WriteGlobalCSV(w io.Writer, analyses []*activity.Analysis) error {
	cw := csv.NewWriter(w)
	header := []string{"Group", "Member", "Added rows", "Removed rows", "Total commits", "Active days"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, a := range analyses {
		for _, t := range a.Totals {
			row := []string{
				a.Group,
				t.Identity,
				strconv.Itoa(t.Added),
				strconv.Itoa(t.Removed),
				strconv.Itoa(t.Commits),
				strconv.Itoa(t.ActiveDays),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteDailyCSV writes one row per member per day in the analysis window.
func WriteDailyCSV(w io.Writer, analyses []*activity.Analysis) error {
	cw := csv.NewWriter(w)
	header := []string{"Group", "Member", "Date", "Added rows (day)", "Removed rows (day)", "Commits (day)"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, a := range analyses {
		for _, series := range a.Daily {
			for _, day := range series.Days {
				row := []string{
					a.Group,
					series.Identity,
					day.Day,
					strconv.Itoa(day.Added),
					strconv.Itoa(day.Removed),
					strconv.Itoa(day.Commits),
				}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
