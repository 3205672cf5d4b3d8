// Package report renders progress as an Excel workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/yangwenmai/laosrs/internal/model"
)

// Sheet names
const (
	ItemsSheet = "Items"
	StatsSheet = "Stats"
)

var itemHeader = []interface{}{
	"Item", "Type", "State", "Reviews", "Correct", "Incorrect",
	"Ease", "Interval (days)", "Last review", "Next review", "Mastered", "Cooldown until",
}

// Build returns a workbook with one row per item on the Items sheet and the
// aggregate counters on the Stats sheet. Dates are written in loc.
func Build(items []model.ProgressItem, stats model.ProgressStats, loc *time.Location) (*excelize.File, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", ItemsSheet)
	if _, err := f.NewSheet(StatsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create stats sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create style: %w", err)
	}

	if err := writeItems(f, items, loc, bold); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeStats(f, stats, loc, bold); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// Write builds the workbook and streams it to w as .xlsx.
func Write(w io.Writer, items []model.ProgressItem, stats model.ProgressStats, loc *time.Location) error {
	f, err := Build(items, stats, loc)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeItems(f *excelize.File, items []model.ProgressItem, loc *time.Location, headerStyle int) error {
	if err := f.SetSheetRow(ItemsSheet, "A1", &itemHeader); err != nil {
		return fmt.Errorf("items header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(itemHeader), 1)
	if err := f.SetCellStyle(ItemsSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("items header style: %w", err)
	}

	for i, it := range items {
		row := []interface{}{
			it.ID,
			string(it.ItemType),
			string(it.SrsState),
			it.ReviewCount,
			it.CorrectCount,
			it.IncorrectCount,
			it.EaseFactor,
			it.Interval,
			formatMillis(it.LastReviewDate, loc),
			formatMillis(it.NextReviewDate, loc),
			formatOptional(it.MasteredDate, loc),
			formatOptional(it.CooldownUntil, loc),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ItemsSheet, cell, &row); err != nil {
			return fmt.Errorf("item %s: %w", it.ID, err)
		}
	}
	return nil
}

func writeStats(f *excelize.File, st model.ProgressStats, loc *time.Location, headerStyle int) error {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Reviews today", st.TotalReviewsToday},
		{"Reviews all time", st.TotalReviewsAllTime},
		{"Current streak", st.CurrentStreak},
		{"Longest streak", st.LongestStreak},
		{"Last activity", formatMillis(st.LastActivityDate, loc)},
		{"XP earned", st.TotalXPEarned},
		{"Average accuracy (%)", st.AverageAccuracy},
	}
	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(StatsSheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("stats row %d: %w", i+1, err)
		}
	}
	if err := f.SetCellStyle(StatsSheet, "A1", "B1", headerStyle); err != nil {
		return fmt.Errorf("stats header style: %w", err)
	}
	return nil
}

func formatMillis(ms int64, loc *time.Location) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).In(loc).Format("2006-01-02 15:04")
}

func formatOptional(ms *int64, loc *time.Location) string {
	if ms == nil {
		return ""
	}
	return formatMillis(*ms, loc)
}
