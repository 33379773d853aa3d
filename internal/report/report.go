// Package report renders a learner's progress as an Excel workbook.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/learnly/internal/progress"
)

const (
	summarySheet      = "Summary"
	lessonsSheet      = "Lessons"
	achievementsSheet = "Achievements"
)

// WriteProgress writes an XLSX workbook with a summary sheet, one row per
// lesson and the unlocked achievements.
func WriteProgress(w io.Writer, s progress.DerivedState) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("naming summary sheet: %w", err)
	}
	for _, name := range []string{lessonsSheet, achievementsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	summary := [][]any{
		{"Course", s.Title},
		{"Learner", s.LearnerID},
		{"Total XP", s.TotalXP},
		{"Level", s.Level},
		{"XP to next level", s.XPToNextLevel},
		{"Streak (days)", s.StreakDays},
		{"Activities", fmt.Sprintf("%d / %d", s.CompletedActivities, s.TotalActivities)},
		{"Lessons", fmt.Sprintf("%d / %d", s.CompletedLessons, s.TotalLessons)},
		{"Weeks", fmt.Sprintf("%d / %d", s.CompletedWeeks, s.TotalWeeks)},
		{"Complete (%)", s.PercentComplete},
		{"Status", string(s.Status)},
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return err
	}

	lessons := [][]any{{"Week", "Module", "Lesson", "Status", "Activities done", "Activities"}}
	for _, wk := range s.Weeks {
		for _, m := range wk.Modules {
			for _, l := range m.Lessons {
				lessons = append(lessons, []any{wk.WeekNumber, m.Title, l.Title, string(l.Status), l.CompletedActivities, l.TotalActivities})
			}
		}
	}
	if err := writeRows(f, lessonsSheet, lessons); err != nil {
		return err
	}

	achievements := [][]any{{"Achievement", "Description", "XP bonus"}}
	for _, a := range s.Achievements {
		achievements = append(achievements, []any{a.Name, a.Description, a.XPBonus})
	}
	if err := writeRows(f, achievementsSheet, achievements); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	for _, sheet := range []string{lessonsSheet, achievementsSheet} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return fmt.Errorf("styling %s header: %w", sheet, err)
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 20); err != nil {
		return fmt.Errorf("sizing summary: %w", err)
	}
	if err := f.SetColWidth(lessonsSheet, "B", "C", 36); err != nil {
		return fmt.Errorf("sizing lessons: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
