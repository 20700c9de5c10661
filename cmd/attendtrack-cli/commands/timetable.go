package commands

import (
	"attendtrack-backend/internal/extract"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	timetableYear  *string
	timetableDaily *bool
)

func init() {
	timetableYear = timetableCmd.Flags().String("ay", "", "The academic year, like 2025-26.")
	timetableDaily = timetableCmd.Flags().Bool("daily", false, "Only print the teaching periods of each day.")
	timetableCmd.MarkFlagRequired("ay")
	rootCmd.AddCommand(timetableCmd)
}

func renderDays(out io.Writer, days []extract.TimetableDay, periods int) {
	t := newTable(out)
	header := table.Row{"Day"}
	for i := 1; i <= periods; i++ {
		header = append(header, fmt.Sprintf("P%d", i))
	}
	t.AppendHeader(header)

	for _, day := range days {
		row := table.Row{day.Day}
		for _, period := range day.Periods {
			row = append(row, period)
		}
		t.AppendRow(row)
	}
	t.Render()
}

var timetableCmd = &cobra.Command{
	Use:   "timetable --ay <year> [--daily]",
	Short: "Prints the timetable of the first section of an academic year.",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		if *timetableDaily {
			days, err := e.service.DailyTimetable(cmd.Context(), e.username, e.password, *timetableYear)
			if err != nil {
				return err
			}
			renderDays(cmd.OutOrStdout(), days, extract.PeriodsPerDay)
			return nil
		}

		timetable, err := e.service.Timetable(cmd.Context(), e.username, e.password, *timetableYear)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", timetable.Section, timetable.AcademicYear)
		renderDays(cmd.OutOrStdout(), timetable.Weekly, extract.WeeklyPeriods)

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"#", "Code", "Subject", "Short", "Staff"})
		for _, subject := range timetable.Subjects {
			t.AppendRow(table.Row{
				subject.SNo,
				subject.SubjectCode,
				subject.SubjectName,
				subject.ShortCode,
				subject.StaffName,
			})
		}
		t.Render()
		return nil
	},
}
