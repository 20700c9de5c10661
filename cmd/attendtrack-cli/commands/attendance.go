package commands

import (
	"attendtrack-backend/lib/textutil"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var registerSubject *string

func init() {
	registerSubject = registerCmd.Flags().String("subject", "", "Only list the entries of subjects matching this name.")

	rootCmd.AddCommand(academicCmd)
	rootCmd.AddCommand(biometricCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(registerCmd)
}

var academicCmd = &cobra.Command{
	Use:   "academic",
	Short: "Prints the attendance of every course.",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		report, err := e.service.Attendance(cmd.Context(), e.username, e.password)
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"#", "Code", "Subject", "Type", "Attended", "Total", "%", "Status", "To attend", "Can bunk"})
		for _, record := range report.Academic {
			t.AppendRow(table.Row{
				record.SNo,
				record.CourseCode,
				record.Subject,
				record.CourseType,
				record.Attended,
				record.Conducted,
				fmt.Sprintf("%.2f", record.Percentage),
				record.Status,
				record.ClassesToAttend,
				record.ClassesCanBunk,
			})
		}
		t.Render()
		return nil
	},
}

var biometricCmd = &cobra.Command{
	Use:   "biometric",
	Short: "Prints the biometric attendance summary.",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		report, err := e.service.Attendance(cmd.Context(), e.username, e.password)
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Days", "Present", "%"})
		t.AppendRow(table.Row{
			report.Biometric.TotalDays,
			report.Biometric.PresentCount,
			fmt.Sprintf("%.2f", report.Biometric.Percentage),
		})
		t.Render()
		return nil
	},
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Prints today's attendance for every period.",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		slots, err := e.service.Latest(cmd.Context(), e.username, e.password)
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Period", "Subject", "Topic", "Date", "Status"})
		for _, slot := range slots {
			t.AppendRow(table.Row{slot.Period, slot.Subject, slot.Topic, slot.Date, slot.Status})
		}
		t.Render()
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register [--subject <name>]",
	Short: "Prints every attendance entry on the course content page.",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		entries, err := e.service.Register(cmd.Context(), e.username, e.password)
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Subject", "Date", "Period", "Status"})
		for _, entry := range entries {
			if !textutil.MatchSubject(entry.Subject, *registerSubject) {
				continue
			}
			t.AppendRow(table.Row{entry.Subject, entry.Date, entry.Period, entry.Status})
		}
		t.Render()
		return nil
	},
}
