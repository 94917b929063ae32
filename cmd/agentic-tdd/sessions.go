package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/session"
)

var sessionHeaderStyle = lipgloss.NewStyle().Bold(true).Underline(true)

func sessionsCmd() *cobra.Command {
	var workDir string
	var limit int
	cmd := &cobra.Command{
		Use:          "sessions",
		Short:        "List past TDD sessions for a working directory",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(workDir)
			if err != nil {
				return err
			}
			dbPath := filepath.Join(abs, session.StateDirName, "history.db")
			if _, err := os.Stat(dbPath); err != nil {
				return fmt.Errorf("no session history found in %s", abs)
			}

			st, closeFn, err := openHistory(abs)
			if err != nil {
				return err
			}
			defer closeFn()

			records, err := st.ListSessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("no sessions recorded")
				return nil
			}

			fmt.Println(sessionHeaderStyle.Render(
				fmt.Sprintf("%-22s %-30s %-10s %7s %8s", "SESSION", "KATA", "STATUS", "CYCLES", "COMMITS")))
			for _, rec := range records {
				title := rec.KataTitle
				if len(title) > 30 {
					title = title[:27] + "..."
				}
				fmt.Printf("%-22s %-30s %-10s %7d %8d\n",
					rec.SessionID, title, rec.Status, rec.TotalCycles, rec.TotalCommits)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&workDir, "work-dir", "w", ".", "working directory holding the session history")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum sessions to list")
	return cmd
}
