package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vkscraper/pkg/config"
	"vkscraper/pkg/report"
	"vkscraper/pkg/ui"
)

var reportCmd = &cobra.Command{
	Use:   "report [file]",
	Short: "Show the last run report",
	Long: `Show a run report. Without an argument the report of the most recent run
under the configured output directory is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output root directory")
}

func runReport(cmd *cobra.Command, args []string) error {
	var (
		r   *report.Report
		err error
	)
	if len(args) == 1 {
		r, err = report.Load(args[0])
	} else {
		flags := map[string]interface{}{}
		if cmd.Flags().Changed("output") {
			flags["output"] = outputDir
		}
		cfg, loadErr := config.Load(configFile, flags)
		if loadErr != nil {
			return loadErr
		}
		r, err = report.LoadLast(cfg.Output.BaseDirectory)
	}
	if err != nil {
		return err
	}
	if r == nil {
		ui.PrintWarning("No run report found")
		return nil
	}

	status := ui.Green(r.Status)
	if r.Status != report.StatusCompleted {
		status = ui.Red(r.Status)
	}

	fmt.Printf("%s %s\n", ui.Cyan("Run:"), r.RunID)
	fmt.Printf("%s %s\n", ui.Cyan("Status:"), status)
	if r.Error != "" {
		fmt.Printf("%s %s\n", ui.Cyan("Error:"), r.Error)
	}
	fmt.Printf("%s %s (%s)\n", ui.Cyan("Started:"), r.StartedAt.Format("2006-01-02 15:04:05"),
		ui.FormatDuration(r.FinishedAt.Sub(r.StartedAt)))
	fmt.Printf("%s %d dialogs, %d found, %d downloaded, %d existing, %d failed, %s\n",
		ui.Cyan("Totals:"),
		r.Stats.Conversations, r.Stats.Found, r.Stats.Downloaded, r.Stats.Existing, r.Stats.Failed,
		ui.FormatBytes(r.Stats.Bytes))

	for _, c := range r.Conversations {
		if c.Downloaded == 0 && c.Failed == 0 {
			continue
		}
		fmt.Printf("  %-20s %4d new %4d existing %4d failed %s\n",
			c.Peer, c.Downloaded, c.Existing, c.Failed, ui.Dim(ui.FormatBytes(c.Bytes)))
	}
	for _, f := range r.Failures {
		fmt.Printf("  %s %s %s: %s\n", ui.Red("✗"), f.Peer, f.URL, f.Error)
	}
	return nil
}
