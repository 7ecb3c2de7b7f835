package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/gridmatch/app"
	"github.com/kilianp07/gridmatch/core/model"
	"github.com/kilianp07/gridmatch/pkg/export"
)

var (
	matchInput    string
	matchOutput   string
	matchStrategy string
	matchCSV      bool
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Clear a matching data file and print the recommendations",
	RunE:  match,
}

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the available clearing strategies",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer closeService(svc)
		for _, name := range svc.Strategies() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	matchCmd.Flags().StringVarP(&matchInput, "input", "i", "-", "matching data file (JSON or YAML), - for stdin")
	matchCmd.Flags().StringVarP(&matchOutput, "output", "o", "-", "output file, - for stdout")
	matchCmd.Flags().StringVarP(&matchStrategy, "strategy", "s", "", "strategy name, defaults to the configured one")
	matchCmd.Flags().BoolVar(&matchCSV, "csv", false, "write CSV instead of JSON")
	rootCmd.AddCommand(matchCmd, strategiesCmd)
}

func readMatchingData(path string, stdin io.Reader) (model.MatchingData, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return model.MatchingData{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return model.ParseMatchingDataYAML(raw)
	default:
		return model.ParseMatchingData(raw)
	}
}

func match(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	data, err := readMatchingData(matchInput, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	// stdout carries the recommendations
	svc, err := newService(app.WithLogOutput(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer closeService(svc)

	res, err := svc.Match(ctx, matchStrategy, data)
	if err != nil && len(res.Recommendations) == 0 {
		return err
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
	for _, r := range res.Rejected {
		fmt.Fprintf(cmd.ErrOrStderr(), "rejected %s %s/%s: %s\n", r.Side, r.MarketID, r.TimeSlot, r.Reason)
	}

	out := cmd.OutOrStdout()
	if matchOutput != "-" {
		f, err := os.Create(matchOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if matchCSV {
		return export.WriteCSV(out, res.Recommendations)
	}
	return export.WriteJSON(out, res.Recommendations)
}
