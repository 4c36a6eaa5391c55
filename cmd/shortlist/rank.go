package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	shortlistuc "github.com/kailas-cloud/shortlist/internal/usecase/shortlist"
)

var rankFlags struct {
	folder      string
	project     string
	projectFile string
	topK        int
	format      string
	output      string
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank and analyze every resume in a folder against a project",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := setup(); err != nil {
			return err
		}
		return rank(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringVarP(&rankFlags.folder, "folder", "f", "", "folder with resume files")
	rankCmd.Flags().StringVarP(&rankFlags.project, "project", "p", "", "project description")
	rankCmd.Flags().StringVar(&rankFlags.projectFile, "project-file", "", "read the project description from a file")
	rankCmd.Flags().IntVarP(&rankFlags.topK, "top-k", "k", 0, "keep only the best k candidates (default all)")
	rankCmd.Flags().StringVar(&rankFlags.format, "format", "json", "output format: json, csv, xlsx")
	rankCmd.Flags().StringVarP(&rankFlags.output, "output", "o", "", "write results to a file instead of stdout")

	_ = rankCmd.MarkFlagRequired("folder")
	rankCmd.MarkFlagsMutuallyExclusive("project", "project-file")
}

type rankResult struct {
	Success bool `json:"success"`
	shortlistuc.Report
}

type rankError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func rank(ctx context.Context, stdout io.Writer) error {
	format, err := shortlistuc.ParseFormat(rankFlags.format)
	if err != nil {
		return err
	}
	if format == shortlistuc.FormatXLSX && rankFlags.output == "" {
		return errors.New("--output is required for xlsx")
	}

	project, err := projectDescription()
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := rt.app.Shortlist.Run(ctx, shortlistuc.Request{
		Folder:  rankFlags.folder,
		Project: project,
		TopK:    rankFlags.topK,
	})
	if err != nil {
		if format == shortlistuc.FormatJSON {
			_ = json.NewEncoder(stdout).Encode(rankError{Error: err.Error()})
		}
		return err
	}

	logger.Info("Final summary",
		zap.Duration("extraction", report.Ingest.ExtractDuration),
		zap.Duration("embedding", report.Ingest.EmbedDuration),
		zap.Duration("ranking", report.SearchDuration),
		zap.Duration("analysis", report.Enrich.TotalTime),
		zap.Duration("total", report.TotalDuration),
		zap.Int("candidates", len(report.Candidates)),
		zap.Int("successful", report.Successful),
		zap.Int("failed", report.Failed),
	)

	return writeReport(stdout, format, report)
}

func projectDescription() (string, error) {
	if rankFlags.projectFile != "" {
		b, err := os.ReadFile(filepath.Clean(rankFlags.projectFile))
		if err != nil {
			return "", fmt.Errorf("read project file: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	if strings.TrimSpace(rankFlags.project) == "" {
		return "", errors.New("--project or --project-file is required")
	}
	return rankFlags.project, nil
}

func writeReport(stdout io.Writer, format shortlistuc.Format, report shortlistuc.Report) (err error) {
	w := stdout
	if rankFlags.output != "" {
		f, err := os.Create(filepath.Clean(rankFlags.output))
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close output: %w", cerr)
			}
		}()
		w = f
	}

	switch format {
	case shortlistuc.FormatCSV:
		return shortlistuc.WriteCSV(w, report.Candidates)
	case shortlistuc.FormatXLSX:
		return shortlistuc.WriteXLSX(w, report.Candidates)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rankResult{Success: true, Report: report}); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		return nil
	}
}
