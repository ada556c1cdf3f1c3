package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/docintel/internal/model"
)

var extractCmd = &cobra.Command{
	Use:   "extract FILE...",
	Short: "Extract structured fields from one or more documents",
	Long:  "Runs OCR on each file, detects the document type unless --type is given, resolves every schema field and prints the results as JSON.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := initApp(ctx, cfg, "extract")
		if err != nil {
			return err
		}
		defer a.Close()

		docType, _ := cmd.Flags().GetString("type")
		fields, _ := cmd.Flags().GetString("fields")
		runs, _ := cmd.Flags().GetInt("runs")
		save, _ := cmd.Flags().GetBool("save")
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		if save && a.Store == nil {
			return eris.New("extract: --save requires store.driver")
		}

		opts := extractRequest{
			Fields: parseFields(fields),
			Runs:   runs,
			Save:   save,
		}
		if docType != "" {
			opts.DocType = model.ParseDocumentType(docType)
		}

		return extractFiles(ctx, a, args, opts, concurrency, os.Stdout)
	},
}

// extractFiles processes paths concurrently and writes one JSON result per
// successful file, in argument order. A failed file is logged and skipped;
// the returned error counts the failures.
func extractFiles(ctx context.Context, a *app, paths []string, opts extractRequest, concurrency int, w io.Writer) error {
	results := make([]*extractResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i, path := range paths {
		g.Go(func() error {
			res, err := extractFile(gctx, a, path, opts)
			if err != nil {
				zap.L().Error("extract failed", zap.String("file", path), zap.Error(err))
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	var failed int
	for _, res := range results {
		if res == nil {
			failed++
			continue
		}
		if err := enc.Encode(res); err != nil {
			return eris.Wrap(err, "extract: write result")
		}
	}
	if failed > 0 {
		return eris.Errorf("extract: %d of %d files failed", failed, len(paths))
	}
	return nil
}

func extractFile(ctx context.Context, a *app, path string, opts extractRequest) (*extractResult, error) {
	text, err := a.OCR.ExtractText(ctx, path)
	if err != nil {
		return nil, eris.Wrapf(err, "ocr %s", path)
	}
	opts.Source = path
	opts.Text = text
	res, err := a.resolveText(ctx, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "resolve %s", path)
	}
	return res, nil
}

func init() {
	extractCmd.Flags().String("type", "", fmt.Sprintf("document type, skipping detection (%s)", typeList()))
	extractCmd.Flags().String("fields", "", "comma-separated custom field names replacing the schema")
	extractCmd.Flags().Int("runs", 0, "oracle runs per field (default from config)")
	extractCmd.Flags().Bool("save", false, "persist results to the configured store")
	extractCmd.Flags().Int("concurrency", 2, "files processed in parallel")
	rootCmd.AddCommand(extractCmd)
}

func typeList() string {
	var s string
	for i, dt := range model.AllDocumentTypes() {
		if i > 0 {
			s += ", "
		}
		s += string(dt)
	}
	return s
}
