package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/docintel/internal/model"
	"github.com/sells-group/docintel/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored extractions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openHistoryStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		docType, _ := cmd.Flags().GetString("type")
		flagged, _ := cmd.Flags().GetBool("flagged")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.Filter{FlaggedOnly: flagged, Limit: limit}
		if docType != "" {
			filter.DocType = model.ParseDocumentType(docType)
		}

		recs, err := st.ListExtractions(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "history")
		}
		if len(recs) == 0 {
			fmt.Fprintln(os.Stderr, "No extractions found.")
			return nil
		}
		formatHistory(os.Stdout, recs)
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one stored extraction as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openHistoryStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rec, err := st.GetExtraction(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "history show")
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func openHistoryStore(cmd *cobra.Command) (store.Store, error) {
	if err := cfg.Validate("history"); err != nil {
		return nil, err
	}
	return store.Open(cmd.Context(), cfg.Store)
}

func formatHistory(w io.Writer, recs []store.Record) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSOURCE\tCONFIDENCE\tFLAGGED\tCREATED")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%d/%d\t%s\n",
			r.ID,
			r.DocType,
			r.Source,
			r.Extraction.OverallConfidence,
			r.Extraction.FlaggedCount(),
			len(r.Extraction.Fields),
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	historyCmd.Flags().String("type", "", "filter by document type")
	historyCmd.Flags().Bool("flagged", false, "only extractions with flagged fields")
	historyCmd.Flags().Int("limit", 20, "max extractions to list")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}
