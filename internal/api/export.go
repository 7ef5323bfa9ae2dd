package api

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/quarryhq/quarry/internal/domain"
)

// Export formats accepted by the export endpoint.
const (
	ExportFormatJSON  = "json"
	ExportFormatJSONL = "jsonl"
	ExportFormatCSV   = "csv"
)

// exportRecord is one row of the exported dataset.
type exportRecord struct {
	Question         string `json:"question"`
	Answer           string `json:"answer"`
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

func validExportFormat(format string) bool {
	switch format {
	case ExportFormatJSON, ExportFormatJSONL, ExportFormatCSV:
		return true
	}
	return false
}

// exportRecords converts stored answers into dataset rows, skipping
// fallback placeholders.
func exportRecords(answers []domain.AnswerItem) []exportRecord {
	records := make([]exportRecord, 0, len(answers))
	for _, item := range answers {
		if item.IsFallback() {
			continue
		}
		records = append(records, exportRecord{
			Question:         item.Question,
			Answer:           item.Content,
			ReasoningContent: item.ReasoningContent,
		})
	}
	return records
}

// writeExport writes the dataset as an attachment named
// dataset_<regionKey>.<format>.
func writeExport(w http.ResponseWriter, regionKey, format string, answers []domain.AnswerItem) error {
	records := exportRecords(answers)

	filename := fmt.Sprintf("dataset_%s.%s", regionKey, format)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	switch format {
	case ExportFormatJSON:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(records)

	case ExportFormatJSONL:
		w.Header().Set("Content-Type", "application/x-ndjson; charset=utf-8")
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for _, record := range records {
			if err := enc.Encode(record); err != nil {
				return err
			}
		}
		return nil

	case ExportFormatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"question", "answer", "reasoning_content"}); err != nil {
			return err
		}
		for _, record := range records {
			if err := cw.Write([]string{record.Question, record.Answer, record.ReasoningContent}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()

	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}
