package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	apperrors "github.com/olol2/Conor-Keenan-Project/internal/errors"
	"github.com/olol2/Conor-Keenan-Project/internal/files"
)

// Table is a header plus encoded rows, ready to be written.
type Table struct {
	Name    string
	Headers []string
	Records [][]string
}

// CSVWriter provides atomic CSV export
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV replaces filePath with the given content. Readers see either the
// previous file or the complete new one.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	err := files.AtomicWrite(filePath, func(out io.Writer) error {
		if options.BOMPrefix {
			if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
				return fmt.Errorf("failed to write BOM: %w", err)
			}
		}

		writer := csv.NewWriter(out)
		if len(options.Headers) > 0 {
			if err := writer.Write(options.Headers); err != nil {
				return fmt.Errorf("failed to write headers: %w", err)
			}
		}
		for i, record := range options.Records {
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write record %d: %w", i, err)
			}
		}
		writer.Flush()
		return writer.Error()
	})
	if err != nil {
		return apperrors.NewStorageError("failed to write "+filePath, err)
	}
	return nil
}

// WriteTable writes an encoded table without BOM.
func (w *CSVWriter) WriteTable(filePath string, t Table) error {
	return w.WriteCSV(filePath, WriteOptions{Headers: t.Headers, Records: t.Records})
}
