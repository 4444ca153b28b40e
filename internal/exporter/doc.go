// Package exporter writes the pipeline's artifacts.
//
// This package contains four main components:
//
// CSVWriter: atomic CSV writing (temporary file then rename) with optional
// UTF-8 BOM for Excel compatibility.
//
// Table encoders: the stable header and row layout of every persisted table,
// shared with the readers in dataprocessing.
//
// Workbook: an XLSX file with one sheet per output table.
//
// Run metadata: a JSON record of one pipeline run.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(logger)
//	err := w.WriteTable(paths.Processed(config.MatchOutcomesFile), exporter.MatchOutcomeTable(outcomes))
package exporter
