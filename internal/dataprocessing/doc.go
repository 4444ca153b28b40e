// Package dataprocessing reads the pipeline's tabular inputs and artifacts.
//
// # Architecture
//
// The package is organized into three layers:
//
// 1. Table: a header plus string rows, read from CSV or from the first XLSX
// sheet whose header carries the wanted columns
// 2. Loader: per-source decoders that resolve team and player names, parse
// dates and seasons, and count every row they exclude
// 3. Artifact readers: decoders for the tables earlier stages persisted, so
// each stage can start from disk
//
// # Usage
//
//	table, err := dataprocessing.ReadTable("data/raw/odds/E0_2019-2020.csv", "HomeTeam", "AwayTeam")
//	if err != nil {
//	    return err
//	}
//	loader := dataprocessing.NewLoader(cfg, resolver, logger)
//	records, diag, err := loader.Matches(table, 2019)
package dataprocessing
