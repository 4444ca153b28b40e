package exporter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/olol2/Conor-Keenan-Project/internal/errors"
	"github.com/olol2/Conor-Keenan-Project/internal/files"
)

// maxSheetName is Excel's limit on sheet name length.
const maxSheetName = 31

// WriteWorkbook writes one sheet per table, header frozen and filterable.
// Numeric cells are stored as numbers.
func WriteWorkbook(path string, tables []Table) error {
	if len(tables) == 0 {
		return apperrors.NewStorageError("workbook needs at least one table", nil)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		name := t.Name
		if len(name) > maxSheetName {
			name = name[:maxSheetName]
		}
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return apperrors.NewStorageError("rename sheet", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return apperrors.NewStorageError("create sheet "+name, err)
		}
		if err := fillSheet(f, name, t); err != nil {
			return apperrors.NewStorageError("fill sheet "+name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := files.AtomicWrite(path, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	}); err != nil {
		return apperrors.NewStorageError("failed to write "+path, err)
	}
	return nil
}

func fillSheet(f *excelize.File, sheet string, t Table) error {
	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for r, rec := range t.Records {
		row := make([]interface{}, len(rec))
		for c, v := range rec {
			row[c] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if len(t.Headers) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(t.Headers), len(t.Records)+1)
	if err != nil {
		return err
	}
	if err := f.AutoFilter(sheet, fmt.Sprintf("A1:%s", last), nil); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func cellValue(v string) interface{} {
	if v == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}
