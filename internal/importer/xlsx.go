package importer

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/territory-cli/internal/model"
)

// readXLSX reads all rows of one sheet as string slices.
func readXLSX(path, sheetName string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open %s", path)
	}

	var sheet *xlsx.Sheet
	if sheetName != "" {
		s, ok := f.Sheet[sheetName]
		if !ok {
			return nil, eris.Errorf("importer: sheet %q not found in %s", sheetName, path)
		}
		sheet = s
	} else {
		if len(f.Sheets) == 0 {
			return nil, eris.Errorf("importer: no sheets in %s", path)
		}
		sheet = f.Sheets[0]
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// AccountsFromXLSX loads an account snapshot from an XLSX sheet. An
// empty sheet name selects the first sheet.
func AccountsFromXLSX(path, sheetName string) ([]model.Account, error) {
	rows, err := readXLSX(path, sheetName)
	if err != nil {
		return nil, err
	}
	return parseAccounts(rows)
}

// RepsFromXLSX loads a rep snapshot from an XLSX sheet.
func RepsFromXLSX(path, sheetName string) ([]model.SalesRep, error) {
	rows, err := readXLSX(path, sheetName)
	if err != nil {
		return nil, err
	}
	return parseReps(rows)
}
