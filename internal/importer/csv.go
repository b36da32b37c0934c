package importer

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/territory-cli/internal/model"
)

// readCSV reads all rows, tolerating ragged rows and quoted fields the
// way CRM exports produce them.
func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "importer: read csv row")
		}
		rows = append(rows, record)
	}
}

// AccountsFromCSV loads an account snapshot from a CSV file.
func AccountsFromCSV(path string) ([]model.Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open %s", path)
	}
	defer f.Close()

	rows, err := readCSV(f)
	if err != nil {
		return nil, err
	}
	return parseAccounts(rows)
}

// RepsFromCSV loads a rep snapshot from a CSV file.
func RepsFromCSV(path string) ([]model.SalesRep, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open %s", path)
	}
	defer f.Close()

	rows, err := readCSV(f)
	if err != nil {
		return nil, err
	}
	return parseReps(rows)
}
