package utils

import (
	"encoding/csv"
	"fmt"
	"os"
)

// ReadCSVRecords reads a CSV file and returns its rows without the header
// row. Rows shorter than minColumns are skipped.
func ReadCSVRecords(filePath string, minColumns int) ([][]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open the file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read the file: %v", err)
	}

	var records [][]string
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < minColumns {
			continue
		}
		records = append(records, row)
	}
	return records, nil
}
