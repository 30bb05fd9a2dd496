package utils

import (
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// NewStringDataFrame builds a dataframe whose columns are all strings, so
// decimal values keep their exact text.
func NewStringDataFrame(header []string, rows [][]string) (dataframe.DataFrame, error) {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	for i, row := range rows {
		if len(row) != len(header) {
			return dataframe.DataFrame{}, fmt.Errorf("row %d has %d columns, expected %d", i, len(row), len(header))
		}
		records = append(records, row)
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	return df, df.Err
}

// WriteDataFrameCSV writes df with its header row.
func WriteDataFrameCSV(df dataframe.DataFrame, w io.Writer) error {
	if df.Err != nil {
		return df.Err
	}
	return df.WriteCSV(w)
}
