package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrEmptyDataset = errors.New("dataset is empty")
	ErrNoColumn     = errors.New("dataset column not found")
)

// missingValues are read as NA in every column.
var missingValues = []string{"", "NA", "NaN", "nan", "<nil>"}

// FromRecords builds a frame from a header row followed by data rows. Short
// rows are padded with missing values, and a leading unnamed column (a
// serialized row index) is dropped.
func FromRecords(records [][]string) (dataframe.DataFrame, error) {
	if len(records) < 2 {
		return dataframe.DataFrame{}, ErrEmptyDataset
	}

	width := len(records[0])
	if width == 0 {
		return dataframe.DataFrame{}, ErrEmptyDataset
	}

	start := 0
	if strings.TrimSpace(records[0][0]) == "" {
		start = 1
	}
	if start == width {
		return dataframe.DataFrame{}, ErrEmptyDataset
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, width-start)
		for j := start; j < width && j < len(rec); j++ {
			row[j-start] = normalizeCell(rec[j])
		}
		rows = append(rows, row)
	}

	df := dataframe.LoadRecords(rows, dataframe.NaNValues(missingValues))
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to build dataset: %w", df.Err)
	}
	return df, nil
}

// normalizeCell lowercases boolean spellings (True, TRUE) so they load as
// bool columns.
func normalizeCell(v string) string {
	switch {
	case strings.EqualFold(v, "true"):
		return "true"
	case strings.EqualFold(v, "false"):
		return "false"
	}
	return v
}

func ReadCSV(r io.Reader) (dataframe.DataFrame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to parse csv: %w", err)
	}
	return FromRecords(records)
}

// ReadXLSX loads the named sheet, taking its first row as the header.
func ReadXLSX(r io.Reader, sheet string) (dataframe.DataFrame, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return FromRecords(rows)
}

// Parse decodes data as XLSX when the source name says so and as CSV otherwise.
func Parse(source string, data []byte, sheet string) (dataframe.DataFrame, error) {
	if IsWorkbook(source) {
		return ReadXLSX(bytes.NewReader(data), sheet)
	}
	return ReadCSV(bytes.NewReader(data))
}

func IsWorkbook(source string) bool {
	name := strings.ToLower(source)
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm")
}

// Sample returns n distinct rows chosen at random. n is clamped to the
// number of rows in df.
func Sample(df dataframe.DataFrame, n int, rng *rand.Rand) dataframe.DataFrame {
	nrow := df.Nrow()
	if n > nrow {
		n = nrow
	}
	if n < 0 {
		n = 0
	}
	idx := rng.Perm(nrow)[:n]
	return df.Subset(idx)
}

// RecordsJSON encodes df as a JSON array of row objects, keys in column
// order. Missing values become null.
func RecordsJSON(df dataframe.DataFrame) (string, error) {
	names := df.Names()

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i < df.Nrow(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, name := range names {
			if j > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(name)
			if err != nil {
				return "", err
			}
			buf.Write(key)
			buf.WriteByte(':')

			elem := df.Elem(i, j)
			var v interface{}
			if !elem.IsNA() {
				v = elem.Val()
			}
			val, err := json.Marshal(v)
			if err != nil {
				return "", fmt.Errorf("row %d column %q: %w", i, name, err)
			}
			buf.Write(val)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')

	return buf.String(), nil
}

// Floats returns the named column as float64, with NaN for missing values.
func Floats(df dataframe.DataFrame, column string) ([]float64, error) {
	if !HasColumn(df, column) {
		return nil, fmt.Errorf("%w: %s", ErrNoColumn, column)
	}
	return df.Col(column).Float(), nil
}

// Strings returns the named column as strings, with "" for missing values.
func Strings(df dataframe.DataFrame, column string) ([]string, error) {
	if !HasColumn(df, column) {
		return nil, fmt.Errorf("%w: %s", ErrNoColumn, column)
	}
	col := df.Col(column)
	out := make([]string, col.Len())
	for i := range out {
		if e := col.Elem(i); !e.IsNA() {
			out[i] = e.String()
		}
	}
	return out, nil
}

func HasColumn(df dataframe.DataFrame, column string) bool {
	for _, name := range df.Names() {
		if name == column {
			return true
		}
	}
	return false
}

// Mean averages the non-missing values of a numeric column.
func Mean(df dataframe.DataFrame, column string) (float64, error) {
	values, err := Floats(df, column)
	if err != nil {
		return 0, err
	}

	present := values[:0:0]
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return 0, fmt.Errorf("%w: column %s has no values", ErrEmptyDataset, column)
	}
	return stat.Mean(present, nil), nil
}
