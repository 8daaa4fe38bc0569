package fedavg

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Column names of the weight files.
const (
	FeatureColumn     = "Feature"
	CoefficientColumn = "Coefficient"
	IndexColumn       = "Index"
	ValueColumn       = "Value"
)

// ReadWeightsCSV reads a weight vector and its feature schema from a CSV table.
//
// The table has a header with a coefficient column (Coefficient, coef or Value,
// case insensitive) and an optional Feature column. The row whose feature is
// Intercept is moved last; without such row, the last row is the intercept.
// Without a Feature column, the names are [DefaultFeatureSchema]. A table without
// header is read as a single column of values, or as a single row of values,
// the last one being the intercept.
func ReadWeightsCSV(r io.Reader) (w WeightVector, schema FeatureSchema, err error) {

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	if records, err = reader.ReadAll(); err != nil {
		return nil, schema, fmt.Errorf("cannot ReadWeightsCSV: %w", err)
	}

	if len(records) == 0 {
		return nil, schema, fmt.Errorf("cannot ReadWeightsCSV: empty table")
	}

	featureCol, coefCol := -1, -1
	header := false

	for i, field := range records[0] {
		if _, err := parseValue(field); err != nil {
			header = true
		}

		switch strings.ToLower(strings.TrimSpace(field)) {
		case "feature":
			featureCol = i
		case "coefficient", "coef", "value":
			if coefCol < 0 {
				coefCol = i
			}
		}
	}

	if !header && len(records) == 1 && len(records[0]) > 1 {
		return readWeightsRow(records[0])
	}

	rows := records
	if header {

		if coefCol < 0 {
			return nil, schema, fmt.Errorf("cannot ReadWeightsCSV: no coefficient column in header %v", records[0])
		}

		rows = records[1:]
	} else {
		coefCol = 0
	}

	if len(rows) == 0 {
		return nil, schema, fmt.Errorf("cannot ReadWeightsCSV: table has no row")
	}

	values := make([]float64, len(rows))
	names := make([]string, len(rows))
	intercept := -1

	for i, row := range rows {

		line := i + 1
		if header {
			line++
		}

		if len(row) <= coefCol {
			return nil, schema, fmt.Errorf("cannot ReadWeightsCSV: line %d: missing coefficient", line)
		}

		if values[i], err = parseValue(row[coefCol]); err != nil {
			return nil, schema, fmt.Errorf("cannot ReadWeightsCSV: line %d: %w", line, err)
		}

		if featureCol >= 0 && featureCol < len(row) {

			names[i] = strings.TrimSpace(row[featureCol])

			if intercept < 0 && strings.EqualFold(names[i], InterceptName) {
				intercept = i
			}
		}
	}

	if intercept < 0 {
		intercept = len(rows) - 1
	}

	w = make(WeightVector, 0, len(values))
	ordered := make([]string, 0, len(values))

	for i := range values {
		if i != intercept {
			w = append(w, values[i])
			ordered = append(ordered, names[i])
		}
	}

	w = append(w, values[intercept])
	ordered = append(ordered, InterceptName)

	if featureCol < 0 {
		return w, DefaultFeatureSchema(len(w)), nil
	}

	return w, FeatureSchema{Names: ordered}, nil
}

// readWeightsRow reads a single headerless row w_0, ..., w_{n-2}, intercept.
func readWeightsRow(row []string) (w WeightVector, schema FeatureSchema, err error) {

	w = make(WeightVector, len(row))
	for i := range row {
		if w[i], err = parseValue(row[i]); err != nil {
			return nil, schema, fmt.Errorf("cannot ReadWeightsCSV: line 1: %w", err)
		}
	}

	return w, DefaultFeatureSchema(len(w)), nil
}

// WriteWeightsCSV writes the values as an Index,Value table.
func WriteWeightsCSV(w io.Writer, values []float64) (err error) {

	writer := csv.NewWriter(w)

	if err = writer.Write([]string{IndexColumn, ValueColumn}); err != nil {
		return fmt.Errorf("cannot WriteWeightsCSV: %w", err)
	}

	for i, v := range values {
		if err = writer.Write([]string{strconv.Itoa(i), formatValue(v)}); err != nil {
			return fmt.Errorf("cannot WriteWeightsCSV: %w", err)
		}
	}

	writer.Flush()

	if err = writer.Error(); err != nil {
		return fmt.Errorf("cannot WriteWeightsCSV: %w", err)
	}

	return
}

// WriteNamedWeightsCSV writes the named values as a Feature,Coefficient table.
func WriteNamedWeightsCSV(w io.Writer, named []NamedWeight) (err error) {

	writer := csv.NewWriter(w)

	if err = writer.Write([]string{FeatureColumn, CoefficientColumn}); err != nil {
		return fmt.Errorf("cannot WriteNamedWeightsCSV: %w", err)
	}

	for _, nw := range named {
		if err = writer.Write([]string{nw.Feature, formatValue(nw.Coefficient)}); err != nil {
			return fmt.Errorf("cannot WriteNamedWeightsCSV: %w", err)
		}
	}

	writer.Flush()

	if err = writer.Error(); err != nil {
		return fmt.Errorf("cannot WriteNamedWeightsCSV: %w", err)
	}

	return
}

func parseValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			err = numErr.Err
		}
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return v, nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// CSVFile is a [VectorSource] reading a weight file, see [ReadWeightsCSV].
type CSVFile struct {
	Path string
	// Name of the party, the base name of Path without extension if empty.
	Name string
	// Count is the number of training samples, zero if unknown.
	Count float64
}

// PartyName returns the name of the party of the file.
func (f CSVFile) PartyName() string {
	if f.Name != "" {
		return f.Name
	}
	base := filepath.Base(f.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads the file and returns the contribution it describes.
func (f CSVFile) Load() (c Contribution, err error) {

	file, err := os.Open(f.Path)
	if err != nil {
		return c, fmt.Errorf("cannot Load: %w", err)
	}
	defer file.Close()

	c.Name = f.PartyName()
	c.Count = f.Count

	if c.Weights, c.Schema, err = ReadWeightsCSV(file); err != nil {
		return c, fmt.Errorf("cannot Load %s: %w", f.Path, err)
	}

	return c, c.Validate()
}
