// Package dataio reads training and query tables from CSV and writes
// predictions and fitted hyperparameters back out.
//
// Every reader validates the whole input before returning. A malformed row
// aborts with an *errors.IngestionError naming the row (0-based, header
// excluded), the column and the offending value, so no partial data set ever
// reaches the model.
package dataio

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/scigp/dataset"
	"github.com/YuminosukeSato/scigp/pkg/errors"
	"github.com/YuminosukeSato/scigp/pkg/log"
)

// QuerySet is a table of query points read from CSV.
type QuerySet struct {
	// Names are the column names from the header row.
	Names []string
	Rows  [][]float64
}

// Len returns the number of queries.
func (q *QuerySet) Len() int { return len(q.Rows) }

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return cr
}

// readHeader returns a copy of the header record.
func readHeader(cr *csv.Reader, source string) ([]string, error) {
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.NewModelError("dataio", "missing header", errors.ErrEmptyData)
	}
	if err != nil {
		return nil, ingestionFromCSV(source, err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
	}
	return names, nil
}

// ingestionFromCSV converts an encoding/csv failure into an IngestionError.
func ingestionFromCSV(source string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		// StartLine counts the header as line 1.
		return errors.NewIngestionError(source, pe.StartLine-2, pe.Column-1, "", pe.Err.Error(), err)
	}
	return errors.Wrapf(err, "read %s", source)
}

func parseField(source string, row, col int, field string) (float64, error) {
	s := strings.TrimSpace(field)
	if s == "" {
		return 0, errors.NewIngestionError(source, row, col, field, "missing value", nil)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.NewIngestionError(source, row, col, field, "not a number", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.NewIngestionError(source, row, col, field, "non-finite value", nil)
	}
	return v, nil
}

// ReadTrainingCSV reads a header row followed by rows of D inputs and one
// target, the target being the last column. source names the input in
// errors and logs.
func ReadTrainingCSV(r io.Reader, source string) (*dataset.TrainingSet, error) {
	cr := newReader(r)
	header, err := readHeader(cr, source)
	if err != nil {
		return nil, err
	}
	if len(header) < 2 {
		return nil, errors.NewIngestionError(source, -1, -1, strings.Join(header, ","),
			"need at least one input column and a target column", nil)
	}
	width := len(header)

	var rows [][]float64
	var y []float64
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ingestionFromCSV(source, err)
		}
		if len(rec) != width {
			return nil, errors.NewIngestionError(source, row, -1, strings.Join(rec, ","),
				"expected "+strconv.Itoa(width)+" fields, got "+strconv.Itoa(len(rec)), nil)
		}
		x := make([]float64, width-1)
		for j := range x {
			if x[j], err = parseField(source, row, j, rec[j]); err != nil {
				return nil, err
			}
		}
		target, err := parseField(source, row, width-1, rec[width-1])
		if err != nil {
			return nil, err
		}
		rows = append(rows, x)
		y = append(y, target)
	}
	if len(rows) == 0 {
		return nil, errors.NewModelError("dataio.ReadTrainingCSV", "no data rows in "+source, errors.ErrEmptyData)
	}

	data, err := dataset.FromRows(rows, y)
	if err != nil {
		return nil, err
	}
	data, err = data.WithNames(header[:width-1], header[width-1])
	if err != nil {
		return nil, err
	}
	log.GetLogger().Debug("training data read",
		log.OperationKey, log.OperationIngest,
		log.SourceKey, source,
		log.SamplesKey, data.Len(),
		log.FeaturesKey, data.Dim(),
	)
	return data, nil
}

// ReadQueryCSV reads a header row followed by rows of exactly dim inputs.
// A row with a different field count fails with a DimensionError carrying
// the row index.
func ReadQueryCSV(r io.Reader, source string, dim int) (*QuerySet, error) {
	cr := newReader(r)
	header, err := readHeader(cr, source)
	if err != nil {
		return nil, err
	}
	if len(header) != dim {
		return nil, errors.NewRowDimensionError("dataio.ReadQueryCSV", -1, dim, len(header))
	}

	q := &QuerySet{Names: header}
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ingestionFromCSV(source, err)
		}
		if len(rec) != dim {
			return nil, errors.NewRowDimensionError("dataio.ReadQueryCSV", row, dim, len(rec))
		}
		x := make([]float64, dim)
		for j := range x {
			if x[j], err = parseField(source, row, j, rec[j]); err != nil {
				return nil, err
			}
		}
		q.Rows = append(q.Rows, x)
	}
	log.GetLogger().Debug("query data read",
		log.OperationKey, log.OperationIngest,
		log.SourceKey, source,
		log.SamplesKey, q.Len(),
	)
	return q, nil
}

// ReadTrainingFile opens path and reads it with ReadTrainingCSV.
func ReadTrainingFile(path string) (*dataset.TrainingSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open training data")
	}
	defer f.Close()
	return ReadTrainingCSV(f, path)
}

// ReadQueryFile opens path and reads it with ReadQueryCSV.
func ReadQueryFile(path string, dim int) (*QuerySet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open query data")
	}
	defer f.Close()
	return ReadQueryCSV(f, path, dim)
}
