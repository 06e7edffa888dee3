// Package storage reads the raw per-date feeds and persists the pipeline's
// outputs. Reading raw files is the only place fatal errors originate;
// everything downstream resolves problems into quarantine reasons.
package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	apperrors "github.com/feedqc/feedqc/pkg/errors"
	"github.com/feedqc/feedqc/pkg/models"
)

// Reader streams raw CSV feeds from the partitioned data directory:
// <dataDir>/ingest_date=<date>/<dataset>_raw.csv.
type Reader struct {
	dataDir string
	logger  *logrus.Logger
}

// NewReader creates a raw feed reader rooted at dataDir.
func NewReader(dataDir string, logger *logrus.Logger) *Reader {
	if logger == nil {
		logger = logrus.New()
	}
	return &Reader{dataDir: dataDir, logger: logger}
}

// RawPath returns the raw file path for one dataset and date.
func (r *Reader) RawPath(date string, dataset models.DatasetKind) string {
	return filepath.Join(r.dataDir, "ingest_date="+date, string(dataset)+"_raw.csv")
}

// ReadRows streams every data row of one raw feed as a header-keyed map,
// without materializing the file. Rows shorter than the header leave the
// missing columns absent; validation turns that into quarantine reasons.
// A missing file or unreadable/empty header is fatal for the date.
func (r *Reader) ReadRows(date string, dataset models.DatasetKind, fn func(row map[string]string) error) (int, error) {
	path := r.RawPath(date, dataset)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, apperrors.ErrRawFileMissing.
				WithContext("ingest_date", date).
				WithContext("path", path)
		}
		return 0, apperrors.WrapError(err, apperrors.ErrorTypeStorage, "RAW_FILE_UNREADABLE",
			fmt.Sprintf("cannot open raw file %s", path))
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return 0, apperrors.ErrRawHeaderInvalid.
			WithContext("ingest_date", date).
			WithContext("path", path)
	}
	if len(header) == 0 {
		return 0, apperrors.ErrRawHeaderEmpty.
			WithContext("ingest_date", date).
			WithContext("path", path)
	}

	rows := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, apperrors.WrapError(err, apperrors.ErrorTypeStorage, "RAW_ROW_UNREADABLE",
				fmt.Sprintf("cannot read row %d of %s", rows+1, path))
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows++
		if err := fn(row); err != nil {
			return rows, err
		}
	}

	r.logger.WithFields(logrus.Fields{
		"dataset":     dataset,
		"ingest_date": date,
		"rows":        rows,
	}).Debug("Raw feed read")

	return rows, nil
}
