package application

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/repository"
)

// DefaultLowStockThreshold applies when no usable threshold is given.
const DefaultLowStockThreshold = 2

var ErrArchiveDisabled = errors.New("report archive not configured")

var lowStockHeader = []string{"id", "titulo", "autor", "numero_copias", "copias_disponibles"}

type ReportService struct {
	Books   repository.BookRepository
	Archive ObjectUploader
	Logger  *logrus.Logger
}

func NewReportService(books repository.BookRepository, archive ObjectUploader, logger *logrus.Logger) *ReportService {
	return &ReportService{Books: books, Archive: archive, Logger: logger}
}

// ParseThreshold reads a query value, falling back to the default when it is
// empty, not an integer or negative.
func ParseThreshold(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return DefaultLowStockThreshold
	}
	return n
}

// LowStock lists books with at most threshold available copies, scarcest first.
func (s *ReportService) LowStock(ctx context.Context, threshold int) ([]entity.Book, error) {
	if threshold < 0 {
		threshold = DefaultLowStockThreshold
	}
	return s.Books.GetLowStock(ctx, threshold)
}

// LowStockExport renders LowStock as CSV and names the file after the threshold.
func (s *ReportService) LowStockExport(ctx context.Context, threshold int) (string, []byte, error) {
	if threshold < 0 {
		threshold = DefaultLowStockThreshold
	}
	books, err := s.Books.GetLowStock(ctx, threshold)
	if err != nil {
		return "", nil, err
	}
	data, err := encodeLowStock(books)
	if err != nil {
		return "", nil, err
	}
	return LowStockFilename(threshold), data, nil
}

// ArchiveExport uploads the CSV export and returns the object URL.
func (s *ReportService) ArchiveExport(ctx context.Context, threshold int) (string, error) {
	if s.Archive == nil {
		return "", ErrArchiveDisabled
	}
	name, data, err := s.LowStockExport(ctx, threshold)
	if err != nil {
		return "", err
	}
	path := fmt.Sprintf("reports/low-stock/%s_%s", time.Now().UTC().Format("20060102T150405Z"), name)
	url, err := s.Archive.Upload(ctx, path, "text/csv", bytes.NewReader(data))
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("object", path).Warn("archive upload failed")
		}
		return "", err
	}
	return url, nil
}

func LowStockFilename(threshold int) string {
	return fmt.Sprintf("low_stock_threshold_%d.csv", threshold)
}

func encodeLowStock(books []entity.Book) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(lowStockHeader); err != nil {
		return nil, err
	}
	for _, b := range books {
		rec := []string{
			strconv.FormatInt(b.ID, 10),
			b.Title,
			b.Author,
			strconv.Itoa(b.TotalCopies),
			strconv.Itoa(b.AvailableCopies),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
