package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"tripflow/internal/pipeline"
	"tripflow/pkg/contracts/domain"
)

// maxConcurrentFiles bounds the loader fan-out. Parsing is CPU and
// allocation heavy; more workers than this just thrash.
const maxConcurrentFiles = 4

// Loader reads raw trip files and maps them into the canonical dataset
// shape at the pipeline boundary.
type Loader struct {
	mapper *pipeline.Mapper
	logger *slog.Logger
}

// New creates a loader for one dataset variant.
func New(roles pipeline.ColumnRoles, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		mapper: pipeline.NewMapper(roles, logger),
		logger: logger,
	}
}

// LoadCSV reads a single CSV trip file. The first row is the header.
func (l *Loader) LoadCSV(path string) (*domain.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return domain.NewDataset(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		rows = append(rows, row)
	}

	ds := l.mapper.Map(header, rows)
	l.logger.Info("loaded trip file",
		slog.String("path", path),
		slog.Int("rows", ds.Len()))
	return ds, nil
}

// LoadXLSX reads a single Excel trip file. The header is the first
// non-empty row of the first sheet.
func (l *Loader) LoadXLSX(path string) (*domain.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.NewDataset(nil), nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	headerIdx := -1
	for i, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				headerIdx = i
				break
			}
		}
		if headerIdx >= 0 {
			break
		}
	}
	if headerIdx < 0 {
		return domain.NewDataset(nil), nil
	}

	ds := l.mapper.Map(rows[headerIdx], rows[headerIdx+1:])
	l.logger.Info("loaded trip file",
		slog.String("path", path),
		slog.Int("rows", ds.Len()))
	return ds, nil
}

// LoadFile dispatches on the file extension.
func (l *Loader) LoadFile(path string) (*domain.Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return l.LoadCSV(path)
	case ".xlsx":
		return l.LoadXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported trip file type: %s", path)
	}
}

// LoadDir loads every .csv and .xlsx file under dir (sorted by name)
// concurrently and concatenates the results. Rows keep file order
// within each file; files are concatenated in name order so repeated
// runs produce identical datasets.
func (l *Loader) LoadDir(ctx context.Context, dir string) (*domain.Dataset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "~$") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".csv" || ext == ".xlsx" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no trip files found in %s", dir)
	}

	datasets := make([]*domain.Dataset, len(paths))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFiles)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ds, err := l.LoadFile(path)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			mu.Lock()
			datasets[i] = ds
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Merge(datasets...), nil
}

// Merge concatenates datasets. The merged column set is the union of
// the inputs' bound columns: a file that lacks a column contributes
// null values for it.
func Merge(datasets ...*domain.Dataset) *domain.Dataset {
	columns := make(map[domain.Column]bool)
	total := 0
	for _, ds := range datasets {
		if ds == nil {
			continue
		}
		total += ds.Len()
		for col := range ds.Columns {
			columns[col] = true
		}
	}

	records := make([]domain.TripRecord, 0, total)
	for _, ds := range datasets {
		if ds != nil {
			records = append(records, ds.Records...)
		}
	}
	return &domain.Dataset{Records: records, Columns: columns}
}
