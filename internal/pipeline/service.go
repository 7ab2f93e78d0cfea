package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"rolls/internal"
	"rolls/internal/config"
	"rolls/internal/ingest"
	"rolls/internal/schema"
	"rolls/internal/storage"
)

// ProcessingService runs one roster file through ingest, processing, review
// and export. db is nil when runs are not recorded.
type ProcessingService struct {
	db       *storage.DB
	cfg      config.Config
	registry *schema.Registry
	log      *zap.Logger
}

func NewProcessingService(db *storage.DB, cfg config.Config, registry *schema.Registry, log *zap.Logger) *ProcessingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProcessingService{db: db, cfg: cfg, registry: registry, log: log}
}

type FileRequest struct {
	Path    string
	Schema  string
	Date    string
	OutPath string
}

type FileResult struct {
	Source         string
	Schema         string
	Day            string
	Result         internal.Result
	NearDuplicates []NearDuplicate
	CSVPath        string
	XLSXPath       string
	RunID          int64
	TraceID        string
}

func (s *ProcessingService) ProcessFile(req FileRequest) (FileResult, error) {
	start := time.Now()

	sc, proc, err := s.processor(req.Schema)
	if err != nil {
		return FileResult{}, err
	}

	rows, err := s.readRows(req.Path, sc)
	if err != nil {
		return FileResult{}, err
	}
	readMs := msSince(start)

	batch, day, err := ingest.DateParser{DayFirst: s.cfg.DayFirst}.Select(rows, req.Date)
	if err != nil {
		return FileResult{}, err
	}

	procStart := time.Now()
	result := proc.Process(batch)
	processMs := msSince(procStart)

	out := FileResult{
		Source:         filepath.Base(req.Path),
		Schema:         sc.Name,
		Day:            ingest.FormatDay(day),
		Result:         result,
		NearDuplicates: FindNearDuplicates(result.Records, s.cfg.NearDupThreshold),
	}

	out.CSVPath = req.OutPath
	if strings.TrimSpace(out.CSVPath) == "" {
		out.CSVPath = filepath.Join(s.cfg.OutputDir, outputName(out.Source, out.Day)+".csv")
	}
	if err := ExportRecordsToCSV(result.Records, out.CSVPath); err != nil {
		return FileResult{}, err
	}
	if s.cfg.ExportXLSX {
		out.XLSXPath = strings.TrimSuffix(out.CSVPath, filepath.Ext(out.CSVPath)) + ".xlsx"
		if err := ExportResultToXLSX(result, out.XLSXPath); err != nil {
			return FileResult{}, err
		}
	}

	if s.db != nil {
		out.RunID, out.TraceID, err = s.db.InsertRun(storage.NewRun{
			Source:   out.Source,
			Schema:   out.Schema,
			RollDate: out.Day,
			Mode:     string(proc.Mode()),
			Result:   result,
			TimingsMs: map[string]float64{
				"readMs":    readMs,
				"processMs": processMs,
				"totalMs":   msSince(start),
			},
		})
		if err != nil {
			return FileResult{}, fmt.Errorf("record run: %w", err)
		}
	}

	s.log.Info("roll processed",
		zap.String("source", out.Source),
		zap.String("schema", out.Schema),
		zap.String("date", out.Day),
		zap.Int("total", result.Stats.TotalCount),
		zap.Int("unknown", result.Stats.UnknownCount),
		zap.Int("skipped", result.Stats.SkippedCount),
		zap.Int("nearDuplicates", len(out.NearDuplicates)),
		zap.String("csv", out.CSVPath),
		zap.String("traceId", out.TraceID),
	)
	return out, nil
}

// Dates lists the sign-in days present in a file, most recent first.
func (s *ProcessingService) Dates(path, schemaName string) ([]string, error) {
	sc, err := s.registry.Get(firstNonEmpty(schemaName, s.cfg.Schema))
	if err != nil {
		return nil, err
	}
	rows, err := s.readRows(path, sc)
	if err != nil {
		return nil, err
	}
	days := ingest.DateParser{DayFirst: s.cfg.DayFirst}.Dates(rows)
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, ingest.FormatDay(d))
	}
	return out, nil
}

// Suggest ranks the known schemas against the header row of a file.
func (s *ProcessingService) Suggest(path string) ([]schema.Suggestion, error) {
	sheet, err := ingest.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return schema.Suggest(s.registry.All(), sheet.Header), nil
}

// ParseNames runs single tokens through the name parser of a schema, the same
// way entries of a roll are parsed.
func (s *ProcessingService) ParseNames(schemaName string, tokens []string) ([]internal.ParsedName, error) {
	_, proc, err := s.processor(schemaName)
	if err != nil {
		return nil, err
	}
	out := make([]internal.ParsedName, 0, len(tokens))
	for _, token := range tokens {
		name, err := proc.ParseName(token)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", token, err)
		}
		out = append(out, name)
	}
	return out, nil
}

func (s *ProcessingService) processor(schemaName string) (schema.Schema, *Processor, error) {
	sc, err := s.registry.Get(firstNonEmpty(schemaName, s.cfg.Schema))
	if err != nil {
		return schema.Schema{}, nil, err
	}
	mode, err := ParseModeFromString(s.cfg.ParseMode)
	if err != nil {
		return schema.Schema{}, nil, err
	}
	proc, err := NewProcessor(sc, WithMode(mode), WithOrgSuffix(s.cfg.OrgSuffix))
	if err != nil {
		return schema.Schema{}, nil, err
	}
	return sc, proc, nil
}

func (s *ProcessingService) readRows(path string, sc schema.Schema) ([]internal.Row, error) {
	sheet, err := ingest.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s.log.Debug("roster read", zap.String("path", path), zap.String("sheet", sheet.Name), zap.Int("rows", len(sheet.Rows)))
	return ingest.Slice(sheet, sc.Layout)
}

func outputName(source, day string) string {
	base := strings.TrimSuffix(source, filepath.Ext(source))
	repl := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "?", "_", "*", "_")
	return fmt.Sprintf("%s_%s", repl.Replace(base), day)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
