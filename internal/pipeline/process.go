package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"araudit/internal"
	"araudit/internal/config"
	"araudit/internal/logger"
)

// AuditService runs decode and analysis for one file and logs the run.
type AuditService struct {
	cfg config.Config
	log *logger.Logger
	now func() time.Time
}

func NewAuditService(cfg config.Config, log *logger.Logger) *AuditService {
	return &AuditService{cfg: cfg, log: log, now: time.Now}
}

type AuditResult struct {
	TraceID   string
	Filename  string
	Input     InputType
	Encoding  Encoding
	Delimiter string
	Rows      int
	Dataset   internal.Dataset
	Elapsed   time.Duration
}

// AnalyzeFile reads path and analyzes it. An empty inputType is sniffed.
func (s *AuditService) AnalyzeFile(path string, inputType InputType) (AuditResult, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return AuditResult{}, err
	}
	return s.AnalyzeContent(filepath.Base(path), blob, inputType)
}

func (s *AuditService) AnalyzeContent(filename string, content []byte, inputType InputType) (AuditResult, error) {
	start := s.now()
	res := AuditResult{TraceID: uuid.NewString(), Filename: filename, Input: inputType}
	if res.Input == "" {
		res.Input = DetectInputType(filename, content).Type
	}

	decoded, err := ExtractRows(res.Input, content)
	if err != nil {
		s.logFailure(res, err)
		return res, err
	}
	res.Encoding = decoded.Encoding
	res.Delimiter = decoded.Delimiter
	res.Rows = len(decoded.Rows)

	dataset, err := Analyze(decoded.Rows, AnalyzeOptions{AsOf: s.referenceDate()})
	if err != nil {
		s.logFailure(res, err)
		return res, err
	}
	res.Dataset = dataset
	res.Elapsed = s.now().Sub(start)

	s.log.Info().
		Str("trace_id", res.TraceID).
		Str("file", res.Filename).
		Str("input", string(res.Input)).
		Str("encoding", string(res.Encoding)).
		Str("delimiter", res.Delimiter).
		Int("rows", res.Rows).
		Int("invoices", dataset.Summary.InvoiceCount).
		Int("anomalies", len(dataset.Anomalies)).
		Int("risk_score", dataset.Summary.RiskScore).
		Int64("took_ms", res.Elapsed.Milliseconds()).
		Msg("audit analyzed")
	return res, nil
}

func (s *AuditService) referenceDate() time.Time {
	if !s.cfg.AuditAsOf.IsZero() {
		return s.cfg.AuditAsOf
	}
	return s.now()
}

func (s *AuditService) logFailure(res AuditResult, err error) {
	var formatErr *internal.FormatError
	var schemaErr *internal.SchemaError
	event := s.log.Error()
	if errors.As(err, &formatErr) || errors.As(err, &schemaErr) {
		event = s.log.Warn()
	}
	event.
		Err(err).
		Str("trace_id", res.TraceID).
		Str("file", res.Filename).
		Str("input", string(res.Input)).
		Msg("audit rejected")
}
