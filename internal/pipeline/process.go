package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"subsrename/internal"
	"subsrename/internal/config"
	"subsrename/internal/naming"
	"subsrename/internal/protocol"
	"subsrename/internal/source"
	"subsrename/internal/storage"
	"subsrename/internal/util"
)

type Service struct {
	cfg      config.Config
	log      *zap.Logger
	journal  *storage.Journal
	labels   *util.LabelNormalizer
	parser   *protocol.Parser
	detector Detector
}

// NewService builds the file processing service. journal may be nil for
// services that only call Detect or ProcessContent; Run needs one.
func NewService(cfg config.Config, log *zap.Logger, journal *storage.Journal) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	labels := util.NewLabelNormalizer(cfg.NoiseTokens)
	return &Service{
		cfg:      cfg,
		log:      log,
		journal:  journal,
		labels:   labels,
		parser:   protocol.NewParser(labels),
		detector: Detector{HTML: cfg.HTMLInput},
	}
}

type FileResult struct {
	Path     string
	Shape    internal.Shape
	Reason   string
	Total    int
	NodeType internal.ProtocolType
	Marker   string
	Dropped  int
	Renamed  []Renamed
	Output   []byte
}

// Detect classifies content and parses its nodes without allocating a marker
// or renaming anything.
func (s *Service) Detect(content []byte) (DetectResult, []internal.Node, []error) {
	det := s.detector.Detect(content)
	switch det.Shape {
	case internal.ShapeURIList:
		nodes, failures := s.parseLines(det.Lines)
		return det, nodes, failures
	case internal.ShapeStructured:
		scan := ScanRecords(det.Proxies, s.cfg.PlaceholderTypes, s.labels)
		return det, scan.Nodes, scan.Failures
	default:
		return det, nil, nil
	}
}

// ProcessContent renames the nodes of one input file. The pool is shared by
// every file of a run. ErrNotNodeFile and ErrEmptyResult mean the file
// produces no output.
func (s *Service) ProcessContent(path string, content []byte, pool *naming.Pool) (FileResult, error) {
	det, nodes, failures := s.Detect(content)
	res := FileResult{Path: path, Shape: det.Shape, Reason: det.Reason, Dropped: len(failures) + det.Skipped}
	for _, err := range failures {
		s.log.Warn("dropped node", zap.String("file", path), zap.Error(err))
	}

	if det.Shape == internal.ShapeNotNodeFile {
		return res, fmt.Errorf("%w: %s", internal.ErrNotNodeFile, det.Reason)
	}
	if len(nodes) == 0 {
		return res, fmt.Errorf("%w: %s input", internal.ErrEmptyResult, det.Shape)
	}

	batch := NewBatch(nodes, pool.Allocate())
	res.Total, res.NodeType, res.Marker = batch.Total, batch.NodeType, batch.Marker
	res.Renamed = Rename(batch)
	s.log.Info("renaming batch",
		zap.String("file", path),
		zap.String("shape", string(det.Shape)),
		zap.String("marker", batch.Marker),
		zap.String("nodeType", string(batch.NodeType)),
		zap.Int("total", batch.Total),
		zap.Bool("ipSequenceRegular", batch.IPSequenceRegular))
	for _, r := range res.Renamed {
		s.log.Debug("renamed", zap.String("from", r.Node.Label), zap.String("to", r.NewLabel))
	}

	if det.Shape == internal.ShapeURIList {
		res.Output = EncodeURIList(res.Renamed)
		return res, nil
	}
	out, err := EncodeStructured(res.Renamed)
	if err != nil {
		return res, fmt.Errorf("encode %s: %w", path, err)
	}
	res.Output = out
	return res, nil
}

func (s *Service) parseLines(lines []string) ([]internal.Node, []error) {
	nodes := make([]internal.Node, 0, len(lines))
	var failures []error
	for i, line := range lines {
		node, err := s.parser.Parse(line)
		if err != nil {
			failures = append(failures, fmt.Errorf("line %d: %w", i+1, err))
			continue
		}
		node.LineNo = i + 1
		nodes = append(nodes, node)
	}
	return nodes, failures
}

type RunResult struct {
	TraceID string
	RunID   int64
	Seen    int
	Written int
	Skipped int
	Renamed int
	Dropped int
	Outputs []string
}

func (r RunResult) Counts() map[string]int {
	return map[string]int{
		"seen":    r.Seen,
		"written": r.Written,
		"skipped": r.Skipped,
		"renamed": r.Renamed,
		"dropped": r.Dropped,
	}
}

// Run processes every file of the input directory in name order. A file that
// cannot be read or renamed is skipped; only output and journal failures stop
// the run.
func (s *Service) Run(ctx context.Context, pool *naming.Pool) (RunResult, error) {
	start := time.Now()
	res := RunResult{TraceID: uuid.NewString()}
	if s.journal == nil {
		return res, errors.New("run requires a journal")
	}

	if err := os.MkdirAll(s.cfg.InputDir, 0o755); err != nil {
		return res, err
	}
	files, err := source.ListFiles(s.cfg.InputDir)
	if err != nil {
		return res, err
	}
	runID, err := s.journal.StartRun(res.TraceID, s.cfg.InputDir)
	if err != nil {
		return res, err
	}
	res.RunID = runID

	log := s.log.With(zap.String("traceId", res.TraceID))
	outIndex := 1
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if s.isOwnOutput(path) {
			continue
		}
		res.Seen++

		content, err := os.ReadFile(path)
		if err != nil {
			log.Warn("cannot read input", zap.String("file", path), zap.Error(err))
			res.Skipped++
			continue
		}

		fr, err := s.ProcessContent(path, content, pool)
		res.Dropped += fr.Dropped
		if err != nil {
			switch {
			case errors.Is(err, internal.ErrNotNodeFile), errors.Is(err, internal.ErrEmptyResult):
				log.Info("skipping file", zap.String("file", path), zap.String("reason", err.Error()))
			default:
				log.Warn("skipping file", zap.String("file", path), zap.Error(err))
			}
			res.Skipped++
			if _, jerr := s.journal.RecordFile(runID, internal.FileRow{Path: path, Shape: string(fr.Shape), Status: "skipped", Dropped: fr.Dropped}); jerr != nil {
				return res, jerr
			}
			continue
		}

		dest := filepath.Join(s.cfg.OutputDir, s.cfg.OutputName(outIndex))
		if err := source.WriteFileAtomic(dest, fr.Output); err != nil {
			return res, fmt.Errorf("write %s: %w", dest, err)
		}
		outIndex++
		res.Written++
		res.Renamed += len(fr.Renamed)
		res.Outputs = append(res.Outputs, dest)
		log.Info("wrote output", zap.String("file", path), zap.String("output", dest), zap.Int("nodes", fr.Total))

		if err := s.record(runID, fr, dest); err != nil {
			return res, err
		}
	}

	if res.Written == 0 {
		log.Info("no output files were generated")
	}
	if err := s.journal.FinishRun(runID, res.Counts()); err != nil {
		return res, err
	}
	if s.cfg.ReportPath != "" {
		rows, err := s.journal.GetRenameRows(runID)
		if err != nil {
			return res, err
		}
		if err := ExportRenameReport(rows, s.cfg.ReportPath); err != nil {
			return res, fmt.Errorf("report: %w", err)
		}
		log.Info("wrote rename report", zap.String("path", s.cfg.ReportPath), zap.Int("rows", len(rows)))
	}

	log.Info("run done",
		zap.Int("seen", res.Seen),
		zap.Int("written", res.Written),
		zap.Int("skipped", res.Skipped),
		zap.Int("renamed", res.Renamed),
		zap.Duration("took", time.Since(start)))
	return res, nil
}

func (s *Service) record(runID int64, fr FileResult, dest string) error {
	fileID, err := s.journal.RecordFile(runID, internal.FileRow{
		Path:     fr.Path,
		Shape:    string(fr.Shape),
		Status:   "written",
		Total:    fr.Total,
		NodeType: string(fr.NodeType),
		Marker:   fr.Marker,
		Output:   dest,
		Dropped:  fr.Dropped,
	})
	if err != nil {
		return err
	}
	rows := make([]internal.RenameRow, 0, len(fr.Renamed))
	for _, r := range fr.Renamed {
		rows = append(rows, internal.RenameRow{
			LineNo:   r.Node.LineNo,
			Protocol: string(r.Node.Type),
			Server:   r.Node.Server,
			Port:     r.Node.Port,
			OldLabel: r.Node.Label,
			NewLabel: r.NewLabel,
			Flag:     r.Node.Flag,
			Region:   r.Node.Region,
			Seq:      r.Seq,
		})
	}
	return s.journal.RecordRenames(fileID, rows)
}

// isOwnOutput reports whether path is an output of this tool sitting in the
// input directory, which happens when both directories are the same.
func (s *Service) isOwnOutput(path string) bool {
	if filepath.Clean(filepath.Dir(path)) != filepath.Clean(s.cfg.OutputDir) {
		return false
	}
	return s.cfg.IsOutputName(filepath.Base(path))
}
