// Package dataset builds the offline training file for the discharge
// summary model from hospital record exports. Each export source is a
// directory of CSV part files sharing the hospital's column layout; the
// builder stitches them into PatientEncounter documents paired with the
// ground-truth treatment course.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/privnurse/api/internal/platform/clindoc"
)

// Export directory names under the base directory.
const (
	summariesDir     = "summaries"
	consultationsDir = "consultations"
	labsDir          = "labs"
	nursingDir       = "nursing"
)

// encounterKey is the export column that joins all four sources.
const encounterKey = "序號"

// Config locates the export and sets the output path.
type Config struct {
	BaseDir    string
	OutputFile string
	Workers    int
}

// Stats counts what one build run did.
type Stats struct {
	FilesLoaded int `json:"files_loaded"`
	Encounters  int `json:"encounters"`
	Written     int `json:"written"`
	Skipped     int `json:"skipped"`
}

type Builder struct {
	cfg    Config
	logger zerolog.Logger
	stats  Stats
}

func NewBuilder(cfg Config, logger zerolog.Logger) *Builder {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Builder{cfg: cfg, logger: logger}
}

// example is one JSONL training record.
type example struct {
	InputText  string `json:"input_text"`
	OutputText string `json:"output_text"`
}

// Build loads the four sources, assembles one document per discharge summary
// row, and writes the input/target pairs as JSONL. Summary rows without a
// treatment course carry no training signal and are skipped.
func (b *Builder) Build(ctx context.Context) (Stats, error) {
	b.stats = Stats{}

	summaries, err := b.loadSource(ctx, filepath.Join(b.cfg.BaseDir, summariesDir))
	if err != nil {
		return b.stats, fmt.Errorf("load summaries: %w", err)
	}
	if len(summaries) == 0 {
		return b.stats, fmt.Errorf("no summary rows found under %s", b.cfg.BaseDir)
	}
	consults, err := b.loadSource(ctx, filepath.Join(b.cfg.BaseDir, consultationsDir))
	if err != nil {
		return b.stats, fmt.Errorf("load consultations: %w", err)
	}
	labs, err := b.loadSource(ctx, filepath.Join(b.cfg.BaseDir, labsDir))
	if err != nil {
		return b.stats, fmt.Errorf("load labs: %w", err)
	}
	nursing, err := b.loadSource(ctx, filepath.Join(b.cfg.BaseDir, nursingDir))
	if err != nil {
		return b.stats, fmt.Errorf("load nursing: %w", err)
	}

	consultsByID := groupByEncounter(consults)
	labsByID := groupByEncounter(labs)
	nursingByID := groupByEncounter(nursing)

	out, err := os.Create(b.cfg.OutputFile)
	if err != nil {
		return b.stats, fmt.Errorf("create output: %w", err)
	}
	defer out.Close()
	enc := json.NewEncoder(out)

	for _, summary := range summaries {
		if err := ctx.Err(); err != nil {
			return b.stats, err
		}
		b.stats.Encounters++
		id := summary[encounterKey]

		target := clindoc.Sanitize(summary["治療經過"])
		if target == "" {
			b.stats.Skipped++
			continue
		}

		doc := buildDocument(summary, consultsByID[id], labsByID[id], nursingByID[id])
		if err := enc.Encode(example{InputText: doc, OutputText: target}); err != nil {
			return b.stats, fmt.Errorf("write record: %w", err)
		}
		b.stats.Written++

		if b.stats.Encounters%500 == 0 {
			b.logger.Info().
				Int("encounters", b.stats.Encounters).
				Int("written", b.stats.Written).
				Int("skipped", b.stats.Skipped).
				Msg("build progress")
		}
	}

	b.logger.Info().
		Int("files", b.stats.FilesLoaded).
		Int("encounters", b.stats.Encounters).
		Int("written", b.stats.Written).
		Int("skipped", b.stats.Skipped).
		Str("output", b.cfg.OutputFile).
		Msg("dataset build complete")
	return b.stats, nil
}

func groupByEncounter(rows []row) map[string][]row {
	groups := make(map[string][]row)
	for _, r := range rows {
		id := r[encounterKey]
		if id == "" {
			continue
		}
		groups[id] = append(groups[id], r)
	}
	return groups
}

// buildDocument assembles one training input. The length hint comes from the
// reference summary's word count rather than the source size, so the model
// learns to match the style of summary the hospital actually wrote.
func buildDocument(summary row, consults, labs, nursing []row) string {
	fields := clindoc.SummaryFields{
		PrimaryDiagnosis:   clindoc.Sanitize(summary["主要診斷"]),
		SecondaryDiagnosis: clindoc.Sanitize(summary["次要診斷"]),
		PastMedicalHistory: clindoc.Sanitize(summary["過去病史"]),
		ChiefComplaint:     clindoc.Sanitize(summary["主訴"]),
		PresentIllness:     clindoc.Sanitize(summary["現在病史"]),
	}
	hint := clindoc.LengthUnknown
	if n, err := strconv.Atoi(strings.TrimSpace(summary["words"])); err == nil {
		hint = clindoc.ClassifyWords(n)
	}
	return clindoc.Assemble(fields, hint,
		clindoc.FormatConsultationEvents(consultRows(consults)),
		clindoc.FormatLabEvents(labRows(labs)),
		clindoc.FormatNursingEvents(nursingRows(nursing)))
}

func consultRows(rows []row) []clindoc.ConsultRow {
	out := make([]clindoc.ConsultRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, clindoc.ConsultRow{
			RepliedAt: clindoc.ParseTimestamp(r["回覆時間"]),
			Reply:     r["回覆內容"],
		})
	}
	return out
}

func labRows(rows []row) []clindoc.LabRow {
	out := make([]clindoc.LabRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, clindoc.LabRow{
			TestName:    r["檢驗項目"],
			ResultValue: r["檢驗結果"],
			TestDate:    clindoc.ParseTimestamp(r["檢驗日期"]),
		})
	}
	return out
}

func nursingRows(rows []row) []clindoc.NursingRow {
	out := make([]clindoc.NursingRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, clindoc.NursingRow{
			RecordedAt:    clindoc.ParseTimestamp(r["日期"] + padClock(r["時間"])),
			VitalCategory: r["類別"],
			VitalValue:    r["數值紀錄"],
			Subjective:    r["RECORD_S"],
			Objective:     r["RECORD_O"],
			Intervention:  r["RECORD_I"],
			Evaluation:    r["RECORD_E"],
			Narrative:     r["RECORD_N"],
		})
	}
	return out
}

// padClock normalizes the export's clock column ("830", "8:30", "0830") to
// four digits so it concatenates with the date column into one timestamp.
func padClock(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), ":", "")
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}
