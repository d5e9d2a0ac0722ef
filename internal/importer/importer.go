// Package importer reads flashcards from Excel or CSV files.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

var errSkipRow = errors.New("skipping row")

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath         string // Path to the Excel or CSV file
	QuestionColumn   string
	AnswerColumn     string
	GroupColumn      string
	DifficultyColumn string
	SheetName        string // Excel sheet, the first sheet when empty
	StartRow         int    // 1-based, rows before it are headers
	DefaultGroup     string
	// Existing cards are not imported again
	Existing map[string]models.Flashcard
	Now      time.Time
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		QuestionColumn:   "A",
		AnswerColumn:     "B",
		GroupColumn:      "C",
		DifficultyColumn: "D",
		StartRow:         2,
		DefaultGroup:     "imported",
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
	Flashcards     []models.Flashcard
}

type importer struct {
	cfg    ImportConfig
	result *ImportResult
	seen   map[string]bool
}

// ImportFlashcards reads flashcards from an Excel or CSV file. Rows that
// duplicate an existing card or an earlier row are skipped; bad rows are
// reported in Errors and do not fail the import.
func ImportFlashcards(cfg ImportConfig) (*ImportResult, error) {
	if cfg.StartRow < 1 {
		cfg.StartRow = 1
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	im := &importer{cfg: cfg, result: &ImportResult{Errors: make([]string, 0)}, seen: map[string]bool{}}
	for _, c := range cfg.Existing {
		im.seen[dedupKey(c.GroupID, c.Question)] = true
	}

	var err error
	if strings.ToLower(filepath.Ext(cfg.FilePath)) == ".csv" {
		err = im.fromCSV()
	} else {
		err = im.fromExcel()
	}
	if err != nil {
		return nil, err
	}
	return im.result, nil
}

func (im *importer) fromExcel() error {
	f, err := excelize.OpenFile(im.cfg.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := im.cfg.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to get rows: %w", err)
	}

	for i, row := range rows {
		if i < im.cfg.StartRow-1 {
			continue
		}
		im.process(i+1, im.cell(row, im.cfg.QuestionColumn), im.cell(row, im.cfg.AnswerColumn),
			im.cell(row, im.cfg.GroupColumn), im.cell(row, im.cfg.DifficultyColumn))
	}
	return nil
}

// fromCSV reads question,answer[,group[,difficulty]] rows. A row with only
// its first field set starts a new group for the rows below it.
func (im *importer) fromCSV() error {
	file, err := os.Open(im.cfg.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rowNum := 0
	currentGroup := ""
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading CSV: %w", err)
		}
		rowNum++
		if rowNum < im.cfg.StartRow {
			continue
		}

		if first := field(row, 0); first != "" && field(row, 1) == "" && field(row, 2) == "" {
			currentGroup = strings.Trim(first, "\"")
			continue
		}

		group := field(row, 2)
		if group == "" {
			group = currentGroup
		}
		im.process(rowNum, field(row, 0), field(row, 1), group, field(row, 3))
	}
	return nil
}

func (im *importer) process(rowNum int, question, answer, group, difficulty string) {
	if question == "" && answer == "" && group == "" {
		return
	}
	im.result.TotalProcessed++

	card, err := im.build(question, answer, group, difficulty)
	if errors.Is(err, errSkipRow) {
		im.result.Skipped++
		return
	}
	if err != nil {
		im.result.Errors = append(im.result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		return
	}
	im.result.Flashcards = append(im.result.Flashcards, card)
	im.result.Created++
}

func (im *importer) build(question, answer, group, difficulty string) (models.Flashcard, error) {
	question, answer = strings.TrimSpace(question), strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return models.Flashcard{}, errors.New("question and answer are required")
	}
	group = strings.Trim(strings.TrimSpace(group), "/")
	if group == "" {
		group = im.cfg.DefaultGroup
	}
	d, err := parseDifficulty(difficulty)
	if err != nil {
		return models.Flashcard{}, err
	}

	key := dedupKey(group, question)
	if im.seen[key] {
		return models.Flashcard{}, errSkipRow
	}
	im.seen[key] = true

	return models.Flashcard{
		ID:         uuid.NewString(),
		Question:   question,
		Answer:     answer,
		GroupID:    group,
		Difficulty: d,
		NextReview: im.cfg.Now,
	}, nil
}

func (im *importer) cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	idx := columnToIndex(column)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseDifficulty(s string) (models.Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "medium", "2":
		return models.DifficultyMedium, nil
	case "easy", "1":
		return models.DifficultyEasy, nil
	case "hard", "3":
		return models.DifficultyHard, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

func dedupKey(group, question string) string {
	return strings.ToLower(group) + "\x00" + strings.ToLower(strings.TrimSpace(question))
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// columnToIndex converts a column letter (A, B, ..., AA) to a 0-based index
func columnToIndex(column string) int {
	idx, err := excelize.ColumnNameToNumber(strings.ToUpper(column))
	if err != nil {
		return -1
	}
	return idx - 1
}
