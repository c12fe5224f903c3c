// Package excel imports vocabulary corpora from Excel or CSV sheets.
package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/example/wordmaster/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath            string // Path to the Excel or CSV file
	IDColumn            string // Column with the word id, optional
	WordColumn          string // Column with the word
	PronunciationColumn string // Column with the pronunciation
	PartOfSpeechColumn  string // Column with the part of speech
	MeaningColumn       string // Column with the meaning
	ExamplesColumn      string // Column with examples separated by ExampleSeparator
	DifficultyColumn    string // Column with the difficulty (1-10)
	FrequencyColumn     string // Column with the frequency (0-100)
	TagsColumn          string // Column with comma separated tags
	SynonymsColumn      string // Column with comma separated synonyms
	SheetName           string // Name of the sheet to import
	StartRow            int    // The row to start importing from (1-based index)
	ExampleSeparator    string
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn:          "A",
		PronunciationColumn: "B",
		PartOfSpeechColumn:  "C",
		MeaningColumn:       "D",
		ExamplesColumn:      "E",
		DifficultyColumn:    "F",
		FrequencyColumn:     "G",
		TagsColumn:          "H",
		SynonymsColumn:      "I",
		SheetName:           "Sheet1",
		StartRow:            2, // By default, start from the second row (skip header)
		ExampleSeparator:    "|",
	}
}

const (
	defaultDifficulty = 5
	defaultFrequency  = 50
)

// ImportResult holds the result of an import operation
type ImportResult struct {
	Entries        []models.VocabularyEntry
	TotalProcessed int
	Created        int
	Updated        int // rows repeating an earlier headword replace it
	Skipped        int
	Errors         []string
}

type importer struct {
	config ImportConfig
	result *ImportResult
	index  map[string]int // word id -> position in Entries
}

// ImportWords imports words from an Excel or CSV file
func ImportWords(config ImportConfig) (*ImportResult, error) {
	// Check the file extension
	ext := strings.ToLower(filepath.Ext(config.FilePath))

	if ext == ".csv" {
		file, err := os.Open(config.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV file: %v", err)
		}
		defer file.Close()
		return ImportCSV(file, config)
	}

	// Process as Excel
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()
	return ImportExcel(f, config)
}

func newImporter(config ImportConfig) *importer {
	if config.ExampleSeparator == "" {
		config.ExampleSeparator = "|"
	}
	return &importer{
		config: config,
		result: &ImportResult{Errors: make([]string, 0)},
		index:  make(map[string]int),
	}
}

// ImportExcel imports words from an opened workbook
func ImportExcel(f *excelize.File, config ImportConfig) (*ImportResult, error) {
	// Get rows from Excel
	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}

	imp := newImporter(config)
	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		imp.processRow(row, i+1, "")
	}
	return imp.result, nil
}

// ImportCSV imports words from CSV data. A row with only its first cell
// filled starts a section whose name is added as a tag to the following
// words.
func ImportCSV(r io.Reader, config ImportConfig) (*ImportResult, error) {
	// Initialize reader
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	imp := newImporter(config)
	rowNum := 0
	section := ""

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %v", err)
		}

		rowNum++

		// Skip header rows
		if rowNum < config.StartRow {
			continue
		}

		// Section header row (e.g., "Science,,,")
		if isSectionRow(row) {
			section = strings.ToLower(strings.Trim(strings.TrimSpace(row[0]), "\""))
			continue
		}

		imp.processRow(row, rowNum, section)
	}
	return imp.result, nil
}

func isSectionRow(row []string) bool {
	if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
		return false
	}
	for _, cell := range row[1:] {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// processRow converts one sheet row into an entry and records the outcome
func (imp *importer) processRow(row []string, rowNum int, section string) {
	imp.result.TotalProcessed++

	cell := func(column string) string {
		if column == "" {
			return ""
		}
		if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	word := cleanWord(cell(imp.config.WordColumn))
	meaning := cell(imp.config.MeaningColumn)
	if word == "" && meaning == "" {
		imp.result.Skipped++
		return
	}
	if word == "" {
		imp.result.Errors = append(imp.result.Errors, fmt.Sprintf("Row %d: word cannot be empty", rowNum))
		return
	}
	if meaning == "" {
		imp.result.Errors = append(imp.result.Errors, fmt.Sprintf("Row %d: meaning cannot be empty", rowNum))
		return
	}

	id := cell(imp.config.IDColumn)
	if id == "" {
		id = slug(word)
	}

	tags := splitList(cell(imp.config.TagsColumn), ",")
	if section != "" && !containsFold(tags, section) {
		tags = append(tags, section)
	}

	entry := models.VocabularyEntry{
		ID:            id,
		Word:          word,
		Pronunciation: cell(imp.config.PronunciationColumn),
		Definitions: []models.Definition{{
			PartOfSpeech: cell(imp.config.PartOfSpeechColumn),
			Meaning:      meaning,
			Examples:     splitList(cell(imp.config.ExamplesColumn), imp.config.ExampleSeparator),
			Synonyms:     splitList(cell(imp.config.SynonymsColumn), ","),
		}},
		Difficulty: parseIntOrDefault(cell(imp.config.DifficultyColumn), 1, 10, defaultDifficulty),
		Frequency:  parseIntOrDefault(cell(imp.config.FrequencyColumn), 0, 100, defaultFrequency),
		Tags:       tags,
	}

	if pos, exists := imp.index[id]; exists {
		imp.result.Entries[pos] = entry
		imp.result.Updated++
		return
	}
	imp.index[id] = len(imp.result.Entries)
	imp.result.Entries = append(imp.result.Entries, entry)
	imp.result.Created++
}

// cleanWord удаляет из слова дополнительную информацию в скобках
func cleanWord(word string) string {
	// "go (went, gone)" -> "go"
	indexOpenParen := strings.Index(word, "(")
	if indexOpenParen > 0 {
		return strings.TrimSpace(word[:indexOpenParen])
	}
	return strings.TrimSpace(word)
}

// slug builds a word id from a headword
func slug(word string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(word) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			b.WriteRune('_')
		}
	}
	return b.String()
}

func splitList(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}

// Helper function to parse integer within a range
func parseIntInRange(s string, min, max int) (int, error) {
	var val int
	if _, err := fmt.Sscanf(s, "%d", &val); err != nil {
		return min, err
	}
	if val < min {
		return min, nil
	}
	if val > max {
		return max, nil
	}
	return val, nil
}

// Helper function to parse integer with default value
func parseIntOrDefault(s string, min, max, defaultVal int) int {
	if val, err := parseIntInRange(s, min, max); err == nil {
		return val
	}
	return defaultVal
}
