package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"birthdaybot/internal/date"
	"birthdaybot/internal/model"
	"birthdaybot/internal/repository"
)

// ValidationResult enumerates per-row problems found in a CSV batch.
// Warnings never block an import; any error rejects the whole batch.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// ImportResult reports the outcome of a bulk import.
type ImportResult struct {
	Imported int
	Errors   []string
	Warnings []string
}

// csvRow is one parsed data row of the import schema.
type csvRow struct {
	UserID      string
	Username    string
	DisplayName string
	Month       int
	Day         int
}

const csvHeader = "User ID,Username,Display Name,Month,Day"

// CSVService validates and imports bulk birthday data. The expected schema
// is the header plus rows of userId,username,displayName,month,day, where
// displayName may be quoted to embed commas.
type CSVService struct {
	birthdayRepo *repository.BirthdayRepository
}

func NewCSVService(birthdayRepo *repository.BirthdayRepository) *CSVService {
	return &CSVService{birthdayRepo: birthdayRepo}
}

// Template returns the canonical header plus example rows, including one
// demonstrating an embedded comma via quoting.
func (s *CSVService) Template() string {
	return csvHeader + "\n" +
		"U12345678,johndoe,John Doe,12,25\n" +
		"U87654321,janedoe,\"Doe, Jane\",1,15\n" +
		"UABCDEF12,bobsmith,,7,4"
}

// Validate checks the CSV batch row by row without writing anything.
func (s *CSVService) Validate(csvText string) ValidationResult {
	result := ValidationResult{Valid: true}

	trimmed := strings.TrimSpace(csvText)
	if trimmed == "" {
		result.Valid = false
		result.Errors = append(result.Errors, "CSV data is empty")
		return result
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		result.Valid = false
		result.Errors = append(result.Errors, "CSV must include a header and at least one data row")
		return result
	}

	header := strings.ToLower(strings.TrimSpace(lines[0]))
	if !strings.HasPrefix(header, "user id") || !strings.Contains(header, "month") || !strings.Contains(header, "day") {
		result.Valid = false
		result.Errors = append(result.Errors, `CSV header must include "User ID", "Username", "Display Name", "Month" and "Day" columns`)
	}

	row := 0
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		row++
		_, rowResult := parseRow(line, row)
		result.Errors = append(result.Errors, rowResult.Errors...)
		result.Warnings = append(result.Warnings, rowResult.Warnings...)
		if len(rowResult.Errors) > 0 {
			result.Valid = false
		}
	}

	return result
}

// Import validates the batch and, when it is clean, upserts every row in
// order. The last row for a given user ID wins. A storage failure on one
// row is reported and does not stop the remaining rows.
func (s *CSVService) Import(ctx context.Context, csvText string) ImportResult {
	validation := s.Validate(csvText)
	if !validation.Valid {
		return ImportResult{Errors: validation.Errors, Warnings: validation.Warnings}
	}

	result := ImportResult{Warnings: validation.Warnings}

	lines := strings.Split(strings.TrimSpace(csvText), "\n")
	row := 0
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		row++
		parsed, rowResult := parseRow(line, row)
		if len(rowResult.Errors) > 0 {
			// Unreachable after a clean validation, but rows are
			// still skipped individually rather than aborting.
			result.Errors = append(result.Errors, rowResult.Errors...)
			continue
		}

		canonical, err := date.Normalize(parsed.Month, parsed.Day)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", row, err))
			continue
		}

		err = s.birthdayRepo.Upsert(ctx, &model.Birthday{
			UserID:      parsed.UserID,
			Username:    parsed.Username,
			DisplayName: parsed.DisplayName,
			Birthdate:   canonical,
		})
		if err != nil {
			log.Printf("[warn] import row %d (%s): %v", row, parsed.UserID, err)
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: failed to save %s", row, parsed.UserID))
			continue
		}
		result.Imported++
	}

	return result
}

// parseRow splits and validates one data row. Errors reject the batch;
// warnings only annotate it.
func parseRow(line string, row int) (csvRow, ValidationResult) {
	var result ValidationResult

	fields, unterminated := splitFields(line)
	if unterminated {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Row %d: unterminated quote", row))
	}

	if len(fields) < 5 {
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d: not enough columns (expected 5, got %d)", row, len(fields)))
		return csvRow{}, result
	}

	parsed := csvRow{
		UserID:      fields[0],
		Username:    fields[1],
		DisplayName: fields[2],
	}

	if !strings.HasPrefix(parsed.UserID, "U") || len(parsed.UserID) < 8 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Row %d: user ID %q may not be valid, expected U-prefixed IDs of 8+ characters", row, parsed.UserID))
	}

	month, err := strconv.Atoi(fields[3])
	if err != nil || month < 1 || month > 12 {
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d: invalid month %q (must be 1-12)", row, fields[3]))
	} else {
		parsed.Month = month
	}

	day, err := strconv.Atoi(fields[4])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d: invalid day %q (must be a number)", row, fields[4]))
	} else {
		parsed.Day = day
		if parsed.Month != 0 {
			if _, err := date.Normalize(parsed.Month, day); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: invalid day %d for month %d", row, day, parsed.Month))
			}
		}
	}

	return parsed, result
}

// splitFields splits a row on commas while honoring one quoted field: a
// field opened with a quote and not closed in the same segment extends
// across subsequent commas until a segment ending in a quote. A quote that
// never closes consumes the rest of the line and is flagged.
func splitFields(line string) (fields []string, unterminated bool) {
	segments := strings.Split(line, ",")
	for i := 0; i < len(segments); i++ {
		segment := strings.TrimSpace(segments[i])
		if !strings.HasPrefix(segment, `"`) {
			fields = append(fields, segment)
			continue
		}
		if len(segment) >= 2 && strings.HasSuffix(segment, `"`) {
			fields = append(fields, strings.Trim(segment, `"`))
			continue
		}

		joined := []string{segment}
		closed := false
		for i++; i < len(segments); i++ {
			joined = append(joined, segments[i])
			if strings.HasSuffix(strings.TrimSpace(segments[i]), `"`) {
				closed = true
				break
			}
		}
		field := strings.TrimSpace(strings.Join(joined, ","))
		fields = append(fields, strings.Trim(field, `"`))
		if !closed {
			unterminated = true
		}
	}
	return fields, unterminated
}
