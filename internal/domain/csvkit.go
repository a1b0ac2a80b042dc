package domain

import (
	"encoding/csv"
	"strings"
)

// HeaderKeywords is the broad keyword set used to recognize the true header
// row in downloaded SDO CSVs. Matching is case-insensitive substring, so
// "CountyFIPS" satisfies both "fips" and "county".
var HeaderKeywords = []string{"fips", "county", "year", "age", "pop", "hh", "unit", "vac"}

// FileHeaderKeywords is the strict set used when re-reading cached CSV
// files; each keyword must match a whole field exactly (case-insensitive).
var FileHeaderKeywords = []string{"fips", "countyfips", "geoid", "age", "year"}

// DetectHeader scans text top-down for the first line that looks like a CSV
// header: at least three non-empty comma-separated fields, one of which
// matches a keyword by case-insensitive substring. Lines above it are
// banner/preamble and discarded. Returns the header fields and a reader
// positioned at the first data row, or (nil, nil) when no header exists.
func DetectHeader(text string, keywords []string) ([]string, *csv.Reader) {
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		fields := splitTrim(line)
		if countNonEmpty(fields) < 3 {
			continue
		}
		if !anyKeyword(fields, keywords) {
			continue
		}
		r := csv.NewReader(strings.NewReader(strings.Join(lines[i+1:], "\n")))
		r.FieldsPerRecord = -1
		return fields, r
	}
	return nil, nil
}

// DetectHeaderStrict is DetectHeader with exact whole-field keyword
// matching, for the cached-file path.
func DetectHeaderStrict(text string, keywords []string) ([]string, *csv.Reader) {
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		fields := splitTrim(line)
		if countNonEmpty(fields) < 3 {
			continue
		}
		if !anyKeywordExact(fields, keywords) {
			continue
		}
		r := csv.NewReader(strings.NewReader(strings.Join(lines[i+1:], "\n")))
		r.FieldsPerRecord = -1
		return fields, r
	}
	return nil, nil
}

// PickColumn resolves a logical column against actual header fields: first
// an exact match of any candidate, then a case-insensitive substring match
// of any candidate inside any field. Returns the matched header field, or
// "" when nothing resolves. This is the single point that absorbs upstream
// column renames.
func PickColumn(fields []string, candidates ...string) string {
	for _, c := range candidates {
		for _, f := range fields {
			if f == c {
				return f
			}
		}
	}
	for _, c := range candidates {
		cl := strings.ToLower(c)
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), cl) {
				return f
			}
		}
	}
	return ""
}

// ColumnIndex returns the index of field in fields, or -1.
func ColumnIndex(fields []string, field string) int {
	for i, f := range fields {
		if f == field {
			return i
		}
	}
	return -1
}

func splitTrim(line string) []string {
	parts := strings.Split(strings.TrimRight(line, "\r"), ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func countNonEmpty(fields []string) int {
	n := 0
	for _, f := range fields {
		if f != "" {
			n++
		}
	}
	return n
}

func anyKeyword(fields, keywords []string) bool {
	for _, f := range fields {
		fl := strings.ToLower(f)
		for _, kw := range keywords {
			if strings.Contains(fl, kw) {
				return true
			}
		}
	}
	return false
}

func anyKeywordExact(fields, keywords []string) bool {
	for _, f := range fields {
		fl := strings.ToLower(f)
		for _, kw := range keywords {
			if fl == kw {
				return true
			}
		}
	}
	return false
}
