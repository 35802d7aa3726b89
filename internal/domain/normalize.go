package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	doiPrefixRe = regexp.MustCompile(`(?i)^https?://(dx\.)?doi\.org/`)
	yearRe      = regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`)
)

// NormalizeDOI strips the https://doi.org/ resolver prefix and surrounding
// whitespace from a DOI and lowercases it. An empty or absent DOI becomes
// the NoDOI sentinel rather than an error.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	if doi == "" || strings.EqualFold(doi, NoDOI) {
		return NoDOI
	}
	doi = doiPrefixRe.ReplaceAllString(doi, "")
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return NoDOI
	}
	return strings.ToLower(doi)
}

// monthNames maps month name prefixes (three letters, lowercase) to their
// numeric month. Used when normalizing free-text publication dates.
var monthNames = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// NormalizeYear extracts a 4-digit publication year from a date string.
// Supported shapes: "YYYY-MM-DD", "YYYY/MM/DD", free text with month
// names ("2023 Jan 15", "15 March 2021"), or a bare "YYYY". When no
// plausible year can be extracted it returns "N/A" rather than failing.
func NormalizeYear(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return "N/A"
	}

	// Fast path: leading 4-digit year as in YYYY, YYYY-MM-DD, YYYY/MM/DD.
	if len(date) >= 4 {
		if y, err := strconv.Atoi(date[:4]); err == nil && plausibleYear(y) {
			return date[:4]
		}
	}

	// Free-text dates: scan for any plausible 4-digit year token.
	if m := yearRe.FindString(date); m != "" {
		return m
	}

	return "N/A"
}

func plausibleYear(y int) bool {
	return y >= 1800 && y <= 2099
}

// MonthNumber resolves a month name or numeric string to 1..12, or 0
// when unrecognized.
func MonthNumber(month string) int {
	month = strings.ToLower(strings.TrimSpace(month))
	if month == "" {
		return 0
	}
	if n, err := strconv.Atoi(month); err == nil && n >= 1 && n <= 12 {
		return n
	}
	if len(month) >= 3 {
		if n, ok := monthNames[month[:3]]; ok {
			return n
		}
	}
	return 0
}

// NormalizeDate converts PubMed-style free-text publication dates
// ("2023 Mar 10", "2019 Jun") to ISO form ("2023-03-10", "2019-06").
// Dates in any other shape, already ISO or otherwise, pass through
// trimmed but unchanged.
func NormalizeDate(date string) string {
	fields := strings.Fields(date)
	if len(fields) < 2 || len(fields) > 3 {
		return strings.TrimSpace(date)
	}

	year, err := strconv.Atoi(fields[0])
	if err != nil || !plausibleYear(year) {
		return strings.TrimSpace(date)
	}
	month := MonthNumber(fields[1])
	if month == 0 {
		return strings.TrimSpace(date)
	}
	if len(fields) == 3 {
		if day, err := strconv.Atoi(fields[2]); err == nil && day >= 1 && day <= 31 {
			return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
		}
	}
	return fmt.Sprintf("%04d-%02d", year, month)
}

var nonWordRe = regexp.MustCompile(`[^\pL\pN\s]+`)

// stopWords is the fixed English stop-word list dropped during title
// normalization for dedup identity.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "in": {}, "is": {},
	"of": {}, "on": {}, "or": {}, "the": {}, "to": {}, "with": {},
}

// NormalizeTitle produces the dedup identity key for a title: lowercase,
// punctuation stripped, whitespace collapsed, stop-words removed. When
// every token is a stop-word the raw lowercase title is used instead so
// the key is never empty for a non-empty title.
func NormalizeTitle(title string) string {
	lower := strings.ToLower(strings.TrimSpace(title))
	if lower == "" {
		return ""
	}
	cleaned := nonWordRe.ReplaceAllString(lower, " ")
	fields := strings.Fields(cleaned)

	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, skip := stopWords[f]; skip {
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == 0 {
		return lower
	}
	return strings.Join(kept, " ")
}
