package utils

import (
	"regexp"

	"github.com/Aashish23092/ocr-document-filing/dto"
)

// Date shapes in priority order.
var datePatterns = []*regexp.Regexp{
	// 12/05/2023, 5-3-23
	regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
	// 2023-05-12
	regexp.MustCompile(`\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`),
	// march 5, 2023
	regexp.MustCompile(`(?i)\b(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?) \d{1,2}, \d{4}\b`),
}

// ExtractDates returns every date-shaped substring of text, grouped by
// pattern priority and in text order within a pattern.
func ExtractDates(text string) []string {
	var dates []string
	for _, re := range datePatterns {
		dates = append(dates, re.FindAllString(text, -1)...)
	}
	return dates
}

// ExtractDate returns the highest-priority date in text, or dto.NoDateFound.
func ExtractDate(text string) string {
	for _, re := range datePatterns {
		if m := re.FindString(text); m != "" {
			return m
		}
	}
	return dto.NoDateFound
}
