package source

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	salaryStrip  = regexp.MustCompile(`[^\dk\-\,\.]`)
	salaryRange  = regexp.MustCompile(`(\d+(?:,\d+)?(?:\.\d+)?k?)\s*-\s*(\d+(?:,\d+)?(?:\.\d+)?k?)`)
	salarySingle = regexp.MustCompile(`(\d+(?:,\d+)?(?:\.\d+)?k?)`)
)

// ParseSalaryRange extracts a numeric salary range from display text like
// "$50,000 - $75,000 a year" or "$50k-$75k". A single value yields an equal
// min and max. Returns nils when no salary is present.
func ParseSalaryRange(text string) (min, max *float64) {
	if text == "" {
		return nil, nil
	}
	cleaned := salaryStrip.ReplaceAllString(strings.ToLower(text), "")

	if match := salaryRange.FindStringSubmatch(cleaned); match != nil {
		lo := parseSalaryValue(match[1])
		hi := parseSalaryValue(match[2])
		return lo, hi
	}
	if match := salarySingle.FindStringSubmatch(cleaned); match != nil {
		v := parseSalaryValue(match[1])
		return v, v
	}
	return nil, nil
}

// parseSalaryValue parses one salary figure, expanding a trailing "k" to
// thousands.
func parseSalaryValue(value string) *float64 {
	cleaned := strings.ReplaceAll(value, ",", "")
	multiplier := 1.0
	if strings.HasSuffix(cleaned, "k") {
		cleaned = strings.TrimSuffix(cleaned, "k")
		multiplier = 1000
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	f *= multiplier
	return &f
}
