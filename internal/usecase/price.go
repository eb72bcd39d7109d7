package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"renovation-quote/internal/domain"
)

var priceRangePattern = regexp.MustCompile(`(?i)\$(\d{1,3}(?:,\d{3})+|\d+)\s*to\s*\$(\d{1,3}(?:,\d{3})+|\d+)`)

// ExtractPriceRange returns the first "$X to $Y" range in text, or nil when
// there is none.
func ExtractPriceRange(text string) *domain.PriceRange {
	m := priceRangePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	lo, err := parseDollars(m[1])
	if err != nil {
		return nil
	}
	hi, err := parseDollars(m[2])
	if err != nil {
		return nil
	}
	return &domain.PriceRange{Min: lo, Max: hi}
}

func parseDollars(s string) (int, error) {
	return strconv.Atoi(strings.ReplaceAll(s, ",", ""))
}

// CarryPriceRange keeps the last known estimate alive when a reply does not
// restate it.
func CarryPriceRange(extracted *domain.PriceRange, history []domain.Message) *domain.PriceRange {
	if extracted != nil {
		return extracted
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].PriceRange != nil {
			pr := *history[i].PriceRange
			return &pr
		}
	}
	return nil
}
