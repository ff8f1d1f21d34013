package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// UtilityService provides stateless text processing and numeric parsing
// shared by the scraping and normalization services.
type UtilityService struct {
	logger *logrus.Entry
}

// NewUtilityService creates a new utility service.
func NewUtilityService() *UtilityService {
	return &UtilityService{
		logger: logrus.WithField("component", "UtilityService"),
	}
}

// cosmeticLinkSuffixes are URL fragments that vary between listings of the
// same scheme and carry no identity.
var cosmeticLinkSuffixes = []string{"-fund", "-direct", "-growth", "-plan", "-scheme"}

var (
	currencyRegex      = regexp.MustCompile(`[₹$€£¥]`)
	numberRegex        = regexp.MustCompile(`-?\d+\.?\d*`)
	inlinePercentRegex = regexp.MustCompile(`(\d+\.\d+)%`)
)

// NormalizeLinkSlug reduces a fund URL to its core slug: strips the domain
// and query string, removes cosmetic suffixes, then drops empty tokens.
// Listing entries that differ only in these parts collapse to one identity.
func (s *UtilityService) NormalizeLinkSlug(link string) string {
	slug := link
	if idx := strings.LastIndex(slug, "mutual-funds/"); idx >= 0 {
		slug = slug[idx+len("mutual-funds/"):]
	}
	if idx := strings.Index(slug, "?"); idx >= 0 {
		slug = slug[:idx]
	}

	for _, suffix := range cosmeticLinkSuffixes {
		slug = strings.ReplaceAll(slug, suffix, "")
	}

	tokens := strings.Split(slug, "-")
	kept := tokens[:0]
	for _, token := range tokens {
		if token != "" {
			kept = append(kept, token)
		}
	}
	return strings.Join(kept, "-")
}

// CanonicalFundLink trims a fund link and strips its query string. This is
// the form stored in the flat fund table.
func (s *UtilityService) CanonicalFundLink(link string) string {
	link = strings.TrimSpace(link)
	if idx := strings.Index(link, "?"); idx >= 0 {
		link = link[:idx]
	}
	return link
}

// ParseNumericValue extracts a float from formatted text, tolerating
// currency symbols, thousands separators and unit suffixes such as "Cr".
// Returns nil when no parseable number remains.
func (s *UtilityService) ParseNumericValue(text string) *float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	text = currencyRegex.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, ",", "")
	text = strings.ReplaceAll(text, "Cr", "")
	text = strings.TrimSpace(text)

	match := numberRegex.FindString(text)
	if match == "" {
		return nil
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &value
}

// ParsePercentage extracts a signed percentage value without the percent
// symbol. Returns nil for empty or non-numeric text.
func (s *UtilityService) ParsePercentage(text string) *float64 {
	text = strings.TrimSpace(strings.ReplaceAll(text, "%", ""))
	if text == "" {
		return nil
	}
	return s.ParseNumericValue(text)
}

// ParseReturnValue parses one listing-card return such as "12.3%". The
// cards use the literal "NA" for returns the scheme is too young to have.
func (s *UtilityService) ParseReturnValue(text string) *float64 {
	text = strings.TrimSpace(text)
	if text == "" || text == "NA" {
		return nil
	}
	if !strings.HasSuffix(text, "%") {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSuffix(text, "%"), 64)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"observed": text,
		}).Warn("Unparseable return value on listing card")
		return nil
	}
	return &value
}

// ExtractInlinePercentage finds the first "<number>%" with a decimal point
// inside free text, e.g. an exit-load sentence.
func (s *UtilityService) ExtractInlinePercentage(text string) *float64 {
	match := inlinePercentRegex.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return nil
	}
	return &value
}

// IsNotAvailable reports whether text is one of the placeholder markers the
// source uses for missing values.
func (s *UtilityService) IsNotAvailable(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))

	notAvailableValues := []string{
		"na", "n/a", "not available", "not applicable",
		"--", "-", "", "nil", "null",
	}

	for _, na := range notAvailableValues {
		if text == na {
			return true
		}
	}
	return false
}
