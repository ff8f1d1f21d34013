package services

import (
	"fmt"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestNormalizeLinkSlugCollapsesCosmeticVariants(t *testing.T) {
	utility := NewUtilityService()

	tests := []struct {
		name     string
		link     string
		expected string
	}{
		{
			name:     "full URL with cosmetic suffixes",
			link:     "https://groww.in/mutual-funds/abc-flexi-cap-fund-direct-growth",
			expected: "abc-flexi-cap",
		},
		{
			name:     "query string stripped",
			link:     "https://groww.in/mutual-funds/abc-flexi-cap-fund-direct-growth?utm_source=listing",
			expected: "abc-flexi-cap",
		},
		{
			name:     "relative link without domain",
			link:     "/mutual-funds/abc-flexi-cap-plan-growth",
			expected: "abc-flexi-cap",
		},
		{
			name:     "empty tokens from adjacent suffixes dropped",
			link:     "https://groww.in/mutual-funds/xyz-fund-growth-scheme",
			expected: "xyz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := utility.NormalizeLinkSlug(tt.link); got != tt.expected {
				t.Errorf("NormalizeLinkSlug(%q) = %q, want %q", tt.link, got, tt.expected)
			}
		})
	}
}

func TestNormalizeLinkSlugGivesSameIdentityForListingDuplicates(t *testing.T) {
	utility := NewUtilityService()

	first := utility.NormalizeLinkSlug("https://groww.in/mutual-funds/alpha-value-fund-direct-growth")
	second := utility.NormalizeLinkSlug("/mutual-funds/alpha-value-fund-direct-growth?page=3")

	if first != second {
		t.Errorf("expected identical slugs for listing duplicates, got %q and %q", first, second)
	}
}

func TestCanonicalFundLink(t *testing.T) {
	utility := NewUtilityService()

	got := utility.CanonicalFundLink("  https://groww.in/mutual-funds/abc-fund?ref=home ")
	want := "https://groww.in/mutual-funds/abc-fund"
	if got != want {
		t.Errorf("CanonicalFundLink = %q, want %q", got, want)
	}
}

func TestParseNumericValueHandlesFormattedText(t *testing.T) {
	utility := NewUtilityService()

	tests := []struct {
		text     string
		expected *float64
	}{
		{"₹1,234.56 Cr", floatPtr(1234.56)},
		{"₹500", floatPtr(500)},
		{"45.67", floatPtr(45.67)},
		{"-12.5", floatPtr(-12.5)},
		{"", nil},
		{"no numbers here", nil},
	}

	for _, tt := range tests {
		got := utility.ParseNumericValue(tt.text)
		if !floatPtrEqual(got, tt.expected) {
			t.Errorf("ParseNumericValue(%q) = %v, want %v", tt.text, floatPtrString(got), floatPtrString(tt.expected))
		}
	}
}

func TestParseReturnValue(t *testing.T) {
	utility := NewUtilityService()

	tests := []struct {
		text     string
		expected *float64
	}{
		{"12.3%", floatPtr(12.3)},
		{"-4.5%", floatPtr(-4.5)},
		{"NA", nil},
		{"", nil},
		{"12.3", nil}, // a card return always carries the percent sign
	}

	for _, tt := range tests {
		got := utility.ParseReturnValue(tt.text)
		if !floatPtrEqual(got, tt.expected) {
			t.Errorf("ParseReturnValue(%q) = %v, want %v", tt.text, floatPtrString(got), floatPtrString(tt.expected))
		}
	}
}

func TestParseReturnValueRoundTripProperty(t *testing.T) {
	utility := NewUtilityService()
	properties := gopter.NewProperties(nil)

	properties.Property("any formatted percentage parses back to its value", prop.ForAll(
		func(value float64) bool {
			text := fmt.Sprintf("%.2f%%", value)
			parsed := utility.ParseReturnValue(text)
			if parsed == nil {
				return false
			}
			return math.Abs(*parsed-value) < 0.005
		},
		gen.Float64Range(-100, 100),
	))

	properties.TestingRun(t)
}

func TestExtractInlinePercentage(t *testing.T) {
	utility := NewUtilityService()

	got := utility.ExtractInlinePercentage("Exit load of 1.00% if redeemed within 1 year")
	if got == nil || *got != 1.0 {
		t.Errorf("ExtractInlinePercentage = %v, want 1.0", floatPtrString(got))
	}

	if got := utility.ExtractInlinePercentage("no percentage in this sentence"); got != nil {
		t.Errorf("ExtractInlinePercentage on plain text = %v, want nil", *got)
	}
}

func TestIsNotAvailable(t *testing.T) {
	utility := NewUtilityService()

	for _, text := range []string{"NA", "n/a", " Not Available ", "--", ""} {
		if !utility.IsNotAvailable(text) {
			t.Errorf("IsNotAvailable(%q) = false, want true", text)
		}
	}
	if utility.IsNotAvailable("4.5") {
		t.Error("IsNotAvailable(\"4.5\") = true, want false")
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return math.Abs(*a-*b) < 1e-9
}

func floatPtrString(v *float64) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v", *v)
}
