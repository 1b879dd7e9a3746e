package utils

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestFormatRupees(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "Rs 0.00"},
		{999.5, "Rs 999.50"},
		{1000, "Rs 1,000.00"},
		{100000, "Rs 1,00,000.00"},
		{2550000, "Rs 25,50,000.00"},
		{10000000, "Rs 1,00,00,000.00"},
		{123456789.12, "Rs 12,34,56,789.12"},
		{-1500, "-Rs 1,500.00"},
	}

	for _, tc := range tests {
		if got := FormatRupees(tc.amount); got != tc.want {
			t.Errorf("FormatRupees(%v) = %q, want %q", tc.amount, got, tc.want)
		}
	}
}

func TestFormatVolume(t *testing.T) {
	tests := []struct {
		qty  int64
		want string
	}{
		{0, "0"},
		{500, "500"},
		{12500, "12,500"},
		{3500000, "35,00,000"},
		{-7200, "-7,200"},
	}

	for _, tc := range tests {
		if got := FormatVolume(tc.qty); got != tc.want {
			t.Errorf("FormatVolume(%d) = %q, want %q", tc.qty, got, tc.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(3.456); got != "+3.46%" {
		t.Errorf("FormatPercent(3.456) = %q", got)
	}
	if got := FormatPercent(-1.2); got != "-1.20%" {
		t.Errorf("FormatPercent(-1.2) = %q", got)
	}
	if got := FormatPercent(0); got != "0.00%" {
		t.Errorf("FormatPercent(0) = %q", got)
	}
}

func TestFormatCompact(t *testing.T) {
	if got := FormatCompact(25000000); got != "2.50 Cr" {
		t.Errorf("FormatCompact(25000000) = %q", got)
	}
	if got := FormatCompact(350000); got != "3.50 L" {
		t.Errorf("FormatCompact(350000) = %q", got)
	}
	if got := FormatCompact(5000); got != "Rs 5,000.00" {
		t.Errorf("FormatCompact(5000) = %q", got)
	}
}

// Property: grouping only inserts commas, never alters the digits.
func TestProperty_VolumeGroupingPreservesDigits(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())
	parameters.MaxShrinkCount = 0

	properties := gopter.NewProperties(parameters)

	properties.Property("digits survive grouping", prop.ForAll(
		func(qty int64) bool {
			got := FormatVolume(qty)
			return strings.ReplaceAll(got, ",", "") == fmt.Sprintf("%d", qty)
		},
		gen.Int64Range(-1e12, 1e12),
	))

	properties.Property("groups right of the first comma are 3 then 2s", prop.ForAll(
		func(qty int64) bool {
			got := FormatVolume(qty)
			got = strings.TrimPrefix(got, "-")
			groups := strings.Split(got, ",")
			if len(groups) == 1 {
				return len(groups[0]) <= 3
			}
			if len(groups[len(groups)-1]) != 3 {
				return false
			}
			for _, g := range groups[1 : len(groups)-1] {
				if len(g) != 2 {
					return false
				}
			}
			return len(groups[0]) >= 1 && len(groups[0]) <= 2
		},
		gen.Int64Range(0, 1e15),
	))

	properties.TestingRun(t)
}
