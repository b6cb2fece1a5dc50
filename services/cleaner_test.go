package services

import (
	"strings"
	"testing"

	"shop-scraper/models"
)

func TestNormaliseText(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"  hello   world ", "hello world"},
		{"line one\nline two", "line one line two"},
		{"\t\n", ""},
		{"tabs\tand\r\nCRLF", "tabs and CRLF"},
	}

	for _, tt := range tests {
		if got := NormaliseText(tt.raw); got != tt.want {
			t.Errorf("NormaliseText(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestDeduperIsIdempotent(t *testing.T) {
	d := NewDeduper()

	if !d.Admit("Great chocolate\nwould buy again") {
		t.Fatal("first Admit should succeed")
	}
	if d.Admit("Great chocolate would buy again") {
		t.Error("whitespace variant should be treated as duplicate")
	}
	if d.Admit("Great chocolate\nwould buy again") {
		t.Error("exact repeat should be treated as duplicate")
	}
	if d.Admit("   ") {
		t.Error("blank text should never be admitted")
	}
	if d.Len() != 1 {
		t.Errorf("Len() = %d; want 1", d.Len())
	}
}

func TestParseProduct(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   models.Product
		wantOK bool
	}{
		{
			name:   "currency amount",
			raw:    "Box of Chocolate Candy\nDelicious dark chocolate\n$24.99",
			want:   models.Product{Title: "Box of Chocolate Candy", Price: "$24.99"},
			wantOK: true,
		},
		{
			name:   "first amount wins",
			raw:    "Dragon Potion\n$4.99\nwas $9.99",
			want:   models.Product{Title: "Dragon Potion", Price: "$4.99"},
			wantOK: true,
		},
		{
			name:   "decimal fallback",
			raw:    "Energy Potion\nsize 0.5 or 1.5",
			want:   models.Product{Title: "Energy Potion", Price: "$1.5"},
			wantOK: true,
		},
		{
			name:   "no price",
			raw:    "Gift Card\nAsk in store",
			want:   models.Product{Title: "Gift Card", Price: NoPrice},
			wantOK: true,
		},
		{name: "navigation chrome", raw: "Log in", wantOK: false},
		{name: "short title", raw: "Ok\n$1.00", wantOK: false},
		{name: "empty", raw: "  \n ", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseProduct(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("ParseProduct(%q) ok = %v; want %v", tt.raw, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseProduct(%q) = %+v; want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCleanTestimonial(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"cleaned", "We love this\nproduct,   truly!", "We love this product, truly!", true},
		{"too short", "Nice!", "", false},
		{"too long", strings.Repeat("a", 401), "", false},
		{"boilerplate collection", "Browse our entire collection of goodies", "", false},
		{"boilerplate take a look", "Take a look at what people are saying", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CleanTestimonial(tt.raw)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("CleanTestimonial(%q) = (%q, %v); want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestExtractReviewFields(t *testing.T) {
	raw := "2023-05-14\nGreat product, arrived quickly and tasted wonderful\nJohn"
	c := ExtractReviewFields(raw)

	if !c.HasDate || c.Year != 2023 || c.DateLine != "2023-05-14" {
		t.Errorf("date = (%q, %d, %v); want (2023-05-14, 2023, true)", c.DateLine, c.Year, c.HasDate)
	}
	if c.Text != "Great product, arrived quickly and tasted wonderful" {
		t.Errorf("Text = %q; want longest line", c.Text)
	}

	undated := ExtractReviewFields("Nice\nno year anywhere")
	if undated.HasDate {
		t.Errorf("HasDate = true for %+v; want false", undated)
	}
}
