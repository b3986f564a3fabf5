package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "zero returns nothing", maxLines: 0, expected: nil},
		{name: "negative returns nothing", maxLines: -1, expected: nil},
		{name: "read partial (5)", maxLines: 5, expected: expectedAll[5:]},
		{name: "read exactly all (10)", maxLines: 10, expected: expectedAll},
		{name: "read more than exists (20)", maxLines: 20, expected: expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", got, err)
	}
}

func TestParse(t *testing.T) {
	line := `{"level":"WARN","timestamp":"2025-10-08T21:01:05.123Z","caller":"poller/poller.go:10","message":"load failed","component":"poller","resource":"documents","attempt":2}`
	e := Parse(line)

	if e.Level != "WARN" || e.Message != "load failed" || e.Component != "poller" {
		t.Fatalf("Parse() = %#v", e)
	}
	if e.Time.IsZero() || e.Time.Minute() != 1 {
		t.Fatalf("Parse() time = %v", e.Time)
	}
	if got := e.FieldKeys(); !reflect.DeepEqual(got, []string{"attempt", "resource"}) {
		t.Fatalf("FieldKeys() = %v", got)
	}
	if e.Fields["attempt"] != "2" || e.Raw != line {
		t.Fatalf("Fields = %#v", e.Fields)
	}
}

func TestParse_NonJSON(t *testing.T) {
	e := Parse("  panic: boom ")
	if e.Message != "panic: boom" || e.Level != "" || e.Fields != nil {
		t.Fatalf("Parse() = %#v", e)
	}
}

func TestParseLinesAndMatches(t *testing.T) {
	entries := ParseLines([]string{
		`{"level":"DEBUG","message":"tick"}`,
		"",
		`{"level":"ERROR","message":"Search failed"}`,
	})
	if len(entries) != 2 {
		t.Fatalf("ParseLines() len = %d, want 2", len(entries))
	}
	if entries[0].Matches("INFO", "") {
		t.Errorf("debug entry should not pass info floor")
	}
	if !entries[1].Matches("warn", "search") {
		t.Errorf("error entry should match warn floor and substring")
	}
	if entries[1].Matches("", "deleted") {
		t.Errorf("substring filter should exclude")
	}
}
