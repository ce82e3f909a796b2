package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/athifer/biodsjobs/internal/models"
)

var postings = []models.Posting{{
	URL:            "https://acme.com/jobs/1",
	Title:          "Computational Biologist",
	Company:        "Acme Bio",
	Location:       "Boston, MA",
	Source:         "greenhouse",
	TargetToken:    "acme",
	PostedAt:       time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	Description:    "Single-cell analysis, with commas",
	RelevanceScore: 71.5,
}}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePostings(&buf, postings, FormatCSV, WriteOptions{}); err != nil {
		t.Fatalf("WritePostings() error = %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[1][0] != "https://acme.com/jobs/1" || rows[1][7] != "71.5" || rows[1][8] != "Single-cell analysis, with commas" {
		t.Fatalf("unexpected row: %v", rows[1])
	}
}

func TestWriteTSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePostings(&buf, postings, FormatTSV, WriteOptions{}); err != nil {
		t.Fatalf("WritePostings() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "url\ttitle\t") {
		t.Fatalf("unexpected tsv output: %q", buf.String())
	}
}

func TestWriteJSONEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePostings(&buf, nil, FormatJSON, WriteOptions{}); err != nil {
		t.Fatalf("WritePostings() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("json = %q", buf.String())
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePostings(&buf, postings, FormatMarkdown, WriteOptions{}); err != nil {
		t.Fatalf("WritePostings() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"**Computational Biologist** (Acme Bio)", "Score: 71.5", "[Open listing](<https://acme.com/jobs/1>)", "Posted: 2024-05-01T00:00:00Z"} {
		if !strings.Contains(out, want) {
			t.Fatalf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTablePlain(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePostings(&buf, postings, FormatTable, WriteOptions{}); err != nil {
		t.Fatalf("WritePostings() error = %v", err)
	}
	if strings.Contains(buf.String(), "\x1b") {
		t.Fatalf("plain table should not contain escapes: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "https://acme.com/jobs/1") {
		t.Fatalf("table missing url: %q", buf.String())
	}
}

func TestTableRowScoreHasOneDecimal(t *testing.T) {
	row := tableRow(models.Posting{URL: "https://acme.com/jobs/1", RelevanceScore: 42}, nil, WriteOptions{})
	if row[0] != "42.0" {
		t.Fatalf("score cell = %q", row[0])
	}
	if row[4] != "https://acme.com/jobs/1" {
		t.Fatalf("url cell = %q", row[4])
	}
}

func TestShortURLLabel(t *testing.T) {
	got := shortURLLabel("https://www.acme.com/careers/jobs/1")
	if got != "acme.com/careers/jobs/1" {
		t.Fatalf("shortURLLabel() = %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatTable, "CSV": FormatCSV, "markdown": FormatMarkdown, "tsv": FormatTSV}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
}
