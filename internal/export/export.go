package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/muesli/termenv"

	"github.com/athifer/biodsjobs/internal/models"
	"github.com/athifer/biodsjobs/internal/ui"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatTSV      Format = "tsv"
)

type WriteOptions struct {
	ColorEnabled bool
	Hyperlinks   bool
	LinkStyle    LinkStyle
}

type LinkStyle string

const (
	LinkStyleShort LinkStyle = "short"
	LinkStyleFull  LinkStyle = "full"
)

// ParseFormat maps a user-supplied value to a Format.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "table":
		return FormatTable, nil
	case "csv":
		return FormatCSV, nil
	case "tsv":
		return FormatTSV, nil
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, csv, tsv, json or md)", value)
	}
}

func WritePostings(w io.Writer, postings []models.Posting, format Format, opts WriteOptions) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, postings)
	case FormatCSV:
		return writeCSV(w, postings, ',')
	case FormatTSV:
		return writeCSV(w, postings, '\t')
	case FormatMarkdown:
		return writeMarkdown(w, postings)
	default:
		return writeTable(w, postings, opts)
	}
}

func writeJSON(w io.Writer, postings []models.Posting) error {
	if postings == nil {
		postings = []models.Posting{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(postings)
}

func writeCSV(w io.Writer, postings []models.Posting, delim rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delim
	if err := writer.Write(csvHeader()); err != nil {
		return err
	}
	for _, p := range postings {
		if err := writer.Write(csvRow(p)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeTable(w io.Writer, postings []models.Posting, opts WriteOptions) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(tableHeader(), "\t"))
	output := termenv.NewOutput(w)
	for _, p := range postings {
		fmt.Fprintln(tw, strings.Join(tableRow(p, output, opts), "\t"))
	}
	return tw.Flush()
}

func writeMarkdown(w io.Writer, postings []models.Posting) error {
	if len(postings) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	for _, p := range postings {
		urlLine := "  URL: -"
		if url := safe(p.URL); url != "" {
			urlLine = fmt.Sprintf("  URL: [Open listing](<%s>)", url)
		}
		lines := []string{
			fmt.Sprintf("- **%s** (%s)", safe(p.Title), safe(p.Company)),
			fmt.Sprintf("  Location: %s", safe(p.Location)),
			fmt.Sprintf("  Source: %s", safe(p.Source)),
			fmt.Sprintf("  Score: %s", score(p.RelevanceScore)),
			urlLine,
		}
		if !p.PostedAt.IsZero() {
			lines = append(lines, fmt.Sprintf("  Posted: %s", p.PostedAt.Format(time.RFC3339)))
		}
		if p.Description != "" {
			lines = append(lines, fmt.Sprintf("  Summary: %s", safe(p.Description)))
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func csvHeader() []string {
	return []string{
		"url",
		"title",
		"company",
		"location",
		"source",
		"target",
		"posted_at",
		"relevance_score",
		"description",
	}
}

func csvRow(p models.Posting) []string {
	posted := ""
	if !p.PostedAt.IsZero() {
		posted = p.PostedAt.Format(time.RFC3339)
	}
	return []string{
		p.URL,
		p.Title,
		p.Company,
		p.Location,
		p.Source,
		p.TargetToken,
		posted,
		score(p.RelevanceScore),
		p.Description,
	}
}

func score(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func safe(value string) string {
	return strings.TrimSpace(value)
}

func tableHeader() []string {
	return []string{
		"score",
		"title",
		"company",
		"location",
		"url",
	}
}

func tableRow(p models.Posting, output *termenv.Output, opts WriteOptions) []string {
	url := safe(p.URL)
	displayURL := "-"
	if url != "" {
		displayURL = url
		if opts.LinkStyle == LinkStyleShort && opts.Hyperlinks {
			displayURL = shortURLLabel(url)
		}
		displayURL = ui.Link(output, opts.ColorEnabled, displayURL)
		if opts.Hyperlinks {
			displayURL = hyperlink(url, displayURL)
		}
	}
	return []string{
		ui.Score(output, opts.ColorEnabled, p.RelevanceScore),
		safe(p.Title),
		safe(p.Company),
		safe(p.Location),
		displayURL,
	}
}

func hyperlink(url string, text string) string {
	const esc = "\x1b"
	return esc + "]8;;" + url + esc + "\\" + text + esc + "]8;;" + esc + "\\"
}

func shortURLLabel(raw string) string {
	const maxLen = 60
	label := strings.TrimSpace(raw)
	if parsed, err := url.Parse(raw); err == nil {
		host := strings.TrimPrefix(parsed.Host, "www.")
		if host != "" {
			label = host + parsed.Path
		}
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = raw
	}
	if len(label) > maxLen {
		label = label[:maxLen-3] + "..."
	}
	return label
}
