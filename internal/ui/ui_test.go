package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/muesli/termenv"

	"github.com/athifer/biodsjobs/internal/models"
)

func TestNormalizeColorMode(t *testing.T) {
	cases := map[string]ColorMode{"": ColorAuto, "ALWAYS": ColorAlways, " never ": ColorNever, "bogus": ColorAuto}
	for in, want := range cases {
		if got := NormalizeColorMode(in); got != want {
			t.Fatalf("NormalizeColorMode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDisabledColorIsPlain(t *testing.T) {
	var out, errOut bytes.Buffer
	u := New(&out, &errOut, ColorAlways, true)
	u.Infof("run %s", "done")
	u.Warnf("slow target\n")
	if out.String() != "run done\n" {
		t.Fatalf("out = %q", out.String())
	}
	if errOut.String() != "slow target\n" {
		t.Fatalf("err = %q", errOut.String())
	}
	if got := u.TargetStatus(models.TargetFailed); got != "failed" {
		t.Fatalf("TargetStatus() = %q", got)
	}
}

func TestColorNeverDisablesColor(t *testing.T) {
	var out bytes.Buffer
	u := New(&out, &out, ColorNever, false)
	u.Successf("ok")
	if strings.Contains(out.String(), "\x1b") {
		t.Fatalf("unexpected escape codes: %q", out.String())
	}
}

func TestPaintWrapsOnlyWhenEnabled(t *testing.T) {
	output := termenv.NewOutput(&bytes.Buffer{}, termenv.WithProfile(termenv.ANSI256))
	if got := Link(output, false, "acme.com/jobs/1"); got != "acme.com/jobs/1" {
		t.Fatalf("Link() disabled = %q", got)
	}
	if got := Link(nil, true, "acme.com/jobs/1"); got != "acme.com/jobs/1" {
		t.Fatalf("Link() nil output = %q", got)
	}
	got := Paint(output, true, colorGood, "ok")
	if !strings.Contains(got, "\x1b[") || !strings.Contains(got, "ok") {
		t.Fatalf("Paint() enabled = %q", got)
	}
}

func TestScoreBands(t *testing.T) {
	output := termenv.NewOutput(&bytes.Buffer{}, termenv.WithProfile(termenv.ANSI256))
	cases := []struct {
		value float64
		color string
	}{
		{value: 75, color: colorGood},
		{value: ModerateScore, color: colorWarn},
		{value: 5, color: colorPlain},
	}
	for _, tc := range cases {
		want := Paint(output, true, tc.color, strings.TrimSpace(Score(nil, false, tc.value)))
		if got := Score(output, true, tc.value); got != want {
			t.Fatalf("Score(%v) = %q, want %q", tc.value, got, want)
		}
	}
	if got := Score(nil, false, 42); got != "42.0" {
		t.Fatalf("Score() plain = %q", got)
	}
}
