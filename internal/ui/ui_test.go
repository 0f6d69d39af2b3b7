package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"cratesync/internal/models"
)

func TestDescribeCriteria(t *testing.T) {
	intPtr := func(v int) *int { return &v }
	floatPtr := func(v float64) *float64 { return &v }
	refs := func(n int) []models.TagReference {
		out := make([]models.TagReference, n)
		return out
	}

	cases := []struct {
		name     string
		criteria models.Criteria
		want     string
	}{
		{"Empty", models.Criteria{}, "matches everything"},
		{"AND Tags", models.Criteria{ActiveTagFilters: refs(2)}, "all of 2 tags"},
		{"OR Tags", models.Criteria{ActiveTagFilters: refs(3), IsOrFilterMode: true}, "any of 3 tags"},
		{"Excludes", models.Criteria{ExcludedTagFilters: refs(1)}, "excluding 1 tags"},
		{"Ratings", models.Criteria{RatingFilters: []int{4, 5}}, "rating in [4 5]"},
		{"Energy Range", models.Criteria{EnergyMinFilter: intPtr(3), EnergyMaxFilter: intPtr(8)}, "energy 3-8"},
		{"Energy Min Only", models.Criteria{EnergyMinFilter: intPtr(5)}, "energy ≥5"},
		{"BPM Max Only", models.Criteria{BpmMaxFilter: floatPtr(128)}, "bpm ≤128"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DescribeCriteria(tc.criteria); !strings.Contains(got, tc.want) {
				t.Errorf("expected %q to contain %q", got, tc.want)
			}
		})
	}

	t.Run("Combines Dimensions In Order", func(t *testing.T) {
		c := models.Criteria{
			ActiveTagFilters: refs(1),
			RatingFilters:    []int{5},
			BpmMinFilter:     floatPtr(120),
		}
		got := DescribeCriteria(c)
		if !strings.Contains(got, "all of 1 tags, rating in [5], bpm ≥120") {
			t.Errorf("unexpected summary %q", got)
		}
	})
}

func TestConsoleNotifier(t *testing.T) {
	t.Run("TrackAdded", func(t *testing.T) {
		var buf bytes.Buffer
		n := NewConsoleNotifier(&buf)

		n.TrackAdded("Peak Time", "spotify:track:a")

		out := buf.String()
		if !strings.Contains(out, "spotify:track:a") || !strings.Contains(out, "Peak Time") {
			t.Errorf("expected track and playlist in output, got %q", out)
		}
	})

	t.Run("DuplicateLost Names The Loss", func(t *testing.T) {
		var buf bytes.Buffer
		n := NewConsoleNotifier(&buf)

		n.DuplicateLost("Peak Time", "spotify:track:x", errors.New("insert rejected"))

		out := buf.String()
		if !strings.Contains(out, "NOT restored") || !strings.Contains(out, "insert rejected") {
			t.Errorf("expected explicit loss message, got %q", out)
		}
	})

	t.Run("SyncSummary", func(t *testing.T) {
		var buf bytes.Buffer
		n := NewConsoleNotifier(&buf)

		n.SyncSummary("Peak Time", 2, 1, 3)

		out := buf.String()
		for _, fragment := range []string{"2 added", "1 removed", "3 duplicates"} {
			if !strings.Contains(out, fragment) {
				t.Errorf("expected %q in summary, got %q", fragment, out)
			}
		}
	})

	t.Run("LocalFileNeedsManualAdd", func(t *testing.T) {
		var buf bytes.Buffer
		n := NewConsoleNotifier(&buf)

		n.LocalFileNeedsManualAdd("Peak Time", "spotify:local:A:B:C:10")

		if !strings.Contains(buf.String(), "manually") {
			t.Errorf("expected manual-add hint, got %q", buf.String())
		}
	})
}
