package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"cratesync/internal/models"
	"cratesync/internal/shared"
	tu "cratesync/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{Logger: logger, Output: output})

			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected stdout as default output")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("pretty output", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"tracks": 3}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			got := output.String()
			if !strings.Contains(got, "\"tracks\": 3") {
				t.Errorf("expected indented JSON, got %q", got)
			}
			if !strings.HasSuffix(got, "\n") {
				t.Error("expected trailing newline")
			}
		})

		t.Run("compact output", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"tracks": 3}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := strings.TrimSpace(output.String()); got != `{"tracks":3}` {
				t.Errorf("expected compact JSON, got %q", got)
			}
		})

		t.Run("write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writeJSON("x", false); err == nil {
				t.Error("expected error from failing writer")
			}
		})

		t.Run("unmarshalable value", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			if err := runner.writeJSON(func() {}, false); err == nil {
				t.Error("expected error for unmarshalable value")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("synced %d tracks\n", 4); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := output.String(); got != "synced 4 tracks\n" {
			t.Errorf("unexpected output %q", got)
		}

		runner = NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := runner.writePlain("x"); err == nil {
			t.Error("expected error from failing writer")
		}
	})
}

func TestParseTagRef(t *testing.T) {
	t.Run("Valid Reference", func(t *testing.T) {
		ref, err := parseTagRef("genre:electronic:house")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := models.TagReference{CategoryID: "genre", SubcategoryID: "electronic", TagID: "house"}
		if ref != want {
			t.Errorf("expected %+v, got %+v", want, ref)
		}
	})

	t.Run("Invalid References", func(t *testing.T) {
		for _, input := range []string{"", "genre", "genre:electronic", "genre::house", "a:b:c:d"} {
			if _, err := parseTagRef(input); err == nil {
				t.Errorf("expected error for %q", input)
			}
		}
	})
}
