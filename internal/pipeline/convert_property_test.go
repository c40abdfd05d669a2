package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"xmlrecords/internal/mapping"
	"xmlrecords/internal/merge"
	"xmlrecords/internal/record"
	"xmlrecords/internal/validate"
	"xmlrecords/internal/xmlread"
)

var tagPool = []string{"name", "birth", "email", "city", "note", "year", "phone", "address"}

func genText(t *rapid.T, label string) string {
	return rapid.StringMatching(`([A-Za-z0-9]([A-Za-z0-9@.&<>'" -]{0,8}[A-Za-z0-9])?)?`).Draw(t, label)
}

func genValue(t *rapid.T, tag string) any {
	switch tag {
	case "birth":
		return fmt.Sprintf("%d-%d-%d",
			rapid.IntRange(1850, 2030).Draw(t, "y"),
			rapid.IntRange(1, 12).Draw(t, "m"),
			rapid.IntRange(1, 28).Draw(t, "d"))
	case "phone":
		n := rapid.IntRange(2, 3).Draw(t, "phones")
		out := make([]any, n)
		for i := range out {
			out[i] = genText(t, "phone")
		}

		return out
	case "address":
		addr := record.New()
		addr.Set("city", genText(t, "city"))

		if rapid.Bool().Draw(t, "zip") {
			addr.Set("zip", strconv.Itoa(rapid.IntRange(1000, 9999).Draw(t, "zipcode")))
		}

		return addr
	default:
		return genText(t, tag)
	}
}

// genRecords draws records with a unique id and a random subset of tags.
func genRecords(t *rapid.T) []*record.Record {
	n := rapid.IntRange(0, 8).Draw(t, "records")
	out := make([]*record.Record, n)

	for i := range out {
		rec := record.New()
		rec.Set("id", strconv.Itoa(i))

		tags := rapid.SliceOfDistinct(rapid.SampledFrom(tagPool), rapid.ID[string]).Draw(t, "tags")
		for _, tag := range tags {
			rec.Set(tag, genValue(t, tag))
		}

		out[i] = rec
	}

	return out
}

// genTable maps id and a random subset of the pool to prefixed targets.
func genTable(t *rapid.T) *mapping.Table {
	entries := []mapping.Entry{{Source: "id", Target: "k_id"}}

	for _, tag := range rapid.SliceOfDistinct(rapid.SampledFrom(tagPool), rapid.ID[string]).Draw(t, "mapped") {
		entries = append(entries, mapping.Entry{Source: tag, Target: "k_" + tag})
	}

	table, err := mapping.NewTable(entries)
	if err != nil {
		t.Fatalf("building table: %v", err)
	}

	return table
}

func readXML(t *rapid.T, doc []byte) []*record.Record {
	var out []*record.Record

	for rec, err := range xmlread.NewReader(bytes.NewReader(doc)).Records() {
		if err != nil {
			t.Fatalf("reading xml: %v\n%s", err, doc)
		}

		out = append(out, rec)
	}

	return out
}

func byID(t *rapid.T, recs []*record.Record) map[string]*record.Record {
	out := make(map[string]*record.Record, len(recs))

	for _, rec := range recs {
		id, ok := rec.Get("id")
		if !ok {
			t.Fatalf("record without id: %s", spew.Sdump(rec.Fields()))
		}

		out[id.(string)] = rec
	}

	return out
}

func snapshot(t *rapid.T, dir string) map[string]string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("listing %s: %v", dir, err)
	}

	out := map[string]string{}

	for _, e := range entries {
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatalf("reading %s: %v", e.Name(), err)
		}

		out[e.Name()] = string(b)
	}

	return out
}

// TestConvertMergeRoundTrip checks that merging a converted dataset and
// reading it back yields the source records, and that the dataset
// validates cleanly.
func TestConvertMergeRoundTrip(t *testing.T) {
	base := t.TempDir()

	rapid.Check(t, func(t *rapid.T) {
		recs := genRecords(t)
		table := genTable(t)

		src, err := merge.Encode(recs, "people", "person")
		if err != nil {
			t.Fatalf("encoding source xml: %v", err)
		}

		outDir, err := os.MkdirTemp(base, "out")
		if err != nil {
			t.Fatal(err)
		}

		res, err := NewConverter().ConvertReader(context.Background(), bytes.NewReader(src), Config{
			OutDir: outDir,
			Table:  table,
		})
		if err != nil {
			t.Fatalf("converting: %v", err)
		}

		if res.Records != len(recs) {
			t.Fatalf("converted %d records, want %d", res.Records, len(recs))
		}

		report, err := validate.New(validate.WithFields(table.Targets()...)).ValidateDir(outDir)
		if err != nil {
			t.Fatalf("validating: %v", err)
		}

		if report.HasFailures() {
			t.Fatalf("writer output fails validation:\n%s", report.PrettyPrint())
		}

		merged, _, err := merge.New(table).Merge(outDir)
		if err != nil {
			t.Fatalf("merging: %v", err)
		}

		want := byID(t, readXML(t, src))
		got := byID(t, readXML(t, merged))

		if len(want) != len(got) {
			t.Fatalf("merged %d records, want %d\n%s", len(got), len(want), merged)
		}

		for id, w := range want {
			g, ok := got[id]
			if !ok || !w.Equal(g) {
				t.Fatalf("record %s differs\nwant: %s\ngot:  %s", id, spew.Sdump(w.Fields()), spew.Sdump(g))
			}
		}
	})
}

// TestConvertIdempotent checks that converting the same document twice
// produces byte-identical files.
func TestConvertIdempotent(t *testing.T) {
	base := t.TempDir()

	rapid.Check(t, func(t *rapid.T) {
		recs := genRecords(t)
		table := genTable(t)

		src, err := merge.Encode(recs, "people", "person")
		if err != nil {
			t.Fatalf("encoding source xml: %v", err)
		}

		outDir, err := os.MkdirTemp(base, "out")
		if err != nil {
			t.Fatal(err)
		}

		var runs []map[string]string

		for range 2 {
			if _, err := NewConverter().ConvertReader(context.Background(), bytes.NewReader(src), Config{
				OutDir: outDir,
				Table:  table,
			}); err != nil {
				t.Fatalf("converting: %v", err)
			}

			runs = append(runs, snapshot(t, outDir))
		}

		if diff := cmp.Diff(runs[0], runs[1]); diff != "" {
			t.Fatalf("second run differs (-first +second):\n%s", diff)
		}
	})
}
