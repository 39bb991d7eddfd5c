// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package renderer_test

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mdhender/richtext"
	"github.com/mdhender/richtext/renderer"
)

var updateGolden = flag.Bool("update-golden", false, "update golden files")

const testdataPath = "testdata"

func loadDocument(t *testing.T, name string) *richtext.Document {
	t.Helper()
	fd, err := os.Open(filepath.Join(testdataPath, name))
	if err != nil {
		t.Fatalf("open %s: %v", name, err)
	}
	defer fd.Close()
	doc, err := richtext.DecodeDocument(fd)
	if err != nil {
		t.Fatalf("decode %s: %v", name, err)
	}
	return doc
}

// TestRender_Golden renders every fixture with the default renderers.
func TestRender_Golden(t *testing.T) {
	testCases := []string{
		"empty",
		"paragraph",
		"heading",
		"hr",
		"marks",
		"multi-mark",
		"invalid-marks",
		"invalid-type",
		"quote",
		"ol",
		"ul",
		"table",
		"table-header",
		"hyperlink",
		"embedded-entry",
		"inline-entities",
	}

	r, err := renderer.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, name := range testCases {
		t.Run(name, func(t *testing.T) {
			doc := loadDocument(t, name+".json")
			goldenPath := filepath.Join(testdataPath, name+".golden.html")

			got, err := r.RenderString(context.Background(), doc)
			if err != nil {
				t.Fatalf("RenderString: %v", err)
			}

			if *updateGolden {
				if err := os.WriteFile(goldenPath, []byte(got+"\n"), 0644); err != nil {
					t.Fatalf("failed to update golden file: %v", err)
				}
				t.Logf("updated golden file: %s", goldenPath)
				return
			}

			want, err := os.ReadFile(goldenPath)
			if err != nil {
				t.Fatalf("read golden file: %v", err)
			}
			if got != strings.TrimSpace(string(want)) {
				t.Errorf("render mismatch\n got: %s\nwant: %s", got, strings.TrimSpace(string(want)))
			}
		})
	}
}
