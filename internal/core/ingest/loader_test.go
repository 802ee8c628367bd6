package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeKBFile(t *testing.T, root string, rel string, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDocuments_CategoriesFromPath(t *testing.T) {
	root := t.TempDir()
	writeKBFile(t, root, "paper/attention.txt", "Attention is all you need.")
	writeKBFile(t, root, "note/ideas.md", "try a smaller batch size")
	writeKBFile(t, root, "loose.txt", "file at the root")

	docs, err := LoadDocuments(context.Background(), root, true)
	if err != nil {
		t.Fatalf("LoadDocuments: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("got %d docs, want 3", len(docs))
	}
	byCat := map[string]string{}
	for _, d := range docs {
		byCat[d.Category()] = d.Content
		src, _ := d.Metadata[MetaSource].(string)
		if src == "" {
			t.Errorf("document missing source: %v", d.Metadata)
		}
	}
	if byCat["paper"] != "Attention is all you need." {
		t.Errorf("paper doc = %q", byCat["paper"])
	}
	if byCat["note"] != "try a smaller batch size" {
		t.Errorf("note doc = %q", byCat["note"])
	}
	if byCat["default"] != "file at the root" {
		t.Errorf("default doc = %q", byCat["default"])
	}
}

func TestLoadDocuments_SkipsUnsupportedAndEmpty(t *testing.T) {
	root := t.TempDir()
	writeKBFile(t, root, "note/empty.txt", "   \n  ")
	writeKBFile(t, root, "note/image.png", "binary")
	writeKBFile(t, root, "note/real.txt", "content")

	docs, err := LoadDocuments(context.Background(), root, true)
	if err != nil {
		t.Fatalf("LoadDocuments: %v", err)
	}
	if len(docs) != 1 || docs[0].Content != "content" {
		t.Fatalf("got %+v, want only the non-empty supported file", docs)
	}
}

func TestLoadDocuments_StrictFailsOnBrokenFile(t *testing.T) {
	root := t.TempDir()
	writeKBFile(t, root, "paper/broken.pdf", "this is not a pdf")

	if _, err := LoadDocuments(context.Background(), root, true); err == nil {
		t.Fatal("expected error in strict mode")
	}
}

func TestLoadDocuments_LenientSkipsBrokenFile(t *testing.T) {
	root := t.TempDir()
	writeKBFile(t, root, "paper/broken.pdf", "this is not a pdf")
	writeKBFile(t, root, "paper/fine.txt", "survives the broken neighbor")

	docs, err := LoadDocuments(context.Background(), root, false)
	if err != nil {
		t.Fatalf("LoadDocuments: %v", err)
	}
	if len(docs) != 1 || docs[0].Content != "survives the broken neighbor" {
		t.Fatalf("got %+v, want the readable file only", docs)
	}
}

func TestLoadDocuments_MissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "absent")

	docs, err := LoadDocuments(context.Background(), root, false)
	if err != nil {
		t.Fatalf("non-strict load should skip an unreadable root, got %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("got %+v, want no documents", docs)
	}

	if _, err := LoadDocuments(context.Background(), root, true); err == nil {
		t.Fatal("strict load should fail on an unreadable root")
	}
}

func TestLoadDocuments_CSVRows(t *testing.T) {
	root := t.TempDir()
	writeKBFile(t, root, "dataset/runs.csv", "run,accuracy\nbaseline,0.81\nlarge,0.87\n")

	docs, err := LoadDocuments(context.Background(), root, true)
	if err != nil {
		t.Fatalf("LoadDocuments: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want one per data row", len(docs))
	}
	if docs[0].Content != "run: baseline\naccuracy: 0.81" {
		t.Errorf("row 1 = %q", docs[0].Content)
	}
	if docs[0].Metadata[MetaPage] != 1 || docs[1].Metadata[MetaPage] != 2 {
		t.Errorf("row numbers = %v, %v", docs[0].Metadata[MetaPage], docs[1].Metadata[MetaPage])
	}
	if docs[1].Category() != "dataset" {
		t.Errorf("category = %q, want dataset", docs[1].Category())
	}
}
