package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/KasumiMercury/primind-tax-reminder/internal/service/importer"
)

type fakeImporter struct {
	got    string
	result *importer.Result
	err    error
}

func (f *fakeImporter) Import(_ context.Context, r io.Reader) (*importer.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.got = string(data)
	return f.result, f.err
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vencimientos.xlsx")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestImportFile_PrintsResult(t *testing.T) {
	imp := &fakeImporter{result: &importer.Result{
		Imported: 3,
		Failed:   []importer.RowError{{Row: 7, Reason: "missing NIT"}},
	}}
	path := writeTempFile(t, "workbook")

	var out bytes.Buffer
	if err := importFile(context.Background(), imp, path, &out); err != nil {
		t.Fatalf("importFile() error = %v", err)
	}
	if imp.got != "workbook" {
		t.Errorf("importer received %q", imp.got)
	}

	var body map[string]any
	if err := json.Unmarshal(out.Bytes(), &body); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if body["message"] != "imported 3 obligations, 1 rows failed" {
		t.Errorf("message = %v", body["message"])
	}
	if body["imported"] != float64(3) {
		t.Errorf("imported = %v", body["imported"])
	}
}

func TestImportFile_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		imp := &fakeImporter{}
		err := importFile(context.Background(), imp, filepath.Join(t.TempDir(), "nope.xlsx"), io.Discard)
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected ErrNotExist, got %v", err)
		}
	})

	t.Run("importer error", func(t *testing.T) {
		imp := &fakeImporter{err: importer.ErrMissingColumns}
		err := importFile(context.Background(), imp, writeTempFile(t, "x"), io.Discard)
		if !errors.Is(err, importer.ErrMissingColumns) {
			t.Errorf("expected ErrMissingColumns, got %v", err)
		}
	})
}

func TestImportCmd_RequiresFileArgument(t *testing.T) {
	cmd := newImportCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	if err := cmd.Execute(); err == nil {
		t.Error("expected error without a file argument")
	}
}
