package ingestion

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Badar25/Journal-backend/internal/journal"
	"github.com/Badar25/Journal-backend/internal/result"
	"github.com/Badar25/Journal-backend/internal/service"
)

// fakeCreator validates like the service and records accepted drafts.
type fakeCreator struct {
	drafts []journal.Draft
	owners []string
	failAt int // 1-based call that fails with SAVE_ERROR; 0 never
	calls  int
}

func (f *fakeCreator) Create(_ context.Context, owner string, d journal.Draft) result.Result[service.Created] {
	f.calls++
	if f.calls == f.failAt {
		return result.Err[service.Created](result.KindSaveError, "save failed")
	}
	if v := journal.ValidateCreate(d); !v.IsOk() {
		return result.Fail[service.Created](v)
	}
	f.drafts = append(f.drafts, d)
	f.owners = append(f.owners, owner)
	return result.Ok(service.Created{ID: fmt.Sprintf("entry-%d", len(f.drafts))})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDecode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		in    string
		want  int
		isErr bool
	}{
		{"empty", "  \n", 0, false},
		{"array", `[{"title":"a"},{"content":"b"}]`, 2, false},
		{"jsonl", "{\"title\":\"a\"}\n{\"title\":\"b\"}\n{\"content\":\"c\"}\n", 3, false},
		{"unknown fields ignored", `{"title":"a","mood":"ok"}`, 1, false},
		{"broken", `{"title":`, 0, true},
		{"broken array", `[{"title":"a"},`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Decode(strings.NewReader(tt.in))
			if (err != nil) != tt.isErr {
				t.Fatalf("err = %v, want error %v", err, tt.isErr)
			}
			if len(got) != tt.want {
				t.Errorf("got %d records, want %d", len(got), tt.want)
			}
		})
	}
}

func TestImport_FileSkipsInvalid(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "entries.jsonl",
		`{"title":"Gym","content":"Leg day"}`+"\n"+
			`{"title":"","content":"   "}`+"\n"+
			`{"title":"`+strings.Repeat("t", journal.MaxTitleLength+1)+`"}`+"\n"+
			`{"content":"Read a book"}`+"\n")

	fc := &fakeCreator{}
	p, err := NewPipeline(fc, nil)
	if err != nil {
		t.Fatal(err)
	}

	var msgs []string
	rep, err := p.Import(context.Background(), "u1", []Source{{Location: path}}, func(m string) { msgs = append(msgs, m) })
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if rep.Imported != 2 || rep.Skipped != 2 {
		t.Errorf("report = %+v, want 2 imported 2 skipped", rep)
	}
	if len(rep.IDs) != 2 || rep.IDs[0] != "entry-1" {
		t.Errorf("ids = %v", rep.IDs)
	}
	for _, o := range fc.owners {
		if o != "u1" {
			t.Errorf("owner = %q", o)
		}
	}
	if len(msgs) != 3 {
		t.Errorf("progress messages = %v", msgs)
	}
}

func TestImport_SplitsLongContent(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("word ", 450) // 2250 code points
	path := writeFile(t, "long.json", `[{"title":"Trip","content":"`+long+`"}]`)

	fc := &fakeCreator{}
	p, _ := NewPipeline(fc, nil)
	rep, err := p.Import(context.Background(), "u1", []Source{{Location: path}}, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if rep.Imported != 3 {
		t.Fatalf("imported %d, want 3", rep.Imported)
	}
	if fc.drafts[0].Title != "Trip (1/3)" || fc.drafts[2].Title != "Trip (3/3)" {
		t.Errorf("titles = %q, %q", fc.drafts[0].Title, fc.drafts[2].Title)
	}

	fc = &fakeCreator{}
	p, _ = NewPipeline(fc, &Config{NoSplit: true})
	rep, err = p.Import(context.Background(), "u1", []Source{{Location: path}}, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if rep.Imported != 0 || rep.Skipped != 1 {
		t.Errorf("no-split report = %+v", rep)
	}
}

func TestImport_URL(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/export.jsonl" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"title":"Remote"}` + "\n"))
	}))
	defer srv.Close()

	fc := &fakeCreator{}
	p, _ := NewPipeline(fc, nil)
	rep, err := p.Import(context.Background(), "u1", []Source{{Location: srv.URL + "/export.jsonl"}}, nil)
	if err != nil || rep.Imported != 1 {
		t.Fatalf("Import = %+v, %v", rep, err)
	}

	if _, err := p.Import(context.Background(), "u1", []Source{{Location: srv.URL + "/missing"}}, nil); err == nil {
		t.Error("expected error for 404 source")
	}
}

func TestImport_StopsOnUpstreamFailure(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "e.jsonl", "{\"title\":\"a\"}\n{\"title\":\"b\"}\n{\"title\":\"c\"}\n")

	fc := &fakeCreator{failAt: 2}
	p, _ := NewPipeline(fc, nil)
	rep, err := p.Import(context.Background(), "u1", []Source{{Location: path}}, nil)
	if err == nil || !strings.Contains(err.Error(), "record 2") {
		t.Fatalf("err = %v", err)
	}
	if rep.Imported != 1 {
		t.Errorf("partial report = %+v", rep)
	}
}

func TestImport_Guards(t *testing.T) {
	t.Parallel()
	if _, err := NewPipeline(nil, nil); err == nil {
		t.Error("nil creator must fail")
	}
	p, _ := NewPipeline(&fakeCreator{}, nil)
	if _, err := p.Import(context.Background(), " ", nil, nil); err == nil {
		t.Error("blank owner must fail")
	}
	if _, err := p.Import(context.Background(), "u1", []Source{{Location: "/nonexistent/file.jsonl"}}, nil); err == nil {
		t.Error("missing file must fail")
	}
}
