package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/envsettings/internal/handler"
	"github.com/eugenenazirov/envsettings/internal/registry"
	"github.com/eugenenazirov/envsettings/internal/table"
)

type recordingHandler struct {
	handler.Base
}

func (r *recordingHandler) Apply(context.Context) error { return nil }

var header = []string{"Type", "P1", "P2", "P3", "DEFAULT", "PROD"}

func newTestLoader(t *testing.T, opts ...Option) *Loader {
	t.Helper()

	catalog := handler.NewCatalog()
	catalog.MustRegister("MailHandler", func() handler.Handler { return &recordingHandler{} })
	catalog.MustRegister("File", func() handler.Handler { return &recordingHandler{} })

	opts = append([]Option{WithLogger(zaptest.NewLogger(t)), WithLookupEnv(lookupFrom(nil))}, opts...)
	return NewLoader(catalog, opts...)
}

type entry struct {
	Type, P1, P2, P3, Value string
}

func entries(reg *registry.Registry) []entry {
	var out []entry
	for h := range reg.All() {
		p1, p2, p3 := h.Params()
		out = append(out, entry{h.Type(), p1, p2, p3, h.Value()})
	}
	return out
}

func TestLoadExpandsParameters(t *testing.T) {
	rows := [][]string{
		header,
		{"MailHandler", "host", "{{a|b}}", "x", "fallback", "prodval"},
	}

	reg, err := newTestLoader(t).Load(table.FromRows(rows), "PROD")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	want := []entry{
		{"MailHandler", "host", "a", "x", "prodval"},
		{"MailHandler", "host", "b", "x", "prodval"},
	}
	if diff := cmp.Diff(want, entries(reg)); diff != "" {
		t.Fatalf("unexpected handlers (-want +got):\n%s", diff)
	}
	if _, ok := reg.Lookup("MailHandler", "host", "b", "x"); !ok {
		t.Fatalf("expected lookup hit for expanded combination")
	}
}

func TestLoadCartesianProductOrder(t *testing.T) {
	rows := [][]string{
		header,
		{"File", "{{1|2}}", "{{a|b}}", "{{x|y}}", "v", ""},
	}

	reg, err := newTestLoader(t).Load(table.FromRows(rows), "PROD")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	var got []string
	for h := range reg.All() {
		p1, p2, p3 := h.Params()
		got = append(got, p1+p2+p3)
	}
	want := []string{"1ax", "1ay", "1bx", "1by", "2ax", "2ay", "2bx", "2by"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	for h := range reg.All() {
		if h.Value() != "v" {
			t.Fatalf("expected fallback value on every combination, got %q", h.Value())
		}
	}
}

func TestLoadSkipsComments(t *testing.T) {
	rows := [][]string{
		header,
		{"#comment", "a", "", "", "x", "y"},
		{"// note", "a", "", "", "x", "y"},
		{"  ", "a", "", "", "x", "y"},
		{""},
		{"File", "a", "", "", "x", ""},
	}

	reg, err := newTestLoader(t).Load(table.FromRows(rows), "PROD")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 handler, got %d", reg.Len())
	}
}

func TestLoadEmptyExpansionProducesNoHandlers(t *testing.T) {
	rows := [][]string{
		header,
		{"File", "a", "{{ }}", "", "x", ""},
		{"File", "b", "", "", "x", ""},
	}

	reg, err := newTestLoader(t).Load(table.FromRows(rows), "PROD")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := []entry{{"File", "b", "", "", "x"}}
	if diff := cmp.Diff(want, entries(reg)); diff != "" {
		t.Fatalf("unexpected handlers (-want +got):\n%s", diff)
	}
}

func TestLoadWithoutDefaultColumn(t *testing.T) {
	rows := [][]string{
		{"Type", "P1", "P2", "P3", "STAGE", "PROD"},
		{"File", "a", "", "", "stage", ""},
	}

	reg, err := newTestLoader(t).Load(table.FromRows(rows), "PROD")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	h, ok := reg.Lookup("File", "a", "", "")
	if !ok || h.Value() != "" {
		t.Fatalf("expected empty value without fallback, got %v", h)
	}
}

func TestLoadCustomDefaultEnvironment(t *testing.T) {
	rows := [][]string{
		{"Type", "P1", "P2", "P3", "BASE", "PROD"},
		{"File", "a", "", "", "base", ""},
	}

	reg, err := newTestLoader(t, WithDefaultEnvironment("BASE")).Load(table.FromRows(rows), "PROD")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if h, _ := reg.Lookup("File", "a", "", ""); h == nil || h.Value() != "base" {
		t.Fatalf("expected fallback from BASE column, got %v", h)
	}
}

func TestLoadReservedDefaultColumnDisablesFallback(t *testing.T) {
	rows := [][]string{
		{"Type", "DEFAULT", "P2", "P3", "PROD"},
		{"File", "a", "", "", ""},
	}

	reg, err := newTestLoader(t).Load(table.FromRows(rows), "PROD")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if h, _ := reg.Lookup("File", "a", "", ""); h == nil || h.Value() != "" {
		t.Fatalf("expected no fallback from reserved column, got %v", h)
	}
}

func TestLoadValueResolvedOncePerRow(t *testing.T) {
	calls := 0
	lookup := func(name string) (string, bool) {
		calls++
		return "v", true
	}
	rows := [][]string{
		header,
		{"File", "{{a|b|c}}", "", "", "###ENV:FOO###", ""},
	}

	reg, err := newTestLoader(t, WithLookupEnv(lookup)).Load(table.FromRows(rows), "PROD")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if reg.Len() != 3 || calls != 1 {
		t.Fatalf("expected 3 handlers from 1 lookup, got %d handlers and %d lookups", reg.Len(), calls)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]string
		env     string
		wantErr error
		wantRow int
		wantMsg string
	}{
		{
			name:    "MissingHeader",
			rows:    nil,
			env:     "PROD",
			wantErr: ErrSourceUnavailable,
			wantRow: 1,
		},
		{
			name:    "BlankHeader",
			rows:    [][]string{{"", " "}},
			env:     "PROD",
			wantErr: ErrSourceUnavailable,
			wantRow: 1,
		},
		{
			name:    "EnvironmentNotFound",
			rows:    [][]string{header, {"Unknown", "", "", "", "", ""}},
			env:     "STAGE",
			wantErr: ErrEnvironmentNotFound,
			wantMsg: "STAGE",
		},
		{
			name:    "EnvironmentCaseSensitive",
			rows:    [][]string{header},
			env:     "prod",
			wantErr: ErrEnvironmentNotFound,
		},
		{
			name:    "EnvironmentInReservedColumn",
			rows:    [][]string{{"Type", "PROD", "P2", "P3", "DEFAULT"}},
			env:     "PROD",
			wantErr: ErrEnvironmentNotFound,
		},
		{
			name:    "UnknownHandlerType",
			rows:    [][]string{header, {"File", "a", "", "", "", ""}, {"Unknown", "a", "", "", "", ""}},
			env:     "PROD",
			wantErr: ErrUnknownHandlerType,
			wantRow: 3,
			wantMsg: "Unknown",
		},
		{
			name:    "DuplicateAcrossRows",
			rows:    [][]string{header, {"File", "a", "", "", "", ""}, {"File", " a ", "", "", "", ""}},
			env:     "PROD",
			wantErr: ErrDuplicateHandler,
			wantRow: 3,
		},
		{
			name:    "DuplicateWithinExpansion",
			rows:    [][]string{header, {"File", "{{a|a}}", "", "", "", ""}},
			env:     "PROD",
			wantErr: ErrDuplicateHandler,
			wantRow: 2,
		},
		{
			name:    "MissingEnvironmentVariable",
			rows:    [][]string{header, {"MailHandler", "host", "", "", "###ENV:FOO###", ""}},
			env:     "PROD",
			wantErr: ErrMissingEnvironmentVariable,
			wantRow: 2,
			wantMsg: "FOO",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reg, err := newTestLoader(t).Load(table.FromRows(tc.rows), tc.env)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if reg != nil {
				t.Fatalf("expected no registry on error")
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if tc.wantRow != 0 && cfgErr.Row != tc.wantRow {
				t.Fatalf("expected row %d, got %d", tc.wantRow, cfgErr.Row)
			}
			if tc.wantMsg != "" && !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("expected %q in error message %q", tc.wantMsg, err.Error())
			}
		})
	}
}

type failingReader struct {
	rows [][]string
	err  error
}

func (f *failingReader) Read() ([]string, error) {
	if len(f.rows) == 0 {
		return nil, f.err
	}
	row := f.rows[0]
	f.rows = f.rows[1:]
	return row, nil
}

func TestLoadPropagatesReadErrors(t *testing.T) {
	boom := errors.New("boom")
	src := &failingReader{rows: [][]string{header, {"File", "a", "", "", "", ""}}, err: boom}

	_, err := newTestLoader(t).Load(src, "PROD")
	if !errors.Is(err, ErrSourceUnavailable) || !errors.Is(err, boom) {
		t.Fatalf("expected ErrSourceUnavailable wrapping the read error, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.csv")
	content := strings.Join([]string{
		"Type,P1,P2,P3,DEFAULT,PROD",
		"# comment row,,,,,",
		`MailHandler,host,"{{a|b}}",x,fallback,prodval`,
		"File,/etc/app.conf,,,--empty--,",
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	reg, err := newTestLoader(t).LoadFile(path, "PROD")
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}

	want := []entry{
		{"MailHandler", "host", "a", "x", "prodval"},
		{"MailHandler", "host", "b", "x", "prodval"},
		{"File", "/etc/app.conf", "", "", ""},
	}
	if diff := cmp.Diff(want, entries(reg)); diff != "" {
		t.Fatalf("unexpected handlers (-want +got):\n%s", diff)
	}
}

func TestLoadFileCustomDelimiter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.csv")
	if err := os.WriteFile(path, []byte("Type;P1;P2;P3;PROD\nFile;a,b;;;v\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	reg, err := newTestLoader(t, WithTableOptions(table.Options{Comma: ';'})).LoadFile(path, "PROD")
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if _, ok := reg.Lookup("File", "a,b", "", ""); !ok {
		t.Fatalf("expected handler for parameter containing a comma")
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := newTestLoader(t).LoadFile(filepath.Join(t.TempDir(), "missing.csv"), "PROD")
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist cause, got %v", err)
	}
}

func TestLoadFileMalformedRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.csv")
	if err := os.WriteFile(path, []byte("Type,P1,P2,P3,PROD\nFile,\"unterminated,,,v\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := newTestLoader(t).LoadFile(path, "PROD"); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestLoadProducesIndependentRegistries(t *testing.T) {
	rows := [][]string{header, {"File", "a", "", "", "v", ""}}
	loader := newTestLoader(t)

	first, err := loader.Load(table.FromRows(rows), "PROD")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	second, err := loader.Load(table.FromRows(rows), "PROD")
	if err != nil {
		t.Fatalf("second Load returned error: %v", err)
	}
	if first == second || first.Len() != 1 || second.Len() != 1 {
		t.Fatalf("expected two independent registries")
	}
}

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Kind: ErrDuplicateHandler, Row: 4, Handler: "File", Detail: "File(a, , )"}
	want := "settings row 4: duplicate handler [File]: File(a, , )"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}
