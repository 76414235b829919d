package offerletter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"recruit-backend/internal/shared/storage/object/local"
)

// onePagePDF builds a minimal single page PDF with a correct xref table.
func onePagePDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] >>",
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

type fakeRenderer struct {
	out  []byte
	err  error
	html string
}

func (f *fakeRenderer) RenderPDF(_ context.Context, html []byte) ([]byte, error) {
	f.html = string(html)
	return f.out, f.err
}

func letter() LetterContext {
	return LetterContext{
		OfferID:       "offer-1",
		CompanyID:     "co-1",
		CompanyName:   "Acme <Labs>",
		CandidateName: "Jane Doe",
		JobTitle:      "Backend Engineer",
		BaseSalary:    1234567,
		Currency:      "usd",
		StartDate:     time.Date(2030, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestGenerateStoresValidatedPDF(t *testing.T) {
	ctx := context.Background()
	store := local.New(t.TempDir(), "https://files.example.com")
	renderer := &fakeRenderer{out: onePagePDF()}
	gen := NewPDFGenerator(renderer, store)

	got, err := gen.Generate(ctx, letter())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(got.Key, "offers/") || !strings.HasSuffix(got.Key, "/offer-1_Jane_Doe.pdf") {
		t.Fatalf("unexpected key %q", got.Key)
	}
	if got.URL != "https://files.example.com/"+got.Key {
		t.Fatalf("unexpected url %q", got.URL)
	}
	if !strings.Contains(renderer.html, "USD 1,234,567") || !strings.Contains(renderer.html, "April 1, 2030") {
		t.Fatalf("letter missing terms: %s", renderer.html)
	}
	if !strings.Contains(renderer.html, "Acme &lt;Labs&gt;") {
		t.Fatalf("company name must be escaped")
	}

	rc, err := store.Open(ctx, got.Key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if !bytes.Equal(data, renderer.out) {
		t.Fatalf("stored bytes differ from rendered pdf")
	}

	if err := gen.Remove(ctx, got.Key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := store.Open(ctx, got.Key); err == nil {
		t.Fatalf("expected letter to be removed")
	}
}

func TestGenerateRejectsInvalidPDF(t *testing.T) {
	dir := t.TempDir()
	gen := NewPDFGenerator(&fakeRenderer{out: []byte("<html>not a pdf</html>")}, local.New(dir, ""))

	if _, err := gen.Generate(context.Background(), letter()); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected invalid document, got %v", err)
	}
}

func TestGenerateWrapsRendererFailure(t *testing.T) {
	boom := errors.New("chromium missing")
	gen := NewPDFGenerator(&fakeRenderer{err: boom}, local.New(t.TempDir(), ""))

	if _, err := gen.Generate(context.Background(), letter()); !errors.Is(err, boom) {
		t.Fatalf("expected renderer error, got %v", err)
	}
}

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		amount   int64
		currency string
		want     string
	}{
		{0, "eur", "EUR 0"},
		{999, "USD", "USD 999"},
		{1000, "USD", "USD 1,000"},
		{120000, "gbp", "GBP 120,000"},
		{-5000, "USD", "USD -5,000"},
	}
	for _, tc := range cases {
		if got := formatMoney(tc.amount, tc.currency); got != tc.want {
			t.Fatalf("formatMoney(%d, %q) = %q, want %q", tc.amount, tc.currency, got, tc.want)
		}
	}
}

func TestStorageKeyWithoutCandidateName(t *testing.T) {
	lc := letter()
	lc.CandidateName = ""
	key := StorageKey(lc)
	if !strings.HasSuffix(key, "/offer-1.pdf") {
		t.Fatalf("unexpected key %q", key)
	}
	if key != StorageKey(lc) {
		t.Fatalf("key must be stable")
	}
}
