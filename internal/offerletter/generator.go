// Package offerletter renders offer letters to PDF and stores them.
package offerletter

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"

	"recruit-backend/internal/shared/storage/object"
	"recruit-backend/internal/shared/telemetry"
	"recruit-backend/internal/shared/util"
)

const contentTypePDF = "application/pdf"

// ErrInvalidDocument is returned when the renderer output is not a readable PDF.
var ErrInvalidDocument = errors.New("rendered offer letter is not a valid pdf")

// Letter locates a stored offer letter.
type Letter struct {
	URL string
	Key string
}

// Generator produces offer letters.
type Generator interface {
	Generate(ctx context.Context, lc LetterContext) (Letter, error)
	Remove(ctx context.Context, key string) error
}

// PDFGenerator renders the letter template, validates the PDF and saves it.
type PDFGenerator struct {
	Renderer Renderer
	Store    object.ObjectStore
}

// NewPDFGenerator constructs a PDFGenerator.
func NewPDFGenerator(renderer Renderer, store object.ObjectStore) *PDFGenerator {
	return &PDFGenerator{Renderer: renderer, Store: store}
}

// Generate renders and stores the letter for lc.
func (g *PDFGenerator) Generate(ctx context.Context, lc LetterContext) (Letter, error) {
	if g == nil || g.Renderer == nil || g.Store == nil {
		return Letter{}, errors.New("offer letter generator is not configured")
	}
	if lc.OfferID == "" || lc.CompanyID == "" {
		return Letter{}, errors.New("offer letter requires offer and company ids")
	}

	markup, err := RenderHTML(lc)
	if err != nil {
		return Letter{}, err
	}
	doc, err := g.Renderer.RenderPDF(ctx, markup)
	if err != nil {
		return Letter{}, fmt.Errorf("render offer letter pdf: %w", err)
	}
	if err := validatePDF(doc); err != nil {
		return Letter{}, err
	}

	key := StorageKey(lc)
	if _, err := g.Store.SaveWithKey(ctx, key, contentTypePDF, bytes.NewReader(doc)); err != nil {
		return Letter{}, fmt.Errorf("save offer letter: %w", err)
	}
	url, err := g.Store.URL(ctx, key)
	if err != nil {
		_ = g.Remove(ctx, key)
		return Letter{}, fmt.Errorf("offer letter url: %w", err)
	}

	telemetry.Info("offerletter.generated", map[string]any{
		"offer_id": lc.OfferID,
		"key":      key,
		"bytes":    len(doc),
	})
	return Letter{URL: url, Key: key}, nil
}

// Remove deletes a stored letter. Empty keys are ignored.
func (g *PDFGenerator) Remove(ctx context.Context, key string) error {
	if key == "" || g == nil || g.Store == nil {
		return nil
	}
	if err := g.Store.Delete(ctx, key); err != nil {
		telemetry.Warn("offerletter.remove_failed", map[string]any{"key": key, "error": err.Error()})
		return err
	}
	return nil
}

// StorageKey is the object key for lc's letter: offers/<company hash>/<offer id>[_<candidate>].pdf.
func StorageKey(lc LetterContext) string {
	name := lc.OfferID
	if safe, err := util.SanitizeFileName(lc.CandidateName); err == nil {
		name += "_" + safe
	}
	return "offers/" + util.HashKey(lc.CompanyID)[:16] + "/" + name + ".pdf"
}

// validatePDF parses doc and checks it has at least one page. The pdf reader
// panics on some malformed input, so panics are reported as invalid documents.
func validatePDF(doc []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidDocument, rec)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if r.NumPage() < 1 {
		return fmt.Errorf("%w: no pages", ErrInvalidDocument)
	}
	return nil
}

var _ Generator = (*PDFGenerator)(nil)
