package report

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/finbrief/daily-brief/internal/images"
)

const (
	maxImageBytes = 5 << 20
	imageWidthMM  = 160.0
)

// Renderer lays out an artifact as a PDF document. Images are fetched
// over HTTP; a failed or undecodable image is skipped, never fatal.
type Renderer struct {
	fontFile   string
	httpClient *http.Client
}

// NewRenderer creates a PDF renderer. fontFile is an optional UTF-8 TTF
// used for non-latin scripts; without it the core Helvetica font is used
// and unsupported glyphs degrade.
func NewRenderer(fontFile string, timeout time.Duration) *Renderer {
	return &Renderer{
		fontFile: fontFile,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Render produces the document bytes for the artifact. The first image is
// placed after the canonical section, the second after the first
// translated section, mirroring the report layout.
func (r *Renderer) Render(ctx context.Context, artifact *Artifact) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")

	family := "Helvetica"
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	if r.fontFile != "" {
		family = "brief"
		pdf.AddUTF8Font(family, "", r.fontFile)
		pdf.AddUTF8Font(family, "B", r.fontFile)
		translate = func(s string) string { return s }
	}

	pdf.AddPage()
	pdf.SetFont(family, "B", 16)
	pdf.MultiCell(0, 8, translate(artifact.Title), "", "L", false)
	pdf.Ln(4)

	for i, section := range artifact.Sections {
		pdf.SetFont(family, "B", 14)
		pdf.MultiCell(0, 7, translate(section.Heading), "", "L", false)
		pdf.SetFont(family, "", 11)
		pdf.MultiCell(0, 6, translate(section.Summary.Text), "", "L", false)
		pdf.Ln(4)

		// Image i goes after section i, limited to the shared set.
		if i < len(section.Images) && i < 2 {
			r.placeImage(ctx, pdf, section.Images[i], i)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering PDF: %w", err)
	}

	return buf.Bytes(), nil
}

// placeImage fetches and embeds one image, skipping it on any failure.
func (r *Renderer) placeImage(ctx context.Context, pdf *gofpdf.Fpdf, img images.Image, index int) {
	data, imageType, err := r.fetchImage(ctx, img.URL)
	if err != nil {
		log.Printf("report: skipping image %s: %v", img.URL, err)
		return
	}

	name := fmt.Sprintf("section-image-%d", index)
	options := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	pdf.RegisterImageOptionsReader(name, options, bytes.NewReader(data))
	if pdf.Err() {
		log.Printf("report: skipping image %s: %v", img.URL, pdf.Error())
		pdf.ClearError()
		return
	}

	pdf.ImageOptions(name, pdf.GetX(), pdf.GetY(), imageWidthMM, 0, true, options, 0, "")
	pdf.Ln(4)
}

// fetchImage downloads and validates an image, returning its bytes and
// the gofpdf image type.
func (r *Renderer) fetchImage(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("reading image body: %w", err)
	}

	// Decode the header only, to reject payloads gofpdf cannot embed.
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}

	switch strings.ToLower(format) {
	case "png":
		return data, "PNG", nil
	case "jpeg":
		return data, "JPG", nil
	case "gif":
		return data, "GIF", nil
	default:
		return nil, "", fmt.Errorf("unsupported image format: %s", format)
	}
}
