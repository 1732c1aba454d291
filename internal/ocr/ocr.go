// Package ocr extracts printed text from images.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/franz/wayfarer/internal/util"
	"golang.org/x/text/unicode/norm"
)

// Recognizer returns the text found in an image. Failures yield an empty
// string; an image with no text is not an error either.
type Recognizer interface {
	Recognize(ctx context.Context, imageRef string) string
}

// DefaultTimeout bounds a single tesseract run
const DefaultTimeout = 30 * time.Second

// TesseractRecognizer shells out to the tesseract CLI
type TesseractRecognizer struct {
	Binary    string        // defaults to "tesseract"
	Languages string        // passed as -l, e.g. "eng+spa"; empty uses tesseract's default
	Timeout   time.Duration // defaults to DefaultTimeout
}

// NewTesseractRecognizer creates a recognizer for the given binary
func NewTesseractRecognizer(binary, languages string) *TesseractRecognizer {
	return &TesseractRecognizer{Binary: binary, Languages: languages}
}

func (r *TesseractRecognizer) binary() string {
	if r.Binary == "" {
		return "tesseract"
	}
	return r.Binary
}

// Available reports whether the tesseract binary can be found
func (r *TesseractRecognizer) Available() bool {
	_, err := exec.LookPath(r.binary())
	return err == nil
}

// Version returns the first line of `tesseract --version`
func (r *TesseractRecognizer) Version(ctx context.Context) (string, error) {
	if !r.Available() {
		return "", util.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, r.binary(), "--version").CombinedOutput()
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}

// Recognize runs tesseract on the image and returns its text
func (r *TesseractRecognizer) Recognize(ctx context.Context, imageRef string) string {
	path, err := ResolveImageRef(imageRef)
	if err != nil {
		util.WarnLog("OCR: %v", err)
		return ""
	}

	if !r.Available() {
		util.WarnLog("OCR: %s not found in PATH", r.binary())
		return ""
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{path, "stdout"}
	if r.Languages != "" {
		args = append(args, "-l", r.Languages)
	}

	cmd := exec.CommandContext(ctx, r.binary(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			util.WarnLog("OCR: tesseract timed out after %s", timeout)
			return ""
		}
		util.WarnLog("OCR: tesseract failed: %v %s", err, strings.TrimSpace(stderr.String()))
		return ""
	}

	return CleanText(string(output))
}

// ResolveImageRef turns a file path or file:// URI into a readable local path
func ResolveImageRef(imageRef string) (string, error) {
	ref := strings.TrimSpace(imageRef)
	if ref == "" {
		return "", errors.New("empty image reference")
	}

	path := ref
	if strings.Contains(ref, "://") {
		u, err := url.Parse(ref)
		if err != nil {
			return "", err
		}
		if u.Scheme != "file" {
			return "", errors.New("unsupported image scheme " + u.Scheme)
		}
		path = u.Path
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", errors.New(path + " is a directory")
	}
	return path, nil
}

// CleanText NFC-normalizes recognized text, drops form feeds and trailing
// whitespace and collapses runs of blank lines
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\f", "")
	s = strings.ReplaceAll(s, "\r\n", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}

	return norm.NFC.String(strings.TrimSpace(strings.Join(out, "\n")))
}

// StubRecognizer returns canned text per image reference
type StubRecognizer struct {
	Texts   map[string]string
	Default string
}

// Recognize returns the canned text for imageRef, or Default
func (s *StubRecognizer) Recognize(ctx context.Context, imageRef string) string {
	if ctx.Err() != nil {
		return ""
	}
	if text, ok := s.Texts[imageRef]; ok {
		return text
	}
	return s.Default
}
