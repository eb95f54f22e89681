package forms

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultReceiptLimit bounds an inlined receipt image.
const DefaultReceiptLimit int64 = 2 << 20

var (
	ErrReceiptTooLarge = errors.New("receipt image is too large")
	ErrReceiptNotImage = errors.New("receipt is not an image")
	ErrReceiptEmpty    = errors.New("receipt is empty")
)

// EncodeReceipt reads an image and returns it as a base64 data URI.
func EncodeReceipt(r io.Reader, limit int64) (string, error) {
	if limit <= 0 {
		limit = DefaultReceiptLimit
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("read receipt: %w", err)
	}
	if len(data) == 0 {
		return "", ErrReceiptEmpty
	}
	if int64(len(data)) > limit {
		return "", ErrReceiptTooLarge
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrReceiptNotImage, mt.String())
	}
	return "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// AttachReceipt inlines the receipt into s. Failures are recorded as a
// warning and the submission stays valid without the image.
func (s *Submission) AttachReceipt(r io.Reader, limit int64) {
	uri, err := EncodeReceipt(r, limit)
	if err != nil {
		s.Warnings = append(s.Warnings, "Receipt was not attached: "+err.Error())
		return
	}
	s.Input.ReceiptDataURL = uri
}
