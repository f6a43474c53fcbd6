package internal

import (
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/htmlindex"
)

// DecodeStrategy reports which step of the decoding chain produced the
// text, for observability of ingestion quality.
type DecodeStrategy string

const (
	DecodeUTF8     DecodeStrategy = "utf-8"
	DecodeDetected DecodeStrategy = "detected"
	DecodeLossy    DecodeStrategy = "lossy"
)

// DecodeText turns raw bytes into a UTF-8 string: strict UTF-8 first,
// then a best-guess detected encoding, then lossy UTF-8 as last resort.
func DecodeText(raw []byte) (string, DecodeStrategy) {
	if utf8.Valid(raw) {
		return string(raw), DecodeUTF8
	}

	detector := chardet.NewTextDetector()
	if result, err := detector.DetectBest(raw); err == nil && result != nil {
		if enc, err := htmlindex.Get(strings.ToLower(result.Charset)); err == nil {
			if decoded, err := enc.NewDecoder().Bytes(raw); err == nil && utf8.Valid(decoded) {
				return string(decoded), DecodeDetected
			}
		}
	}

	return strings.ToValidUTF8(string(raw), ""), DecodeLossy
}
