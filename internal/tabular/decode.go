// Package tabular turns the raw bytes of an exported ledger file into a
// table of string cells.
//
// Decoding prefers UTF-8 and falls back to Windows-1252 when the bytes are
// not valid UTF-8 or the start of the file already holds U+FFFD, which is the common case for files saved by desktop
// spreadsheet tools in French locales. Files that were decoded as
// Windows-1252 and re-saved as UTF-8 ("DÃ©bit") are repaired.
//
// Splitting is line-first: a record never spans lines, and quoted fields
// may contain the delimiter but not a line break.
package tabular

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
)

// Encoding names reported in Decoded.Encoding.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
	EncodingRepaired    = "utf-8 (repaired)"
)

// DefaultSniffBytes is how much of the file is inspected for mis-decoded
// fragments.
const DefaultSniffBytes = 4096

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// acceptedExtensions lists the file extensions treated as delimited text.
// A missing extension is accepted so that piped input works.
var acceptedExtensions = map[string]bool{
	".csv": true,
	".txt": true,
	"":     true,
}

// binarySignatures are magic prefixes of formats that are never delimited text.
var binarySignatures = []struct {
	name  string
	magic []byte
}{
	{"zip/xlsx", []byte("PK\x03\x04")},
	{"ole2/xls", []byte{0xD0, 0xCF, 0x11, 0xE0}},
	{"pdf", []byte("%PDF")},
}

// mojibakeFragments are UTF-8 renderings of Windows-1252 decoded French text.
var mojibakeFragments = []string{
	"Ã©", "Ã¨", "Ãª", "Ã«", "Ã\u00a0", "Ã¢", "Ã§", "Ã´", "Ã¹", "Ã»", "Ã®", "Ã¯",
	"Ã‰", "Ãˆ", "â‚¬", "Â°", "Â\u00a0",
}

// Decoded is the text of a file and the encoding it was read with.
type Decoded struct {
	Text     string
	Encoding string
}

// Decoder converts file bytes to text.
type Decoder struct {
	// SniffBytes bounds the prefix inspected for mojibake. Zero means
	// DefaultSniffBytes.
	SniffBytes int
}

// Decode decodes data with the default Decoder.
func Decode(data []byte, filename string) (Decoded, error) {
	return Decoder{}.Decode(data, filename)
}

// Decode validates the file type and returns its text content.
func (d Decoder) Decode(data []byte, filename string) (Decoded, error) {
	if err := checkFormat(data, filename); err != nil {
		return Decoded{}, err
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return Decoded{}, ledger.ErrEmptyFile
	}

	if utf8.Valid(data) {
		text := string(data)
		head := sample(text, d.sniffBytes())
		if !strings.ContainsRune(head, utf8.RuneError) {
			if hasMojibake(head) {
				if repaired, ok := repairMojibake(text); ok {
					return Decoded{Text: repaired, Encoding: EncodingRepaired}, nil
				}
			}
			return Decoded{Text: text, Encoding: EncodingUTF8}, nil
		}
	}

	text, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return Decoded{}, fmt.Errorf("%w: decode windows-1252: %v", ledger.ErrUnsupportedFormat, err)
	}
	return Decoded{Text: string(text), Encoding: EncodingWindows1252}, nil
}

func (d Decoder) sniffBytes() int {
	if d.SniffBytes <= 0 {
		return DefaultSniffBytes
	}
	return d.SniffBytes
}

// checkFormat rejects files that are not delimited text, by extension and by
// content.
func checkFormat(data []byte, filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !acceptedExtensions[ext] {
		return fmt.Errorf("%w: extension %q", ledger.ErrUnsupportedFormat, ext)
	}

	for _, sig := range binarySignatures {
		if bytes.HasPrefix(data, sig.magic) {
			return fmt.Errorf("%w: %s content", ledger.ErrUnsupportedFormat, sig.name)
		}
	}

	head := data
	if len(head) > DefaultSniffBytes {
		head = head[:DefaultSniffBytes]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return fmt.Errorf("%w: binary content", ledger.ErrUnsupportedFormat)
	}

	return nil
}

// sample returns at most n bytes of s without splitting a rune.
func sample(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func hasMojibake(s string) bool {
	for _, frag := range mojibakeFragments {
		if strings.Contains(s, frag) {
			return true
		}
	}
	return false
}

// repairMojibake reverses a Windows-1252 mis-decode. It reports false when
// the text cannot be mapped back or the result is not valid UTF-8, in which
// case the original text should be kept.
func repairMojibake(s string) (string, bool) {
	raw, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil {
		return "", false
	}
	if !utf8.ValidString(raw) {
		return "", false
	}
	return raw, true
}
