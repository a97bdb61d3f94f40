package digest

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// nameHashLen is the number of hex digits kept from a filename hash.
const nameHashLen = 20

// StripHTML returns the text content of a field value. Image tags are
// replaced by their source filename surrounded by spaces, so two fields that
// differ only in the picture they show still strip to different strings.
func StripHTML(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0 // depth inside <script> or <style>

	for {
		switch z.Next() {
		case html.ErrorToken:
			// Reading from a string, the only error is io.EOF.
			return b.String()
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "script", "style":
				if tok.Type == html.StartTagToken {
					skip++
				}
			case "img":
				for _, attr := range tok.Attr {
					if attr.Key == "src" {
						b.WriteString(" " + attr.Val + " ")
					}
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if (string(name) == "script" || string(name) == "style") && skip > 0 {
				skip--
			}
		}
	}
}

// Checksum computes the notes.csum value for a sort field: the first eight
// hex digits of the SHA-1 of the stripped text, read as an integer.
func Checksum(sortField string) int64 {
	sum := sha1.Sum([]byte(StripHTML(sortField)))
	n, _ := strconv.ParseInt(hex.EncodeToString(sum[:])[:8], 16, 64)
	return n
}

// NameHash derives a stable, filename-safe token from an original filename.
func NameHash(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:])[:nameHashLen]
}
