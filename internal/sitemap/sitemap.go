// Package sitemap reads store-location URLs out of a sitemap-protocol XML
// document.
package sitemap

import (
	"encoding/xml"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// ErrParse marks a sitemap document that is not well-formed XML. There is
// nothing to process in that case, so callers treat it as fatal.
var ErrParse = eris.New("sitemap: malformed document")

// Parse extracts the text content of every loc element in document order.
// The element's namespace is not checked, which accepts both the http and
// https variants of the sitemap schema URI.
func Parse(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "sitemap: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	urls := []string{}
	sawElement := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			// Tagless input decodes as bare character data and hits EOF
			// without error; that is not a sitemap.
			if !sawElement {
				return nil, eris.Wrap(ErrParse, "no XML elements found")
			}
			return urls, nil
		}
		if err != nil {
			return nil, eris.Wrap(ErrParse, err.Error())
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawElement = true
		if se.Name.Local != "loc" {
			continue
		}

		var loc string
		if err := decoder.DecodeElement(&loc, &se); err != nil {
			return nil, eris.Wrap(ErrParse, err.Error())
		}
		if loc != "" {
			urls = append(urls, loc)
		}
	}
}

// ReadFile parses the sitemap document at path.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "sitemap: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return Parse(f)
}
