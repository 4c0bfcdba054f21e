package pipeline

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"subsrename/internal"
	"subsrename/internal/protocol"
	"subsrename/internal/util"
)

type DetectResult struct {
	Shape  internal.Shape
	Reason string

	// Lines holds the URI lines of a URI-list input, in file order.
	Lines []string
	// Skipped counts non-URI lines discarded from a decoded or HTML input.
	Skipped int

	// Proxies is the `proxies` sequence of a structured document.
	Proxies *yaml.Node
}

var (
	reEmbeddedURI = regexp.MustCompile(`(?i)\b(?:ss|vmess|vless|trojan|hysteria2|hy2|tuic)://[^\s"'<>]+`)
	reHTMLMarker  = regexp.MustCompile(`(?i)<(?:!doctype html|html|body|pre|a\s)`)
	utf8BOM       = []byte("\xef\xbb\xbf")
)

type Detector struct {
	HTML bool
}

// Detect classifies raw file content. Decoding problems are never returned:
// a failed decode only means the next check is tried.
func (d Detector) Detect(content []byte) DetectResult {
	text := string(bytes.TrimPrefix(content, utf8BOM))
	lines := util.SplitLines(text)
	if len(lines) == 0 {
		return DetectResult{Shape: internal.ShapeNotNodeFile, Reason: "empty"}
	}

	if lo.EveryBy(lines, protocol.IsNodeURI) {
		return DetectResult{Shape: internal.ShapeURIList, Reason: "uri_lines", Lines: lines}
	}

	if proxies := findProxies(text); proxies != nil {
		return DetectResult{Shape: internal.ShapeStructured, Reason: "structured", Proxies: proxies}
	}

	if util.LooksLikeBase64(text) {
		if decoded, err := util.DecodeBase64(text); err == nil {
			all := util.SplitLines(string(decoded))
			uris := lo.Filter(all, func(l string, _ int) bool { return protocol.IsNodeURI(l) })
			if len(uris) > 0 {
				return DetectResult{Shape: internal.ShapeURIList, Reason: "base64", Lines: uris, Skipped: len(all) - len(uris)}
			}
		}
	}

	if d.HTML && reHTMLMarker.MatchString(text) {
		if uris := extractHTMLURIs(text); len(uris) > 0 {
			return DetectResult{Shape: internal.ShapeURIList, Reason: "html", Lines: uris}
		}
	}

	return DetectResult{Shape: internal.ShapeNotNodeFile, Reason: "unrecognized"}
}

// findProxies returns the sequence under a top-level `proxies` key, or nil.
func findProxies(text string) *yaml.Node {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "proxies" && root.Content[i+1].Kind == yaml.SequenceNode {
			return root.Content[i+1]
		}
	}
	return nil
}

// extractHTMLURIs collects node URIs from link targets and text of a saved
// subscription page.
func extractHTMLURIs(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	found := []string{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if protocol.IsNodeURI(href) {
			found = append(found, strings.TrimSpace(href))
		}
	})
	doc.Find("pre, code, textarea, body").Each(func(_ int, s *goquery.Selection) {
		found = append(found, reEmbeddedURI.FindAllString(s.Text(), -1)...)
	})
	return lo.Uniq(found)
}
