// Package protocol parses proxy connection URIs into node records.
//
// Every supported scheme has exactly one parser; a line whose scheme is not in
// the table is unparsable rather than handled by a generic fallback.
package protocol

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"subsrename/internal"
	"subsrename/internal/region"
	"subsrename/internal/util"
)

type parseFunc func(body string) (internal.Node, error)

var parsers = map[string]parseFunc{
	"ss":        parseSS,
	"vmess":     parseVMess,
	"vless":     parseVLESS,
	"trojan":    parseTrojan,
	"hysteria2": parseHysteria2,
	"hy2":       parseHysteria2,
	"tuic":      parseTUIC,
}

var reNodeURI = regexp.MustCompile(`(?i)^(ss|vmess|vless|trojan|hysteria2|hy2|tuic)://`)

// Scheme returns the lower-cased scheme of a supported node URI.
func Scheme(line string) (string, bool) {
	m := reNodeURI.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

func IsNodeURI(line string) bool {
	_, ok := Scheme(line)
	return ok
}

// Parser turns URI lines into nodes with normalized labels and inferred regions.
type Parser struct {
	labels *util.LabelNormalizer
}

func NewParser(labels *util.LabelNormalizer) *Parser {
	if labels == nil {
		labels = util.NewLabelNormalizer(util.DefaultNoiseTokens)
	}
	return &Parser{labels: labels}
}

func (p *Parser) Parse(line string) (internal.Node, error) {
	raw := strings.TrimSpace(line)
	scheme, ok := Scheme(raw)
	if !ok {
		return internal.Node{}, fmt.Errorf("%w: %.32q", internal.ErrUnsupportedScheme, raw)
	}
	parse := parsers[scheme]

	node, err := parse(raw[len(scheme)+3:])
	if err != nil {
		return internal.Node{}, fmt.Errorf("%s: %w", scheme, err)
	}
	node.Raw = raw

	label := p.labels.Normalize(node.Label)
	match := region.Extract(label)
	node.Flag, node.Region = match.Flag, match.Region
	node.Label = label
	if node.Label == "" {
		node.Label = fmt.Sprintf("%s-%s", node.Type, hostPortString(node))
	}
	return node, nil
}

// cutFragment splits off the URI fragment and percent-decodes it once.
func cutFragment(body string) (string, string) {
	rest, frag, found := strings.Cut(body, "#")
	if !found {
		return body, ""
	}
	return rest, decodeLabel(frag)
}

func decodeLabel(frag string) string {
	decoded, err := url.PathUnescape(frag)
	if err != nil {
		return frag
	}
	return decoded
}

func fieldError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", internal.ErrFieldExtraction, fmt.Sprintf(format, args...))
}

// splitHostPort accepts "host", "host:port" and "[v6]:port".
func splitHostPort(hostport string) (string, *int, error) {
	hostport = strings.TrimSuffix(strings.TrimSpace(hostport), "/")
	if hostport == "" {
		return "", nil, fieldError("missing host")
	}
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		// no port, or a bare IPv6 literal
		host = strings.Trim(hostport, "[]")
		portStr = ""
	}
	if host == "" {
		return "", nil, fieldError("missing host")
	}
	port, err := parsePort(portStr)
	if err != nil {
		return "", nil, err
	}
	return host, port, nil
}

func parsePort(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return nil, fieldError("invalid port %q", s)
	}
	return &n, nil
}

func hostPortString(n internal.Node) string {
	if n.Port == nil {
		return n.Server
	}
	return net.JoinHostPort(n.Server, strconv.Itoa(*n.Port))
}

func flattenQuery(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[strings.ToLower(k)] = v[0]
		}
	}
	return out
}
