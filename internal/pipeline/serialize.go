package pipeline

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"

	"subsrename/internal/util"
)

// RenamedURI replaces the fragment of a URI line with the percent-encoded label.
func RenamedURI(raw, label string) string {
	base, _, _ := strings.Cut(raw, "#")
	return base + "#" + escapeFragment(label)
}

// escapeFragment percent-encodes everything outside the unreserved set.
func escapeFragment(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// EncodeURIList joins renamed lines and wraps them as one base64 blob, the
// usual subscription format.
func EncodeURIList(renamed []Renamed) []byte {
	lines := make([]string, 0, len(renamed))
	for _, r := range renamed {
		lines = append(lines, RenamedURI(r.Node.Raw, r.NewLabel))
	}
	joined := strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
	return []byte(util.EncodeBase64([]byte(joined)) + "\n")
}

// DecodeURIList reverses EncodeURIList.
func DecodeURIList(blob []byte) ([]string, error) {
	decoded, err := util.DecodeBase64(string(blob))
	if err != nil {
		return nil, err
	}
	return util.SplitLines(string(decoded)), nil
}

// EncodeStructured writes a document holding only the renamed proxy records.
func EncodeStructured(renamed []Renamed) ([]byte, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, r := range renamed {
		if r.Node.Record == nil {
			return nil, fmt.Errorf("node %d has no source record", r.Node.LineNo)
		}
		setName(r.Node.Record, r.NewLabel)
		seq.Content = append(seq.Content, r.Node.Record)
	}
	root := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: "proxies"},
			seq,
		},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
