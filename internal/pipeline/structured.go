package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"subsrename/internal"
	"subsrename/internal/region"
	"subsrename/internal/util"
)

type RecordScan struct {
	Nodes        []internal.Node
	Placeholders int
	Failures     []error
}

// ScanRecords turns the entries of a `proxies` sequence into nodes. Entries
// whose type is a placeholder (direct, reject, ...) are skipped before any
// grouping happens; entries without a type or server are reported as failures.
func ScanRecords(seq *yaml.Node, placeholders []string, labels *util.LabelNormalizer) RecordScan {
	skip := map[string]struct{}{}
	for _, p := range placeholders {
		skip[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}

	scan := RecordScan{}
	for i, item := range seq.Content {
		if item.Kind != yaml.MappingNode {
			scan.Failures = append(scan.Failures, fmt.Errorf("%w: record %d is not a mapping", internal.ErrFieldExtraction, i+1))
			continue
		}
		typ := strings.TrimSpace(scalarValue(item, "type"))
		if _, ok := skip[strings.ToLower(typ)]; ok {
			scan.Placeholders++
			continue
		}
		server := strings.TrimSpace(scalarValue(item, "server"))
		if typ == "" || server == "" {
			scan.Failures = append(scan.Failures, fmt.Errorf("%w: record %d has no type or server", internal.ErrFieldExtraction, i+1))
			continue
		}

		label := labels.Normalize(scalarValue(item, "name"))
		match := region.Extract(label)
		node := internal.Node{
			LineNo: i + 1,
			Type:   internal.ProtocolType(typ),
			Server: server,
			Label:  label,
			Flag:   match.Flag,
			Region: match.Region,
			Record: item,
		}
		if port, err := strconv.Atoi(strings.TrimSpace(scalarValue(item, "port"))); err == nil {
			node.Port = &port
		}
		if node.Label == "" {
			node.Label = fmt.Sprintf("%s-%s", typ, server)
		}
		scan.Nodes = append(scan.Nodes, node)
	}
	return scan
}

func scalarValue(m *yaml.Node, key string) string {
	if v := mappingValue(m, key); v != nil && v.Kind == yaml.ScalarNode {
		return v.Value
	}
	return ""
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// setName replaces the record's name, leaving every other field untouched.
func setName(record *yaml.Node, name string) {
	if v := mappingValue(record, "name"); v != nil {
		v.Kind = yaml.ScalarNode
		v.Tag = "!!str"
		v.Value = name
		v.Style = 0
		v.Content = nil
		return
	}
	record.Content = append(record.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "name"},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
	)
}
