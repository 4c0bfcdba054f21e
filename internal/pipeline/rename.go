package pipeline

import (
	"fmt"
	"net/netip"
	"sort"

	"subsrename/internal"
)

const ipBlockSize = 256

type Renamed struct {
	Node     internal.Node
	NewLabel string
	Seq      string
}

// NewBatch describes the nodes of one output file. nodes must be non-empty.
func NewBatch(nodes []internal.Node, marker string) internal.Batch {
	nodeType := internal.ProtocolMix
	if len(nodes) > 0 {
		nodeType = nodes[0].Type
		for _, n := range nodes[1:] {
			if n.Type != nodeType {
				nodeType = internal.ProtocolMix
				break
			}
		}
	}

	servers := make([]string, len(nodes))
	for i, n := range nodes {
		servers[i] = n.Server
	}

	return internal.Batch{
		Nodes:             nodes,
		Total:             len(nodes),
		NodeType:          nodeType,
		Marker:            marker,
		IPSequenceRegular: IsContiguousIPBlock(servers),
	}
}

// IsContiguousIPBlock reports whether servers are exactly 256 distinct IPv4
// addresses covering 256 consecutive integer values.
func IsContiguousIPBlock(servers []string) bool {
	if len(servers) != ipBlockSize {
		return false
	}
	seen := make(map[uint32]struct{}, len(servers))
	var low, high uint32
	for i, s := range servers {
		v, ok := ipv4Value(s)
		if !ok {
			return false
		}
		if _, dup := seen[v]; dup {
			return false
		}
		seen[v] = struct{}{}
		if i == 0 || v < low {
			low = v
		}
		if i == 0 || v > high {
			high = v
		}
	}
	return high-low == ipBlockSize-1
}

func ipv4Value(s string) (uint32, bool) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return 0, false
	}
	addr = addr.Unmap()
	if !addr.Is4() {
		return 0, false
	}
	b := addr.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), true
}

// GroupByRegion partitions node indexes by (flag, region), groups ordered by
// first appearance and members in file order.
func GroupByRegion(nodes []internal.Node) []internal.RegionGroup {
	type key struct{ flag, region string }
	pos := map[key]int{}
	groups := []internal.RegionGroup{}
	for i, n := range nodes {
		k := key{n.Flag, n.Region}
		gi, ok := pos[k]
		if !ok {
			gi = len(groups)
			pos[k] = gi
			groups = append(groups, internal.RegionGroup{Flag: n.Flag, Region: n.Region})
		}
		groups[gi].Nodes = append(groups[gi].Nodes, i)
	}
	return groups
}

func PadWidth(total int) int {
	if total <= 100 {
		return 2
	}
	return 3
}

// FormatLabel renders {marker}{total}{type}{flag}{region}_{seq}. Downstream
// tooling parses this layout.
func FormatLabel(marker string, total int, nodeType internal.ProtocolType, flag, region, seq string) string {
	return fmt.Sprintf("%s%d%s%s%s_%s", marker, total, nodeType, flag, region, seq)
}

// Rename assigns final labels and returns them in the batch's original order.
func Rename(b internal.Batch) []Renamed {
	out := make([]Renamed, len(b.Nodes))
	width := PadWidth(b.Total)

	for _, g := range GroupByRegion(b.Nodes) {
		order := append([]int(nil), g.Nodes...)
		start := 1
		if b.IPSequenceRegular && len(order) == ipBlockSize {
			sort.SliceStable(order, func(i, j int) bool {
				return lastOctet(b.Nodes[order[i]].Server) < lastOctet(b.Nodes[order[j]].Server)
			})
			start = 0
		}
		for i, idx := range order {
			n := b.Nodes[idx]
			seq := fmt.Sprintf("%0*d", width, start+i)
			out[idx] = Renamed{
				Node:     n,
				Seq:      seq,
				NewLabel: FormatLabel(b.Marker, b.Total, b.NodeType, n.Flag, n.Region, seq),
			}
		}
	}
	return out
}

func lastOctet(server string) int {
	v, ok := ipv4Value(server)
	if !ok {
		return 999
	}
	return int(v & 0xff)
}
