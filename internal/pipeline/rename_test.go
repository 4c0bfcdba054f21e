package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subsrename/internal"
	"subsrename/internal/protocol"
)

func mkNode(typ internal.ProtocolType, server, flag, region string) internal.Node {
	return internal.Node{Type: typ, Server: server, Label: region, Flag: flag, Region: region}
}

func TestRenameSingleSSNode(t *testing.T) {
	node, err := protocol.NewParser(nil).Parse("ss://aes-256-gcm:pw@1.2.3.4:8388#%F0%9F%87%B8%F0%9F%87%ACSG-01")
	require.NoError(t, err)

	renamed := Rename(NewBatch([]internal.Node{node}, "★"))
	require.Len(t, renamed, 1)
	assert.Equal(t, "★1SS🇸🇬SG_01", renamed[0].NewLabel)
	assert.Equal(t, "01", renamed[0].Seq)
}

func TestRenameGroupsByRegion(t *testing.T) {
	nodes := []internal.Node{
		mkNode(internal.ProtocolVMess, "a", "🇭🇰", "HK"),
		mkNode(internal.ProtocolVMess, "b", "🇯🇵", "JP"),
		mkNode(internal.ProtocolVMess, "c", "🇭🇰", "HK"),
		mkNode(internal.ProtocolVMess, "d", internal.UnknownFlag, "ZZ"),
	}
	got := Rename(NewBatch(nodes, "🚀"))

	want := []string{
		"🚀4VMESS🇭🇰HK_01",
		"🚀4VMESS🇯🇵JP_01",
		"🚀4VMESS🇭🇰HK_02",
		"🚀4VMESS🏳️ZZ_01",
	}
	for i, w := range want {
		assert.Equal(t, w, got[i].NewLabel)
	}
}

func TestRenameMixedTypes(t *testing.T) {
	nodes := []internal.Node{
		mkNode(internal.ProtocolSS, "a", "🇸🇬", "SG"),
		mkNode(internal.ProtocolTrojan, "b", "🇸🇬", "SG"),
	}
	b := NewBatch(nodes, "★")
	assert.Equal(t, internal.ProtocolMix, b.NodeType)
	assert.Equal(t, "★2Mix🇸🇬SG_02", Rename(b)[1].NewLabel)
}

func TestPadWidth(t *testing.T) {
	assert.Equal(t, 2, PadWidth(1))
	assert.Equal(t, 2, PadWidth(100))
	assert.Equal(t, 3, PadWidth(101))

	for _, tc := range []struct {
		total int
		seq   string
	}{{100, "01"}, {101, "001"}} {
		nodes := make([]internal.Node, tc.total)
		for i := range nodes {
			nodes[i] = mkNode(internal.ProtocolSS, fmt.Sprintf("h%d.example", i), "🇺🇸", "US")
		}
		got := Rename(NewBatch(nodes, "★"))
		assert.Equal(t, tc.seq, got[0].Seq)
		assert.Equal(t, fmt.Sprintf("%0*d", len(tc.seq), tc.total), got[tc.total-1].Seq)
	}
}

func TestIsContiguousIPBlock(t *testing.T) {
	block := func(base uint32) []string {
		out := make([]string, 256)
		for i := range out {
			v := base + uint32(i)
			out[i] = fmt.Sprintf("%d.%d.%d.%d", v>>24, v>>16&0xff, v>>8&0xff, v&0xff)
		}
		return out
	}

	assert.True(t, IsContiguousIPBlock(block(10<<24)))
	assert.True(t, IsContiguousIPBlock(block(10<<24|128)), "unaligned block")

	short := block(10 << 24)[:255]
	assert.False(t, IsContiguousIPBlock(short))

	gap := block(10 << 24)
	gap[255] = "10.0.5.0"
	assert.False(t, IsContiguousIPBlock(gap))

	dup := block(10 << 24)
	dup[255] = dup[0]
	assert.False(t, IsContiguousIPBlock(dup))

	host := block(10 << 24)
	host[3] = "example.com"
	assert.False(t, IsContiguousIPBlock(host))
}

func TestRenameContiguousBlockOrdersByLastOctet(t *testing.T) {
	nodes := make([]internal.Node, 256)
	for i := range nodes {
		// reverse file order so sorting is observable
		nodes[i] = mkNode(internal.ProtocolSS, fmt.Sprintf("10.1.2.%d", 255-i), "🇸🇬", "SG")
	}
	b := NewBatch(nodes, "★")
	require.True(t, b.IPSequenceRegular)

	got := Rename(b)
	for i, r := range got {
		octet := 255 - i
		assert.Equal(t, fmt.Sprintf("%03d", octet), r.Seq, "server %s", r.Node.Server)
	}
	assert.Equal(t, "★256SS🇸🇬SG_000", got[255].NewLabel)
}

func TestRenameNonContiguous256KeepsFileOrder(t *testing.T) {
	nodes := make([]internal.Node, 256)
	for i := range nodes {
		nodes[i] = mkNode(internal.ProtocolSS, fmt.Sprintf("10.1.2.%d", 255-i), "🇸🇬", "SG")
	}
	nodes[0].Server = "10.9.9.9"
	b := NewBatch(nodes, "★")
	require.False(t, b.IPSequenceRegular)

	got := Rename(b)
	assert.Equal(t, "001", got[0].Seq)
	assert.Equal(t, "256", got[255].Seq)
}

func TestRenameContiguousBlockSplitAcrossGroups(t *testing.T) {
	nodes := make([]internal.Node, 256)
	for i := range nodes {
		flag, region := "🇸🇬", "SG"
		if i%2 == 1 {
			flag, region = "🇯🇵", "JP"
		}
		nodes[i] = mkNode(internal.ProtocolSS, fmt.Sprintf("10.1.2.%d", 255-i), flag, region)
	}
	b := NewBatch(nodes, "★")
	require.True(t, b.IPSequenceRegular)

	got := Rename(b)
	assert.Equal(t, "001", got[0].Seq)
	assert.Equal(t, "001", got[1].Seq)
	assert.Equal(t, "128", got[254].Seq)
}

func TestRenameIsStableOnRenamedInput(t *testing.T) {
	p := protocol.NewParser(nil)
	lines := []string{
		"ss://aes-256-gcm:pw@1.2.3.4:8388#%F0%9F%87%B8%F0%9F%87%ACSG-01",
		"ss://aes-256-gcm:pw@1.2.3.5:8388#Tokyo%20JP",
		"ss://aes-256-gcm:pw@1.2.3.6:8388#%F0%9F%87%B8%F0%9F%87%ACSG-02",
		"ss://aes-256-gcm:pw@1.2.3.7:8388#plain",
		"ss://aes-256-gcm:pw@1.2.3.8:8388#%F0%9F%87%BA%F0%9F%87%B8USA%201",
		"ss://aes-256-gcm:pw@1.2.3.9:8388#%F0%9F%87%BA%F0%9F%87%B8US%202",
		"ss://aes-256-gcm:pw@1.2.3.10:8388#%F0%9F%87%AD%F0%9F%87%B0HKG",
	}

	parse := func(in []string) []internal.Node {
		out := make([]internal.Node, 0, len(in))
		for _, l := range in {
			n, err := p.Parse(l)
			require.NoError(t, err)
			out = append(out, n)
		}
		return out
	}

	first := Rename(NewBatch(parse(lines), "★"))
	relines := make([]string, len(first))
	for i, r := range first {
		relines[i] = RenamedURI(r.Node.Raw, r.NewLabel)
	}
	second := Rename(NewBatch(parse(relines), "★"))

	for i := range first {
		assert.Equal(t, first[i].NewLabel, second[i].NewLabel)
		assert.Equal(t, first[i].Seq, second[i].Seq)
	}
	assert.Equal(t, "★7SS🇺🇸USA_01", second[4].NewLabel)
	assert.Equal(t, "★7SS🇺🇸US_01", second[5].NewLabel)
}
