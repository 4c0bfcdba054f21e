package internal

import "gopkg.in/yaml.v3"

type ProtocolType string

const (
	ProtocolSS        ProtocolType = "SS"
	ProtocolVMess     ProtocolType = "VMESS"
	ProtocolVLESS     ProtocolType = "VLESS"
	ProtocolTrojan    ProtocolType = "TROJAN"
	ProtocolHysteria2 ProtocolType = "HYSTERIA2"
	ProtocolTUIC      ProtocolType = "TUIC"

	// ProtocolMix is the batch type when nodes disagree on protocol.
	ProtocolMix ProtocolType = "Mix"
)

type Shape string

const (
	ShapeURIList     Shape = "uri_list"
	ShapeStructured  Shape = "structured"
	ShapeNotNodeFile Shape = "not_a_node_file"
)

const (
	UnknownFlag   = "🏳️"
	UnknownRegion = "ZZ"
)

type Node struct {
	LineNo int
	Raw    string
	Type   ProtocolType
	Server string
	Port   *int
	Label  string
	Flag   string
	Region string

	Credential string
	Options    map[string]string

	// Record is the structured-document entry this node was read from.
	Record *yaml.Node
}

type Batch struct {
	Nodes             []Node
	Total             int
	NodeType          ProtocolType
	Marker            string
	IPSequenceRegular bool
}

type RegionGroup struct {
	Flag   string
	Region string
	Nodes  []int
}

type RenameRow struct {
	File     string
	Output   string
	LineNo   int
	Protocol string
	Server   string
	Port     *int
	OldLabel string
	NewLabel string
	Flag     string
	Region   string
	Seq      string
}

type FileRow struct {
	ID       int64
	Path     string
	Shape    string
	Status   string
	Total    int
	NodeType string
	Marker   string
	Output   string
	Dropped  int
}
