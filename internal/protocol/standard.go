package protocol

import (
	"net/url"
	"strings"

	"subsrename/internal"
)

// parseAuthorityURI handles the scheme://userinfo@host:port?query#label shape
// shared by VLESS, Trojan, Hysteria2 and TUIC.
func parseAuthorityURI(typ internal.ProtocolType, body string) (internal.Node, error) {
	rest, label := cutFragment(body)

	u, err := url.Parse("x://" + rest)
	if err != nil {
		return internal.Node{}, fieldError("malformed uri: %v", err)
	}
	host, port, err := splitHostPort(u.Host)
	if err != nil {
		return internal.Node{}, err
	}

	credential := ""
	if u.User != nil {
		credential = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			credential += ":" + pw
		}
	}

	return internal.Node{
		Type:       typ,
		Server:     host,
		Port:       port,
		Label:      label,
		Credential: credential,
		Options:    flattenQuery(u.Query()),
	}, nil
}

func parseVLESS(body string) (internal.Node, error) {
	node, err := parseAuthorityURI(internal.ProtocolVLESS, body)
	if err != nil {
		return node, err
	}
	if node.Credential == "" {
		return internal.Node{}, fieldError("vless uri has no id")
	}
	setDefault(node.Options, "type", "tcp")
	setDefault(node.Options, "security", "none")
	return node, nil
}

func parseTrojan(body string) (internal.Node, error) {
	node, err := parseAuthorityURI(internal.ProtocolTrojan, body)
	if err != nil {
		return node, err
	}
	if node.Credential == "" {
		return internal.Node{}, fieldError("trojan uri has no password")
	}
	if peer := node.Options["peer"]; peer != "" {
		setDefault(node.Options, "sni", peer)
	}
	setDefault(node.Options, "type", "tcp")
	return node, nil
}

func parseHysteria2(body string) (internal.Node, error) {
	node, err := parseAuthorityURI(internal.ProtocolHysteria2, body)
	if err != nil {
		return node, err
	}
	setDefault(node.Options, "sni", node.Server)
	setDefault(node.Options, "alpn", "h3")
	setDefault(node.Options, "obfs", "none")
	setDefault(node.Options, "obfs-password", "")
	setDefault(node.Options, "insecure", "0")
	return node, nil
}

func parseTUIC(body string) (internal.Node, error) {
	node, err := parseAuthorityURI(internal.ProtocolTUIC, body)
	if err != nil {
		return node, err
	}
	if node.Credential == "" {
		return internal.Node{}, fieldError("tuic uri has no uuid")
	}
	setDefault(node.Options, "sni", node.Server)
	setDefault(node.Options, "alpn", "h3")
	setDefault(node.Options, "congestion_control", "bbr")
	setDefault(node.Options, "udp_relay_mode", "native")
	return node, nil
}

func setDefault(opts map[string]string, key, value string) {
	if strings.TrimSpace(opts[key]) == "" {
		opts[key] = value
	}
}
