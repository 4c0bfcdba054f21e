package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"subsrename/internal"
	"subsrename/internal/util"
)

// parseVMess decodes the base64 JSON payload. A URI fragment, when present,
// takes precedence over the "ps" display name.
func parseVMess(body string) (internal.Node, error) {
	payload, fragLabel := cutFragment(body)

	decoded, err := util.DecodeBase64(payload)
	if err != nil {
		return internal.Node{}, fmt.Errorf("%w: vmess payload: %v", internal.ErrDecode, err)
	}
	var cfg map[string]any
	if err := json.Unmarshal(decoded, &cfg); err != nil {
		return internal.Node{}, fmt.Errorf("%w: vmess json: %v", internal.ErrDecode, err)
	}

	host := strings.TrimSpace(stringField(cfg, "add"))
	if host == "" {
		return internal.Node{}, fieldError("vmess config has no address")
	}
	port, err := parsePort(stringField(cfg, "port"))
	if err != nil {
		return internal.Node{}, err
	}

	label := fragLabel
	if label == "" {
		label = stringField(cfg, "ps")
	}

	aid := stringField(cfg, "aid")
	if aid == "" {
		aid = "0"
	}
	cipher := stringField(cfg, "scy")
	if cipher == "" {
		cipher = "auto"
	}
	network := stringField(cfg, "net")
	if network == "" {
		network = "tcp"
	}

	return internal.Node{
		Type:       internal.ProtocolVMess,
		Server:     host,
		Port:       port,
		Label:      label,
		Credential: stringField(cfg, "id"),
		Options: map[string]string{
			"alter_id": aid,
			"cipher":   cipher,
			"network":  network,
			"tls":      strconv.FormatBool(strings.EqualFold(stringField(cfg, "tls"), "tls")),
			"sni":      stringField(cfg, "sni"),
			"host":     stringField(cfg, "host"),
			"path":     stringField(cfg, "path"),
		},
	}, nil
}

// stringField reads a JSON value that producers emit as either string or number.
func stringField(cfg map[string]any, key string) string {
	switch v := cfg[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
