package protocol

import (
	"strings"

	"subsrename/internal"
	"subsrename/internal/util"
)

// parseSS handles the plain form method:password@host:port, SIP002 with a
// base64 userinfo, and the legacy form with the whole authority in base64.
func parseSS(body string) (internal.Node, error) {
	body, label := cutFragment(body)
	body, query, _ := strings.Cut(body, "?")
	body = strings.TrimSuffix(body, "/")

	if !strings.Contains(body, "@") {
		decoded, err := util.DecodeBase64(body)
		if err != nil {
			return internal.Node{}, fieldError("missing @ separator")
		}
		body = strings.TrimSpace(string(decoded))
		if !strings.Contains(body, "@") {
			return internal.Node{}, fieldError("missing @ separator")
		}
	}

	at := strings.LastIndex(body, "@")
	userinfo, hostport := body[:at], body[at+1:]
	if !strings.Contains(userinfo, ":") {
		if decoded, err := util.DecodeBase64(decodeLabel(userinfo)); err == nil {
			userinfo = string(decoded)
		}
	}
	method, password, ok := strings.Cut(decodeLabel(userinfo), ":")
	if !ok || method == "" || password == "" {
		return internal.Node{}, fieldError("missing credentials")
	}

	host, port, err := splitHostPort(hostport)
	if err != nil {
		return internal.Node{}, err
	}

	opts := map[string]string{"cipher": method}
	if query != "" {
		opts["plugin_opts"] = query
	}
	return internal.Node{
		Type:       internal.ProtocolSS,
		Server:     host,
		Port:       port,
		Label:      label,
		Credential: password,
		Options:    opts,
	}, nil
}
