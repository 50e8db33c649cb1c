package rpc

import (
	"crypto/md5" // #nosec G501 -- RFC 2617 digest
	"errors"
	"fmt"
	"strings"

	fasthex "github.com/tmthrgd/go-hex"
)

const digestQOPAuth = "auth"

var ErrUnsupportedQOP = errors.New("unsupported QOP")

// digest challenge parameters sent by monerod --rpc-login, RFC 2617
type digest struct {
	realm     string
	nonce     string
	opaque    string
	algorithm string
	qop       string
}

// newDigest parses a WWW-Authenticate header. It is nil for other schemes, malformed headers
// and algorithms other than MD5 and MD5-sess
func newDigest(header string) *digest {
	rest, ok := strings.CutPrefix(header, "Digest ")
	if !ok {
		return nil
	}
	params, ok := parseAuthParams(rest)
	if !ok {
		return nil
	}

	d := &digest{}
	for _, p := range params {
		switch strings.ToLower(p[0]) {
		case "realm":
			d.realm = p[1]
		case "nonce":
			d.nonce = p[1]
		case "opaque":
			d.opaque = p[1]
		case "qop":
			d.qop = p[1]
		case "algorithm":
			if p[1] != "MD5" && p[1] != "MD5-sess" {
				return nil
			}
			d.algorithm = p[1]
		}
	}
	if d.nonce == "" {
		return nil
	}
	return d
}

// parseAuthParams splits comma separated key=value or key="value" pairs
func parseAuthParams(s string) (params [][2]string, ok bool) {
	for {
		s = strings.TrimLeft(s, " \t\r\n,")
		if s == "" {
			return params, true
		}

		eq := strings.IndexByte(s, '=')
		if eq <= 0 {
			return nil, false
		}
		key := strings.TrimSpace(s[:eq])
		s = strings.TrimLeft(s[eq+1:], " \t")

		var value string
		if strings.HasPrefix(s, `"`) {
			end := strings.IndexByte(s[1:], '"')
			if end < 0 {
				return nil, false
			}
			value = s[1 : end+1]
			s = strings.TrimLeft(s[end+2:], " \t\r\n")
			if s != "" && s[0] != ',' {
				return nil, false
			}
		} else {
			end := strings.IndexByte(s, ',')
			if end < 0 {
				end = len(s)
			}
			value = strings.TrimSpace(s[:end])
			s = s[end:]
		}
		params = append(params, [2]string{key, value})
	}
}

func md5Hex(parts ...string) string {
	// #nosec G401
	h := md5.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = h.Write([]byte{':'})
		}
		_, _ = h.Write([]byte(p))
	}
	return fasthex.EncodeToString(h.Sum(nil))
}

// selectQOP picks auth out of the offered protections, none when the challenge offers none
func (d *digest) selectQOP() (string, error) {
	if d.qop == "" {
		return "", nil
	}
	for _, q := range strings.Split(d.qop, ",") {
		if strings.TrimSpace(q) == digestQOPAuth {
			return digestQOPAuth, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedQOP, d.qop)
}

// Auth Authorization header value answering the challenge for one request
func (d *digest) Auth(method, uri, user, password string, requestCounter uint32, clientNonce string) (string, error) {
	qop, err := d.selectQOP()
	if err != nil {
		return "", err
	}
	session := strings.HasSuffix(d.algorithm, "-sess")

	ha1 := md5Hex(user, d.realm, password)
	if session {
		ha1 = md5Hex(ha1, d.nonce, clientNonce)
	}
	ha2 := md5Hex(method, uri)
	nc := fmt.Sprintf("%08x", requestCounter)

	var response string
	if qop == "" {
		response = md5Hex(ha1, d.nonce, ha2)
	} else {
		response = md5Hex(ha1, d.nonce, nc, clientNonce, qop, ha2)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Digest username=%q,realm=%q,nonce=%q,uri=%q", user, d.realm, d.nonce, uri)
	if qop != "" {
		b.WriteString(",qop=" + qop)
	}
	b.WriteString(",nc=" + nc)
	if qop != "" || session {
		fmt.Fprintf(&b, ",cnonce=%q", clientNonce)
	}
	fmt.Fprintf(&b, ",response=%q", response)
	if d.algorithm != "" {
		b.WriteString(",algorithm=" + d.algorithm)
	}
	if d.opaque != "" {
		fmt.Fprintf(&b, ",opaque=%q", d.opaque)
	}
	return b.String(), nil
}
