package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Scheme is the URI scheme of a binding/report destination.
type Scheme uint8

const (
	SchemeNone Scheme = iota
	SchemeCoAP
	SchemeCoAPS
)

// String returns the scheme's wire prefix, empty for SchemeNone.
func (s Scheme) String() string {
	switch s {
	case SchemeCoAP:
		return "coap:"
	case SchemeCoAPS:
		return "coaps:"
	default:
		return ""
	}
}

// URI is a parsed binding/report destination: scheme, host, optional
// port, and a path that must start with "/". Host and path are always
// materialized as owned strings — there is nothing to relocate.
type URI struct {
	Scheme Scheme
	Host   string
	Port   uint16
	Path   string
}

// ErrMalformedURI is returned when a string does not match the ZCLIP URI
// grammar: `[coap[s]:]//<host>[:<port>]<path>`.
var ErrMalformedURI = errors.New("wire: malformed uri")

// ParseURI parses the ZCLIP URI grammar:
//
//	[coap[s]:]//<host>[:<port>]<path>
//
// The scheme prefix is optional (absent means SchemeNone). "//" is
// mandatory before the host. Host may be a bracketed IPv6 literal;
// otherwise it is scanned up to ':' or '/'. An empty host is rejected.
// Port is optional, base-10, at most 65535. Everything after the host
// and optional port is the path, which must begin with '/'.
func ParseURI(s string) (URI, error) {
	var u URI
	rest := s

	switch {
	case strings.HasPrefix(rest, "coaps:"):
		u.Scheme = SchemeCoAPS
		rest = rest[len("coaps:"):]
	case strings.HasPrefix(rest, "coap:"):
		u.Scheme = SchemeCoAP
		rest = rest[len("coap:"):]
	default:
		u.Scheme = SchemeNone
	}

	if !strings.HasPrefix(rest, "//") {
		return URI{}, fmt.Errorf("%w: missing \"//\" before host", ErrMalformedURI)
	}
	rest = rest[2:]

	var host string
	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return URI{}, fmt.Errorf("%w: unterminated ipv6 literal", ErrMalformedURI)
		}
		host = rest[:end+1]
		rest = rest[end+1:]
	} else {
		i := 0
		for i < len(rest) && rest[i] != ':' && rest[i] != '/' {
			i++
		}
		host = rest[:i]
		rest = rest[i:]
	}
	if host == "" {
		return URI{}, fmt.Errorf("%w: empty host", ErrMalformedURI)
	}
	u.Host = host

	if strings.HasPrefix(rest, ":") {
		rest = rest[1:]
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i == 0 {
			return URI{}, fmt.Errorf("%w: missing port digits", ErrMalformedURI)
		}
		port, err := strconv.ParseUint(rest[:i], 10, 16)
		if err != nil {
			return URI{}, fmt.Errorf("%w: invalid port: %v", ErrMalformedURI, err)
		}
		u.Port = uint16(port)
		rest = rest[i:]
	}

	if rest == "" || rest[0] != '/' {
		return URI{}, fmt.Errorf("%w: path must start with \"/\"", ErrMalformedURI)
	}
	u.Path = rest

	return u, nil
}

// String renders the URI back to its textual wire form.
func (u URI) String() string {
	var b strings.Builder
	b.WriteString(u.Scheme.String())
	b.WriteString("//")
	b.WriteString(u.Host)
	if u.Port != 0 {
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(u.Port), 10))
	}
	b.WriteString(u.Path)
	return b.String()
}

// Equal reports whether two URIs are identical in all four fields — the
// duplicate-binding check in the bindings handler compares on exactly
// this tuple (scheme, host, port, path) alongside the report id.
func (u URI) Equal(o URI) bool {
	return u.Scheme == o.Scheme && u.Host == o.Host && u.Port == o.Port && u.Path == o.Path
}
