package dispatch

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/zclip-go/zclipd/pkg/model"
)

// resourceKind identifies which level of the zcl hierarchy a parsed
// path terminates at.
type resourceKind int

const (
	resRoot resourceKind = iota
	resEndpoints
	resEndpoint
	resCluster
	resAttributes
	resAttribute
	resBindings
	resBinding
	resCommands
	resCommand
	resNotify
	resReports
	resReport
)

// resource is a fully parsed request path: enough to locate the target
// node in the model tree without re-parsing.
type resource struct {
	kind resourceKind
	eid  uint8
	key  model.ClusterKey
	id   uint16 // attribute/command id (16-bit) or binding/report id (8-bit, in low byte)
}

// errMalformedPath is returned for any path that does not match the
// zcl/e/<eid>/<cl>/{a,b,c,n,r}/<id> grammar. Dispatch maps it through
// the resource-not-found mapping (§4.5): 2.02 for DELETE, 4.04 for
// GET/POST/PUT — a malformed path can never name an existing resource.
var errMalformedPath = errors.New("dispatch: malformed path")

// parsePath percent-decodes and tokenizes a request path, then walks
// the hierarchy per §4.5.
func parsePath(raw string) (resource, error) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return resource{}, errMalformedPath
	}
	decoded = strings.Trim(decoded, "/")
	if decoded == "" {
		return resource{}, errMalformedPath
	}
	segments := strings.Split(decoded, "/")

	if segments[0] != "zcl" {
		return resource{}, errMalformedPath
	}
	if len(segments) == 1 {
		return resource{kind: resRoot}, nil
	}
	if segments[1] != "e" {
		return resource{}, errMalformedPath
	}
	if len(segments) == 2 {
		return resource{kind: resEndpoints}, nil
	}

	eid, err := parseHex8(segments[2])
	if err != nil {
		return resource{}, errMalformedPath
	}
	if len(segments) == 3 {
		return resource{kind: resEndpoint, eid: eid}, nil
	}

	key, err := parseClusterSegment(segments[3])
	if err != nil {
		return resource{}, errMalformedPath
	}
	if len(segments) == 4 {
		return resource{kind: resCluster, eid: eid, key: key}, nil
	}

	child := segments[4]
	if len(segments) == 5 {
		switch child {
		case "a":
			return resource{kind: resAttributes, eid: eid, key: key}, nil
		case "b":
			return resource{kind: resBindings, eid: eid, key: key}, nil
		case "c":
			return resource{kind: resCommands, eid: eid, key: key}, nil
		case "n":
			return resource{kind: resNotify, eid: eid, key: key}, nil
		case "r":
			return resource{kind: resReports, eid: eid, key: key}, nil
		default:
			return resource{}, errMalformedPath
		}
	}
	if len(segments) != 6 {
		return resource{}, errMalformedPath
	}

	switch child {
	case "a":
		id, err := parseHex16(segments[5])
		if err != nil {
			return resource{}, errMalformedPath
		}
		return resource{kind: resAttribute, eid: eid, key: key, id: id}, nil
	case "b":
		id, err := parseHex8(segments[5])
		if err != nil {
			return resource{}, errMalformedPath
		}
		return resource{kind: resBinding, eid: eid, key: key, id: uint16(id)}, nil
	case "c":
		id, err := parseHex16(segments[5])
		if err != nil {
			return resource{}, errMalformedPath
		}
		return resource{kind: resCommand, eid: eid, key: key, id: id}, nil
	case "r":
		id, err := parseHex8(segments[5])
		if err != nil {
			return resource{}, errMalformedPath
		}
		return resource{kind: resReport, eid: eid, key: key, id: uint16(id)}, nil
	default:
		return resource{}, errMalformedPath
	}
}

// parseClusterSegment parses `<role><hex-id>[_<hex-manufacturer>]`.
func parseClusterSegment(seg string) (model.ClusterKey, error) {
	if len(seg) < 2 {
		return model.ClusterKey{}, errMalformedPath
	}
	var role model.ClusterRole
	switch seg[0] {
	case 'c':
		role = model.RoleClient
	case 's':
		role = model.RoleServer
	default:
		return model.ClusterKey{}, errMalformedPath
	}
	rest := seg[1:]

	idPart := rest
	var manuPart string
	hasManufacturer := false
	if i := strings.IndexByte(rest, '_'); i >= 0 {
		idPart = rest[:i]
		manuPart = rest[i+1:]
		hasManufacturer = true
	}

	id, err := parseHex16(idPart)
	if err != nil {
		return model.ClusterKey{}, errMalformedPath
	}
	key := model.ClusterKey{Role: role, ID: id}
	if hasManufacturer {
		manu, err := parseHex16(manuPart)
		if err != nil {
			return model.ClusterKey{}, errMalformedPath
		}
		key.Manufacturer = manu
		key.HasManufacturer = true
	}
	return key, nil
}

func parseHex8(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, errMalformedPath
	}
	return uint8(v), nil
}

func parseHex16(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, errMalformedPath
	}
	return uint16(v), nil
}
