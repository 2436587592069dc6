package inspect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zclip-go/zclipd/pkg/model"
)

// Path errors.
var (
	ErrEmptyPath   = errors.New("inspect: empty path")
	ErrInvalidPath = errors.New("inspect: invalid path format")
)

// Path is a parsed "<endpoint>/<role><cluster>/<attribute>" shorthand,
// e.g. "1/s6/0" or "1/s0x0006/0x0000". The attribute segment is
// optional; IsPartial marks that case (used to list every attribute on
// a cluster).
type Path struct {
	EndpointID  uint8
	Role        model.ClusterRole
	ClusterID   uint16
	AttributeID uint16
	IsPartial   bool
	Raw         string
}

// ParsePath parses the REPL's path shorthand. Numeric segments accept
// decimal or 0x-prefixed hex.
func ParsePath(input string) (*Path, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return nil, ErrEmptyPath
	}

	parts := strings.Split(raw, "/")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, raw)
	}

	eid, err := parseUint(parts[0], 8)
	if err != nil {
		return nil, fmt.Errorf("%w: endpoint %q: %v", ErrInvalidPath, parts[0], err)
	}

	role, cid, err := parseClusterSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: cluster %q: %v", ErrInvalidPath, parts[1], err)
	}

	p := &Path{EndpointID: uint8(eid), Role: role, ClusterID: cid, Raw: raw}
	if len(parts) == 2 {
		p.IsPartial = true
		return p, nil
	}

	aid, err := parseUint(parts[2], 16)
	if err != nil {
		return nil, fmt.Errorf("%w: attribute %q: %v", ErrInvalidPath, parts[2], err)
	}
	p.AttributeID = uint16(aid)
	return p, nil
}

func parseClusterSegment(seg string) (model.ClusterRole, uint16, error) {
	if len(seg) < 2 {
		return 0, 0, fmt.Errorf("expected <role><id>, got %q", seg)
	}
	var role model.ClusterRole
	switch seg[0] {
	case 'c', 'C':
		role = model.RoleClient
	case 's', 'S':
		role = model.RoleServer
	default:
		return 0, 0, fmt.Errorf("role must be 'c' or 's', got %q", seg[:1])
	}
	id, err := parseUint(seg[1:], 16)
	if err != nil {
		return 0, 0, err
	}
	return role, uint16(id), nil
}

func parseUint(s string, bits int) (uint64, error) {
	return strconv.ParseUint(s, 0, bits)
}
