package model

import (
	"context"
	"errors"
	"time"

	"github.com/zclip-go/zclipd/pkg/wire"
)

// ClusterRole distinguishes a client-side cluster instance from a
// server-side one, carried as the leading character of the cluster's
// URI segment (`c<hex-id>` or `s<hex-id>`).
type ClusterRole byte

const (
	RoleClient ClusterRole = 'c'
	RoleServer ClusterRole = 's'
)

// Bounded array capacities, per the cluster invariants.
const (
	MaxBindings = 16
	MaxReports  = 4
)

// ClusterKey is a cluster's identity within an endpoint: the triple
// (role, id, manufacturer). HasManufacturer distinguishes "no
// manufacturer code" from manufacturer code 0.
type ClusterKey struct {
	Role            ClusterRole
	ID              uint16
	Manufacturer    uint16
	HasManufacturer bool
}

// Cluster errors.
var (
	ErrAttributeNotFound = errors.New("model: attribute not found")
	ErrBindingNotFound   = errors.New("model: binding not found")
	ErrReportNotFound    = errors.New("model: report configuration not found")
	ErrBindingsFull      = errors.New("model: bindings array is at capacity")
	ErrReportsFull       = errors.New("model: report configurations array is at capacity")
	ErrDuplicateBinding  = errors.New("model: duplicate binding")
	ErrNoNotifyHandler   = errors.New("model: cluster has no notify handler")
)

// NotifyHandler processes an inbound notification delivered to a client
// cluster instance — the POST counterpart to the outbound notifications
// the reporting engine sends. A cluster with no handler set rejects
// inbound notifications with ErrNoNotifyHandler rather than accepting
// and discarding them.
type NotifyHandler func(ctx context.Context, n Notification) error

// Notification is a decoded inbound attribute-change notification, as
// posted to a bound client cluster's notification resource.
type Notification struct {
	Attributes map[uint16]wire.Value
	BindingID  uint8
	ReportID   uint8
	Timestamp  time.Time
	Source     string
}

// Binding is a persisted outbound subscription: a destination URI and
// an optional paired report configuration. Bindings are append-compact
// within their cluster — see Cluster.Bindings.
type Binding struct {
	ID        uint8
	URI       wire.URI
	ReportID  uint8
	Timestamp time.Time
}

// ReportConfig is a persisted reporting policy paired 1:1 with the wire
// encoding in package wire.
type ReportConfig struct {
	ID          uint8
	MinInterval uint16
	MaxInterval uint16
	Attributes  []wire.ReportAttributeConfig
}

// Cluster is a named group of attributes, commands and notifications on
// an endpoint. A cluster's attribute and command sets are fixed at
// construction; its bindings and report configurations are dynamic and
// persisted by package storage.
type Cluster struct {
	key        ClusterKey
	name       string
	attributes map[uint16]*Attribute
	commands   map[uint16]*Command
	bindings   []*Binding
	reports    []*ReportConfig
	notify     NotifyHandler
}

// NewCluster constructs an empty cluster. Attributes and commands are
// added with AddAttribute/AddCommand before the cluster is installed on
// an endpoint; bindings and reports start empty and are populated by
// storage.Link at startup.
func NewCluster(key ClusterKey, name string) *Cluster {
	return &Cluster{
		key:        key,
		name:       name,
		attributes: make(map[uint16]*Attribute),
		commands:   make(map[uint16]*Command),
	}
}

// Key returns the cluster's (role, id, manufacturer?) identity.
func (c *Cluster) Key() ClusterKey { return c.key }

// Name returns the cluster's declared name.
func (c *Cluster) Name() string { return c.name }

// SetNotifyHandler attaches the inbound-notification callback.
func (c *Cluster) SetNotifyHandler(h NotifyHandler) { c.notify = h }

// Notify invokes the inbound-notification callback. Returns
// ErrNoNotifyHandler if none is set, matching the original engine's
// dd_handle_notification_post, which rejects a POST to a cluster with
// no registered handler rather than silently accepting it.
func (c *Cluster) Notify(ctx context.Context, n Notification) error {
	if c.notify == nil {
		return ErrNoNotifyHandler
	}
	return c.notify(ctx, n)
}

// AddAttribute registers a static attribute on the cluster.
func (c *Cluster) AddAttribute(a *Attribute) {
	c.attributes[a.ID()] = a
}

// Attribute looks up an attribute by id.
func (c *Cluster) Attribute(id uint16) (*Attribute, error) {
	a, ok := c.attributes[id]
	if !ok {
		return nil, ErrAttributeNotFound
	}
	return a, nil
}

// AttributeIDs returns every declared attribute id, in no particular
// order — callers that need a stable order (e.g. the attributes-list
// resource) sort it themselves.
func (c *Cluster) AttributeIDs() []uint16 {
	ids := make([]uint16, 0, len(c.attributes))
	for id := range c.attributes {
		ids = append(ids, id)
	}
	return ids
}

// AddCommand registers a static command on the cluster.
func (c *Cluster) AddCommand(cmd *Command) {
	c.commands[cmd.ID()] = cmd
}

// Command looks up a command by id.
func (c *Cluster) Command(id uint16) (*Command, error) {
	cmd, ok := c.commands[id]
	if !ok {
		return nil, ErrCommandNotFound
	}
	return cmd, nil
}

// CommandIDs returns every declared command id, in no particular order.
func (c *Cluster) CommandIDs() []uint16 {
	ids := make([]uint16, 0, len(c.commands))
	for id := range c.commands {
		ids = append(ids, id)
	}
	return ids
}

// Bindings returns the live, append-compact bindings array. Callers
// must not retain the returned slice past a mutating call.
func (c *Cluster) Bindings() []*Binding { return c.bindings }

// Binding looks up a binding by id.
func (c *Cluster) Binding(id uint8) (*Binding, error) {
	for _, b := range c.bindings {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, ErrBindingNotFound
}

// appendBinding appends a binding to the in-memory array. Callers are
// responsible for capacity and duplicate checks before calling this —
// see AddBinding for the checked variant used by the dispatch layer.
func (c *Cluster) appendBinding(b *Binding) { c.bindings = append(c.bindings, b) }

// AddBinding validates capacity and the (report id, URI) duplicate rule
// before appending. Used directly by storage.Link at startup (where
// duplicates cannot occur) and by the bindings-create handler.
func (c *Cluster) AddBinding(b *Binding) error {
	if len(c.bindings) >= MaxBindings {
		return ErrBindingsFull
	}
	for _, other := range c.bindings {
		if other.ReportID == b.ReportID && other.URI.Equal(b.URI) {
			return ErrDuplicateBinding
		}
	}
	c.appendBinding(b)
	return nil
}

// RemoveBinding deletes a binding by id, shifting survivors down to
// keep the array append-compact.
func (c *Cluster) RemoveBinding(id uint8) error {
	for i, b := range c.bindings {
		if b.ID == id {
			c.bindings = append(c.bindings[:i], c.bindings[i+1:]...)
			return nil
		}
	}
	return ErrBindingNotFound
}

// Reports returns the live, append-compact report configurations array.
func (c *Cluster) Reports() []*ReportConfig { return c.reports }

// Report looks up a report configuration by id.
func (c *Cluster) Report(id uint8) (*ReportConfig, error) {
	for _, r := range c.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, ErrReportNotFound
}

// AddReport validates capacity before appending a report configuration.
func (c *Cluster) AddReport(r *ReportConfig) error {
	if len(c.reports) >= MaxReports {
		return ErrReportsFull
	}
	c.reports = append(c.reports, r)
	return nil
}

// RemoveReport deletes a report configuration by id, shifting survivors
// down, and clears the report id of any binding that referenced it —
// per dd_handle_report_delete, a binding never dangles on a deleted
// report configuration. Returns the bindings whose ReportID was
// cleared, so a caller backed by persistent storage knows exactly which
// rows need re-saving.
func (c *Cluster) RemoveReport(id uint8) ([]*Binding, error) {
	found := false
	for i, r := range c.reports {
		if r.ID == id {
			c.reports = append(c.reports[:i], c.reports[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return nil, ErrReportNotFound
	}
	var affected []*Binding
	for _, b := range c.bindings {
		if b.ReportID == id {
			b.ReportID = 0
			affected = append(affected, b)
		}
	}
	return affected, nil
}
