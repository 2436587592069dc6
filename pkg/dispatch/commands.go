package dispatch

import (
	"context"
	"sort"

	"github.com/zclip-go/zclipd/pkg/wire"
)

func (d *Dispatcher) handleCommands(m Method, res resource) Response {
	_, cluster, ok := d.lookupCluster(res)
	if !ok {
		return missing(m)
	}
	if m != MethodGET {
		return methodNotAllowed()
	}
	ids := cluster.CommandIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	body, err := wire.Marshal(ids)
	if err != nil {
		return internalError()
	}
	return content(body)
}

func (d *Dispatcher) handleCommand(ctx context.Context, m Method, body []byte, res resource) Response {
	_, cluster, ok := d.lookupCluster(res)
	if !ok {
		return missing(m)
	}
	cmd, err := cluster.Command(res.id)
	if err != nil {
		return missing(m)
	}
	if m != MethodPOST {
		return methodNotAllowed()
	}
	// Responds 2.04 regardless of the executor's result body — command
	// arguments and results are not modeled at this layer (§4.6).
	if _, err := cmd.Invoke(ctx, body); err != nil {
		return badRequest()
	}
	return changed()
}
