package storage

import (
	"github.com/zclip-go/zclipd/pkg/model"
)

// Link walks both tables and inserts each valid record into the
// matching cluster's in-memory array, enforcing the cluster's capacity.
// Called once at startup after the device's endpoint/cluster tree has
// been built but before the transport layer starts accepting requests.
//
// The persisted row only carries an endpoint id and a 16-bit cluster
// id — not a cluster's full (role, id, manufacturer) identity — so a
// row is linked to the first cluster on that endpoint whose id matches,
// preferring a server-role cluster since bindings and reports are a
// server-side concept in practice.
//
// dd_storage_link_reports in the reference implementation used the
// bindings-linking loop's endpoint index variable inside the reports
// loop, misattributing every report row to the wrong endpoint whenever
// more than one endpoint was present. This function indexes by the
// row's own endpoint id throughout, so that confusion has no Go
// equivalent to reproduce.
func (s *Store) Link(device *model.Device) error {
	if err := s.linkBindings(device); err != nil {
		return err
	}
	return s.linkReports(device)
}

func (s *Store) linkBindings(device *model.Device) error {
	for slot := 0; slot < tableRows; slot++ {
		valid, eid, cid, payload := s.read(bindingsTable, slot)
		if !valid {
			continue
		}
		endpoint, err := device.Endpoint(eid)
		if err != nil {
			continue
		}
		cluster := findCluster(endpoint, cid)
		if cluster == nil {
			continue
		}
		binding, err := unmarshalBinding(uint8(slot+1), payload)
		if err != nil {
			return err
		}
		if err := cluster.AddBinding(binding); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) linkReports(device *model.Device) error {
	for slot := 0; slot < tableRows; slot++ {
		valid, eid, cid, payload := s.read(reportsTable, slot)
		if !valid {
			continue
		}
		endpoint, err := device.Endpoint(eid)
		if err != nil {
			continue
		}
		cluster := findCluster(endpoint, cid)
		if cluster == nil {
			continue
		}
		report, err := unmarshalReport(uint8(slot+1), payload)
		if err != nil {
			return err
		}
		if err := cluster.AddReport(report); err != nil {
			return err
		}
	}
	return nil
}

// findCluster returns the first cluster on endpoint whose id matches
// cid, preferring RoleServer over RoleClient.
func findCluster(endpoint *model.Endpoint, cid uint16) *model.Cluster {
	var fallback *model.Cluster
	for _, c := range endpoint.Clusters() {
		key := c.Key()
		if key.ID != cid {
			continue
		}
		if key.Role == model.RoleServer {
			return c
		}
		if fallback == nil {
			fallback = c
		}
	}
	return fallback
}
