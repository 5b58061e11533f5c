// Copyright 2026 The pureflashblade-mcp Authors

package flashblade

import (
	"fmt"
	"sort"
	"strings"
)

// Endpoint maps a command name to the REST collection it reads
type Endpoint struct {
	Command string `json:"command"`
	Path    string `json:"path"`
	// Timeseries endpoints accept start_time, end_time and resolution
	Timeseries bool `json:"timeseries,omitempty"`
}

// collections are the read only FlashBlade REST 2.x collections exposed as commands.
// A command name is derived from the path: get_ followed by the path with - and / turned into _.
var collections = []string{
	"active-directory",
	"admins",
	"admins/api-tokens",
	"admins/cache",
	"admins/settings",
	"alert-watchers",
	"alerts",
	"api-clients",
	"array-connections",
	"array-connections/path",
	"array-connections/performance/replication",
	"arrays",
	"arrays/eula",
	"arrays/factory-reset-token",
	"arrays/http-specific-performance",
	"arrays/nfs-specific-performance",
	"arrays/performance",
	"arrays/performance/replication",
	"arrays/s3-specific-performance",
	"arrays/space",
	"arrays/supported-time-zones",
	"audits",
	"blades",
	"bucket-replica-links",
	"buckets",
	"buckets/performance",
	"buckets/s3-specific-performance",
	"certificate-groups",
	"certificates",
	"directory-services",
	"directory-services/roles",
	"dns",
	"drives",
	"file-system-replica-links",
	"file-system-snapshots",
	"file-systems",
	"file-systems/groups/performance",
	"file-systems/performance",
	"file-systems/users/performance",
	"hardware",
	"hardware-connectors",
	"keytabs",
	"kmip",
	"lifecycle-rules",
	"link-aggregation-groups",
	"logs-async",
	"network-interfaces",
	"nfs-export-policies",
	"object-store-access-keys",
	"object-store-access-policies",
	"object-store-accounts",
	"object-store-remote-credentials",
	"object-store-users",
	"object-store-virtual-hosts",
	"policies",
	"quotas/groups",
	"quotas/users",
	"rapid-data-locking",
	"roles",
	"sessions",
	"smb-client-policies",
	"smb-share-policies",
	"smtp-servers",
	"snmp-agents",
	"snmp-managers",
	"subnets",
	"support",
	"syslog-servers",
	"targets",
	"usage/groups",
	"usage/users",
}

var registry = buildRegistry(collections)

func buildRegistry(paths []string) map[string]Endpoint {
	reg := make(map[string]Endpoint, len(paths))
	for _, path := range paths {
		ep := Endpoint{
			Command:    CommandForPath(path),
			Path:       path,
			Timeseries: strings.Contains(path, "performance"),
		}
		if _, dup := reg[ep.Command]; dup {
			panic(fmt.Sprintf("duplicate command %s", ep.Command))
		}
		reg[ep.Command] = ep
	}
	return reg
}

// CommandForPath returns the command name for a REST collection path
func CommandForPath(path string) string {
	r := strings.NewReplacer("-", "_", "/", "_")
	return "get_" + r.Replace(strings.Trim(path, "/"))
}

// LookupEndpoint returns the endpoint registered for command
func LookupEndpoint(command string) (Endpoint, bool) {
	ep, ok := registry[strings.TrimSpace(command)]
	return ep, ok
}

// Commands returns every registered endpoint sorted by command name
func Commands() []Endpoint {
	eps := make([]Endpoint, 0, len(registry))
	for _, ep := range registry {
		eps = append(eps, ep)
	}
	sort.Slice(eps, func(i, j int) bool { return eps[i].Command < eps[j].Command })
	return eps
}
