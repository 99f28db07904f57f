package filterform

import (
	"fmt"
	"strings"
)

// ScopeType is one of the three hierarchy levels at which a filter override
// may be recorded.
type ScopeType string

const (
	ScopeRouteConfig ScopeType = "route_config"
	ScopeVirtualHost ScopeType = "virtual_host"
	ScopeRoute       ScopeType = "route"
)

// Valid reports whether the value is one of the declared scope types.
func (t ScopeType) Valid() bool {
	switch t {
	case ScopeRouteConfig, ScopeVirtualHost, ScopeRoute:
		return true
	}
	return false
}

// ScopeIdentity names one attachment point in the routing hierarchy. The
// composite id string ("cfg", "cfg/vhost", "cfg/vhost/route") is a de-facto
// wire format shared with the persistence boundary; String and
// ParseScopeIdentity are its only authority.
type ScopeIdentity struct {
	Type        ScopeType `json:"type"`
	RouteConfig string    `json:"routeConfig"`
	VirtualHost string    `json:"virtualHost,omitempty"`
	Route       string    `json:"route,omitempty"`
}

// NewRouteConfigScope identifies a route-configuration-level attachment point.
func NewRouteConfigScope(routeConfig string) ScopeIdentity {
	return ScopeIdentity{Type: ScopeRouteConfig, RouteConfig: routeConfig}
}

// NewVirtualHostScope identifies a virtual-host-level attachment point.
func NewVirtualHostScope(routeConfig, virtualHost string) ScopeIdentity {
	return ScopeIdentity{Type: ScopeVirtualHost, RouteConfig: routeConfig, VirtualHost: virtualHost}
}

// NewRouteScope identifies a route-level attachment point.
func NewRouteScope(routeConfig, virtualHost, route string) ScopeIdentity {
	return ScopeIdentity{
		Type:        ScopeRoute,
		RouteConfig: routeConfig,
		VirtualHost: virtualHost,
		Route:       route,
	}
}

// String renders the composite id for the scope's level.
func (s ScopeIdentity) String() string {
	switch s.Type {
	case ScopeVirtualHost:
		return s.RouteConfig + "/" + s.VirtualHost
	case ScopeRoute:
		return s.RouteConfig + "/" + s.VirtualHost + "/" + s.Route
	default:
		return s.RouteConfig
	}
}

// Validate checks that the identity names every segment its level requires,
// no more, and that no segment embeds the separator.
func (s ScopeIdentity) Validate() error {
	if !s.Type.Valid() {
		return NewInvalidScopeError(fmt.Sprintf("unknown scope type '%s'", s.Type))
	}
	segments := []struct {
		name  string
		value string
		need  bool
	}{
		{"route config name", s.RouteConfig, true},
		{"virtual host name", s.VirtualHost, s.Type == ScopeVirtualHost || s.Type == ScopeRoute},
		{"route name", s.Route, s.Type == ScopeRoute},
	}
	for _, seg := range segments {
		if seg.need && seg.value == "" {
			return NewInvalidScopeError(fmt.Sprintf("%s scope requires a %s", s.Type, seg.name))
		}
		if !seg.need && seg.value != "" {
			return NewInvalidScopeError(fmt.Sprintf("%s scope must not carry a %s", s.Type, seg.name))
		}
		if strings.Contains(seg.value, "/") {
			return NewInvalidScopeError(fmt.Sprintf("%s must not contain '/'", seg.name))
		}
	}
	return nil
}

// Parent returns the next-less-specific scope, used when walking the
// hierarchy for effective-configuration precedence. The second return is
// false at the route-configuration level.
func (s ScopeIdentity) Parent() (ScopeIdentity, bool) {
	switch s.Type {
	case ScopeRoute:
		return NewVirtualHostScope(s.RouteConfig, s.VirtualHost), true
	case ScopeVirtualHost:
		return NewRouteConfigScope(s.RouteConfig), true
	default:
		return ScopeIdentity{}, false
	}
}

// ParseScopeIdentity reconstructs a scope from its type and composite id.
// The segment count must match the scope type exactly.
func ParseScopeIdentity(scopeType ScopeType, id string) (ScopeIdentity, error) {
	if !scopeType.Valid() {
		return ScopeIdentity{}, NewInvalidScopeError(fmt.Sprintf("unknown scope type '%s'", scopeType))
	}
	parts := strings.Split(id, "/")
	for _, part := range parts {
		if part == "" {
			return ScopeIdentity{}, NewInvalidScopeError(
				fmt.Sprintf("scope id '%s' contains an empty segment", id))
		}
	}

	var want int
	switch scopeType {
	case ScopeRouteConfig:
		want = 1
	case ScopeVirtualHost:
		want = 2
	case ScopeRoute:
		want = 3
	}
	if len(parts) != want {
		return ScopeIdentity{}, NewInvalidScopeError(
			fmt.Sprintf("scope id '%s' has %d segments, %s requires %d", id, len(parts), scopeType, want))
	}

	scope := ScopeIdentity{Type: scopeType, RouteConfig: parts[0]}
	if want >= 2 {
		scope.VirtualHost = parts[1]
	}
	if want == 3 {
		scope.Route = parts[2]
	}
	return scope, nil
}
