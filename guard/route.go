package guard

import (
	"net/url"
	"strings"

	"github.com/MrEthical07/goGuard/permission"
)

// Kind distinguishes real pages from pure redirect placeholders.
type Kind int

const (
	// KindPage is a navigable page.
	KindPage Kind = iota
	// KindRootRedirect is the application root; it only forwards.
	KindRootRedirect
	// KindDashboardRedirect is the empty child of a protected parent.
	KindDashboardRedirect
)

func (k Kind) String() string {
	switch k {
	case KindRootRedirect:
		return "root_redirect"
	case KindDashboardRedirect:
		return "dashboard_redirect"
	default:
		return "page"
	}
}

// RouteDef declares one route of the routing configuration.
type RouteDef struct {
	Pattern string
	Kind    Kind
	Public  bool
	// PermissionPath overrides the path used for the authorization lookup.
	PermissionPath string
	// Parent is the protected parent of a dashboard placeholder.
	Parent string
}

// Route describes a concrete navigation target.
type Route struct {
	Path           string
	FullPath       string
	Query          url.Values
	Kind           Kind
	Public         bool
	PermissionPath string
	Parent         string
	Pattern        string
}

// EffectivePermissionPath returns the override or the literal path.
func (r Route) EffectivePermissionPath() string {
	if r.PermissionPath != "" {
		return r.PermissionPath
	}
	return r.Path
}

// DefaultPublicPaths are reachable without a session.
var DefaultPublicPaths = []string{"/login", "/register"}

// DefaultRoutes mirrors the dashboard router.
func DefaultRoutes() []RouteDef {
	return []RouteDef{
		{Pattern: "/", Kind: KindRootRedirect},
		{Pattern: "/login", Public: true},
		{Pattern: "/register", Public: true},
		{Pattern: "/dashboard", Kind: KindDashboardRedirect, Parent: "/dashboard"},
		{Pattern: "/dashboard/schedule/new"},
		{Pattern: "/dashboard/schedule/edit/:id"},
		{Pattern: "/dashboard/schedule/calendar"},
		{Pattern: "/dashboard/schedule/status"},
		{Pattern: "/dashboard/discord"},
		{Pattern: "/dashboard/profile"},
		{Pattern: "/dashboard/admin/users"},
		{Pattern: "/dashboard/checkin/schedules"},
	}
}

// RouteTable resolves URLs into [Route] values.
type RouteTable struct {
	public map[string]struct{}
	defs   []RouteDef
}

// NewRouteTable builds a table. Definitions are matched in order.
func NewRouteTable(publicPaths []string, defs ...RouteDef) *RouteTable {
	t := &RouteTable{public: make(map[string]struct{}, len(publicPaths)), defs: defs}
	for _, p := range publicPaths {
		t.public[p] = struct{}{}
	}
	return t
}

// DefaultRouteTable is NewRouteTable(DefaultPublicPaths, DefaultRoutes()...).
func DefaultRouteTable() *RouteTable {
	return NewRouteTable(DefaultPublicPaths, DefaultRoutes()...)
}

// Defs returns the declared routes.
func (t *RouteTable) Defs() []RouteDef {
	return append([]RouteDef(nil), t.defs...)
}

// Resolve maps rawURL onto the first matching definition. Unknown paths are
// protected pages unless listed as public.
func (t *RouteTable) Resolve(rawURL string) Route {
	path, query, full := splitURL(rawURL)
	r := Route{Path: path, FullPath: full, Query: query}
	for _, d := range t.defs {
		if !permission.MatchPath(d.Pattern, path) {
			continue
		}
		r.Kind = d.Kind
		r.Public = d.Public
		r.PermissionPath = d.PermissionPath
		r.Parent = d.Parent
		r.Pattern = d.Pattern
		break
	}
	if _, ok := t.public[path]; ok {
		r.Public = true
	}
	return r
}

func splitURL(raw string) (string, url.Values, string) {
	u, err := url.Parse(raw)
	if err != nil {
		// Keep navigation total: treat the input as an opaque path.
		p := raw
		if i := strings.IndexAny(p, "?#"); i >= 0 {
			p = p[:i]
		}
		if p == "" {
			p = "/"
		}
		return p, url.Values{}, raw
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	full := path
	if u.RawQuery != "" {
		full += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		full += "#" + u.EscapedFragment()
	}
	return path, u.Query(), full
}
