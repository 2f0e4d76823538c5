package permission

// RoleSource reports the role of the signed-in user, or "" when there is none.
type RoleSource interface {
	CurrentRole() string
}

// StaticRole is a fixed [RoleSource].
type StaticRole Role

// CurrentRole implements [RoleSource].
func (r StaticRole) CurrentRole() string { return string(r) }

// Checker answers permission queries for the role currently reported by its
// source. All methods are total: absent data resolves to false.
type Checker struct {
	table *Table
	roles RoleSource
}

// NewChecker binds table to a role source. A nil source always resolves to
// [RoleNoPermission].
func NewChecker(table *Table, roles RoleSource) *Checker {
	return &Checker{table: table, roles: roles}
}

// Table returns the underlying read-only table.
func (c *Checker) Table() *Table { return c.table }

// CurrentRole returns the role in effect, defaulting to [RoleNoPermission].
func (c *Checker) CurrentRole() Role {
	if c.roles == nil {
		return RoleNoPermission
	}
	if r := c.roles.CurrentRole(); r != "" {
		return Role(r)
	}
	return RoleNoPermission
}

// CurrentRoleConfig returns the config for the role in effect, or nil.
func (c *Checker) CurrentRoleConfig() *RoleConfig {
	return c.table.Config(c.CurrentRole())
}

// HasPermission reports roles[role].features[feature][action].
func (c *Checker) HasPermission(feature Feature, action string) bool {
	cfg := c.CurrentRoleConfig()
	if cfg == nil {
		return false
	}
	return cfg.Features[feature][action]
}

// CanAccessRoute reports whether path matches any allowed pattern of the
// role in effect.
func (c *Checker) CanAccessRoute(path string) bool {
	return c.CurrentRoleConfig().allows(path)
}

// ShouldShowNavItem reports roles[role].navigation[key].
func (c *Checker) ShouldShowNavItem(key NavKey) bool {
	cfg := c.CurrentRoleConfig()
	if cfg == nil {
		return false
	}
	return cfg.Navigation[key]
}

// IsAdmin reports whether the role is exactly super_admin or admin.
func (c *Checker) IsAdmin() bool {
	r := c.CurrentRole()
	return r == RoleSuperAdmin || r == RoleAdmin
}

// IsSuperAdmin reports whether the role is exactly super_admin.
func (c *Checker) IsSuperAdmin() bool {
	return c.CurrentRole() == RoleSuperAdmin
}

// AllowedPaths returns a copy of the ordered allowed patterns for the role in
// effect.
func (c *Checker) AllowedPaths() []string {
	cfg := c.CurrentRoleConfig()
	if cfg == nil {
		return nil
	}
	return append([]string(nil), cfg.Routes.AllowedPaths...)
}

// ForRole returns a checker with the same table pinned to role.
func (c *Checker) ForRole(role Role) *Checker {
	return NewChecker(c.table, StaticRole(role))
}

func (cfg *RoleConfig) allows(path string) bool {
	if cfg == nil {
		return false
	}
	if cfg.patterns == nil {
		// Built as a literal without going through New or Parse.
		for _, raw := range cfg.Routes.AllowedPaths {
			if MatchPath(raw, path) {
				return true
			}
		}
		return false
	}
	for _, p := range cfg.patterns {
		if p.match(path) {
			return true
		}
	}
	return false
}
