package permission

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"
	"gopkg.in/yaml.v3"
)

// Role is a named permission profile.
type Role string

const (
	RoleSuperAdmin   Role = "super_admin"
	RoleAdmin        Role = "admin"
	RoleManager      Role = "manager"
	RoleNoPermission Role = "no_permission"
)

// Roles lists the closed role set.
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleManager, RoleNoPermission}

// Feature is a feature key in a role's feature grants.
type Feature string

const (
	FeatureUsers     Feature = "users"
	FeatureSchedules Feature = "schedules"
	FeatureDiscord   Feature = "discord"
	FeatureImages    Feature = "images"
	FeatureSystem    Feature = "system"
	FeatureCheckin   Feature = "checkin"
)

// Common action names.
const (
	ActionView           = "canView"
	ActionViewAll        = "canViewAll"
	ActionCreate         = "canCreate"
	ActionEdit           = "canEdit"
	ActionEditAll        = "canEditAll"
	ActionDelete         = "canDelete"
	ActionDeleteAll      = "canDeleteAll"
	ActionManageRoles    = "canManageRoles"
	ActionSendMessage    = "canSendMessage"
	ActionManageBot      = "canManageBot"
	ActionUpload         = "canUpload"
	ActionViewLogs       = "canViewLogs"
	ActionViewDashboard  = "canViewDashboard"
	ActionManageSettings = "canManageSettings"
)

// NavKey is a navigation item key.
type NavKey string

const (
	NavScheduleNew      NavKey = "showScheduleNew"
	NavScheduleEdit     NavKey = "showScheduleEdit"
	NavScheduleCalendar NavKey = "showScheduleCalendar"
	NavScheduleStatus   NavKey = "showScheduleStatus"
	NavDiscord          NavKey = "showDiscord"
	NavProfile          NavKey = "showProfile"
	NavUserManagement   NavKey = "showUserManagement"
	NavCheckinSchedules NavKey = "showCheckinSchedules"
)

// RoutePermissions holds the ordered allowed path patterns.
type RoutePermissions struct {
	AllowedPaths []string `yaml:"allowedPaths" json:"allowedPaths"`
}

// RoleConfig is one role's declared capabilities.
type RoleConfig struct {
	DisplayName string                      `yaml:"displayName" json:"displayName"`
	Description string                      `yaml:"description" json:"description"`
	Color       string                      `yaml:"color,omitempty" json:"color,omitempty"`
	Features    map[Feature]map[string]bool `yaml:"features" json:"features"`
	Navigation  map[NavKey]bool             `yaml:"navigation" json:"navigation"`
	Routes      RoutePermissions            `yaml:"routes" json:"routes"`

	patterns []*pattern
}

// Table is the whole permission document.
type Table struct {
	Roles               map[Role]*RoleConfig `yaml:"roles" json:"roles"`
	FeatureDescriptions map[string]string    `yaml:"featureDescriptions,omitempty" json:"featureDescriptions,omitempty"`
}

// ErrInvalidTable wraps every load and validation failure.
var ErrInvalidTable = errors.New("invalid permission table")

//go:embed default.yaml
var defaultFS embed.FS

// Default returns the built-in dashboard table.
func Default() *Table {
	data, err := defaultFS.ReadFile("default.yaml")
	if err != nil {
		panic(err)
	}
	t, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return t
}

// Load reads and parses a table file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	return Parse(data)
}

// Parse decodes a YAML or JSON table, validates it, and compiles its patterns.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if err := t.compile(); err != nil {
		return nil, err
	}
	return &t, nil
}

// New builds a table from role configs already in memory.
func New(roles map[Role]*RoleConfig) (*Table, error) {
	t := &Table{Roles: roles}
	if err := t.compile(); err != nil {
		return nil, err
	}
	return t, nil
}

var roleNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func (t *Table) compile() error {
	if err := t.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	for role, cfg := range t.Roles {
		if cfg == nil {
			continue
		}
		cfg.patterns = make([]*pattern, 0, len(cfg.Routes.AllowedPaths))
		for _, raw := range cfg.Routes.AllowedPaths {
			p, err := compilePattern(raw)
			if err != nil {
				return fmt.Errorf("%w: role %s: %v", ErrInvalidTable, role, err)
			}
			cfg.patterns = append(cfg.patterns, p)
		}
	}
	return nil
}

func (t *Table) validate() error {
	if len(t.Roles) == 0 {
		return errors.New("no roles declared")
	}
	for role, cfg := range t.Roles {
		if !roleNamePattern.MatchString(string(role)) {
			return fmt.Errorf("role %q: name must be lower snake case", role)
		}
		if cfg == nil {
			continue
		}
		err := validation.ValidateStruct(&cfg.Routes,
			validation.Field(&cfg.Routes.AllowedPaths, validation.Each(validation.By(validatePattern))),
		)
		if err != nil {
			return fmt.Errorf("role %s: %v", role, err)
		}
	}
	return nil
}

// Config returns the configuration for role, or nil when none is declared.
func (t *Table) Config(role Role) *RoleConfig {
	if t == nil || t.Roles == nil {
		return nil
	}
	return t.Roles[role]
}

// MissingRoles reports roles of the closed set without an entry.
func (t *Table) MissingRoles() []Role {
	var missing []Role
	for _, r := range Roles {
		if t.Config(r) == nil {
			missing = append(missing, r)
		}
	}
	return missing
}

func validatePattern(value interface{}) error {
	s, _ := value.(string)
	_, err := compilePattern(s)
	return err
}

// IsParameterized reports whether a path pattern contains a placeholder.
func IsParameterized(p string) bool {
	return strings.Contains(p, ":")
}
