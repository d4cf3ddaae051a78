package keycloak

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"

	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
	"github.com/turtacn/ScaffoldNet/pkg/types/common"
)

// Permission is one API capability.
type Permission string

const (
	PermNetworkBuild    Permission = "network:build"
	PermNetworkRead     Permission = "network:read"
	PermScaffoldSearch  Permission = "scaffold:search"
	PermAbbreviationUse Permission = "abbreviation:use"
)

// Role is a realm or client role name.
type Role string

const (
	RoleAdmin   Role = "scaffold_admin"
	RoleChemist Role = "chemist"
	RoleViewer  Role = "viewer"
	RoleService Role = "service"
)

// RolePermissionMapping maps roles to the permissions they grant.
type RolePermissionMapping map[Role][]Permission

// DefaultRolePermissionMapping returns the built-in grants.
func DefaultRolePermissionMapping() RolePermissionMapping {
	return RolePermissionMapping{
		RoleAdmin:   {PermNetworkBuild, PermNetworkRead, PermScaffoldSearch, PermAbbreviationUse},
		RoleChemist: {PermNetworkBuild, PermNetworkRead, PermScaffoldSearch, PermAbbreviationUse},
		RoleViewer:  {PermNetworkRead, PermScaffoldSearch},
		RoleService: {PermNetworkBuild, PermAbbreviationUse},
	}
}

// Enforcer checks the roles on a request context against a mapping.
type Enforcer struct {
	mu              sync.RWMutex
	rolePermissions RolePermissionMapping
	logger          logging.Logger
}

// NewEnforcer uses the default mapping when mapping is nil.
func NewEnforcer(mapping RolePermissionMapping, logger logging.Logger) *Enforcer {
	if mapping == nil {
		mapping = DefaultRolePermissionMapping()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Enforcer{rolePermissions: mapping, logger: logger}
}

// UpdateMapping swaps the mapping atomically.
func (e *Enforcer) UpdateMapping(mapping RolePermissionMapping) {
	e.mu.Lock()
	e.rolePermissions = mapping
	e.mu.Unlock()
}

func (e *Enforcer) HasPermission(ctx context.Context, p Permission) bool {
	roles, _ := RolesFromContext(ctx)
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, r := range roles {
		for _, granted := range e.rolePermissions[Role(r)] {
			if granted == p {
				return true
			}
		}
	}
	return false
}

// Permissions lists everything the caller's roles grant, sorted.
func (e *Enforcer) Permissions(ctx context.Context) []Permission {
	roles, _ := RolesFromContext(ctx)
	seen := make(map[Permission]bool)
	e.mu.RLock()
	for _, r := range roles {
		for _, p := range e.rolePermissions[Role(r)] {
			seen[p] = true
		}
	}
	e.mu.RUnlock()

	out := make([]Permission, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// EnforcePermission returns a Forbidden AppError when p is not granted.
func (e *Enforcer) EnforcePermission(ctx context.Context, p Permission) error {
	if e.HasPermission(ctx, p) {
		return nil
	}
	sub, _ := SubjectFromContext(ctx)
	e.logger.Warn("permission denied",
		logging.String("subject", sub),
		logging.String("permission", string(p)),
	)
	return errors.Newf(errors.ErrCodeForbidden, "missing permission %s", p)
}

// RequirePermission is HTTP middleware answering 403 when p is not granted.
func (e *Enforcer) RequirePermission(p Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := e.EnforcePermission(r.Context(), p); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(common.NewErrorResponse(string(errors.ErrCodeForbidden), err.(*errors.AppError).Message, ""))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

//Personal.AI order the ending
