package identity

import (
	"sort"
	"strings"

	"github.com/carehours/backend/internal/domain/shared"
)

// Wildcard matches any resource or action in a permission code
const Wildcard = "*"

// Resources that can appear in a permission code
const (
	ResourceUser             = "user"
	ResourceRole             = "role"
	ResourceClient           = "client"
	ResourceProvider         = "provider"
	ResourceInsurance        = "insurance"
	ResourceTimesheet        = "timesheet"
	ResourceInvoice          = "invoice"
	ResourceCommunityClass   = "community_class"
	ResourceCommunityInvoice = "community_invoice"
	ResourcePayroll          = "payroll"
	ResourceDocument         = "document"
	ResourceEmail            = "email"
	ResourceAudit            = "audit"
	ResourceReport           = "report"
)

// Actions that can appear in a permission code
const (
	ActionCreate   = "create"
	ActionRead     = "read"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
	ActionSubmit   = "submit"
	ActionApprove  = "approve"
	ActionSend     = "send"
	ActionPay      = "pay"
	ActionVoid     = "void"
	ActionProcess  = "process"
	ActionGenerate = "generate"
)

var knownResources = map[string]bool{
	ResourceUser: true, ResourceRole: true, ResourceClient: true, ResourceProvider: true,
	ResourceInsurance: true, ResourceTimesheet: true, ResourceInvoice: true,
	ResourceCommunityClass: true, ResourceCommunityInvoice: true, ResourcePayroll: true,
	ResourceDocument: true, ResourceEmail: true, ResourceAudit: true, ResourceReport: true,
	Wildcard: true,
}

var knownActions = map[string]bool{
	ActionCreate: true, ActionRead: true, ActionUpdate: true, ActionDelete: true,
	ActionSubmit: true, ActionApprove: true, ActionSend: true, ActionPay: true,
	ActionVoid: true, ActionProcess: true, ActionGenerate: true,
	Wildcard: true,
}

// Permission is a value object in resource:action form
type Permission struct {
	Code        string
	Resource    string
	Action      string
	Description string
}

// NewPermission validates and builds a permission
func NewPermission(resource, action string) (Permission, error) {
	resource = strings.ToLower(strings.TrimSpace(resource))
	action = strings.ToLower(strings.TrimSpace(action))

	if !knownResources[resource] {
		return Permission{}, shared.NewDomainError("INVALID_PERMISSION", "Unknown permission resource: "+resource)
	}
	if !knownActions[action] {
		return Permission{}, shared.NewDomainError("INVALID_PERMISSION", "Unknown permission action: "+action)
	}

	return Permission{
		Code:     resource + ":" + action,
		Resource: resource,
		Action:   action,
	}, nil
}

// NewPermissionFromCode parses a "resource:action" string
func NewPermissionFromCode(code string) (Permission, error) {
	parts := strings.SplitN(code, ":", 2)
	if len(parts) != 2 {
		return Permission{}, shared.NewDomainError("INVALID_PERMISSION", "Permission code must be in format 'resource:action'")
	}
	return NewPermission(parts[0], parts[1])
}

// Grants reports whether this permission covers the requested code
func (p Permission) Grants(code string) bool {
	return MatchPermission(p.Code, code)
}

// MatchPermission reports whether a granted code covers a required code.
// "resource:*" covers every action on the resource and "*:*" covers everything.
func MatchPermission(granted, required string) bool {
	if granted == required {
		return true
	}
	gRes, gAct, ok := strings.Cut(granted, ":")
	if !ok {
		return false
	}
	rRes, rAct, ok := strings.Cut(required, ":")
	if !ok {
		return false
	}
	resOK := gRes == Wildcard || gRes == rRes
	actOK := gAct == Wildcard || gAct == rAct
	return resOK && actOK
}

// HasPermission checks a required code against a granted set
func HasPermission(granted []string, required string) bool {
	for _, g := range granted {
		if MatchPermission(g, required) {
			return true
		}
	}
	return false
}

// ResolvePermissions returns the sorted, de-duplicated union of permission
// codes across the enabled roles.
func ResolvePermissions(roles []*Role) []string {
	seen := make(map[string]bool)
	codes := make([]string, 0)
	for _, role := range roles {
		if role == nil || !role.IsEnabled || role.IsDeleted() {
			continue
		}
		for _, p := range role.Permissions {
			if !seen[p.Code] {
				seen[p.Code] = true
				codes = append(codes, p.Code)
			}
		}
	}
	sort.Strings(codes)
	return codes
}

// AllPermissionCodes returns "resource:action" for every known pair plus
// "resource:*" per resource, sorted
func AllPermissionCodes() []string {
	codes := make([]string, 0, len(knownResources)*len(knownActions))
	for res := range knownResources {
		if res == Wildcard {
			continue
		}
		for act := range knownActions {
			codes = append(codes, res+":"+act)
		}
	}
	sort.Strings(codes)
	return codes
}

// ActionForMethod maps an HTTP method to the CRUD action it implies
func ActionForMethod(method string) string {
	switch strings.ToUpper(method) {
	case "GET", "HEAD":
		return ActionRead
	case "POST":
		return ActionCreate
	case "PUT", "PATCH":
		return ActionUpdate
	case "DELETE":
		return ActionDelete
	}
	return ""
}
