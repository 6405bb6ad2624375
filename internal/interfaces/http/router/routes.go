package router

import (
	"github.com/carehours/backend/internal/domain/identity"
	"github.com/carehours/backend/internal/interfaces/http/handler"
	"github.com/carehours/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers holds every API handler mounted by Groups
type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Role      *handler.RoleHandler
	Client    *handler.ClientHandler
	Provider  *handler.ProviderHandler
	Insurance *handler.InsuranceHandler
	Timesheet *handler.TimesheetHandler
	Invoice   *handler.InvoiceHandler
	Community *handler.CommunityHandler
	Payroll   *handler.PayrollHandler
	Document  *handler.DocumentHandler
	Email     *handler.EmailHandler
	Report    *handler.ReportHandler
	Audit     *handler.AuditHandler
	System    *handler.SystemHandler

	// Idempotency guards payment and generation routes; nil disables it
	Idempotency gin.HandlerFunc
}

func (h Handlers) idempotent() gin.HandlerFunc {
	if h.Idempotency == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return h.Idempotency
}

// can guards a route with resource:action
func can(resource, action string) gin.HandlerFunc {
	return middleware.RequirePermission(resource + ":" + action)
}

// crud registers the five standard routes of a resource, guarded by the
// action their method implies
func crud(g *DomainGroup, resource string, create, list, get, update, remove gin.HandlerFunc) {
	guard := middleware.RequireResource(resource)
	g.POST("", guard, create).
		GET("", guard, list).
		GET("/:id", guard, get).
		PUT("/:id", guard, update).
		DELETE("/:id", guard, remove)
}

// Groups builds the CareHours API route table. Each route carries its own
// permission guard; authentication and tenant resolution are applied by the
// Router for the whole API.
func Groups(h Handlers) []*DomainGroup {
	const (
		read     = identity.ActionRead
		create   = identity.ActionCreate
		update   = identity.ActionUpdate
		remove   = identity.ActionDelete
		submit   = identity.ActionSubmit
		approve  = identity.ActionApprove
		send     = identity.ActionSend
		pay      = identity.ActionPay
		void     = identity.ActionVoid
		process  = identity.ActionProcess
		generate = identity.ActionGenerate
	)
	once := h.idempotent()

	auth := NewDomainGroup("auth", "/auth").
		POST("/login", h.Auth.Login).
		POST("/refresh", h.Auth.Refresh).
		POST("/logout", h.Auth.Logout).
		GET("/me", h.Auth.Me).
		PUT("/password", h.Auth.ChangePassword)

	users := NewDomainGroup("users", "/users")
	crud(users, identity.ResourceUser, h.User.Create, h.User.List, h.User.GetByID, h.User.Update, h.User.Delete)
	users.PUT("/:id/roles", can(identity.ResourceUser, update), h.User.AssignRoles).
		POST("/:id/activate", can(identity.ResourceUser, update), h.User.Activate).
		POST("/:id/deactivate", can(identity.ResourceUser, update), h.User.Deactivate).
		POST("/:id/unlock", can(identity.ResourceUser, update), h.User.Unlock).
		PUT("/:id/password", can(identity.ResourceUser, update), h.User.ResetPassword)

	roles := NewDomainGroup("roles", "/roles")
	crud(roles, identity.ResourceRole, h.Role.Create, h.Role.List, h.Role.GetByID, h.Role.Update, h.Role.Delete)
	roles.PUT("/:id/permissions", can(identity.ResourceRole, update), h.Role.SetPermissions)

	permissions := NewDomainGroup("permissions", "/permissions").
		GET("", can(identity.ResourceRole, read), h.Role.Permissions)

	clients := NewDomainGroup("clients", "/clients")
	crud(clients, identity.ResourceClient, h.Client.Create, h.Client.List, h.Client.GetByID, h.Client.Update, h.Client.Delete)
	clients.POST("/:id/discharge", can(identity.ResourceClient, update), h.Client.Discharge).
		POST("/:id/reactivate", can(identity.ResourceClient, update), h.Client.Reactivate).
		POST("/:id/deactivate", can(identity.ResourceClient, update), h.Client.Deactivate)

	providers := NewDomainGroup("providers", "/providers")
	crud(providers, identity.ResourceProvider, h.Provider.Create, h.Provider.List, h.Provider.GetByID, h.Provider.Update, h.Provider.Delete)
	providers.POST("/:id/activate", can(identity.ResourceProvider, update), h.Provider.Activate).
		POST("/:id/deactivate", can(identity.ResourceProvider, update), h.Provider.Deactivate)

	insurances := NewDomainGroup("insurances", "/insurances")
	crud(insurances, identity.ResourceInsurance, h.Insurance.Create, h.Insurance.List, h.Insurance.GetByID, h.Insurance.Update, h.Insurance.Delete)

	timesheets := NewDomainGroup("timesheets", "/timesheets")
	crud(timesheets, identity.ResourceTimesheet, h.Timesheet.Create, h.Timesheet.List, h.Timesheet.GetByID, h.Timesheet.Update, h.Timesheet.Delete)
	timesheets.POST("/:id/entries", can(identity.ResourceTimesheet, update), h.Timesheet.AddEntry).
		PUT("/:id/entries/:entry_id", can(identity.ResourceTimesheet, update), h.Timesheet.UpdateEntry).
		DELETE("/:id/entries/:entry_id", can(identity.ResourceTimesheet, update), h.Timesheet.RemoveEntry).
		POST("/:id/submit", can(identity.ResourceTimesheet, submit), h.Timesheet.Submit).
		POST("/:id/approve", can(identity.ResourceTimesheet, approve), h.Timesheet.Approve).
		POST("/:id/reject", can(identity.ResourceTimesheet, approve), h.Timesheet.Reject).
		POST("/:id/reopen", can(identity.ResourceTimesheet, update), h.Timesheet.Reopen)

	invoices := NewDomainGroup("invoices", "/invoices").
		POST("/generate", can(identity.ResourceInvoice, generate), once, h.Invoice.Generate).
		GET("", can(identity.ResourceInvoice, read), h.Invoice.List).
		GET("/:id", can(identity.ResourceInvoice, read), h.Invoice.GetByID).
		PUT("/:id", can(identity.ResourceInvoice, update), h.Invoice.Update).
		DELETE("/:id", can(identity.ResourceInvoice, remove), h.Invoice.Delete).
		POST("/:id/lines", can(identity.ResourceInvoice, update), h.Invoice.AddLine).
		DELETE("/:id/lines/:line_id", can(identity.ResourceInvoice, update), h.Invoice.RemoveLine).
		POST("/:id/send", can(identity.ResourceInvoice, send), h.Invoice.Send).
		POST("/:id/payments", can(identity.ResourceInvoice, pay), once, h.Invoice.RecordPayment).
		POST("/:id/void", can(identity.ResourceInvoice, void), h.Invoice.Void)

	classes := NewDomainGroup("community-classes", "/community-classes")
	crud(classes, identity.ResourceCommunityClass, h.Community.CreateClass, h.Community.ListClasses, h.Community.GetClass, h.Community.UpdateClass, h.Community.DeleteClass)
	classes.POST("/:id/attendees", can(identity.ResourceCommunityClass, update), h.Community.Enroll).
		DELETE("/:id/attendees/:client_id", can(identity.ResourceCommunityClass, update), h.Community.Unenroll).
		POST("/:id/complete", can(identity.ResourceCommunityClass, update), h.Community.CompleteClass).
		POST("/:id/cancel", can(identity.ResourceCommunityClass, update), h.Community.CancelClass).
		POST("/:id/invoices", can(identity.ResourceCommunityInvoice, generate), once, h.Community.GenerateInvoices)

	communityInvoices := NewDomainGroup("community-invoices", "/community-invoices").
		GET("", can(identity.ResourceCommunityInvoice, read), h.Community.ListInvoices).
		GET("/:id", can(identity.ResourceCommunityInvoice, read), h.Community.GetInvoice).
		DELETE("/:id", can(identity.ResourceCommunityInvoice, remove), h.Community.DeleteInvoice).
		POST("/:id/send", can(identity.ResourceCommunityInvoice, send), h.Community.SendInvoice).
		POST("/:id/payments", can(identity.ResourceCommunityInvoice, pay), once, h.Community.RecordInvoicePayment).
		POST("/:id/void", can(identity.ResourceCommunityInvoice, void), h.Community.VoidInvoice)

	payroll := NewDomainGroup("payroll", "/payroll")
	payroll.Group("imports", "/imports").
		POST("", can(identity.ResourcePayroll, create), once, h.Payroll.Upload).
		GET("", can(identity.ResourcePayroll, read), h.Payroll.List).
		GET("/:id", can(identity.ResourcePayroll, read), h.Payroll.GetByID).
		DELETE("/:id", can(identity.ResourcePayroll, remove), h.Payroll.Delete).
		POST("/:id/process", can(identity.ResourcePayroll, process), h.Payroll.Process).
		GET("/:id/reconcile", can(identity.ResourcePayroll, read), h.Payroll.Reconcile)

	documents := NewDomainGroup("documents", "/documents").
		POST("", can(identity.ResourceDocument, generate), h.Document.Generate).
		GET("", can(identity.ResourceDocument, read), h.Document.List).
		GET("/:id", can(identity.ResourceDocument, read), h.Document.GetByID).
		GET("/:id/download", can(identity.ResourceDocument, read), h.Document.Download).
		DELETE("/:id", can(identity.ResourceDocument, remove), h.Document.Delete)

	emails := NewDomainGroup("emails", "/emails").
		POST("", can(identity.ResourceEmail, create), h.Email.Enqueue).
		GET("", can(identity.ResourceEmail, read), h.Email.List).
		GET("/drain", can(identity.ResourceEmail, read), h.Email.DrainStatus).
		POST("/drain", can(identity.ResourceEmail, send), h.Email.Drain).
		GET("/:id", can(identity.ResourceEmail, read), h.Email.GetByID).
		POST("/:id/cancel", can(identity.ResourceEmail, update), h.Email.Cancel).
		POST("/:id/retry", can(identity.ResourceEmail, update), h.Email.Retry)

	reports := NewDomainGroup("reports", "/reports").
		Use(can(identity.ResourceReport, read)).
		GET("/unbilled-units", h.Report.UnbilledUnits).
		GET("/provider-hours", h.Report.ProviderHours).
		GET("/receivables-aging", h.Report.ReceivablesAging)

	audit := NewDomainGroup("audit", "/audit-logs").
		GET("", can(identity.ResourceAudit, read), h.Audit.List)

	system := NewDomainGroup("system", "/system").
		GET("/info", h.System.GetSystemInfo).
		GET("/ping", h.System.Ping)

	return []*DomainGroup{
		auth, users, roles, permissions,
		clients, providers, insurances,
		timesheets, invoices, classes, communityInvoices,
		payroll, documents, emails, reports, audit, system,
	}
}

// RegisterGroups registers every group with r
func RegisterGroups(r *Router, groups []*DomainGroup) *Router {
	for _, g := range groups {
		r.Register(g)
	}
	return r
}
