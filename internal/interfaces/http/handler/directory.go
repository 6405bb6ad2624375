package handler

import (
	"github.com/carehours/backend/internal/application/directory"
	"github.com/gin-gonic/gin"
)

// ClientHandler handles client HTTP requests
type ClientHandler struct {
	BaseHandler
	clientService *directory.ClientService
}

// NewClientHandler creates a new client handler
func NewClientHandler(clientService *directory.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

// Create godoc
// @ID           createClient
// @Summary      Create a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        request body directory.CreateClientRequest true "Client"
// @Success      201 {object} APIResponse[directory.ClientResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /clients [post]
func (h *ClientHandler) Create(c *gin.Context) {
	var req directory.CreateClientRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	client, err := h.clientService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, client)
}

// GetByID godoc
// @ID           getClientById
// @Summary      Get a client
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Success      200 {object} APIResponse[directory.ClientResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /clients/{id} [get]
func (h *ClientHandler) GetByID(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	client, err := h.clientService.GetByID(c.Request.Context(), tenantID, id)
	h.respond(c, client, err)
}

// List godoc
// @ID           listClients
// @Summary      List clients
// @Tags         clients
// @Produce      json
// @Param        search       query string false "Name, email or member number"
// @Param        status       query string false "Status" Enums(active, inactive, discharged)
// @Param        insurance_id query string false "Insurance ID" format(uuid)
// @Param        page         query int    false "Page" default(1)
// @Param        page_size    query int    false "Page size" default(20)
// @Param        order_by     query string false "Sort field"
// @Param        order_dir    query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]directory.ClientResponse]
// @Security     BearerAuth
// @Router       /clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	var filter directory.ClientListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	clients, total, err := h.clientService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, clients, total, filter.Page, filter.PageSize)
}

// Update godoc
// @ID           updateClient
// @Summary      Update a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id      path string                        true "Client ID" format(uuid)
// @Param        request body directory.UpdateClientRequest true "Client"
// @Success      200 {object} APIResponse[directory.ClientResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /clients/{id} [put]
func (h *ClientHandler) Update(c *gin.Context) {
	var req directory.UpdateClientRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	client, err := h.clientService.Update(c.Request.Context(), tenantID, id, req)
	h.respond(c, client, err)
}

// Discharge godoc
// @ID           dischargeClient
// @Summary      Discharge a client
// @Description  Ends services. The discharge date defaults to today.
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id      path string                           true  "Client ID" format(uuid)
// @Param        request body directory.DischargeClientRequest false "Discharge date"
// @Success      200 {object} APIResponse[directory.ClientResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /clients/{id}/discharge [post]
func (h *ClientHandler) Discharge(c *gin.Context) {
	var req directory.DischargeClientRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	client, err := h.clientService.Discharge(c.Request.Context(), tenantID, id, req)
	h.respond(c, client, err)
}

// Reactivate godoc
// @ID           reactivateClient
// @Summary      Reactivate a client
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Success      200 {object} APIResponse[directory.ClientResponse]
// @Security     BearerAuth
// @Router       /clients/{id}/reactivate [post]
func (h *ClientHandler) Reactivate(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	client, err := h.clientService.Reactivate(c.Request.Context(), tenantID, id)
	h.respond(c, client, err)
}

// Deactivate godoc
// @ID           deactivateClient
// @Summary      Deactivate a client
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Success      200 {object} APIResponse[directory.ClientResponse]
// @Security     BearerAuth
// @Router       /clients/{id}/deactivate [post]
func (h *ClientHandler) Deactivate(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	client, err := h.clientService.Deactivate(c.Request.Context(), tenantID, id)
	h.respond(c, client, err)
}

// Delete godoc
// @ID           deleteClient
// @Summary      Delete a client
// @Tags         clients
// @Param        id path string true "Client ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /clients/{id} [delete]
func (h *ClientHandler) Delete(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	if err := h.clientService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ProviderHandler handles provider HTTP requests
type ProviderHandler struct {
	BaseHandler
	providerService *directory.ProviderService
}

// NewProviderHandler creates a new provider handler
func NewProviderHandler(providerService *directory.ProviderService) *ProviderHandler {
	return &ProviderHandler{providerService: providerService}
}

// Create godoc
// @ID           createProvider
// @Summary      Create a provider
// @Tags         providers
// @Accept       json
// @Produce      json
// @Param        request body directory.CreateProviderRequest true "Provider"
// @Success      201 {object} APIResponse[directory.ProviderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /providers [post]
func (h *ProviderHandler) Create(c *gin.Context) {
	var req directory.CreateProviderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	provider, err := h.providerService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, provider)
}

// GetByID godoc
// @ID           getProviderById
// @Summary      Get a provider
// @Tags         providers
// @Produce      json
// @Param        id path string true "Provider ID" format(uuid)
// @Success      200 {object} APIResponse[directory.ProviderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /providers/{id} [get]
func (h *ProviderHandler) GetByID(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	provider, err := h.providerService.GetByID(c.Request.Context(), tenantID, id)
	h.respond(c, provider, err)
}

// List godoc
// @ID           listProviders
// @Summary      List providers
// @Tags         providers
// @Produce      json
// @Param        search     query string false "Name, email or NPI"
// @Param        status     query string false "Status" Enums(active, inactive)
// @Param        credential query string false "Credential"
// @Param        page       query int    false "Page" default(1)
// @Param        page_size  query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]directory.ProviderResponse]
// @Security     BearerAuth
// @Router       /providers [get]
func (h *ProviderHandler) List(c *gin.Context) {
	var filter directory.ProviderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	providers, total, err := h.providerService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, providers, total, filter.Page, filter.PageSize)
}

// Update godoc
// @ID           updateProvider
// @Summary      Update a provider
// @Tags         providers
// @Accept       json
// @Produce      json
// @Param        id      path string                          true "Provider ID" format(uuid)
// @Param        request body directory.UpdateProviderRequest true "Provider"
// @Success      200 {object} APIResponse[directory.ProviderResponse]
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /providers/{id} [put]
func (h *ProviderHandler) Update(c *gin.Context) {
	var req directory.UpdateProviderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	provider, err := h.providerService.Update(c.Request.Context(), tenantID, id, req)
	h.respond(c, provider, err)
}

// Activate godoc
// @ID           activateProvider
// @Summary      Activate a provider
// @Tags         providers
// @Produce      json
// @Param        id path string true "Provider ID" format(uuid)
// @Success      200 {object} APIResponse[directory.ProviderResponse]
// @Security     BearerAuth
// @Router       /providers/{id}/activate [post]
func (h *ProviderHandler) Activate(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	provider, err := h.providerService.Activate(c.Request.Context(), tenantID, id)
	h.respond(c, provider, err)
}

// Deactivate godoc
// @ID           deactivateProvider
// @Summary      Deactivate a provider
// @Tags         providers
// @Produce      json
// @Param        id path string true "Provider ID" format(uuid)
// @Success      200 {object} APIResponse[directory.ProviderResponse]
// @Security     BearerAuth
// @Router       /providers/{id}/deactivate [post]
func (h *ProviderHandler) Deactivate(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	provider, err := h.providerService.Deactivate(c.Request.Context(), tenantID, id)
	h.respond(c, provider, err)
}

// Delete godoc
// @ID           deleteProvider
// @Summary      Delete a provider
// @Tags         providers
// @Param        id path string true "Provider ID" format(uuid)
// @Success      204
// @Security     BearerAuth
// @Router       /providers/{id} [delete]
func (h *ProviderHandler) Delete(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	if err := h.providerService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// InsuranceHandler handles payer HTTP requests
type InsuranceHandler struct {
	BaseHandler
	insuranceService *directory.InsuranceService
}

// NewInsuranceHandler creates a new insurance handler
func NewInsuranceHandler(insuranceService *directory.InsuranceService) *InsuranceHandler {
	return &InsuranceHandler{insuranceService: insuranceService}
}

// Create godoc
// @ID           createInsurance
// @Summary      Create an insurance payer
// @Tags         insurances
// @Accept       json
// @Produce      json
// @Param        request body directory.CreateInsuranceRequest true "Insurance"
// @Success      201 {object} APIResponse[directory.InsuranceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /insurances [post]
func (h *InsuranceHandler) Create(c *gin.Context) {
	var req directory.CreateInsuranceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	insurance, err := h.insuranceService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, insurance)
}

// GetByID godoc
// @ID           getInsuranceById
// @Summary      Get an insurance payer
// @Tags         insurances
// @Produce      json
// @Param        id path string true "Insurance ID" format(uuid)
// @Success      200 {object} APIResponse[directory.InsuranceResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /insurances/{id} [get]
func (h *InsuranceHandler) GetByID(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	insurance, err := h.insuranceService.GetByID(c.Request.Context(), tenantID, id)
	h.respond(c, insurance, err)
}

// List godoc
// @ID           listInsurances
// @Summary      List insurance payers
// @Tags         insurances
// @Produce      json
// @Param        search    query string false "Name or payer ID"
// @Param        status    query string false "Status" Enums(active, inactive)
// @Param        page      query int    false "Page" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]directory.InsuranceResponse]
// @Security     BearerAuth
// @Router       /insurances [get]
func (h *InsuranceHandler) List(c *gin.Context) {
	var params directory.ListParams
	if !h.bindQuery(c, &params) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	insurances, total, err := h.insuranceService.List(c.Request.Context(), tenantID, params)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, insurances, total, params.Page, params.PageSize)
}

// Update godoc
// @ID           updateInsurance
// @Summary      Update an insurance payer
// @Tags         insurances
// @Accept       json
// @Produce      json
// @Param        id      path string                           true "Insurance ID" format(uuid)
// @Param        request body directory.UpdateInsuranceRequest true "Insurance"
// @Success      200 {object} APIResponse[directory.InsuranceResponse]
// @Security     BearerAuth
// @Router       /insurances/{id} [put]
func (h *InsuranceHandler) Update(c *gin.Context) {
	var req directory.UpdateInsuranceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	insurance, err := h.insuranceService.Update(c.Request.Context(), tenantID, id, req)
	h.respond(c, insurance, err)
}

// Delete godoc
// @ID           deleteInsurance
// @Summary      Delete an insurance payer
// @Description  Rejected while active clients still reference the payer
// @Tags         insurances
// @Param        id path string true "Insurance ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /insurances/{id} [delete]
func (h *InsuranceHandler) Delete(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	if err := h.insuranceService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
