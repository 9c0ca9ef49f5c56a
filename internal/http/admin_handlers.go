package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"esculapi/internal/domain"
	"esculapi/internal/service"
)

// @Summary Create master catalog product
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.ProductInput true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/products [post]
func (s *Server) adminCreateProduct(c *gin.Context) {
	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.catalog.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary Update master catalog product
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param input body service.ProductInput true "Product"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /admin/products/{id} [put]
func (s *Server) adminUpdateProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.catalog.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type setActiveReq struct {
	Active *bool `json:"active" binding:"required"`
}

// @Summary Activate or deactivate a catalog product
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param input body setActiveReq true "Flag"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /admin/products/{id}/active [patch]
func (s *Server) adminSetProductActive(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req setActiveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.catalog.SetProductActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Delete a catalog product without stock references
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/products/{id} [delete]
func (s *Server) adminDeleteProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := s.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary List pharmacies by status
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string true "PENDING_APPROVAL | ACTIVE | SUSPENDED"
// @Success 200 {object} repository.Page[domain.Pharmacy]
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /admin/pharmacies [get]
func (s *Server) adminListPharmacies(c *gin.Context) {
	status := domain.PharmacyStatus(c.DefaultQuery("status", string(domain.PharmacyPendingApproval)))
	page, err := s.pharmacies.ListPharmaciesByStatus(c.Request.Context(), status, pageParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary Approve a pharmacy
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Pharmacy ID"
// @Success 200 {object} domain.Pharmacy
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/pharmacies/{id}/approve [post]
func (s *Server) adminApprovePharmacy(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	p, err := s.pharmacies.ApprovePharmacy(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Suspend an active pharmacy
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Pharmacy ID"
// @Success 200 {object} domain.Pharmacy
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/pharmacies/{id}/suspend [post]
func (s *Server) adminSuspendPharmacy(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	p, err := s.pharmacies.SuspendPharmacy(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Find user account by e-mail
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param email query string true "E-mail"
// @Success 200 {object} domain.User
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /admin/users [get]
func (s *Server) adminUserByEmail(c *gin.Context) {
	u, err := s.pharmacies.UserByEmail(c.Request.Context(), c.Query("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
