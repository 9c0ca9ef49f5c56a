package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"esculapi/internal/service"
)

// @Summary Register customer account
// @Tags auth
// @Accept json
// @Produce json
// @Param input body service.RegisterCustomerInput true "Customer"
// @Success 201 {object} domain.Customer
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/register/customer [post]
func (s *Server) registerCustomer(c *gin.Context) {
	var req service.RegisterCustomerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	created, err := s.auth.RegisterCustomer(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary Register pharmacy with its admin account
// @Tags auth
// @Accept json
// @Produce json
// @Param input body service.RegisterPharmacyInput true "Pharmacy"
// @Success 201 {object} domain.Pharmacy
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/register/pharmacy [post]
func (s *Server) registerPharmacy(c *gin.Context) {
	var req service.RegisterPharmacyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	created, err := s.auth.RegisterPharmacy(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginReq true "Credentials"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	token, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
