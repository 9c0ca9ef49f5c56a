package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary List employer pharmacy's orders awaiting payment
// @Tags pharmacist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} repository.Page[domain.Order]
// @Failure 403 {object} map[string]string
// @Router /pharmacist/orders/pending [get]
func (s *Server) pendingOrders(c *gin.Context) {
	page, err := s.orders.PendingOrders(c.Request.Context(), pageParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary Get an employer pharmacy's order
// @Tags pharmacist
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /pharmacist/orders/{id} [get]
func (s *Server) pharmacistOrderDetails(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	o, err := s.orders.PharmacistOrderDetails(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Approve an order's prescription
// @Tags pharmacist
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /pharmacist/orders/{id}/prescription/approve [post]
func (s *Server) approvePrescription(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	o, err := s.orders.ApprovePrescription(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type rejectPrescriptionReq struct {
	Justification string `json:"justification" binding:"required"`
}

// @Summary Reject an order's prescription, cancelling the order
// @Tags pharmacist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param input body rejectPrescriptionReq true "Justification"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /pharmacist/orders/{id}/prescription/reject [post]
func (s *Server) rejectPrescription(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req rejectPrescriptionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.orders.RejectPrescription(c.Request.Context(), id, req.Justification)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
