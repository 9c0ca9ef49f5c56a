package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"esculapi/internal/domain"
	"esculapi/internal/service"
)

// @Summary List own stock
// @Tags pharmacy
// @Produce json
// @Security BearerAuth
// @Success 200 {object} repository.Page[domain.StockItem]
// @Failure 403 {object} map[string]string
// @Router /pharmacy/stock [get]
func (s *Server) myStock(c *gin.Context) {
	page, err := s.catalog.MyStock(c.Request.Context(), pageParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary Add stock item
// @Tags pharmacy
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.StockItemInput true "Stock item"
// @Success 201 {object} domain.StockItem
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /pharmacy/stock [post]
func (s *Server) addStockItem(c *gin.Context) {
	var req service.StockItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	st, err := s.catalog.AddStockItem(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// @Summary Update stock item
// @Tags pharmacy
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Stock item ID"
// @Param input body service.StockItemInput true "Stock item"
// @Success 200 {object} domain.StockItem
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /pharmacy/stock/{id} [put]
func (s *Server) updateStockItem(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req service.StockItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	st, err := s.catalog.UpdateStockItem(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary Delete stock item
// @Tags pharmacy
// @Security BearerAuth
// @Param id path int true "Stock item ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /pharmacy/stock/{id} [delete]
func (s *Server) deleteStockItem(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := s.catalog.DeleteStockItem(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary List orders containing this pharmacy's items
// @Tags pharmacy
// @Produce json
// @Security BearerAuth
// @Success 200 {object} repository.Page[domain.Order]
// @Failure 403 {object} map[string]string
// @Router /pharmacy/orders [get]
func (s *Server) pharmacyOrders(c *gin.Context) {
	page, err := s.orders.PharmacyOrders(c.Request.Context(), pageParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary Get order details
// @Tags pharmacy
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /pharmacy/orders/{id} [get]
func (s *Server) pharmacyOrderDetails(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	o, err := s.orders.PharmacyOrderDetails(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Accept a paid order
// @Tags pharmacy
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /pharmacy/orders/{id}/accept [post]
func (s *Server) acceptOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	o, err := s.orders.AcceptOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Refuse a paid order, restocking its items
// @Tags pharmacy
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /pharmacy/orders/{id}/refuse [post]
func (s *Server) refuseOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	o, err := s.orders.RefuseOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type updateStatusReq struct {
	Status domain.OrderStatus `json:"status" binding:"required"`
}

// @Summary Advance order fulfilment status
// @Tags pharmacy
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param input body updateStatusReq true "Target status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /pharmacy/orders/{id}/status [patch]
func (s *Server) updateOrderStatus(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.orders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Register a pharmacist for own pharmacy
// @Tags pharmacy
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.RegisterPharmacistInput true "Pharmacist"
// @Success 201 {object} domain.Pharmacist
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /pharmacy/pharmacists [post]
func (s *Server) registerPharmacist(c *gin.Context) {
	var req service.RegisterPharmacistInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	ph, err := s.pharmacies.RegisterPharmacist(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ph)
}
