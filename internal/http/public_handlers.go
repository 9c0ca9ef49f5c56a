package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary List active catalog products
// @Tags catalog
// @Produce json
// @Param page query int false "Page"
// @Param size query int false "Page size"
// @Success 200 {object} repository.Page[domain.Product]
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	page, err := s.catalog.ListProducts(c.Request.Context(), pageParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary Get catalog product by id
// @Tags catalog
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} map[string]string
// @Router /products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	p, err := s.catalog.ProductByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary List pharmacy offers for a product
// @Tags catalog
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} repository.Page[service.Offer]
// @Failure 404 {object} map[string]string
// @Router /products/{id}/offers [get]
func (s *Server) offersByProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	page, err := s.catalog.OffersByProduct(c.Request.Context(), id, pageParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary Search offers by product name
// @Tags catalog
// @Produce json
// @Param name query string true "Name contains"
// @Success 200 {object} repository.Page[service.Offer]
// @Failure 400 {object} map[string]string
// @Router /offers [get]
func (s *Server) searchOffers(c *gin.Context) {
	page, err := s.catalog.SearchOffers(c.Request.Context(), c.Query("name"), pageParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary Get offer by stock item id
// @Tags catalog
// @Produce json
// @Param id path int true "Stock item ID"
// @Success 200 {object} service.Offer
// @Failure 404 {object} map[string]string
// @Router /offers/{id} [get]
func (s *Server) getOffer(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	offer, err := s.catalog.OfferByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

// @Summary List a pharmacy's public offers
// @Tags catalog
// @Produce json
// @Param id path int true "Pharmacy ID"
// @Success 200 {object} repository.Page[service.Offer]
// @Failure 404 {object} map[string]string
// @Router /pharmacies/{id}/offers [get]
func (s *Server) pharmacyOffers(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	page, err := s.catalog.PharmacyOffers(c.Request.Context(), id, pageParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type paymentWebhookReq struct {
	OrderID int64  `json:"order_id" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

// @Summary Payment gateway webhook
// @Tags payments
// @Accept json
// @Param X-Webhook-Secret header string true "Shared secret"
// @Param input body paymentWebhookReq true "Notification"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /webhooks/payment [post]
func (s *Server) paymentWebhook(c *gin.Context) {
	var req paymentWebhookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	secret := c.GetHeader("X-Webhook-Secret")
	if err := s.payments.ProcessWebhook(c.Request.Context(), secret, req.OrderID, req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
