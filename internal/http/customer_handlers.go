package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"esculapi/internal/domain"
	"esculapi/internal/service"
)

// @Summary Add delivery address
// @Tags customer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body domain.Address true "Address"
// @Success 201 {object} domain.Address
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /customer/addresses [post]
func (s *Server) createAddress(c *gin.Context) {
	var req domain.Address
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	a, err := s.auth.CreateAddress(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// @Summary List own delivery addresses
// @Tags customer
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Address
// @Failure 403 {object} map[string]string
// @Router /customer/addresses [get]
func (s *Server) listAddresses(c *gin.Context) {
	list, err := s.auth.MyAddresses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type createOrderReq struct {
	AddressID int64              `json:"address_id" binding:"required"`
	Items     []service.CartLine `json:"items" binding:"required"`
}

// @Summary Place an order
// @Tags customer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body createOrderReq true "Order"
// @Success 201 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /customer/orders [post]
func (s *Server) createOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.orders.CreateOrder(c.Request.Context(), req.AddressID, req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// @Summary List own orders
// @Tags customer
// @Produce json
// @Security BearerAuth
// @Success 200 {object} repository.Page[domain.Order]
// @Failure 403 {object} map[string]string
// @Router /customer/orders [get]
func (s *Server) myOrders(c *gin.Context) {
	page, err := s.orders.MyOrders(c.Request.Context(), pageParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary Get own order by id
// @Tags customer
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /customer/orders/{id} [get]
func (s *Server) orderDetails(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	o, err := s.orders.OrderDetails(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Cancel own order
// @Tags customer
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /customer/orders/{id}/cancel [post]
func (s *Server) cancelOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	o, err := s.orders.CancelOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Attach prescription file to an order
// @Tags customer
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param file formData file true "Prescription file"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /customer/orders/{id}/prescription [post]
func (s *Server) attachPrescription(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "O arquivo da receita é obrigatório."})
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	o, err := s.orders.AttachPrescription(c.Request.Context(), id, fh.Filename, fh.Size, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Create payment checkout session
// @Tags customer
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 201 {object} service.CheckoutSession
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /customer/orders/{id}/checkout [post]
func (s *Server) checkout(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	session, err := s.payments.CreateCheckoutSession(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}
