package httpapi

import (
	"strconv"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"esculapi/internal/repository"
	"esculapi/internal/service"
)

type Server struct {
	engine     *gin.Engine
	identity   *IdentityLoader
	auth       *service.AuthService
	catalog    *service.CatalogService
	orders     *service.OrderService
	payments   *service.PaymentService
	pharmacies *service.PharmacyService
}

func NewServer(
	identity *IdentityLoader,
	auth *service.AuthService,
	catalog *service.CatalogService,
	orders *service.OrderService,
	payments *service.PaymentService,
	pharmacies *service.PharmacyService,
) *Server {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	s := &Server{
		engine:     r,
		identity:   identity,
		auth:       auth,
		catalog:    catalog,
		orders:     orders,
		payments:   payments,
		pharmacies: pharmacies,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := s.engine.Group("/api/v1")

	// публичные маршруты
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register/customer", s.registerCustomer)
		authGroup.POST("/register/pharmacy", s.registerPharmacy)
		authGroup.POST("/login", s.login)
	}

	products := v1.Group("/products")
	{
		products.GET("", s.listProducts)
		products.GET(":id", s.getProduct)
		products.GET(":id/offers", s.offersByProduct)
	}

	offers := v1.Group("/offers")
	{
		offers.GET("", s.searchOffers)
		offers.GET(":id", s.getOffer)
	}

	v1.GET("/pharmacies/:id/offers", s.pharmacyOffers)
	v1.POST("/webhooks/payment", s.paymentWebhook)

	// маршруты покупателя
	customer := v1.Group("/customer", s.identity.Middleware())
	{
		customer.POST("/addresses", s.createAddress)
		customer.GET("/addresses", s.listAddresses)
		customer.POST("/orders", s.createOrder)
		customer.GET("/orders", s.myOrders)
		customer.GET("/orders/:id", s.orderDetails)
		customer.POST("/orders/:id/cancel", s.cancelOrder)
		customer.POST("/orders/:id/prescription", s.attachPrescription)
		customer.POST("/orders/:id/checkout", s.checkout)
	}

	// маршруты администратора аптеки
	pharmacy := v1.Group("/pharmacy", s.identity.Middleware())
	{
		pharmacy.GET("/stock", s.myStock)
		pharmacy.POST("/stock", s.addStockItem)
		pharmacy.PUT("/stock/:id", s.updateStockItem)
		pharmacy.DELETE("/stock/:id", s.deleteStockItem)
		pharmacy.GET("/orders", s.pharmacyOrders)
		pharmacy.GET("/orders/:id", s.pharmacyOrderDetails)
		pharmacy.POST("/orders/:id/accept", s.acceptOrder)
		pharmacy.POST("/orders/:id/refuse", s.refuseOrder)
		pharmacy.PATCH("/orders/:id/status", s.updateOrderStatus)
		pharmacy.POST("/pharmacists", s.registerPharmacist)
	}

	// маршруты фармацевта
	pharmacist := v1.Group("/pharmacist", s.identity.Middleware())
	{
		pharmacist.GET("/orders/pending", s.pendingOrders)
		pharmacist.GET("/orders/:id", s.pharmacistOrderDetails)
		pharmacist.POST("/orders/:id/prescription/approve", s.approvePrescription)
		pharmacist.POST("/orders/:id/prescription/reject", s.rejectPrescription)
	}

	// маршруты администратора платформы
	admin := v1.Group("/admin", s.identity.Middleware())
	{
		admin.POST("/products", s.adminCreateProduct)
		admin.PUT("/products/:id", s.adminUpdateProduct)
		admin.PATCH("/products/:id/active", s.adminSetProductActive)
		admin.DELETE("/products/:id", s.adminDeleteProduct)
		admin.GET("/pharmacies", s.adminListPharmacies)
		admin.POST("/pharmacies/:id/approve", s.adminApprovePharmacy)
		admin.POST("/pharmacies/:id/suspend", s.adminSuspendPharmacy)
		admin.GET("/users", s.adminUserByEmail)
	}
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func pageParams(c *gin.Context) repository.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	return repository.Pagination{Page: page, Size: size}
}
