package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"esculapi/internal/auth"
	"esculapi/internal/config"
	httpapi "esculapi/internal/http"
	"esculapi/internal/repository"
	"esculapi/internal/service"
	"esculapi/internal/storage"

	_ "esculapi/docs"
)

type repos struct {
	users         repository.UserRepository
	customers     repository.CustomerRepository
	pharmacies    repository.PharmacyRepository
	pharmacists   repository.PharmacistRepository
	addresses     repository.AddressRepository
	products      repository.ProductRepository
	stock         repository.StockRepository
	orders        repository.OrderRepository
	prescriptions repository.PrescriptionRepository
	tx            repository.TxManager
}

func buildRepos(cfg config.Config) (*repos, error) {
	if cfg.DatabaseDSN == "" {
		store := repository.NewMemoryStore()
		return &repos{
			users:         repository.NewMemoryUsers(store),
			customers:     repository.NewMemoryCustomers(store),
			pharmacies:    repository.NewMemoryPharmacies(store),
			pharmacists:   repository.NewMemoryPharmacists(store),
			addresses:     repository.NewMemoryAddresses(store),
			products:      repository.NewMemoryProducts(store),
			stock:         repository.NewMemoryStock(store),
			orders:        repository.NewMemoryOrders(store),
			prescriptions: repository.NewMemoryPrescriptions(store),
			tx:            repository.NewMemoryTx(store),
		}, nil
	}
	db, err := repository.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	return &repos{
		users:         repository.NewGormUsers(db),
		customers:     repository.NewGormCustomers(db),
		pharmacies:    repository.NewGormPharmacies(db),
		pharmacists:   repository.NewGormPharmacists(db),
		addresses:     repository.NewGormAddresses(db),
		products:      repository.NewGormProducts(db),
		stock:         repository.NewGormStock(db),
		orders:        repository.NewGormOrders(db),
		prescriptions: repository.NewGormPrescriptions(db),
		tx:            repository.NewGormTx(db),
	}, nil
}

func buildStorage(ctx context.Context, cfg config.Config) (storage.Storage, error) {
	if cfg.Storage == "s3" {
		return storage.NewS3(ctx, cfg.S3Bucket)
	}
	return storage.NewFS(cfg.UploadDir)
}

func main() {
	cfg := config.Load()

	r, err := buildRepos(cfg)
	if err != nil {
		log.Fatalf("repositories: %v", err)
	}
	files, err := buildStorage(context.Background(), cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	authSvc := service.NewAuthService(r.users, r.customers, r.pharmacies, r.addresses, tokens, r.tx)
	catalogSvc := service.NewCatalogService(r.products, r.stock, r.pharmacies, r.tx)
	ordersSvc := service.NewOrderService(r.orders, r.stock, r.products, r.prescriptions, r.addresses, files, r.tx)
	paymentsSvc := service.NewPaymentService(r.orders, cfg.WebhookSecret, r.tx)
	pharmacySvc := service.NewPharmacyService(r.users, r.pharmacies, r.pharmacists, r.tx)

	identity := httpapi.NewIdentityLoader(tokens, r.users, r.customers, r.pharmacies, r.pharmacists)
	srv := httpapi.NewServer(identity, authSvc, catalogSvc, ordersSvc, paymentsSvc, pharmacySvc)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Engine(),
	}

	go func() {
		log.Printf("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
