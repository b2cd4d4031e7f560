package handlers

import (
	"github.com/jmoiron/sqlx"

	"shopbot/internal/chat"
	"shopbot/internal/config"
	"shopbot/internal/events"
	"shopbot/internal/notify"
	"shopbot/internal/repos"
	"shopbot/internal/services"
)

type Deps struct {
	WebhookHandler *WebhookHandler
	AdminHandler   *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, bus events.Publisher, customers notify.Notifier) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	storeRepo := repos.NewStoreRepo(db)
	userRepo := repos.NewUserRepo(db)

	catalogSvc := services.NewCatalogService(catRepo, prodRepo)
	cartSvc := services.NewCartService(cartRepo, prodRepo)
	validator := services.NewValidator(cartRepo, prodRepo)

	orderSvc := services.NewOrderService(orderRepo, cartRepo, prodRepo, validator)
	orderSvc.Bus = bus
	orderSvc.Operators = notify.NewBroadcaster(customers)
	orderSvc.OperatorIDs = cfg.OperatorIDs

	checkoutSvc := services.NewCheckout(cartSvc, validator, orderSvc, cfg.CheckoutTimeout)
	checkoutSvc.Stores = storeRepo

	lifecycle := services.NewLifecycle(orderRepo)
	lifecycle.Customers = customers
	lifecycle.Bus = bus

	router := &chat.Router{
		Catalog:     catalogSvc,
		Cart:        cartSvc,
		Checkout:    checkoutSvc,
		Selection:   services.NewSelectionStore(cfg.CheckoutTimeout),
		Lifecycle:   lifecycle,
		Orders:      orderRepo,
		Users:       userRepo,
		OperatorIDs: cfg.OperatorIDs,
	}

	return &Deps{
		WebhookHandler: &WebhookHandler{Router: router},
		AdminHandler: &AdminHandler{
			Orders:    orderRepo,
			Lifecycle: lifecycle,
			Users:     userRepo,
			Broadcast: notify.NewBroadcaster(customers),
		},
	}
}
