package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
)

// UserStore defines user persistence. Handlers depend on this so tests can use in-memory stores.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, page, pageSize int) ([]*models.User, int, error)
	Count(ctx context.Context) (int, error)
}

// ProductStore defines catalog persistence
type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f models.ProductFilter) ([]*models.Product, int, error)
	Categories(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
}

// OrderStore defines order persistence, including stock reservation
type OrderStore interface {
	Place(ctx context.Context, userID uuid.UUID, lines []models.OrderLine, address models.Address) (*models.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error)
	List(ctx context.Context, status *models.OrderStatus, page, pageSize int) ([]*models.Order, int, error)
	Transition(ctx context.Context, id uuid.UUID, next models.OrderStatus) (*models.Order, error)
	Stats(ctx context.Context) (*models.OrderStats, error)
}

// PaymentStore defines payment persistence
type PaymentStore interface {
	Record(ctx context.Context, p *models.Payment) (*models.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*models.Payment, error)
}

// NotificationStore defines notification persistence
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// Stores groups every repository so it can be passed around as one value
type Stores struct {
	Users         UserStore
	Products      ProductStore
	Orders        OrderStore
	Payments      PaymentStore
	Notifications NotificationStore
}

// NewStores creates Postgres-backed repositories sharing db
func NewStores(db *DB) Stores {
	return Stores{
		Users:         NewUserRepository(db),
		Products:      NewProductRepository(db),
		Orders:        NewOrderRepository(db),
		Payments:      NewPaymentRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

// Ensure concrete types implement the interfaces
var (
	_ UserStore         = (*UserRepository)(nil)
	_ ProductStore      = (*ProductRepository)(nil)
	_ OrderStore        = (*OrderRepository)(nil)
	_ PaymentStore      = (*PaymentRepository)(nil)
	_ NotificationStore = (*NotificationRepository)(nil)
)
