// Package dbtest provides in-memory implementations of the database stores for tests.
package dbtest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Durgesh-2001/Booze-Delivery/internal/database"
	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
)

// Memory holds every table behind one lock so multi-table operations stay atomic.
type Memory struct {
	mu            sync.Mutex
	users         map[uuid.UUID]*models.User
	products      map[uuid.UUID]*models.Product
	orders        map[uuid.UUID]*models.Order
	payments      map[uuid.UUID]*models.Payment
	notifications map[uuid.UUID]*models.Notification
}

// New returns an empty in-memory database
func New() *Memory {
	return &Memory{
		users:         map[uuid.UUID]*models.User{},
		products:      map[uuid.UUID]*models.Product{},
		orders:        map[uuid.UUID]*models.Order{},
		payments:      map[uuid.UUID]*models.Payment{},
		notifications: map[uuid.UUID]*models.Notification{},
	}
}

// Stores returns store views over m
func (m *Memory) Stores() database.Stores {
	return database.Stores{
		Users:         Users{m},
		Products:      Products{m},
		Orders:        Orders{m},
		Payments:      Payments{m},
		Notifications: Notifications{m},
	}
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, database.ErrNotFound)
}

func paginate[T any](items []T, page, pageSize int) []T {
	page = min(max(page, 1), database.MaxPage)
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Users is the in-memory UserStore
type Users struct{ m *Memory }

func (s Users) Create(_ context.Context, user *models.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if u.Email == user.Email {
			return fmt.Errorf("email %q: %w", user.Email, database.ErrDuplicate)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = models.RoleCustomer
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	s.m.users[user.ID] = &cp
	return nil
}

func (s Users) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return nil, notFound("user")
	}
	cp := *u
	return &cp, nil
}

func (s Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, notFound("user")
}

func (s Users) Update(_ context.Context, user *models.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	existing, ok := s.m.users[user.ID]
	if !ok {
		return notFound("user")
	}
	user.UpdatedAt = time.Now()
	user.CreatedAt = existing.CreatedAt
	user.Email = existing.Email
	cp := *user
	s.m.users[user.ID] = &cp
	return nil
}

func (s Users) List(_ context.Context, page, pageSize int) ([]*models.User, int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	all := make([]*models.User, 0, len(s.m.users))
	for _, u := range s.m.users {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, page, pageSize), len(all), nil
}

func (s Users) Count(_ context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return len(s.m.users), nil
}

// Products is the in-memory ProductStore
type Products struct{ m *Memory }

func (s Products) Create(_ context.Context, p *models.Product) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	s.m.products[p.ID] = &cp
	return nil
}

func (s Products) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.products[id]
	if !ok {
		return nil, notFound("product")
	}
	cp := *p
	return &cp, nil
}

func (s Products) Update(_ context.Context, p *models.Product) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	existing, ok := s.m.products[p.ID]
	if !ok {
		return notFound("product")
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	cp := *p
	s.m.products[p.ID] = &cp
	return nil
}

func (s Products) Delete(_ context.Context, id uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.products[id]; !ok {
		return notFound("product")
	}
	delete(s.m.products, id)
	return nil
}

func (s Products) List(_ context.Context, f models.ProductFilter) ([]*models.Product, int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(f.Query))
	all := []*models.Product{}
	for _, p := range s.m.products {
		if f.ActiveOnly && !p.Active {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		cp := *p
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return paginate(all, f.Page, f.PageSize), len(all), nil
}

func (s Products) Categories(_ context.Context) ([]string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	seen := map[string]bool{}
	out := []string{}
	for _, p := range s.m.products {
		if p.Active && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s Products) Count(_ context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return len(s.m.products), nil
}

// Orders is the in-memory OrderStore
type Orders struct{ m *Memory }

func (s Orders) Place(_ context.Context, userID uuid.UUID, lines []models.OrderLine, address models.Address) (*models.Order, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	order := &models.Order{
		ID:      uuid.New(),
		UserID:  userID,
		Address: address,
		Status:  models.OrderStatusPending,
	}
	for _, line := range lines {
		p, ok := s.m.products[line.ProductID]
		if !ok || !p.Active {
			return nil, notFound("product")
		}
		if p.Stock < line.Quantity {
			return nil, fmt.Errorf("product %s: %w", p.ID, database.ErrInsufficientStock)
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: line.Quantity,
		})
	}
	for _, item := range order.Items {
		s.m.products[item.ProductID].Stock -= item.Quantity
	}
	order.Amount = order.Total()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	s.m.orders[order.ID] = order
	return copyOrder(order), nil
}

func (s Orders) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	o, ok := s.m.orders[id]
	if !ok {
		return nil, notFound("order")
	}
	return copyOrder(o), nil
}

func (s Orders) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.Order, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []*models.Order{}
	for _, o := range s.m.orders {
		if o.UserID == userID {
			out = append(out, copyOrder(o))
		}
	}
	sortOrders(out)
	return out, nil
}

func (s Orders) List(_ context.Context, status *models.OrderStatus, page, pageSize int) ([]*models.Order, int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	all := []*models.Order{}
	for _, o := range s.m.orders {
		if status == nil || o.Status == *status {
			all = append(all, copyOrder(o))
		}
	}
	sortOrders(all)
	return paginate(all, page, pageSize), len(all), nil
}

func (s Orders) Transition(_ context.Context, id uuid.UUID, next models.OrderStatus) (*models.Order, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	o, ok := s.m.orders[id]
	if !ok {
		return nil, notFound("order")
	}
	if !o.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%s to %s: %w", o.Status, next, database.ErrInvalidTransition)
	}
	if next == models.OrderStatusCancelled {
		for _, item := range o.Items {
			if p, ok := s.m.products[item.ProductID]; ok {
				p.Stock += item.Quantity
			}
		}
	}
	o.Status = next
	o.UpdatedAt = time.Now()
	return copyOrder(o), nil
}

func (s Orders) Stats(_ context.Context) (*models.OrderStats, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stats := &models.OrderStats{ByStatus: map[models.OrderStatus]int{}}
	for _, o := range s.m.orders {
		stats.TotalOrders++
		stats.ByStatus[o.Status]++
		if o.Paid && o.Status != models.OrderStatusCancelled {
			stats.TotalRevenue += o.Amount
		}
	}
	return stats, nil
}

func copyOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	return &cp
}

func sortOrders(orders []*models.Order) {
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
}

// Payments is the in-memory PaymentStore
type Payments struct{ m *Memory }

func (s Payments) Record(_ context.Context, p *models.Payment) (*models.Order, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	o, ok := s.m.orders[p.OrderID]
	if !ok {
		return nil, notFound("order")
	}
	if o.Status == models.OrderStatusCancelled || o.Status == models.OrderStatusDelivered {
		return nil, fmt.Errorf("order %s is %s: %w", o.ID, o.Status, database.ErrOrderClosed)
	}
	if o.Paid {
		return nil, fmt.Errorf("order %s: %w", o.ID, database.ErrAlreadyPaid)
	}
	for _, existing := range s.m.payments {
		if existing.OrderID == o.ID && existing.Status != models.PaymentStatusFailed {
			return nil, fmt.Errorf("order %s: %w", o.ID, database.ErrAlreadyPaid)
		}
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Amount = o.Amount
	p.UserID = o.UserID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	s.m.payments[p.ID] = &cp

	if p.Status == models.PaymentStatusSucceeded {
		o.Paid = true
	}
	if o.Status == models.OrderStatusPending {
		o.Status = models.OrderStatusConfirmed
	}
	o.UpdatedAt = time.Now()
	return copyOrder(o), nil
}

func (s Payments) GetByID(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.payments[id]
	if !ok {
		return nil, notFound("payment")
	}
	cp := *p
	return &cp, nil
}

func (s Payments) ListByOrder(_ context.Context, orderID uuid.UUID) ([]*models.Payment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []*models.Payment{}
	for _, p := range s.m.payments {
		if p.OrderID == orderID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Notifications is the in-memory NotificationStore
type Notifications struct{ m *Memory }

func (s Notifications) Create(_ context.Context, n *models.Notification) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if _, exists := s.m.notifications[n.ID]; exists {
		return nil
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	cp := *n
	s.m.notifications[n.ID] = &cp
	return nil
}

func (s Notifications) ListByUser(_ context.Context, userID uuid.UUID, unreadOnly bool) ([]*models.Notification, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []*models.Notification{}
	for _, n := range s.m.notifications {
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s Notifications) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	count := 0
	for _, n := range s.m.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s Notifications) MarkRead(_ context.Context, userID, id uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	n, ok := s.m.notifications[id]
	if !ok || n.UserID != userID {
		return notFound("notification")
	}
	n.Read = true
	return nil
}

func (s Notifications) MarkAllRead(_ context.Context, userID uuid.UUID) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	changed := 0
	for _, n := range s.m.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed, nil
}

func (s Notifications) Delete(_ context.Context, userID, id uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	n, ok := s.m.notifications[id]
	if !ok || n.UserID != userID {
		return notFound("notification")
	}
	delete(s.m.notifications, id)
	return nil
}

var (
	_ database.UserStore         = Users{}
	_ database.ProductStore      = Products{}
	_ database.OrderStore        = Orders{}
	_ database.PaymentStore      = Payments{}
	_ database.NotificationStore = Notifications{}
)
