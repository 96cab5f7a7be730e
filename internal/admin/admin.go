// Package admin is the back-office CRUD gateway: each entity maps one-to-one
// onto its owning service. Listings keep an optimistic in-memory snapshot
// that is patched after every successful mutation; any miss or error drops
// the snapshot and the next read re-fetches the full list as the truth.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"checkout-service/internal/clients"
	"checkout-service/internal/models"
	"checkout-service/internal/util"

	"go.uber.org/zap"
)

// ErrInvalidInput marks a required-field validation failure.
var ErrInvalidInput = errors.New("invalid input")

// InvalidTransitionError is returned for order status updates that violate
// the monotonic status sequence.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition from %s to %s", e.From, e.To)
}

// Service is the admin gateway over the user, product and order services.
type Service struct {
	users   *clients.UserClient
	catalog *clients.CatalogClient
	orders  *clients.OrderClient
	logger  *zap.Logger

	mu           sync.Mutex
	userCache    []clients.User
	userCacheOK  bool
	adminCache   []clients.User
	adminCacheOK bool
	productCache []clients.Product
	productsOK   bool
	orderCache   []models.Order
	orderCacheOK bool
}

// NewService creates the admin gateway.
func NewService(users *clients.UserClient, catalog *clients.CatalogClient, orders *clients.OrderClient) *Service {
	return &Service{
		users:   users,
		catalog: catalog,
		orders:  orders,
		logger:  util.GetLogger(),
	}
}

// ListUsers returns all user accounts, served from the snapshot when valid.
func (s *Service) ListUsers(ctx context.Context) ([]clients.User, error) {
	s.mu.Lock()
	if s.userCacheOK {
		cached := append([]clients.User(nil), s.userCache...)
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.userCache = users
	s.userCacheOK = true
	s.mu.Unlock()
	return append([]clients.User(nil), users...), nil
}

// ListAdmins returns all admin accounts.
func (s *Service) ListAdmins(ctx context.Context) ([]clients.User, error) {
	s.mu.Lock()
	if s.adminCacheOK {
		cached := append([]clients.User(nil), s.adminCache...)
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.adminCache = admins
	s.adminCacheOK = true
	s.mu.Unlock()
	return append([]clients.User(nil), admins...), nil
}

// CreateUser adds an account and patches the snapshot.
func (s *Service) CreateUser(ctx context.Context, user *clients.User) (*clients.User, error) {
	if strings.TrimSpace(user.Email) == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	created, err := s.users.CreateUser(ctx, user)
	if err != nil {
		s.invalidateUsers()
		return nil, err
	}
	s.mu.Lock()
	if s.userCacheOK {
		s.userCache = append(s.userCache, *created)
	}
	s.mu.Unlock()
	return created, nil
}

// UpdateUser replaces an account and patches the snapshot.
func (s *Service) UpdateUser(ctx context.Context, userID int64, user *clients.User) (*clients.User, error) {
	if strings.TrimSpace(user.Email) == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	updated, err := s.users.UpdateUser(ctx, userID, user)
	if err != nil {
		s.invalidateUsers()
		return nil, err
	}
	s.mu.Lock()
	if s.userCacheOK {
		patched := false
		for i := range s.userCache {
			if s.userCache[i].ID == userID {
				s.userCache[i] = *updated
				patched = true
				break
			}
		}
		if !patched {
			s.userCacheOK = false
		}
	}
	s.mu.Unlock()
	return updated, nil
}

// DeleteUser removes an account and patches the snapshot.
func (s *Service) DeleteUser(ctx context.Context, userID int64) error {
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		s.invalidateUsers()
		return err
	}
	s.mu.Lock()
	if s.userCacheOK {
		kept := s.userCache[:0]
		for _, u := range s.userCache {
			if u.ID != userID {
				kept = append(kept, u)
			}
		}
		s.userCache = kept
	}
	s.mu.Unlock()
	return nil
}

// ListProducts returns the catalog, served from the snapshot when valid.
func (s *Service) ListProducts(ctx context.Context) ([]clients.Product, error) {
	s.mu.Lock()
	if s.productsOK {
		cached := append([]clients.Product(nil), s.productCache...)
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.productCache = products
	s.productsOK = true
	s.mu.Unlock()
	return append([]clients.Product(nil), products...), nil
}

// CreateProduct adds a catalog entry and patches the snapshot.
func (s *Service) CreateProduct(ctx context.Context, product *clients.Product) (*clients.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	created, err := s.catalog.CreateProduct(ctx, product)
	if err != nil {
		s.invalidateProducts()
		return nil, err
	}
	s.mu.Lock()
	if s.productsOK {
		s.productCache = append(s.productCache, *created)
	}
	s.mu.Unlock()
	return created, nil
}

// UpdateProduct replaces a catalog entry and patches the snapshot.
func (s *Service) UpdateProduct(ctx context.Context, productID int64, product *clients.Product) (*clients.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	updated, err := s.catalog.UpdateProduct(ctx, productID, product)
	if err != nil {
		s.invalidateProducts()
		return nil, err
	}
	s.mu.Lock()
	if s.productsOK {
		patched := false
		for i := range s.productCache {
			if s.productCache[i].ID == productID {
				s.productCache[i] = *updated
				patched = true
				break
			}
		}
		if !patched {
			s.productsOK = false
		}
	}
	s.mu.Unlock()
	return updated, nil
}

// DeleteProduct removes a catalog entry and patches the snapshot.
func (s *Service) DeleteProduct(ctx context.Context, productID int64) error {
	if err := s.catalog.DeleteProduct(ctx, productID); err != nil {
		s.invalidateProducts()
		return err
	}
	s.mu.Lock()
	if s.productsOK {
		kept := s.productCache[:0]
		for _, p := range s.productCache {
			if p.ID != productID {
				kept = append(kept, p)
			}
		}
		s.productCache = kept
	}
	s.mu.Unlock()
	return nil
}

// ListOrders returns all orders, served from the snapshot when valid.
func (s *Service) ListOrders(ctx context.Context) ([]models.Order, error) {
	s.mu.Lock()
	if s.orderCacheOK {
		cached := append([]models.Order(nil), s.orderCache...)
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.orderCache = orders
	s.orderCacheOK = true
	s.mu.Unlock()
	return append([]models.Order(nil), orders...), nil
}

// ListUserOrders returns one user's orders, always fetched fresh.
func (s *Service) ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.orders.ListUserOrders(ctx, userID)
}

// UpdateOrderStatus advances an order's status after checking the monotonic
// transition rules against the current server-side status.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !models.CanTransition(order.Status, status) {
		return nil, &InvalidTransitionError{From: order.Status, To: status}
	}

	if err := s.orders.UpdateStatus(ctx, orderID, &clients.StatusUpdateRequest{Status: status}); err != nil {
		s.invalidateOrders()
		return nil, err
	}

	order.Status = status
	s.mu.Lock()
	if s.orderCacheOK {
		for i := range s.orderCache {
			if s.orderCache[i].ID == orderID {
				s.orderCache[i].Status = status
				break
			}
		}
	}
	s.mu.Unlock()
	return order, nil
}

// DeleteOrder removes an order record and patches the snapshot.
func (s *Service) DeleteOrder(ctx context.Context, orderID int64) error {
	if err := s.orders.DeleteOrder(ctx, orderID); err != nil {
		s.invalidateOrders()
		return err
	}
	s.mu.Lock()
	if s.orderCacheOK {
		kept := s.orderCache[:0]
		for _, o := range s.orderCache {
			if o.ID != orderID {
				kept = append(kept, o)
			}
		}
		s.orderCache = kept
	}
	s.mu.Unlock()
	return nil
}

func validateProduct(product *clients.Product) error {
	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	if product.Price < 0 {
		return fmt.Errorf("%w: product price must not be negative", ErrInvalidInput)
	}
	return nil
}

func (s *Service) invalidateUsers() {
	s.mu.Lock()
	s.userCacheOK = false
	s.adminCacheOK = false
	s.mu.Unlock()
}

func (s *Service) invalidateProducts() {
	s.mu.Lock()
	s.productsOK = false
	s.mu.Unlock()
}

func (s *Service) invalidateOrders() {
	s.mu.Lock()
	s.orderCacheOK = false
	s.mu.Unlock()
}
