package catalog

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/rodrigofontes/vendaspro/internal/domain"
)

// ClientInput — входные данные создания или обновления клиента.
type ClientInput struct {
	Name    string
	Email   string
	Contact string
}

// ProductInput — входные данные создания или обновления товара.
type ProductInput struct {
	Name   string
	Price  decimal.Decimal
	Active *bool
}

// Service управляет справочниками клиентов и товаров.
type Service struct {
	clients  domain.ClientRepository
	products domain.ProductRepository
	logger   *log.Entry
	now      func() time.Time
	newID    func() string
}

// NewService создаёт сервис справочников.
func NewService(clients domain.ClientRepository, products domain.ProductRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "catalog-service")
	}
	return &Service{
		clients:  clients,
		products: products,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// CreateClient валидирует и сохраняет нового клиента.
func (s *Service) CreateClient(input ClientInput) (domain.Client, error) {
	now := s.now()
	client := domain.Client{
		ID:        s.newID(),
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(input.Email),
		Contact:   strings.TrimSpace(input.Contact),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errs := client.Validate(); len(errs) > 0 {
		return domain.Client{}, errors.Join(errs...)
	}
	if err := s.clients.Create(client); err != nil {
		return domain.Client{}, err
	}
	s.logger.WithField("client_id", client.ID).Info("client created")
	return client, nil
}

// UpdateClient применяет обновление к существующему клиенту.
func (s *Service) UpdateClient(id string, input ClientInput) (domain.Client, error) {
	client, err := s.clients.Get(id)
	if err != nil {
		return domain.Client{}, err
	}

	client.Name = strings.TrimSpace(input.Name)
	client.Email = strings.TrimSpace(input.Email)
	client.Contact = strings.TrimSpace(input.Contact)
	client.UpdatedAt = s.now()

	if errs := client.Validate(); len(errs) > 0 {
		return domain.Client{}, errors.Join(errs...)
	}
	if err := s.clients.Save(client); err != nil {
		return domain.Client{}, err
	}
	return client, nil
}

// GetClient возвращает клиента по идентификатору.
func (s *Service) GetClient(id string) (domain.Client, error) {
	return s.clients.Get(id)
}

// ListClients возвращает всех клиентов.
func (s *Service) ListClients() ([]domain.Client, error) {
	return s.clients.List()
}

// DeleteClient удаляет клиента без заказов.
func (s *Service) DeleteClient(id string) error {
	return s.clients.Delete(id)
}

// CreateProduct валидирует и сохраняет новый товар.
func (s *Service) CreateProduct(input ProductInput) (domain.Product, error) {
	now := s.now()
	active := true
	if input.Active != nil {
		active = *input.Active
	}
	product := domain.Product{
		ID:        s.newID(),
		Name:      strings.TrimSpace(input.Name),
		Price:     input.Price.Round(domain.MoneyScale),
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errs := product.Validate(); len(errs) > 0 {
		return domain.Product{}, errors.Join(errs...)
	}
	if err := s.products.Create(product); err != nil {
		return domain.Product{}, err
	}
	s.logger.WithField("product_id", product.ID).Info("product created")
	return product, nil
}

// UpdateProduct применяет обновление к существующему товару.
// Смена цены не трогает уже снятые в заказах snapshot-ы.
func (s *Service) UpdateProduct(id string, input ProductInput) (domain.Product, error) {
	product, err := s.products.Get(id)
	if err != nil {
		return domain.Product{}, err
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Price = input.Price.Round(domain.MoneyScale)
	if input.Active != nil {
		product.Active = *input.Active
	}
	product.UpdatedAt = s.now()

	if errs := product.Validate(); len(errs) > 0 {
		return domain.Product{}, errors.Join(errs...)
	}
	if err := s.products.Save(product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// GetProduct возвращает товар по идентификатору.
func (s *Service) GetProduct(id string) (domain.Product, error) {
	return s.products.Get(id)
}

// ListProducts возвращает все товары.
func (s *Service) ListProducts() ([]domain.Product, error) {
	return s.products.List()
}

// DeleteProduct удаляет товар, на который не ссылаются заказы.
func (s *Service) DeleteProduct(id string) error {
	return s.products.Delete(id)
}
