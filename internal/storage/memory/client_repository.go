package memory

import (
	"sort"
	"strings"

	"github.com/rodrigofontes/vendaspro/internal/domain"
)

// clientRepositoryInMemory — in-memory реализация ClientRepository поверх Store.
type clientRepositoryInMemory struct {
	store *Store
}

// NewClientRepository возвращает in-memory репозиторий клиентов.
func NewClientRepository(store *Store) domain.ClientRepository {
	return &clientRepositoryInMemory{store: store}
}

// Create сохраняет нового клиента; email должен быть уникален.
func (r *clientRepositoryInMemory) Create(client domain.Client) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.emailTakenLocked(client.Email, client.ID) {
		return domain.ErrClientEmailTaken
	}
	s.clients[client.ID] = client
	return nil
}

// Get возвращает клиента или ErrClientNotFound.
func (r *clientRepositoryInMemory) Get(id string) (domain.Client, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[id]
	if !ok {
		return domain.Client{}, domain.ErrClientNotFound
	}
	return client, nil
}

// List возвращает всех клиентов, отсортированных по имени.
func (r *clientRepositoryInMemory) List() ([]domain.Client, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Client, 0, len(s.clients))
	for _, client := range s.clients {
		result = append(result, client)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Save применяет обновления к клиенту.
func (r *clientRepositoryInMemory) Save(client domain.Client) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[client.ID]; !ok {
		return domain.ErrClientNotFound
	}
	if r.emailTakenLocked(client.Email, client.ID) {
		return domain.ErrClientEmailTaken
	}
	s.clients[client.ID] = client
	return nil
}

// Delete удаляет клиента, если на него не ссылается ни один заказ.
func (r *clientRepositoryInMemory) Delete(id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[id]; !ok {
		return domain.ErrClientNotFound
	}
	for _, order := range s.orders {
		if order.ClientID == id {
			return domain.ErrClientReferenced
		}
	}
	delete(s.clients, id)
	return nil
}

func (r *clientRepositoryInMemory) emailTakenLocked(email, selfID string) bool {
	for _, existing := range r.store.clients {
		if existing.ID != selfID && strings.EqualFold(existing.Email, email) {
			return true
		}
	}
	return false
}

var _ domain.ClientRepository = (*clientRepositoryInMemory)(nil)
