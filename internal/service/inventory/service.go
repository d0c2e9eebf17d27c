package inventory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glucolog/glucolog-api/internal/model"
	syncservice "github.com/glucolog/glucolog-api/internal/service/sync"
	"github.com/glucolog/glucolog-api/internal/store/localstore"
	"github.com/glucolog/glucolog-api/pkg/logger"
)

type Service struct {
	store   localstore.Store
	syncSvc *syncservice.Service
	logger  *logger.Logger
}

func NewService(store localstore.Store, syncSvc *syncservice.Service, logger *logger.Logger) *Service {
	return &Service{
		store:   store,
		syncSvc: syncSvc,
		logger:  logger,
	}
}

func (s *Service) List(userID uuid.UUID) []model.InventoryItem {
	items := s.load()
	mine := make([]model.InventoryItem, 0, len(items))
	for _, item := range items {
		if item.UserID == userID {
			mine = append(mine, item)
		}
	}
	return mine
}

// AllLowStock returns every low-stock item regardless of owner; the poll
// worker uses it to fan out notifications.
func (s *Service) AllLowStock() []model.InventoryItem {
	low := make([]model.InventoryItem, 0)
	for _, item := range s.load() {
		if item.LowStock() {
			low = append(low, item)
		}
	}
	return low
}

// LowStock returns the user's items at or below their threshold.
func (s *Service) LowStock(userID uuid.UUID) []model.InventoryItem {
	low := make([]model.InventoryItem, 0)
	for _, item := range s.List(userID) {
		if item.LowStock() {
			low = append(low, item)
		}
	}
	return low
}

func (s *Service) Create(userID uuid.UUID, req *model.CreateInventoryItemRequest) (*model.InventoryItem, error) {
	item := model.InventoryItem{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      req.Name,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		Threshold: req.Threshold,
		CreatedAt: time.Now(),
	}

	items := s.load()
	items = append(items, item)
	if err := s.save(items); err != nil {
		return nil, fmt.Errorf("failed to create inventory item: %w", err)
	}

	if item.LowStock() {
		s.raiseLowStockAlert(&item)
	}
	return &item, nil
}

func (s *Service) Update(userID, id uuid.UUID, req *model.UpdateInventoryItemRequest) (*model.InventoryItem, error) {
	items := s.load()
	for i := range items {
		if items[i].ID != id || items[i].UserID != userID {
			continue
		}
		wasLow := items[i].LowStock()
		if req.Name != nil {
			items[i].Name = *req.Name
		}
		if req.Quantity != nil {
			items[i].Quantity = *req.Quantity
		}
		if req.Unit != nil {
			items[i].Unit = *req.Unit
		}
		if req.Threshold != nil {
			items[i].Threshold = *req.Threshold
		}
		if err := s.save(items); err != nil {
			return nil, fmt.Errorf("failed to update inventory item: %w", err)
		}
		if !wasLow && items[i].LowStock() {
			s.raiseLowStockAlert(&items[i])
		}
		return &items[i], nil
	}
	return nil, fmt.Errorf("inventory item not found")
}

func (s *Service) Delete(userID, id uuid.UUID) error {
	items := s.load()
	kept := items[:0]
	found := false
	for _, item := range items {
		if item.ID == id && item.UserID == userID {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	if !found {
		return fmt.Errorf("inventory item not found")
	}
	if err := s.save(kept); err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	return nil
}

// ConsumeDose decrements the stock of the named medication by one unit when
// a reading with that medication is saved. Unknown medications are a no-op:
// not everything the user takes is tracked.
func (s *Service) ConsumeDose(userID uuid.UUID, medication string) {
	if medication == "" {
		return
	}
	items := s.load()
	for i := range items {
		if items[i].UserID != userID || items[i].Name != medication {
			continue
		}
		wasLow := items[i].LowStock()
		if items[i].Quantity > 0 {
			items[i].Quantity--
		}
		if err := s.save(items); err != nil {
			s.logger.Error(err, "failed to decrement inventory", "medication", medication)
			return
		}
		if !wasLow && items[i].LowStock() {
			s.raiseLowStockAlert(&items[i])
		}
		return
	}
}

func (s *Service) raiseLowStockAlert(item *model.InventoryItem) {
	severity := model.SeverityMedium
	if item.Quantity <= 0 {
		severity = model.SeverityHigh
	}
	alert := &model.Alert{
		ID:          uuid.New(),
		UserID:      item.UserID,
		Title:       fmt.Sprintf("%s is running low", item.Name),
		Description: fmt.Sprintf("%.0f %s left (threshold %.0f)", item.Quantity, item.Unit, item.Threshold),
		Date:        time.Now().Format(model.DateLayout),
		Severity:    severity,
	}
	if err := s.syncSvc.SaveAlert(alert); err != nil {
		s.logger.Error(err, "failed to raise low stock alert", "item", item.Name)
	}
}

func (s *Service) load() []model.InventoryItem {
	blob, ok, err := s.store.Get(localstore.KeyInventory)
	if err != nil {
		s.logger.Error(err, "failed to read inventory")
		return []model.InventoryItem{}
	}
	if !ok {
		return []model.InventoryItem{}
	}

	var items []model.InventoryItem
	if err := json.Unmarshal(blob, &items); err != nil {
		s.logger.Error(err, "malformed inventory collection, starting empty")
		return []model.InventoryItem{}
	}
	return items
}

func (s *Service) save(items []model.InventoryItem) error {
	blob, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.store.Set(localstore.KeyInventory, blob)
}
