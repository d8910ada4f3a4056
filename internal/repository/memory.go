package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/UNO-CSCI4830/project4-logbook/internal/models"
)

// MemoryApplianceRepo 内存家电仓库，未启用数据库时使用（本地运行与测试）
// 读写时均复制，调用方不与存储共享指针
type MemoryApplianceRepo struct {
	mu         sync.RWMutex
	appliances map[string]*models.Appliance // applianceID -> Appliance
	now        func() time.Time
}

func NewMemoryApplianceRepo() *MemoryApplianceRepo {
	return &MemoryApplianceRepo{
		appliances: map[string]*models.Appliance{},
		now:        time.Now,
	}
}

var _ ApplianceRepository = (*MemoryApplianceRepo)(nil)

func (r *MemoryApplianceRepo) FindDueBefore(_ context.Context, asOf models.Date) ([]*models.Appliance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Appliance, 0)
	for _, a := range r.appliances {
		if a.AlertDate == nil || !a.AlertDate.Before(asOf) {
			continue
		}
		if a.HasFired() {
			continue
		}
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AlertDate.Equal(*out[j].AlertDate) {
			return out[i].AlertDate.Before(*out[j].AlertDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryApplianceRepo) FindByOwnerAndID(_ context.Context, ownerID, applianceID string) (*models.Appliance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appliances[applianceID]
	if !ok || a.OwnerID != ownerID {
		return nil, fmt.Errorf("appliance %s of owner %s: %w", applianceID, ownerID, models.ErrNotFound)
	}
	return a.Clone(), nil
}

func (r *MemoryApplianceRepo) ListByOwner(_ context.Context, ownerID string) ([]*models.Appliance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Appliance, 0)
	for _, a := range r.appliances {
		if a.OwnerID == ownerID {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryApplianceRepo) ListUpcoming(_ context.Context, ownerID string, from, to models.Date) ([]*models.Appliance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Appliance, 0)
	for _, a := range r.appliances {
		if a.OwnerID != ownerID || a.AlertDate == nil || a.Alert.IsCancelled() {
			continue
		}
		if a.AlertDate.Before(from) || a.AlertDate.After(to) {
			continue
		}
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AlertDate.Equal(*out[j].AlertDate) {
			return out[i].AlertDate.Before(*out[j].AlertDate)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *MemoryApplianceRepo) Save(_ context.Context, a *models.Appliance) (*models.Appliance, error) {
	if a == nil || a.ID == "" {
		return nil, fmt.Errorf("appliance_id is required")
	}
	if a.OwnerID == "" {
		return nil, fmt.Errorf("owner_id is required")
	}
	if strings.TrimSpace(a.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	saved := a.Clone()
	if saved.RecurringInterval == "" {
		saved.RecurringInterval = models.RecurringNone
	}
	if existing, ok := r.appliances[a.ID]; ok {
		if existing.OwnerID != a.OwnerID {
			return nil, fmt.Errorf("appliance %s of owner %s: %w", a.ID, a.OwnerID, models.ErrNotFound)
		}
		saved.CreatedAt = existing.CreatedAt
	} else {
		saved.CreatedAt = now
	}
	saved.UpdatedAt = now

	r.appliances[a.ID] = saved
	return saved.Clone(), nil
}

func (r *MemoryApplianceRepo) Delete(_ context.Context, ownerID, applianceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appliances[applianceID]
	if !ok || a.OwnerID != ownerID {
		return fmt.Errorf("appliance %s of owner %s: %w", applianceID, ownerID, models.ErrNotFound)
	}
	delete(r.appliances, applianceID)
	return nil
}

// MemoryUserRepo 内存用户目录，与 MemoryApplianceRepo 配合使用
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]models.OwnerContact // userID -> contact
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		users: map[string]models.OwnerContact{},
	}
}

var _ UserRepository = (*MemoryUserRepo)(nil)

func (r *MemoryUserRepo) FindByID(_ context.Context, ownerID string) (*models.OwnerContact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[ownerID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", ownerID, models.ErrNotFound)
	}
	return &u, nil
}

func (r *MemoryUserRepo) Upsert(_ context.Context, u *models.OwnerContact) error {
	if u == nil || u.OwnerID == "" {
		return fmt.Errorf("user_id is required")
	}
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("email is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.OwnerID] = *u
	return nil
}
