package medicine

import (
	"context"
	"sync"

	"github.com/warp/medtrack-engine/schedule"
)

// =============================================================================
// USER DIRECTORY - Identity and supervision are external collaborators
// =============================================================================

// User is the minimal identity view the engine needs: enough to address a
// notification and label it with a display name.
type User struct {
	ID   schedule.UserID
	Name string
}

// Directory resolves users and their supervisors. Identity management
// lives outside this module; implementations adapt whatever user store
// the deployment has.
type Directory interface {
	// GetUser returns the user, or nil if unknown.
	GetUser(ctx context.Context, id schedule.UserID) (*User, error)

	// Supervisors returns the users supervising the given user.
	Supervisors(ctx context.Context, id schedule.UserID) ([]User, error)
}

// =============================================================================
// MEMORY DIRECTORY - For tests and single-binary deployments
// =============================================================================

type MemoryDirectory struct {
	mu          sync.RWMutex
	users       map[schedule.UserID]User
	supervisors map[schedule.UserID][]schedule.UserID
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		users:       make(map[schedule.UserID]User),
		supervisors: make(map[schedule.UserID][]schedule.UserID),
	}
}

func (d *MemoryDirectory) AddUser(u User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

func (d *MemoryDirectory) AddSupervisor(user, supervisor schedule.UserID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.supervisors[user] = append(d.supervisors[user], supervisor)
}

func (d *MemoryDirectory) GetUser(_ context.Context, id schedule.UserID) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (d *MemoryDirectory) Supervisors(_ context.Context, id schedule.UserID) ([]User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var result []User
	for _, supID := range d.supervisors[id] {
		if u, ok := d.users[supID]; ok {
			result = append(result, u)
		}
	}
	return result, nil
}
