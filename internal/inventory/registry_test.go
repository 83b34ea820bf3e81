package inventory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
)

// MockRepository is a test implementation of Repository.
type MockRepository struct {
	mu      sync.Mutex
	devices map[string]*Device
	// For testing error paths
	listErr   error
	createErr error
	updateErr error
	deleteErr error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		devices: make(map[string]*Device),
	}
}

func (m *MockRepository) GetByID(_ context.Context, id string) (*Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d, ok := m.devices[id]; ok {
		return d.DeepCopy(), nil
	}
	return nil, ErrDeviceNotFound
}

func (m *MockRepository) List(_ context.Context) ([]Device, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	devices := make([]Device, 0, len(m.devices))
	for _, d := range m.devices {
		devices = append(devices, *d.DeepCopy())
	}
	return devices, nil
}

func (m *MockRepository) Create(_ context.Context, device *Device) error {
	if m.createErr != nil {
		return m.createErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.devices[device.ID]; exists {
		return ErrDeviceExists
	}
	m.devices[device.ID] = device.DeepCopy()
	return nil
}

func (m *MockRepository) Update(_ context.Context, device *Device) error {
	if m.updateErr != nil {
		return m.updateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.devices[device.ID]; !exists {
		return ErrDeviceNotFound
	}
	m.devices[device.ID] = device.DeepCopy()
	return nil
}

func (m *MockRepository) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.devices[id]; !exists {
		return ErrDeviceNotFound
	}
	delete(m.devices, id)
	return nil
}

func TestRegistryCreateAndGet(t *testing.T) {
	registry := NewRegistry(NewMockRepository())
	ctx := context.Background()

	device := &Device{
		ID:    "32:153289",
		Name:  "Bathroom Thermostat",
		Slugs: []string{"thermostat", "hygro"},
	}
	if err := registry.CreateDevice(ctx, device); err != nil {
		t.Fatalf("CreateDevice() error: %v", err)
	}

	got, err := registry.GetDevice(ctx, "32:153289")
	if err != nil {
		t.Fatalf("GetDevice() error: %v", err)
	}
	if got.Name != "Bathroom Thermostat" {
		t.Errorf("Name = %q, want %q", got.Name, "Bathroom Thermostat")
	}

	// Mutating the returned device must not leak into the cache.
	got.Slugs[0] = "mutated"
	again, err := registry.GetDevice(ctx, "32:153289")
	if err != nil {
		t.Fatalf("GetDevice() error: %v", err)
	}
	if again.Slugs[0] != "thermostat" {
		t.Error("cache leaked mutable state to caller")
	}
}

func TestRegistryGetNotFound(t *testing.T) {
	registry := NewRegistry(NewMockRepository())

	_, err := registry.GetDevice(context.Background(), "unknown")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetDevice() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRegistryCreateValidation(t *testing.T) {
	registry := NewRegistry(NewMockRepository())
	ctx := context.Background()

	tests := []struct {
		name   string
		device *Device
	}{
		{"nil device", nil},
		{"missing id", &Device{Name: "Sensor"}},
		{"missing name", &Device{ID: "01:123456"}},
		{"empty slug", &Device{ID: "01:123456", Name: "Sensor", Slugs: []string{""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registry.CreateDevice(ctx, tt.device)
			if !errors.Is(err, ErrInvalidDevice) {
				t.Errorf("CreateDevice() error = %v, want ErrInvalidDevice", err)
			}
		})
	}
}

func TestRegistryRefreshCache(t *testing.T) {
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	repo.devices["01:123456"] = &Device{ID: "01:123456", Name: "Hygrometer", Slugs: []string{"hygro"}}
	repo.devices["7_9"] = &Device{ID: "7_9", Name: "Relay", Slugs: []string{"relay"}}

	if err := registry.RefreshCache(ctx); err != nil {
		t.Fatalf("RefreshCache() error: %v", err)
	}
	if registry.Count() != 2 {
		t.Errorf("Count() = %d, want 2", registry.Count())
	}

	devices, err := registry.ListDevices(ctx)
	if err != nil {
		t.Fatalf("ListDevices() error: %v", err)
	}
	ids := make([]string, 0, len(devices))
	for _, d := range devices {
		ids = append(ids, d.ID)
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "01:123456" || ids[1] != "7_9" {
		t.Errorf("ListDevices() ids = %v", ids)
	}
}

func TestRegistryRefreshCacheError(t *testing.T) {
	repo := NewMockRepository()
	repo.listErr = errors.New("disk on fire")
	registry := NewRegistry(repo)

	if err := registry.RefreshCache(context.Background()); err == nil {
		t.Error("RefreshCache() should propagate repository errors")
	}
}

func TestRegistryListBySlug(t *testing.T) {
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	repo.devices["a"] = &Device{ID: "a", Name: "A", Slugs: []string{"thermostat"}}
	repo.devices["b"] = &Device{ID: "b", Name: "B", Slugs: []string{"hygro", "thermostat"}}
	repo.devices["c"] = &Device{ID: "c", Name: "C", Slugs: []string{"relay"}}

	if err := registry.RefreshCache(ctx); err != nil {
		t.Fatalf("RefreshCache() error: %v", err)
	}

	devices, err := registry.ListBySlug(ctx, "thermostat")
	if err != nil {
		t.Fatalf("ListBySlug() error: %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("ListBySlug(thermostat) returned %d devices, want 2", len(devices))
	}
}

func TestRegistryDelete(t *testing.T) {
	registry := NewRegistry(NewMockRepository())
	ctx := context.Background()

	device := &Device{ID: "01:123456", Name: "Hygrometer"}
	if err := registry.CreateDevice(ctx, device); err != nil {
		t.Fatalf("CreateDevice() error: %v", err)
	}

	if err := registry.DeleteDevice(ctx, "01:123456"); err != nil {
		t.Fatalf("DeleteDevice() error: %v", err)
	}
	if registry.Count() != 0 {
		t.Errorf("Count() = %d, want 0", registry.Count())
	}

	if err := registry.DeleteDevice(ctx, "01:123456"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("DeleteDevice() error = %v, want ErrDeviceNotFound", err)
	}
}
