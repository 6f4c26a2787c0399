package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"phonecbr/internal/model"
	"phonecbr/internal/weights"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

// samplePhones is a small hand-checked catalog.
func samplePhones() []model.Phone {
	return []model.Phone{
		{ID: 1, Name: "Galaxy A15", Brand: "Samsung", Price: 2_500_000, RAM: 6, Storage: 128, Battery: 5000, CameraMP: 50, ScreenSize: 6.5, Rating: 4.3, OS: "Android", InStock: true},
		{ID: 2, Name: "Redmi Note 13", Brand: "Xiaomi", Price: 3_200_000, RAM: 8, Storage: 256, Battery: 5000, CameraMP: 108, ScreenSize: 6.67, Rating: 4.5, OS: "Android", InStock: true},
		{ID: 3, Name: "iPhone 15", Brand: "Apple", Price: 15_000_000, RAM: 6, Storage: 128, Battery: 3349, CameraMP: 48, ScreenSize: 6.1, Rating: 4.8, OS: "iOS", InStock: true},
		{ID: 4, Name: "ROG Phone 8", Brand: "Asus", Price: 14_000_000, RAM: 16, Storage: 512, Battery: 5500, CameraMP: 50, ScreenSize: 6.78, Rating: 4.7, OS: "Android", InStock: false},
		{ID: 5, Name: "Poco X6 Pro", Brand: "Poco", Price: 4_700_000, RAM: 12, Storage: 512, Battery: 5000, CameraMP: 64, ScreenSize: 6.67, Rating: 4.6, OS: "Android", InStock: true},
		{ID: 6, Name: "Itel A70", Brand: "Itel", Price: 1_200_000, RAM: 4, Storage: 64, Battery: 5000, CameraMP: 13, ScreenSize: 6.6, Rating: 4.0, OS: "Android", InStock: true},
	}
}

// syntheticPhones generates a deterministic catalog of n phones.
func syntheticPhones(n int) []model.Phone {
	rng := rand.New(rand.NewSource(7))
	brands := []string{"Samsung", "Xiaomi", "Oppo", "Vivo", "Realme", "Infinix"}
	rams := []float64{4, 6, 8, 12, 16}
	storages := []float64{64, 128, 256, 512}
	cameras := []float64{13, 48, 50, 64, 108, 200}
	phones := make([]model.Phone, n)
	for i := range phones {
		phones[i] = model.Phone{
			ID:         int64(i + 1),
			Name:       fmt.Sprintf("Phone %d", i+1),
			Brand:      brands[rng.Intn(len(brands))],
			Price:      float64(1_000_000 + rng.Intn(20_000_000)),
			RAM:        rams[rng.Intn(len(rams))],
			Storage:    storages[rng.Intn(len(storages))],
			Battery:    float64(3000 + rng.Intn(4000)),
			CameraMP:   cameras[rng.Intn(len(cameras))],
			ScreenSize: 5.8 + float64(rng.Intn(13))/10,
			Rating:     3 + float64(rng.Intn(21))/10,
			OS:         "Android",
			InStock:    rng.Intn(4) != 0,
		}
	}
	return phones
}

func testSnapshot(phones []model.Phone) *Snapshot {
	return NewSnapshot(1, phones)
}

func newTestWeights(t *testing.T) *WeightService {
	t.Helper()
	ws, err := NewWeightService(context.Background(), weights.NewMemoryStore(), zerolog.Nop())
	require.NoError(t, err)
	return ws
}

// memStore is an in-memory CatalogStore.
type memStore struct {
	mu     sync.Mutex
	phones map[int64]model.Phone
	nextID int64
	logs   []model.RecommendationLog
}

func newMemStore(phones []model.Phone) *memStore {
	s := &memStore{phones: map[int64]model.Phone{}}
	for _, p := range phones {
		s.phones[p.ID] = p
		if p.ID > s.nextID {
			s.nextID = p.ID
		}
	}
	return s
}

func (s *memStore) ListPhones(ctx context.Context) ([]model.Phone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Phone, 0, len(s.phones))
	for _, p := range s.phones {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) QueryPhones(ctx context.Context, filter *model.PhoneFilter, sortBy, sortOrder string, limit, offset int) ([]model.Phone, int, error) {
	all, _ := s.ListPhones(ctx)
	var matched []model.Phone
	for _, p := range all {
		if filter.Brand != nil && p.Brand != *filter.Brand {
			continue
		}
		matched = append(matched, p)
	}
	total := len(matched)
	if offset >= total {
		return []model.Phone{}, total, nil
	}
	return matched[offset:min(offset+limit, total)], total, nil
}

func (s *memStore) GetPhone(ctx context.Context, id int64) (*model.Phone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.phones[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *memStore) InsertPhone(ctx context.Context, p *model.Phone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		s.nextID++
		p.ID = s.nextID
	} else if p.ID > s.nextID {
		s.nextID = p.ID
	}
	s.phones[p.ID] = *p
	return nil
}

func (s *memStore) InsertPhones(ctx context.Context, phones []model.Phone) (int, []string) {
	for i := range phones {
		_ = s.InsertPhone(ctx, &phones[i])
	}
	return len(phones), nil
}

func (s *memStore) ReplacePhone(ctx context.Context, p *model.Phone) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.phones[p.ID]; !ok {
		return false, nil
	}
	s.phones[p.ID] = *p
	return true, nil
}

func (s *memStore) DeletePhone(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.phones[id]; !ok {
		return false, nil
	}
	delete(s.phones, id)
	return true, nil
}

func (s *memStore) LogRecommendation(ctx context.Context, entry model.RecommendationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	return nil
}

func (s *memStore) logCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}
