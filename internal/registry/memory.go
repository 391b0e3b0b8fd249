package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docproof/model"
)

// MemoryRegistry is an in-process Registry with the same semantics as the
// on-chain contract. It backs dev mode and tests; nothing is persisted.
type MemoryRegistry struct {
	mu      sync.Mutex
	records map[string]*model.DocumentRecord
	now     func() time.Time
}

func NewMemory() *MemoryRegistry {
	return &MemoryRegistry{
		records: make(map[string]*model.DocumentRecord),
		now:     time.Now,
	}
}

// NewMemoryAt returns a MemoryRegistry with a fixed clock, for tests that
// assert on registration timestamps.
func NewMemoryAt(now func() time.Time) *MemoryRegistry {
	r := NewMemory()
	r.now = now
	return r
}

func (m *MemoryRegistry) Register(ctx context.Context, certificateNumber, documentHash string) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	certificateNumber = strings.TrimSpace(certificateNumber)
	if certificateNumber == "" || documentHash == "" {
		return nil, model.NewError(model.ErrCodeValidation, "certificateNumber and documentHash are required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[certificateNumber]; ok {
		return nil, model.ErrAlreadyExists
	}
	record := &model.DocumentRecord{
		ObjectType:        model.DocumentObjectType,
		CertificateNumber: certificateNumber,
		DocumentHash:      strings.ToLower(documentHash),
		Timestamp:         m.now().Unix(),
	}
	m.records[certificateNumber] = record
	return &Receipt{
		CertificateNumber: certificateNumber,
		Timestamp:         record.Timestamp,
		TxID:              fmt.Sprintf("mem-%s", uuid.NewString()),
	}, nil
}

func (m *MemoryRegistry) Lookup(ctx context.Context, certificateNumber string) (*model.DocumentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[strings.TrimSpace(certificateNumber)]
	if !ok {
		return nil, model.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (m *MemoryRegistry) Verify(ctx context.Context, certificateNumber, candidateHash string) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[strings.TrimSpace(certificateNumber)]
	if !ok {
		return &Outcome{Matches: false, Timestamp: 0}, nil
	}
	return &Outcome{
		Matches:   record.DocumentHash == strings.ToLower(candidateHash),
		Timestamp: record.Timestamp,
	}, nil
}

func (m *MemoryRegistry) Name() string { return "memory" }

func (m *MemoryRegistry) Close() error { return nil }
