// Package store provides ContractStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/carebill/billing-engine/billing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	contracts    map[billing.ContractID]billing.Contract
	installments map[billing.ContractID][]billing.Installment
}

func NewMemory() *Memory {
	return &Memory{
		contracts:    make(map[billing.ContractID]billing.Contract),
		installments: make(map[billing.ContractID][]billing.Installment),
	}
}

func (m *Memory) SaveContract(_ context.Context, c billing.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contracts[c.ID] = c
	return nil
}

func (m *Memory) GetContract(_ context.Context, id billing.ContractID) (billing.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contracts[id]
	if !ok {
		return billing.Contract{}, billing.ErrContractNotFound
	}
	return c, nil
}

func (m *Memory) ListContracts(_ context.Context) ([]billing.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]billing.Contract, 0, len(m.contracts))
	for _, c := range m.contracts {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) Installments(_ context.Context, id billing.ContractID) ([]billing.Installment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]billing.Installment, len(m.installments[id]))
	copy(result, m.installments[id])
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (m *Memory) ReplaceInstallments(_ context.Context, id billing.ContractID, installments []billing.Installment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	replacement := make([]billing.Installment, len(installments))
	copy(replacement, installments)
	m.installments[id] = replacement
	return nil
}

func (m *Memory) UpdateInstallment(_ context.Context, inst billing.Installment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.installments[inst.ContractID]
	for i := range set {
		if set[i].Number == inst.Number {
			set[i] = inst
			return nil
		}
	}
	return billing.ErrInstallmentNotFound
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support, simulated with a
// snapshot + rollback on error.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

func (tm *TxMemory) WithTx(ctx context.Context, fn func(billing.ContractStore) error) error {
	tm.mu.Lock()
	snapshot := tm.snapshotLocked()
	tm.mu.Unlock()

	if err := fn(tm.Memory); err != nil {
		tm.mu.Lock()
		tm.restoreLocked(snapshot)
		tm.mu.Unlock()
		return err
	}
	return nil
}

type memorySnapshot struct {
	contracts    map[billing.ContractID]billing.Contract
	installments map[billing.ContractID][]billing.Installment
}

func (tm *TxMemory) snapshotLocked() memorySnapshot {
	contracts := make(map[billing.ContractID]billing.Contract, len(tm.contracts))
	for k, v := range tm.contracts {
		contracts[k] = v
	}
	installments := make(map[billing.ContractID][]billing.Installment, len(tm.installments))
	for k, v := range tm.installments {
		installments[k] = append([]billing.Installment{}, v...)
	}
	return memorySnapshot{contracts: contracts, installments: installments}
}

func (tm *TxMemory) restoreLocked(s memorySnapshot) {
	tm.contracts = s.contracts
	tm.installments = s.installments
}
