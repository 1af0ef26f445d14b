package pool

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Snapshot is the full serializable state of a pool: the four scalar fields,
// the complete holder ledger, and the ordered event log. Amounts are decimal
// strings.
type Snapshot struct {
	BalanceA    string            `json:"balance_a"`
	BalanceB    string            `json:"balance_b"`
	TotalShares string            `json:"total_shares"`
	FeeBps      uint64            `json:"fee_bps"`
	Admin       string            `json:"admin"`
	Holders     map[string]string `json:"holders"`
	Events      []Event           `json:"events"`
}

// Snapshot captures the pool's current state for persistence.
func (p *Pool) Snapshot() *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	holders := make(map[string]string, len(p.ledger))
	for addr, held := range p.ledger {
		holders[addr.Hex()] = held.String()
	}
	events := make([]Event, len(p.events))
	copy(events, p.events)

	return &Snapshot{
		BalanceA:    p.balanceA.String(),
		BalanceB:    p.balanceB.String(),
		TotalShares: p.totalShares.String(),
		FeeBps:      p.feeBps,
		Admin:       p.admin.Hex(),
		Holders:     holders,
		Events:      events,
	}
}

// Restore replaces the pool's state with the snapshot, validating amounts and
// event ordering first. On any validation error the pool is left untouched.
func (p *Pool) Restore(s *Snapshot) error {
	if s == nil {
		return fmt.Errorf("snapshot is nil")
	}

	balanceA, err := parseAmount("balance_a", s.BalanceA)
	if err != nil {
		return err
	}
	balanceB, err := parseAmount("balance_b", s.BalanceB)
	if err != nil {
		return err
	}
	totalShares, err := parseAmount("total_shares", s.TotalShares)
	if err != nil {
		return err
	}
	if s.FeeBps > MaxFeeBps {
		return fmt.Errorf("snapshot fee %d exceeds maximum %d", s.FeeBps, MaxFeeBps)
	}
	if !common.IsHexAddress(s.Admin) {
		return fmt.Errorf("snapshot admin is not a valid address: %q", s.Admin)
	}

	ledger := make(map[common.Address]*big.Int, len(s.Holders))
	for addr, raw := range s.Holders {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("snapshot holder is not a valid address: %q", addr)
		}
		held, err := parseAmount("holder "+addr, raw)
		if err != nil {
			return err
		}
		if held.Sign() == 0 {
			return fmt.Errorf("snapshot holder %s has zero balance", addr)
		}
		ledger[common.HexToAddress(addr)] = held
	}

	for i, ev := range s.Events {
		if ev.Seq != uint64(i) {
			return fmt.Errorf("snapshot event %d has seq %d", i, ev.Seq)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.balanceA = balanceA
	p.balanceB = balanceB
	p.totalShares = totalShares
	p.feeBps = s.FeeBps
	p.admin = common.HexToAddress(s.Admin)
	p.ledger = ledger
	p.events = make([]Event, len(s.Events))
	copy(p.events, s.Events)
	p.nextSeq = uint64(len(s.Events))
	return nil
}

func parseAmount(field, raw string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("snapshot %s is not a decimal integer: %q", field, raw)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("snapshot %s is negative: %q", field, raw)
	}
	return v, nil
}
