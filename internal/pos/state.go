package pos

import (
	"sync"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/shopspring/decimal"
)

// State is an immutable snapshot of the manager, emitted to subscribers
// after every command.
type State struct {
	Lines             []domain.CartLine
	Subtotal          decimal.Decimal
	Units             int
	Loading           bool
	LastError         error
	LastTransactionID int64 // 0 means none
}

// broadcaster fans State snapshots out to subscribers. A slow subscriber
// keeps only the newest snapshot: stale intermediate states are dropped.
type broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan State
	next int
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan State)}
}

func (b *broadcaster) subscribe(current State) (<-chan State, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan State, 1)
	ch <- current
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
	return ch, cancel
}

func (b *broadcaster) publish(st State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- st:
		default:
			// Drop the stale snapshot, then queue the fresh one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}
