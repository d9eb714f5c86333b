package leaderboard

import (
	"sync"

	"promokit/core"
)

// Entry represents a score entry.
type Entry struct {
	Player core.PlayerID
	Score  int64
}

// Board abstracts leaderboard operations.
type Board interface {
	Update(player core.PlayerID, score int64)
	Remove(player core.PlayerID)
	TopN(n int) []Entry
	Get(player core.PlayerID) (Entry, bool)
}

// RewardBoard ranks players by cumulative rewards granted. It consumes
// engine signals, so it can be registered next to the analytics hooks.
type RewardBoard struct {
	mu     sync.Mutex
	counts map[core.PlayerID]int64
	board  Board
}

func NewRewardBoard(board Board) *RewardBoard {
	return &RewardBoard{counts: map[core.PlayerID]int64{}, board: board}
}

func (r *RewardBoard) OnSignal(sig core.Signal) {
	if sig.Type != core.SignalRewardGranted {
		return
	}
	r.mu.Lock()
	r.counts[sig.PlayerID]++
	score := r.counts[sig.PlayerID]
	r.mu.Unlock()
	r.board.Update(sig.PlayerID, score)
}

func (r *RewardBoard) TopN(n int) []Entry { return r.board.TopN(n) }

func (r *RewardBoard) Get(player core.PlayerID) (Entry, bool) { return r.board.Get(player) }
