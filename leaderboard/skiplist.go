package leaderboard

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"

	"promokit/core"
)

// A simple skip list keyed by (score desc, player asc) to achieve O(log n) updates.

const maxLevel = 16
const pFactor = 0.25

type node struct {
	e    Entry
	next [maxLevel]*node
}

type SkipList struct {
	mu       sync.RWMutex
	head     *node
	lvl      int
	byPlayer map[core.PlayerID]*node
	rng      *rand.Rand
}

func NewSkipList() *SkipList {
	// Use crypto/rand to generate a secure seed for PCG
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		// Fallback to zero seed if crypto/rand fails (extremely unlikely)
		seed = [16]byte{}
	}
	seed1 := binary.BigEndian.Uint64(seed[:8])
	seed2 := binary.BigEndian.Uint64(seed[8:])

	return &SkipList{
		head:     &node{},
		lvl:      1,
		byPlayer: map[core.PlayerID]*node{},
		rng:      rand.New(rand.NewPCG(seed1, seed2)),
	}
}

func (s *SkipList) randomLevel() int {
	lvl := 1
	for lvl < maxLevel && s.rng.Float64() < pFactor {
		lvl++
	}
	return lvl
}

func less(a, b Entry) bool {
	if a.Score == b.Score {
		return a.Player < b.Player
	}
	return a.Score > b.Score // higher score first
}

// Update inserts or moves player to new score.
func (s *SkipList) Update(player core.PlayerID, score int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byPlayer[player]; ok {
		// remove old node
		s.removeLocked(player, old.e)
	}
	e := Entry{Player: player, Score: score}
	update := [maxLevel]*node{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && less(cur.next[i].e, e) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	lvl := s.randomLevel()
	if lvl > s.lvl {
		for i := s.lvl; i < lvl; i++ {
			update[i] = s.head
		}
		s.lvl = lvl
	}
	n := &node{e: e}
	for i := 0; i < lvl; i++ {
		n.next[i] = update[i].next[i]
		update[i].next[i] = n
	}
	s.byPlayer[player] = n
}

func (s *SkipList) removeLocked(player core.PlayerID, e Entry) {
	update := [maxLevel]*node{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && less(cur.next[i].e, e) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	target := update[0].next[0]
	if target == nil || target.e.Player != player {
		return
	}
	for i := 0; i < s.lvl; i++ {
		if update[i].next[i] == target {
			update[i].next[i] = target.next[i]
		}
	}
	delete(s.byPlayer, player)
	for s.lvl > 1 && s.head.next[s.lvl-1] == nil {
		s.lvl--
	}
}

func (s *SkipList) Remove(player core.PlayerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.byPlayer[player]; ok {
		s.removeLocked(player, n.e)
	}
}

func (s *SkipList) TopN(n int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	out := make([]Entry, 0, n)
	cur := s.head.next[0]
	for cur != nil && len(out) < n {
		out = append(out, cur.e)
		cur = cur.next[0]
	}
	return out
}

func (s *SkipList) Get(player core.PlayerID) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, ok := s.byPlayer[player]; ok {
		return n.e, true
	}
	return Entry{}, false
}

var _ Board = (*SkipList)(nil)
