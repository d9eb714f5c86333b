package analytics

import (
	"fmt"
	"sync"
	"time"

	"promokit/core"
)

// Hook receives engine signals for KPI aggregation.
type Hook interface {
	OnSignal(sig core.Signal)
}

// DAP tracks daily active players.
type DAP struct {
	mu   sync.Mutex
	days map[string]map[core.PlayerID]struct{}
}

func NewDAP() *DAP { return &DAP{days: map[string]map[core.PlayerID]struct{}{}} }

func (d *DAP) OnSignal(sig core.Signal) {
	day := sig.Time.UTC().Format("2006-01-02")
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.days[day]
	if m == nil {
		m = map[core.PlayerID]struct{}{}
		d.days[day] = m
	}
	m[sig.PlayerID] = struct{}{}
}

func (d *DAP) Count(day string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.days[day])
}

// PromoMetrics aggregates promotion KPIs from the signal stream.
type PromoMetrics struct {
	mu sync.RWMutex

	dailyActivePlayers   map[string]map[core.PlayerID]struct{}
	weeklyActivePlayers  map[string]map[core.PlayerID]struct{}
	monthlyActivePlayers map[string]map[core.PlayerID]struct{}

	rewardsByDay       map[string]int64
	rewardsByPromotion map[string]int64
	amountByPromotion  map[string]float64
	uniqueEarners      map[string]map[core.PlayerID]struct{}

	progressByDay       map[string]int64
	progressByPromotion map[string]int64

	joinsByPromotion map[string]int64

	evaluations      int64
	firedEvaluations int64
}

func NewPromoMetrics() *PromoMetrics {
	return &PromoMetrics{
		dailyActivePlayers:   make(map[string]map[core.PlayerID]struct{}),
		weeklyActivePlayers:  make(map[string]map[core.PlayerID]struct{}),
		monthlyActivePlayers: make(map[string]map[core.PlayerID]struct{}),
		rewardsByDay:         make(map[string]int64),
		rewardsByPromotion:   make(map[string]int64),
		amountByPromotion:    make(map[string]float64),
		uniqueEarners:        make(map[string]map[core.PlayerID]struct{}),
		progressByDay:        make(map[string]int64),
		progressByPromotion:  make(map[string]int64),
		joinsByPromotion:     make(map[string]int64),
	}
}

func (m *PromoMetrics) OnSignal(sig core.Signal) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := sig.Time.UTC().Format("2006-01-02")
	week := weekKey(sig.Time)
	month := monthKey(sig.Time)
	m.trackActivity(sig.PlayerID, day, week, month)

	switch sig.Type {
	case core.SignalEventEvaluated:
		m.evaluations++
		if sig.Result != nil && sig.Result.Fired {
			m.firedEvaluations++
		}
	case core.SignalProgressMade:
		m.progressByDay[day]++
		m.progressByPromotion[sig.PromotionID]++
	case core.SignalRewardGranted:
		m.rewardsByDay[day]++
		m.rewardsByPromotion[sig.PromotionID]++
		if sig.Reward != nil {
			m.amountByPromotion[sig.PromotionID] += sig.Reward.Amount
		}
		if m.uniqueEarners[sig.PromotionID] == nil {
			m.uniqueEarners[sig.PromotionID] = make(map[core.PlayerID]struct{})
		}
		m.uniqueEarners[sig.PromotionID][sig.PlayerID] = struct{}{}
	case core.SignalPromotionJoined:
		m.joinsByPromotion[sig.PromotionID]++
	}
}

func (m *PromoMetrics) trackActivity(player core.PlayerID, day, week, month string) {
	if m.dailyActivePlayers[day] == nil {
		m.dailyActivePlayers[day] = make(map[core.PlayerID]struct{})
	}
	m.dailyActivePlayers[day][player] = struct{}{}

	if m.weeklyActivePlayers[week] == nil {
		m.weeklyActivePlayers[week] = make(map[core.PlayerID]struct{})
	}
	m.weeklyActivePlayers[week][player] = struct{}{}

	if m.monthlyActivePlayers[month] == nil {
		m.monthlyActivePlayers[month] = make(map[core.PlayerID]struct{})
	}
	m.monthlyActivePlayers[month][player] = struct{}{}
}

func (m *PromoMetrics) DailyActivePlayers(day string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.dailyActivePlayers[day])
}

func (m *PromoMetrics) WeeklyActivePlayers(week string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.weeklyActivePlayers[week])
}

func (m *PromoMetrics) MonthlyActivePlayers(month string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.monthlyActivePlayers[month])
}

func (m *PromoMetrics) RewardsByDay(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rewardsByDay[day]
}

func (m *PromoMetrics) RewardsByPromotion(promotionID string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rewardsByPromotion[promotionID]
}

func (m *PromoMetrics) AmountByPromotion(promotionID string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.amountByPromotion[promotionID]
}

func (m *PromoMetrics) UniqueEarners(promotionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.uniqueEarners[promotionID])
}

func (m *PromoMetrics) ProgressByPromotion(promotionID string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.progressByPromotion[promotionID]
}

func (m *PromoMetrics) JoinsByPromotion(promotionID string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.joinsByPromotion[promotionID]
}

// FireRate returns fired evaluations over total evaluations.
func (m *PromoMetrics) FireRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.evaluations == 0 {
		return 0
	}
	return float64(m.firedEvaluations) / float64(m.evaluations)
}

func weekKey(t time.Time) string {
	tt := t.UTC()
	year, week := tt.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
