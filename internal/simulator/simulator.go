// Package simulator feeds the store with a steady stream of plausible card,
// UPI and wallet payments so the dashboard has something to show.
package simulator

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"voicebank/internal/models"
	"voicebank/internal/observability"
)

const (
	minAmount = 100
	maxAmount = 5000
)

type merchant struct {
	name     string
	category string
	method   string
}

var merchants = []merchant{
	{"Amazon", models.CategoryShopping, models.MethodCard},
	{"Starbucks", models.CategoryFood, models.MethodCard},
	{"Zomato", models.CategoryFood, models.MethodUPI},
	{"Flipkart", models.CategoryShopping, models.MethodCard},
	{"Ola", models.CategoryTransport, models.MethodWallet},
	{"BookMyShow", models.CategoryEntertainment, models.MethodCard},
	{"BigBasket", models.CategoryGroceries, models.MethodUPI},
	{"Myntra", models.CategoryShopping, models.MethodCard},
	{"Dominos", models.CategoryFood, models.MethodCard},
	{"Spotify", models.CategoryEntertainment, models.MethodUPI},
}

type Inserter interface {
	Insert(ctx context.Context, t models.Transaction) (int64, error)
}

type Simulator struct {
	store    Inserter
	interval time.Duration
	delay    time.Duration
	now      func() time.Time
	rng      *rand.Rand
	logger   *slog.Logger
}

type Option func(*Simulator)

func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

func WithSeed(seed uint64) Option {
	return func(s *Simulator) { s.rng = rand.New(rand.NewPCG(seed, seed)) }
}

func New(store Inserter, interval, delay time.Duration, logger *slog.Logger, opts ...Option) *Simulator {
	s := &Simulator{
		store:    store,
		interval: interval,
		delay:    delay,
		now:      func() time.Time { return time.Now().UTC() },
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Next builds a random transaction stamped with the current time.
func (s *Simulator) Next() models.Transaction {
	m := merchants[s.rng.IntN(len(merchants))]
	return models.Transaction{
		Date:        s.now(),
		Beneficiary: m.name,
		Amount:      int64(minAmount + s.rng.IntN(maxAmount-minAmount+1)),
		Category:    m.category,
		Method:      m.method,
	}
}

// Run inserts one transaction after the initial delay and then one per
// interval until ctx is cancelled. Insert failures are logged and skipped.
func (s *Simulator) Run(ctx context.Context) {
	s.logger.Info("transaction simulator started", "interval", s.interval)
	defer s.logger.Info("transaction simulator stopped")

	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
		s.insert(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.insert(ctx)
		}
	}
}

func (s *Simulator) insert(ctx context.Context) {
	t := s.Next()
	id, err := s.store.Insert(ctx, t)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("simulated insert failed", "error", err)
		}
		return
	}
	observability.RecordSimulatedTransaction()
	s.logger.Debug("simulated transaction",
		"id", id,
		"beneficiary", t.Beneficiary,
		"amount", t.Amount,
		"category", t.Category,
		"method", t.Method,
	)
}
