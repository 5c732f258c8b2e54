// Package reward is the asynchronous consumer of the new-entries outbox: a
// ticker loop that pulls staged interactions, turns each per-post aggregate
// into payouts and credits them through the wallet ledger. The payout
// formula itself stays behind the Calculator interface.
package reward

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/winsome-net/winsome/internal/metrics"
	"github.com/winsome-net/winsome/internal/store"
	"github.com/winsome-net/winsome/internal/walletStore"
)

var log *logrus.Logger

type Payout struct {
	Username string
	Amount   float64
}

// Calculator maps one aggregated post summary to payouts.
type Calculator interface {
	Payouts(pi *store.PostInteractions) []Payout
}

// PercentSplit values every interaction at one unit, gives the author their
// share and splits the rest equally among the curators.
type PercentSplit struct {
	AuthorShare float64 // 0..1
}

func (c PercentSplit) Payouts(pi *store.PostInteractions) []Payout {
	total := float64(pi.Interactions)
	if total == 0 {
		return nil
	}

	authorCut := total * c.AuthorShare
	curatorCut := total - authorCut
	if len(pi.Curators) == 0 {
		authorCut = total
		curatorCut = 0
	}

	payouts := []Payout{{Username: pi.Author, Amount: authorCut}}
	if curatorCut > 0 {
		each := curatorCut / float64(len(pi.Curators))
		for _, curator := range pi.Curators {
			payouts = append(payouts, Payout{Username: curator, Amount: each})
		}
	}
	return payouts
}

type Engine struct {
	store    *store.Store
	wallet   *walletStore.WalletStore
	calc     Calculator
	interval time.Duration

	stop chan struct{}
	done chan struct{}
}

func NewEngine(st *store.Store, wallet *walletStore.WalletStore, calc Calculator, interval time.Duration, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	log = logger

	return &Engine{
		store:    st,
		wallet:   wallet,
		calc:     calc,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run loops until Close. One final cycle runs on the way out so staged
// interactions are not left waiting for the next boot.
func (e *Engine) Run() {
	defer close(e.done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := e.RunOnce(); err != nil {
				log.Errorf("reward cycle failed: %v", err)
			}
		case <-e.stop:
			if err := e.RunOnce(); err != nil {
				log.Errorf("final reward cycle failed: %v", err)
			}
			return
		}
	}
}

// RunOnce pulls the staged batch and credits every payout.
func (e *Engine) RunOnce() error {
	batch, err := e.store.PullNewEntries()
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	now := time.Now().UnixMilli()
	credited := 0
	for _, pi := range batch {
		for _, payout := range e.calc.Payouts(pi) {
			if err := e.wallet.Credit(payout.Username, payout.Amount, now, pi.PostID.String()); err != nil {
				return err
			}
			credited++
		}
	}

	metrics.RewardCycles.Inc()
	metrics.RewardsCredited.Add(float64(credited))
	log.WithFields(logrus.Fields{"posts": len(batch), "payouts": credited}).Info("reward cycle completed")
	return nil
}

// Close stops the loop and waits for the final cycle.
func (e *Engine) Close() {
	close(e.stop)
	<-e.done
}
