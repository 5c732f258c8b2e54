package reward_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winsome-net/winsome/internal/logStore"
	"github.com/winsome-net/winsome/internal/reward"
	"github.com/winsome-net/winsome/internal/store"
	"github.com/winsome-net/winsome/internal/walletStore"
	"github.com/winsome-net/winsome/pkg/types"
	workerpool "github.com/winsome-net/winsome/pkg/workerPool"
)

func TestPercentSplitSharesWithCurators(t *testing.T) {
	calc := reward.PercentSplit{AuthorShare: 0.7}

	payouts := calc.Payouts(&store.PostInteractions{
		PostID:       uuid.New(),
		Author:       "alice",
		Interactions: 10,
		Curators:     []string{"bob", "carol"},
	})

	require.Len(t, payouts, 3)
	assert.Equal(t, "alice", payouts[0].Username)
	assert.InDelta(t, 7.0, payouts[0].Amount, 1e-9)
	assert.InDelta(t, 1.5, payouts[1].Amount, 1e-9)
	assert.InDelta(t, 1.5, payouts[2].Amount, 1e-9)

	sum := 0.0
	for _, p := range payouts {
		sum += p.Amount
	}
	assert.InDelta(t, 10.0, sum, 1e-9)
}

func TestPercentSplitEdgeCases(t *testing.T) {
	calc := reward.PercentSplit{AuthorShare: 0.7}

	assert.Nil(t, calc.Payouts(&store.PostInteractions{Author: "alice"}))

	// No curators: everything goes to the author.
	payouts := calc.Payouts(&store.PostInteractions{
		Author:       "alice",
		Interactions: 3,
	})
	require.Len(t, payouts, 1)
	assert.InDelta(t, 3.0, payouts[0].Amount, 1e-9)
}

func TestRunOnceCreditsWallets(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	saver, err := logStore.NewSaver(t.TempDir(), logger)
	require.NoError(t, err)
	res, err := saver.Load()
	require.NoError(t, err)
	wp := workerpool.NewWorkerPool(workerpool.Config{WorkerCount: 2})
	st := store.New(res, saver, wp, logger)

	wallet, err := walletStore.NewWalletStore(walletStore.StoreConfig{Path: t.TempDir(), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() {
		wallet.Close()
		wp.Close()
		saver.Close()
	})

	for _, name := range []string{"alice", "bob", "carol"} {
		_, err := st.CreateUser(name, "pw", nil)
		require.NoError(t, err)
	}
	require.NoError(t, st.FollowUser("bob", "alice"))
	require.NoError(t, st.FollowUser("carol", "alice"))

	p, err := st.CreatePost("alice", "hi", "hello")
	require.NoError(t, err)
	_, err = st.AddComment("bob", p.ID, "nice")
	require.NoError(t, err)
	_, err = st.RatePost("carol", p.ID, types.VoteLike)
	require.NoError(t, err)

	engine := reward.NewEngine(st, wallet, reward.PercentSplit{AuthorShare: 0.5}, 0, logger)
	require.NoError(t, engine.RunOnce())

	// 2 interactions, half to alice, the rest split between bob and carol.
	balance, err := wallet.Balance("alice")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, balance, 1e-9)
	for _, curator := range []string{"bob", "carol"} {
		balance, err := wallet.Balance(curator)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, balance, 1e-9)
	}

	history, err := wallet.History("alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, p.ID.String(), history[0].PostID)

	// Nothing staged: a second cycle credits nothing.
	require.NoError(t, engine.RunOnce())
	balance, err = wallet.Balance("alice")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, balance, 1e-9)
}
