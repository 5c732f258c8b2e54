// Package walletStore is the durable reward ledger. Balances and the
// transaction history live in badger; values are JSON so the ledger stays
// debuggable with badger's own tooling.
package walletStore

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

type StoreConfig struct {
	Path   string
	Logger *logrus.Logger
}

type WalletStore struct {
	config   StoreConfig
	badgerDB *badger.DB
}

// Transaction is one credited reward.
type Transaction struct {
	Username  string  `json:"username"`
	Amount    float64 `json:"amount"`
	Timestamp int64   `json:"timestamp"`
	PostID    string  `json:"postId,omitempty"`
}

func NewWalletStore(config StoreConfig) (*WalletStore, error) {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	log = config.Logger

	opts := badger.DefaultOptions(config.Path)
	opts.Logger = nil
	opts.SyncWrites = false

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("error opening wallet store: %w", err)
	}

	return &WalletStore{
		config:   config,
		badgerDB: db,
	}, nil
}

func balanceKey(username string) []byte {
	return []byte("balance:" + username)
}

func txPrefix(username string) []byte {
	return []byte("tx:" + username + ":")
}

// Credit adds amount to username's balance and appends a transaction record,
// both in one badger transaction.
func (w *WalletStore) Credit(username string, amount float64, timestamp int64, postID string) error {
	tx := Transaction{
		Username:  username,
		Amount:    amount,
		Timestamp: timestamp,
		PostID:    postID,
	}
	txData, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("error encoding wallet transaction: %w", err)
	}

	txKey := append(txPrefix(username), []byte(fmt.Sprintf("%020d:%s", timestamp, uuid.New()))...)

	err = w.badgerDB.Update(func(txn *badger.Txn) error {
		balance, err := readBalance(txn, username)
		if err != nil {
			return err
		}
		balance += amount

		if err := txn.Set(balanceKey(username), []byte(strconv.FormatFloat(balance, 'f', -1, 64))); err != nil {
			return err
		}
		return txn.Set(txKey, txData)
	})
	if err != nil {
		log.WithFields(logrus.Fields{"user": username, "amount": amount}).Errorf("error crediting wallet: %v", err)
		return fmt.Errorf("error crediting wallet of %s: %w", username, err)
	}
	return nil
}

// Balance returns username's current balance; a user never credited has 0.
func (w *WalletStore) Balance(username string) (float64, error) {
	var balance float64
	err := w.badgerDB.View(func(txn *badger.Txn) error {
		var err error
		balance, err = readBalance(txn, username)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("error reading balance of %s: %w", username, err)
	}
	return balance, nil
}

// History returns username's transactions, oldest first.
func (w *WalletStore) History(username string) ([]Transaction, error) {
	var history []Transaction
	err := w.badgerDB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := txPrefix(username)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var tx Transaction
			if err := json.Unmarshal(value, &tx); err != nil {
				return err
			}
			history = append(history, tx)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error reading wallet history of %s: %w", username, err)
	}
	return history, nil
}

func readBalance(txn *badger.Txn, username string) (float64, error) {
	item, err := txn.Get(balanceKey(username))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return 0, nil
		}
		return 0, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(string(value), 64)
}

// Clean syncs badger and runs a value log GC pass.
func (w *WalletStore) Clean() error {
	if err := w.badgerDB.Sync(); err != nil {
		return fmt.Errorf("error syncing wallet store: %w", err)
	}
	if err := w.badgerDB.RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
		return fmt.Errorf("error cleaning wallet store: %w", err)
	}
	return nil
}

func (w *WalletStore) Close() error {
	return w.badgerDB.Close()
}
