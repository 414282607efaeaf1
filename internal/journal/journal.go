// Package journal хранит журнал авторитетных исходов рецептов в BadgerDB.
// Записи упорядочены по времени и служат для аудита и разбора спорных случаев.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/annel0/interactions/internal/eventbus"
	"github.com/annel0/interactions/internal/interaction"
	"github.com/annel0/interactions/internal/logging"
)

const keyPrefix = "outcome:"

// ErrNotReady возвращается после Close
var ErrNotReady = errors.New("journal: хранилище не готово")

// Entry: одна запись журнала
type Entry struct {
	Key     string              `json:"-"`
	EventID string              `json:"event_id"`
	Source  string              `json:"source,omitempty"`
	Outcome interaction.Outcome `json:"outcome"`
}

// Journal: журнал исходов поверх BadgerDB
type Journal struct {
	db      *badger.DB
	mutex   sync.RWMutex
	isReady bool
	logger  *logging.Logger
	encoder *zstd.Encoder // nil: без сжатия
}

// Open открывает журнал в каталоге path; inMemory держит данные только в памяти
func Open(path string, inMemory bool, logger *logging.Logger, options ...Option) (*Journal, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = nil // Отключаем логирование BadgerDB

	j := &Journal{logger: logger}
	for _, opt := range options {
		if err := opt(j); err != nil {
			return nil, err
		}
	}

	db, err := badger.Open(opts)
	if err != nil {
		if j.encoder != nil {
			j.encoder.Close()
		}
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}
	j.db = db
	j.isReady = true

	if inMemory {
		logger.Info("Журнал исходов открыт в памяти")
	} else {
		logger.Info("Журнал исходов открыт: %s (сжатие: %t)", path, j.encoder != nil)
	}
	return j, nil
}

// Close закрывает хранилище
func (j *Journal) Close() error {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if !j.isReady {
		return nil
	}
	j.isReady = false
	if j.encoder != nil {
		j.encoder.Close()
	}
	return j.db.Close()
}

// Append сохраняет исход. Пустой eventID заменяется новым UUID.
func (j *Journal) Append(eventID, source string, out interaction.Outcome) (Entry, error) {
	j.mutex.RLock()
	defer j.mutex.RUnlock()

	if !j.isReady {
		return Entry{}, ErrNotReady
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}
	if out.At.IsZero() {
		out.At = time.Now()
	}

	e := Entry{Key: entryKey(out.At, eventID), EventID: eventID, Source: source, Outcome: out}
	data, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("ошибка сериализации исхода: %w", err)
	}

	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(e.Key), j.encode(data))
	})
	if err != nil {
		return Entry{}, fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return e, nil
}

// List возвращает до limit последних записей, от новых к старым; limit <= 0: все
func (j *Journal) List(limit int) ([]Entry, error) {
	return j.scan(time.Time{}, limit)
}

// Since возвращает записи не раньше t, от новых к старым
func (j *Journal) Since(t time.Time) ([]Entry, error) {
	return j.scan(t, 0)
}

// Count возвращает число записей
func (j *Journal) Count() (int, error) {
	j.mutex.RLock()
	defer j.mutex.RUnlock()

	if !j.isReady {
		return 0, ErrNotReady
	}
	n := 0
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func (j *Journal) scan(since time.Time, limit int) ([]Entry, error) {
	j.mutex.RLock()
	defer j.mutex.RUnlock()

	if !j.isReady {
		return nil, ErrNotReady
	}

	var out []Entry
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		// При обратном обходе Seek встаёт на последний ключ <= аргумента
		seek := append([]byte(keyPrefix), 0xFF)
		var floor []byte
		if !since.IsZero() {
			floor = []byte(entryKey(since, ""))
		}

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if floor != nil && string(item.Key()) < string(floor) {
				break
			}
			var e Entry
			err := item.Value(func(val []byte) error {
				raw, err := decode(val)
				if err != nil {
					return err
				}
				return json.Unmarshal(raw, &e)
			})
			if err != nil {
				return fmt.Errorf("ключ %s: %w", item.Key(), err)
			}
			e.Key = string(item.KeyCopy(nil))
			out = append(out, e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return out, nil
}

// Attach подписывает журнал на исходы из шины
func (j *Journal) Attach(ctx context.Context, bus eventbus.EventBus) (eventbus.Subscription, error) {
	return bus.Subscribe(ctx, eventbus.Filter{Types: []string{eventbus.TypeInteractionApplied}}, func(ctx context.Context, ev *eventbus.Envelope) {
		out, err := eventbus.DecodeOutcome(ev)
		if err != nil {
			j.logger.Warn("Пропущено событие %s: %v", ev.ID, err)
			return
		}
		if _, err := j.Append(ev.ID, ev.Source, out); err != nil {
			j.logger.Error("Не удалось записать исход %s: %v", out.RecipeID, err)
		}
	})
}

// entryKey: outcome:<unix nanos, 20 цифр>:<id>, лексикографический порядок = хронологический
func entryKey(at time.Time, id string) string {
	return fmt.Sprintf("%s%020d:%s", keyPrefix, at.UnixNano(), id)
}
