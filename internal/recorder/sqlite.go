package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (dashboards read while
	// the engine writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			symbol          TEXT,
			price           REAL,
			trend_fast      REAL,
			trend_slow      REAL,
			momentum        REAL,
			momentum_signal REAL,
			rsi             REAL,
			vwap            REAL,
			volume_spike    INTEGER,
			signal          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(timestamp)`,

		`CREATE TABLE IF NOT EXISTS proposals (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			proposal_id TEXT,
			symbol      TEXT,
			side        TEXT,
			entry_price REAL,
			stop_loss   REAL,
			take_profit REAL,
			quantity    REAL,
			status      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_proposals_ts ON proposals(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_proposals_pid ON proposals(proposal_id)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			order_id     TEXT,
			symbol       TEXT,
			side         TEXT,
			filled_price REAL,
			stop_loss    REAL,
			take_profit  REAL,
			quantity     REAL,
			source       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_ts ON orders(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSignal(rec *SignalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ind := rec.Indicators
	spike := 0
	if ind.VolumeSpike {
		spike = 1
	}
	_, err := r.db.Exec(`INSERT INTO signals
		(timestamp, symbol, price, trend_fast, trend_slow, momentum, momentum_signal, rsi, vwap, volume_spike, signal)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.Symbol, rec.Price,
		ind.TrendFast, ind.TrendSlow, ind.Momentum, ind.MomentumSignal,
		ind.RSI, ind.VWAP, spike, rec.Signal.String(),
	)
	return err
}

func (r *SQLiteRecorder) RecordProposal(rec *ProposalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := rec.Proposal
	_, err := r.db.Exec(`INSERT INTO proposals
		(timestamp, proposal_id, symbol, side, entry_price, stop_loss, take_profit, quantity, status)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), p.ID, p.Symbol, string(p.Side),
		p.EntryPrice, p.StopLoss, p.TakeProfit, p.Quantity, rec.Status,
	)
	return err
}

func (r *SQLiteRecorder) RecordOrder(rec *OrderRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := rec.Result
	_, err := r.db.Exec(`INSERT INTO orders
		(timestamp, order_id, symbol, side, filled_price, stop_loss, take_profit, quantity, source)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), res.OrderID, res.Symbol, string(res.Side),
		res.FilledPrice, res.StopLoss, res.TakeProfit, res.Quantity, rec.Source,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
