package storage

// sqlite.go — persistencia de ratings y runs de backtest.
//
// Estrategia:
//   - `ratings`: UNA fila por (symbol, ts) con UPSERT — recalcular la serie
//     de un símbolo sobreescribe snapshots existentes en vez de duplicarlos.
//   - `runs`: una fila por run con el scorecard aplanado en columnas, para
//     poder comparar runs con SQL plano sin deserializar nada.
//   - Prune automático al arrancar: snapshots > 180d, runs > 90d.

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pythymcpyface/tradingbot-sub002/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Serie temporal de ratings: una fila por símbolo y timestamp
CREATE TABLE IF NOT EXISTS ratings (
    symbol            TEXT     NOT NULL,
    ts                DATETIME NOT NULL,
    rating            REAL     NOT NULL DEFAULT 1500,
    rating_deviation  REAL     NOT NULL DEFAULT 350,
    volatility        REAL     NOT NULL DEFAULT 0.06,
    performance_score REAL     NOT NULL DEFAULT 0.5,
    PRIMARY KEY (symbol, ts)
);

-- Un run de backtest con su scorecard aplanado
CREATE TABLE IF NOT EXISTS runs (
    id                TEXT PRIMARY KEY,
    symbol            TEXT     NOT NULL,
    started_at        DATETIME NOT NULL,
    finished_at       DATETIME NOT NULL,
    windows           INTEGER  NOT NULL DEFAULT 0,
    total_trades      INTEGER  NOT NULL DEFAULT 0,
    total_return      REAL     NOT NULL DEFAULT 0,
    annualized_return REAL     NOT NULL DEFAULT 0,
    sharpe_ratio      REAL     NOT NULL DEFAULT 0,
    sortino_ratio     REAL     NOT NULL DEFAULT 0,
    calmar_ratio      REAL     NOT NULL DEFAULT 0,
    win_rate          REAL     NOT NULL DEFAULT 0,
    profit_factor     REAL     NOT NULL DEFAULT 0,
    max_drawdown      REAL     NOT NULL DEFAULT 0,
    volatility        REAL     NOT NULL DEFAULT 0,
    kelly_percentage  REAL     NOT NULL DEFAULT 0,
    composite_score   REAL     NOT NULL DEFAULT 0,
    strategy_grade    TEXT     NOT NULL DEFAULT 'F',
    risk_level        TEXT     NOT NULL DEFAULT 'Low',
    recommendation    TEXT     NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_ratings_symbol_ts ON ratings(symbol, ts);
CREATE INDEX IF NOT EXISTS idx_runs_symbol       ON runs(symbol, finished_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_composite    ON runs(composite_score DESC);
`

const (
	retentionRatings = 180 * 24 * time.Hour // snapshots: 180 días
	retentionRuns    = 90 * 24 * time.Hour  // runs: 90 días
)

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia datos antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveSnapshots hace upsert de los snapshots en una sola transacción.
// Recalcular la serie de un símbolo es idempotente.
func (s *SQLiteStorage) SaveSnapshots(ctx context.Context, snapshots []domain.RatingSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveSnapshots: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ratings
			(symbol, ts, rating, rating_deviation, volatility, performance_score)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, ts) DO UPDATE SET
			rating            = excluded.rating,
			rating_deviation  = excluded.rating_deviation,
			volatility        = excluded.volatility,
			performance_score = excluded.performance_score
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveSnapshots: prepare: %w", err)
	}
	defer stmt.Close()

	for _, snap := range snapshots {
		if _, err := stmt.ExecContext(ctx,
			snap.Symbol,
			snap.Timestamp.UTC(),
			snap.Rating,
			snap.RatingDeviation,
			snap.Volatility,
			snap.PerformanceScore,
		); err != nil {
			return fmt.Errorf("storage.SaveSnapshots: upsert %s@%s: %w",
				snap.Symbol, snap.Timestamp.Format(time.RFC3339), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveSnapshots: commit: %w", err)
	}
	return nil
}

// GetSnapshots devuelve los snapshots del símbolo en [from, to], en orden
// cronológico.
func (s *SQLiteStorage) GetSnapshots(ctx context.Context, symbol string, from, to time.Time) ([]domain.RatingSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, ts, rating, rating_deviation, volatility, performance_score
		FROM ratings
		WHERE symbol = ? AND ts BETWEEN ? AND ?
		ORDER BY ts ASC
	`, symbol, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("storage.GetSnapshots: query: %w", err)
	}
	defer rows.Close()

	var snaps []domain.RatingSnapshot
	for rows.Next() {
		var snap domain.RatingSnapshot
		var ts string
		if err := rows.Scan(
			&snap.Symbol,
			&ts,
			&snap.Rating,
			&snap.RatingDeviation,
			&snap.Volatility,
			&snap.PerformanceScore,
		); err != nil {
			return nil, fmt.Errorf("storage.GetSnapshots: scan row: %w", err)
		}
		snap.Timestamp, err = parseDBTime(ts)
		if err != nil {
			return nil, fmt.Errorf("storage.GetSnapshots: parse ts %q: %w", ts, err)
		}
		snaps = append(snaps, snap)
	}

	return snaps, rows.Err()
}

// SaveRun persiste un run con su scorecard. Genera el uuid si el run llega
// sin id.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run domain.BacktestRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	m := run.Metrics
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
			(id, symbol, started_at, finished_at, windows, total_trades,
			 total_return, annualized_return, sharpe_ratio, sortino_ratio,
			 calmar_ratio, win_rate, profit_factor, max_drawdown, volatility,
			 kelly_percentage, composite_score, strategy_grade, risk_level,
			 recommendation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at     = excluded.finished_at,
			windows         = excluded.windows,
			total_trades    = excluded.total_trades,
			total_return    = excluded.total_return,
			composite_score = excluded.composite_score,
			strategy_grade  = excluded.strategy_grade,
			risk_level      = excluded.risk_level,
			recommendation  = excluded.recommendation
	`,
		run.ID,
		run.Symbol,
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
		run.Windows,
		m.TotalTrades,
		m.TotalReturn,
		m.AnnualizedReturn,
		m.SharpeRatio,
		m.SortinoRatio,
		m.CalmarRatio,
		m.WinRate,
		finiteOrZero(m.ProfitFactor),
		m.MaxDrawdown,
		m.Volatility,
		m.KellyPercentage,
		m.CompositeScore,
		string(m.StrategyGrade),
		string(m.RiskLevel),
		m.Recommendation,
	); err != nil {
		return fmt.Errorf("storage.SaveRun: upsert %s: %w", run.ID, err)
	}
	return nil
}

// GetRuns devuelve hasta limit runs del símbolo, el más reciente primero.
// limit <= 0 significa sin límite.
func (s *SQLiteStorage) GetRuns(ctx context.Context, symbol string, limit int) ([]domain.BacktestRun, error) {
	if limit <= 0 {
		limit = -1 // SQLite: LIMIT -1 = sin límite
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, started_at, finished_at, windows, total_trades,
		       total_return, annualized_return, sharpe_ratio, sortino_ratio,
		       calmar_ratio, win_rate, profit_factor, max_drawdown, volatility,
		       kelly_percentage, composite_score, strategy_grade, risk_level,
		       recommendation
		FROM runs
		WHERE symbol = ?
		ORDER BY finished_at DESC
		LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.GetRuns: query: %w", err)
	}
	defer rows.Close()

	var runs []domain.BacktestRun
	for rows.Next() {
		var run domain.BacktestRun
		var startedAt, finishedAt, grade, risk string
		if err := rows.Scan(
			&run.ID,
			&run.Symbol,
			&startedAt,
			&finishedAt,
			&run.Windows,
			&run.Metrics.TotalTrades,
			&run.Metrics.TotalReturn,
			&run.Metrics.AnnualizedReturn,
			&run.Metrics.SharpeRatio,
			&run.Metrics.SortinoRatio,
			&run.Metrics.CalmarRatio,
			&run.Metrics.WinRate,
			&run.Metrics.ProfitFactor,
			&run.Metrics.MaxDrawdown,
			&run.Metrics.Volatility,
			&run.Metrics.KellyPercentage,
			&run.Metrics.CompositeScore,
			&grade,
			&risk,
			&run.Metrics.Recommendation,
		); err != nil {
			return nil, fmt.Errorf("storage.GetRuns: scan row: %w", err)
		}
		run.Metrics.StrategyGrade = domain.Grade(grade)
		run.Metrics.RiskLevel = domain.RiskLevel(risk)
		run.Metrics.TotalWindows = run.Windows
		if run.StartedAt, err = parseDBTime(startedAt); err != nil {
			return nil, fmt.Errorf("storage.GetRuns: parse started_at %q: %w", startedAt, err)
		}
		if run.FinishedAt, err = parseDBTime(finishedAt); err != nil {
			return nil, fmt.Errorf("storage.GetRuns: parse finished_at %q: %w", finishedAt, err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// pruneOld elimina datos antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoffRatings := time.Now().UTC().Add(-retentionRatings)
	cutoffRuns := time.Now().UTC().Add(-retentionRuns)
	s.db.ExecContext(ctx, `DELETE FROM ratings WHERE ts < ?`, cutoffRatings)
	s.db.ExecContext(ctx, `DELETE FROM runs WHERE finished_at < ?`, cutoffRuns)
}

// parseDBTime acepta los dos formatos con los que el driver serializa
// DATETIME (RFC3339 con y sin fracción de segundo).
func parseDBTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05.999999999-07:00", s)
}

// finiteOrZero evita persistir el sentinel +Inf del profit factor; SQLite
// no representa Inf en REAL.
func finiteOrZero(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
