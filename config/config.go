package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del engine.
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Backtest BacktestConfig `yaml:"backtest"`
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// EngineConfig controla el cálculo de ratings.
type EngineConfig struct {
	Symbols  []string `yaml:"symbols"`  // pares a puntuar
	Interval string   `yaml:"interval"` // intervalo de velas ("1h", "1d")
	Days     int      `yaml:"days"`     // días de histórico a descargar
}

// BacktestConfig controla la simulación y la búsqueda en rejilla.
type BacktestConfig struct {
	ZScoreThreshold     float64 `yaml:"zscore_threshold"`
	MovingAveragePeriod int     `yaml:"moving_average_period"`
	ProfitPercent       float64 `yaml:"profit_percent"`
	StopLossPercent     float64 `yaml:"stop_loss_percent"`
	InitialCash         float64 `yaml:"initial_cash"`
	WindowDays          int     `yaml:"window_days"`
	Workers             int     `yaml:"workers"` // 0 → NumCPU×2
}

// APIConfig contiene el base URL del exchange.
type APIConfig struct {
	BinanceBase string `yaml:"binance_base"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// HistoryRange devuelve el rango [from, to] de histórico configurado,
// terminando ahora.
func (c *Config) HistoryRange() (time.Time, time.Time) {
	to := time.Now().UTC()
	return to.Add(-time.Duration(c.Engine.Days) * 24 * time.Hour), to
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("BINANCE_BASE"); v != "" {
		cfg.API.BinanceBase = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		cfg.Engine.Symbols = splitSymbols(v)
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if len(cfg.Engine.Symbols) == 0 {
		cfg.Engine.Symbols = []string{"BTCUSDT", "ETHUSDT"}
	}
	if cfg.Engine.Interval == "" {
		cfg.Engine.Interval = "1h"
	}
	if cfg.Engine.Days <= 0 {
		cfg.Engine.Days = 90
	}
	if cfg.Backtest.ZScoreThreshold <= 0 {
		cfg.Backtest.ZScoreThreshold = 1.5
	}
	if cfg.Backtest.MovingAveragePeriod <= 0 {
		cfg.Backtest.MovingAveragePeriod = 20
	}
	if cfg.Backtest.ProfitPercent <= 0 {
		cfg.Backtest.ProfitPercent = 5
	}
	if cfg.Backtest.StopLossPercent <= 0 {
		cfg.Backtest.StopLossPercent = 3
	}
	if cfg.Backtest.InitialCash <= 0 {
		cfg.Backtest.InitialCash = 10000
	}
	if cfg.Backtest.WindowDays <= 0 {
		cfg.Backtest.WindowDays = 30
	}
	if cfg.API.BinanceBase == "" {
		cfg.API.BinanceBase = "https://api.binance.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "ratings.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// splitSymbols parte una lista separada por comas, limpiando espacios.
func splitSymbols(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, strings.ToUpper(trimmed))
		}
	}
	return out
}
