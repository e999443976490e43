package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	LogLevel string
	LogDev   bool

	SimTrials     int
	SimWorkers    int
	SimSeed       uint64
	RunCacheTTL   time.Duration
	RunInterval   time.Duration
	ScheduledRuns []FundRef
}

// FundRef names one fund simulated by the batch loop, written as
// "tenant:fund" in SIM_FUNDS.
type FundRef struct {
	TenantID string
	FundID   string
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("MYSQL_HOST", "mysql")
	v.SetDefault("MYSQL_PORT", "3306")
	v.SetDefault("MYSQL_DB", "loanportfolio")
	v.SetDefault("MYSQL_USER", "loanportfolio")
	v.SetDefault("MYSQL_PASS", "loanportfolio")
	v.SetDefault("REDIS_ADDR", "redis:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DEV", false)
	v.SetDefault("SIM_TRIALS", 10000)
	v.SetDefault("SIM_WORKERS", 0)
	v.SetDefault("SIM_SEED", 1)
	v.SetDefault("RUN_CACHE_TTL_SECONDS", 3600)
	v.SetDefault("RUN_INTERVAL_SECONDS", 0)
	v.SetDefault("SIM_FUNDS", "")
	return v
}

func Load() *Config {
	v := newViper()
	return &Config{
		AppPort:   v.GetString("APP_PORT"),
		MySQLHost: v.GetString("MYSQL_HOST"),
		MySQLPort: v.GetString("MYSQL_PORT"),
		MySQLDB:   v.GetString("MYSQL_DB"),
		MySQLUser: v.GetString("MYSQL_USER"),
		MySQLPass: v.GetString("MYSQL_PASS"),

		RedisAddr: v.GetString("REDIS_ADDR"),
		RedisDB:   v.GetInt("REDIS_DB"),

		LogLevel: v.GetString("LOG_LEVEL"),
		LogDev:   v.GetBool("LOG_DEV"),

		SimTrials:     v.GetInt("SIM_TRIALS"),
		SimWorkers:    v.GetInt("SIM_WORKERS"),
		SimSeed:       v.GetUint64("SIM_SEED"),
		RunCacheTTL:   time.Duration(v.GetInt("RUN_CACHE_TTL_SECONDS")) * time.Second,
		RunInterval:   time.Duration(v.GetInt("RUN_INTERVAL_SECONDS")) * time.Second,
		ScheduledRuns: parseFunds(v.GetString("SIM_FUNDS")),
	}
}

// parseFunds reads "t1:f1,t1:f2". Malformed items are kept with an empty
// fund so that Validate can report them.
func parseFunds(raw string) []FundRef {
	var out []FundRef
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		tenant, fund, _ := strings.Cut(item, ":")
		out = append(out, FundRef{TenantID: strings.TrimSpace(tenant), FundID: strings.TrimSpace(fund)})
	}
	return out
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.SimTrials <= 0 {
		return fmt.Errorf("invalid SIM_TRIALS %d", c.SimTrials)
	}
	if c.SimWorkers < 0 {
		return fmt.Errorf("invalid SIM_WORKERS %d", c.SimWorkers)
	}
	for _, f := range c.ScheduledRuns {
		if f.TenantID == "" || f.FundID == "" {
			return fmt.Errorf("invalid SIM_FUNDS entry %q, want tenant:fund", f.TenantID+":"+f.FundID)
		}
	}
	if len(c.ScheduledRuns) > 0 && c.RunInterval <= 0 {
		return errors.New("SIM_FUNDS needs a positive RUN_INTERVAL_SECONDS")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
