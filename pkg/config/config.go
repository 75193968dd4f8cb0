// 文件: pkg/config/config.go
// mcprice 配置：YAML 文件 + 环境变量覆盖
//
// 优先级：环境变量 > YAML 文件 > 默认值

package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"max.com/mcoption/pkg/kafka"
	"max.com/mcoption/pkg/mc"
	"max.com/mcoption/pkg/report"
	"max.com/mcoption/pkg/scenario"
)

// envPrefix 环境变量前缀
const envPrefix = "MCPRICE_"

// EstimatorConfig 估计器
type EstimatorConfig struct {
	Workers   int    `yaml:"workers"`
	ChunkSize int    `yaml:"chunk_size"`
	Seed      uint64 `yaml:"seed"` // 0 表示用时间戳
	Quiet     bool   `yaml:"quiet"`
}

// NATSConfig 请求/应答与报告推送
type NATSConfig struct {
	Enabled        bool          `yaml:"enabled"`
	URL            string        `yaml:"url"`
	RequestSubject string        `yaml:"request_subject"`
	ReportSubject  string        `yaml:"report_subject"`
	Queue          string        `yaml:"queue"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// KafkaConfig 报告投递
type KafkaConfig struct {
	Enabled  bool                 `yaml:"enabled"`
	Topic    string               `yaml:"topic"`
	Producer kafka.ProducerConfig `yaml:"producer"`
}

// RedisConfig 场景缓存
type RedisConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr"`
	TTL     time.Duration `yaml:"ttl"`
}

// MySQLConfig 场景目录
type MySQLConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// Config 顶层配置
type Config struct {
	NodeID    int64           `yaml:"node_id"`
	Estimator EstimatorConfig `yaml:"estimator"`
	NATS      NATSConfig      `yaml:"nats"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	MySQL     MySQLConfig     `yaml:"mysql"`
}

// Default 默认配置：只启用内存场景和日志输出
func Default() Config {
	return Config{
		Estimator: EstimatorConfig{
			Workers:   runtime.GOMAXPROCS(0),
			ChunkSize: mc.DefaultChunkSize,
		},
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			RequestSubject: "mc.price.request",
			ReportSubject:  "mc.price.report",
			Queue:          "mcprice",
			RequestTimeout: 30 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic:    report.TopicReports,
			Producer: kafka.DefaultProducerConfig([]string{"localhost:9092"}),
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			TTL:  scenario.DefaultCacheTTL,
		},
		MySQL: MySQLConfig{
			DSN: "root:root@tcp(127.0.0.1:3306)/mcprice?charset=utf8mb4&parseTime=True&loc=Local",
		},
	}
}

// Load 读取配置；path 为空时只用默认值和环境变量
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MCEstimator 转成 mc 包的配置；Seed 为 0 时取时间戳
func (c Config) MCEstimator() mc.EstimatorConfig {
	out := mc.DefaultEstimatorConfig()
	if c.Estimator.Workers > 0 {
		out.Workers = c.Estimator.Workers
	}
	if c.Estimator.ChunkSize > 0 {
		out.ChunkSize = c.Estimator.ChunkSize
	}
	if c.Estimator.Seed != 0 {
		out.Seed = c.Estimator.Seed
	}
	out.Quiet = c.Estimator.Quiet
	return out
}

// =============================================================================
// 环境变量
// =============================================================================

func (c *Config) applyEnv() error {
	var err error
	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	setBool := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && err == nil {
			*dst, err = parse(key, v, strconv.ParseBool)
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := lookup(key); ok && err == nil {
			*dst, err = parse(key, v, strconv.Atoi)
		}
	}

	if v, ok := lookup("NODE_ID"); ok {
		c.NodeID, err = parse("NODE_ID", v, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
	}
	setInt("WORKERS", &c.Estimator.Workers)
	setInt("CHUNK_SIZE", &c.Estimator.ChunkSize)
	if v, ok := lookup("SEED"); ok && err == nil {
		c.Estimator.Seed, err = parse("SEED", v, func(s string) (uint64, error) { return strconv.ParseUint(s, 10, 64) })
	}

	setBool("NATS_ENABLED", &c.NATS.Enabled)
	setString("NATS_URL", &c.NATS.URL)
	setString("NATS_REQUEST_SUBJECT", &c.NATS.RequestSubject)
	setString("NATS_REPORT_SUBJECT", &c.NATS.ReportSubject)

	setBool("KAFKA_ENABLED", &c.Kafka.Enabled)
	setString("KAFKA_TOPIC", &c.Kafka.Topic)
	if v, ok := lookup("KAFKA_BROKERS"); ok {
		c.Kafka.Producer.Brokers = splitList(v)
	}

	setBool("REDIS_ENABLED", &c.Redis.Enabled)
	setString("REDIS_ADDR", &c.Redis.Addr)

	setBool("MYSQL_ENABLED", &c.MySQL.Enabled)
	setString("MYSQL_DSN", &c.MySQL.DSN)

	return err
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func parse[T any](key, v string, fn func(string) (T, error)) (T, error) {
	out, err := fn(v)
	if err != nil {
		return out, fmt.Errorf("env %s%s=%q: %w", envPrefix, key, v, err)
	}
	return out, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
