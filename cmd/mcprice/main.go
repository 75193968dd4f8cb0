package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	natsgo "github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"max.com/mcoption/pkg/config"
	"max.com/mcoption/pkg/kafka"
	"max.com/mcoption/pkg/nats"
	"max.com/mcoption/pkg/options"
	"max.com/mcoption/pkg/report"
	"max.com/mcoption/pkg/runid"
	"max.com/mcoption/pkg/scenario"
	"max.com/mcoption/pkg/service"
)

// =============================================================================
// 命令行
// =============================================================================

type cliFlags struct {
	configPath string
	scenario   string
	strategies string
	seed       uint64
	workers    int
	trials     int
	steps      int
	draws      bool
	list       bool
	serve      bool
	remote     bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "YAML 配置文件")
	flag.StringVar(&f.scenario, "scenario", "atm-1m", "场景名")
	flag.StringVar(&f.strategies, "strategy", "", "逗号分隔的策略 (binomial,diffusion)，为空时全部")
	flag.Uint64Var(&f.seed, "seed", 0, "随机种子，0 表示使用配置")
	flag.IntVar(&f.workers, "workers", 0, "并发数，0 表示使用配置")
	flag.IntVar(&f.trials, "trials", 0, "覆盖场景的试验次数 M")
	flag.IntVar(&f.steps, "steps", 0, "覆盖场景的步数 n")
	flag.BoolVar(&f.draws, "draws", false, "二叉策略保留每条路径的抽样")
	flag.BoolVar(&f.list, "list", false, "列出场景后退出")
	flag.BoolVar(&f.serve, "serve", false, "作为 NATS 定价服务运行")
	flag.BoolVar(&f.remote, "remote", false, "通过 NATS 请求远程定价")
	flag.Parse()
	return f
}

// =============================================================================
// 主程序
// =============================================================================

func main() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)
	f := parseFlags()

	cfg, err := config.Load(f.configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if f.workers > 0 {
		cfg.Estimator.Workers = f.workers
	}

	if err := runid.Init(cfg.NodeID); err != nil {
		log.Fatalf("Failed to init run id node: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. 场景目录
	// -------------------------------------------------------------------------
	repo, closeRepo, err := buildRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to build scenario repository: %v", err)
	}
	defer closeRepo()

	if f.list {
		listScenarios(ctx, repo)
		return
	}

	// 2. NATS 连接（serve / remote / 报告推送共用）
	// -------------------------------------------------------------------------
	var natsPub *nats.Publisher
	conn, err := connectNATS(cfg, f.serve || f.remote)
	if err != nil {
		log.Fatalf("Failed to connect NATS: %v", err)
	}
	if conn != nil {
		defer conn.Close()
		natsPub = nats.NewPublisher(conn)
	}

	req := buildRequest(ctx, repo, f)

	if f.remote {
		if err := priceRemote(ctx, natsPub, cfg.NATS.RequestSubject, req); err != nil {
			log.Fatalf("Remote pricing failed: %v", err)
		}
		return
	}

	// 3. 报告发布
	// -------------------------------------------------------------------------
	publisher, closePub, err := buildPublisher(cfg, natsPub)
	if err != nil {
		log.Fatalf("Failed to build publishers: %v", err)
	}
	defer closePub()

	svcCfg := service.DefaultConfig()
	svcCfg.Estimator = cfg.MCEstimator()
	if cfg.NATS.RequestTimeout > 0 {
		svcCfg.RequestTimeout = cfg.NATS.RequestTimeout
	}
	svc := service.New(repo, options.BlackScholes{}, publisher, svcCfg)

	// 4. 服务模式
	// -------------------------------------------------------------------------
	if f.serve {
		subscriber := nats.NewSubscriber(conn, svc.HandleNATS)
		if err := subscriber.SubscribeQueue(cfg.NATS.RequestSubject, cfg.NATS.Queue); err != nil {
			log.Fatalf("Failed to subscribe: %v", err)
		}
		log.Printf("✅ Pricing service listening on %s (queue=%s)", cfg.NATS.RequestSubject, cfg.NATS.Queue)

		<-ctx.Done()
		log.Println("🛑 Shutting down...")
		if err := subscriber.Close(); err != nil {
			log.Printf("[Main] unsubscribe: %v", err)
		}
		return
	}

	// 5. 单次定价
	// -------------------------------------------------------------------------
	reports, err := svc.Price(ctx, req)
	if err != nil {
		log.Fatalf("Pricing failed: %v", err)
	}
	for _, r := range reports {
		fmt.Print(r.Format())
	}
}

// buildRequest 由命令行参数构造请求；覆盖 M 或 n 时先载入场景再内联参数
func buildRequest(ctx context.Context, repo scenario.Repository, f cliFlags) service.Request {
	req := service.Request{Scenario: f.scenario, RecordDraws: f.draws}
	if f.strategies != "" {
		req.Strategies = strings.Split(f.strategies, ",")
	}
	if f.seed != 0 {
		seed := f.seed
		req.Seed = &seed
	}

	if f.trials > 0 || f.steps > 0 {
		sc, err := repo.Get(ctx, f.scenario)
		if err != nil {
			log.Fatalf("Failed to load scenario %q: %v", f.scenario, err)
		}
		p := sc.Params()
		if f.trials > 0 {
			p.Trials = f.trials
		}
		if f.steps > 0 {
			p.Steps = f.steps
		}
		req.Params = &p
	}
	return req
}

func listScenarios(ctx context.Context, repo scenario.Repository) {
	list, err := repo.List(ctx)
	if err != nil {
		log.Fatalf("Failed to list scenarios: %v", err)
	}
	for _, s := range list {
		fmt.Printf("%-14s s0=%g k=%g T=%g sigma=%g r=%g n=%d M=%d\n",
			s.Name, s.S0, s.K, s.T, s.Sigma, s.R, s.Steps, s.Trials)
	}
}

// buildRepository 内存内置场景 -> 可选 MySQL -> 可选 Redis 缓存
func buildRepository(ctx context.Context, cfg config.Config) (scenario.Repository, func(), error) {
	var repo scenario.Repository = scenario.NewMemoryRepo(scenario.Builtins()...)
	closers := []func(){}

	if cfg.MySQL.Enabled {
		db, err := scenario.OpenMySQL(cfg.MySQL.DSN)
		if err != nil {
			return nil, nil, err
		}
		mysqlRepo := scenario.NewMySQLRepo(db)
		if err := mysqlRepo.Migrate(); err != nil {
			return nil, nil, err
		}
		// 内置场景写入目录，已存在的按名称覆盖
		for _, s := range scenario.Builtins() {
			if err := mysqlRepo.Save(ctx, &s); err != nil {
				return nil, nil, err
			}
		}
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, func() { _ = sqlDB.Close() })
		}
		repo = mysqlRepo
		log.Println("✅ MySQL scenario catalog ready")
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
		}
		closers = append(closers, func() { _ = rdb.Close() })
		repo = scenario.NewCachedRepo(repo, rdb, cfg.Redis.TTL)
		log.Println("✅ Redis scenario cache ready")
	}

	return repo, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}

// connectNATS 配置启用或命令需要时才连接
func connectNATS(cfg config.Config, required bool) (*natsgo.Conn, error) {
	if !cfg.NATS.Enabled && !required {
		return nil, nil
	}
	conn, err := nats.Connect(cfg.NATS.URL, "mcprice")
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// buildPublisher 日志 + 可选 Kafka + 可选 NATS
func buildPublisher(cfg config.Config, natsPub *nats.Publisher) (report.Publisher, func(), error) {
	pubs := report.Multi{report.LogPublisher{}}
	closers := []func(){}

	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka.Producer)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() {
			if err := producer.Close(); err != nil {
				log.Printf("[Main] close kafka producer: %v", err)
			}
			st := producer.Stats()
			log.Printf("[Kafka] sent=%d failed=%d", st.SentCount, st.ErrorCount)
		})
		pubs = append(pubs, report.NewKafkaPublisher(producer, cfg.Kafka.Topic))
	}

	if natsPub != nil && cfg.NATS.ReportSubject != "" {
		closers = append(closers, func() {
			if err := natsPub.Flush(); err != nil {
				log.Printf("[Main] flush nats: %v", err)
			}
		})
		pubs = append(pubs, report.NewNATSPublisher(natsPub, cfg.NATS.ReportSubject))
	}

	return pubs, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}

func priceRemote(ctx context.Context, pub *nats.Publisher, subject string, req service.Request) error {
	data, err := pub.Request(ctx, subject, req)
	if err != nil {
		return err
	}

	var resp service.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != "" {
		return errors.New(resp.Error)
	}
	for _, r := range resp.Reports {
		fmt.Print(r.Format())
	}
	return nil
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n蒙特卡洛欧式看涨期权定价\n\n", os.Args[0])
		flag.PrintDefaults()
	}
}
