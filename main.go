package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/waka-wa/qweny/bridge"
)

// 入口：publish 模式运行演示宿主世界并按 Tick 发布快照；subscribe 模式作为消费端打印快照
func main() {
	var (
		configPath string
		mode       string
		addr       string
		schema     bool
	)
	flag.StringVar(&configPath, "config", "", "path to YAML config (optional)")
	flag.StringVar(&mode, "mode", "publish", "publish | subscribe")
	flag.StringVar(&addr, "addr", "", "publisher endpoint, e.g. tcp://127.0.0.1:5555 (overrides config)")
	flag.BoolVar(&schema, "schema", false, "print the JSON schema of the snapshot payload and exit")
	flag.Parse()

	if schema {
		b, err := json.MarshalIndent(bridge.Schema(), "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal schema: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(b))
		return
	}

	cfg := bridge.DefaultConfig()
	if configPath != "" {
		loaded, err := bridge.LoadConfigFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if addr != "" {
		cfg.Address = addr
	}

	// zap 日志写入 app.log（带滚动）
	if err := bridge.InitLogger(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer bridge.SyncLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "publish":
		runPublish(ctx, cfg)
	case "subscribe":
		runSubscribe(ctx, cfg)
	default:
		fatalf("unknown mode %q", mode)
	}
}

func runPublish(ctx context.Context, cfg bridge.Config) {
	metrics := bridge.NewMetrics()
	pub := bridge.NewPublisher(cfg.PublisherConfig(), metrics)
	// 绑定失败属于启动期配置错误，直接退出，不在未绑定状态下假装发布
	if err := pub.Start(cfg.Address); err != nil {
		fatalf("start publisher: %v", err)
	}

	sim := bridge.NewSim(cfg.Sim)
	driver := bridge.NewDriver(sim, pub, metrics)
	driver.SetEnabled(cfg.Enabled)
	sim.Subscribe(driver.OnTick)

	var admin *http.Server
	if cfg.AdminAddr != "" {
		admin = &http.Server{Addr: cfg.AdminAddr, Handler: bridge.AdminHandler(driver, metrics, pub)}
		go func() {
			bridge.Log.Infof("admin listening on http://%s/metrics", cfg.AdminAddr)
			if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				bridge.Log.Errorf("admin listen: %v", err)
			}
		}()
	}

	sim.Run(ctx)

	// 优雅退出（Ctrl+C）：先停 Tick，再关闭发布端
	bridge.Log.Info("Shutting down...")
	if admin != nil {
		_ = admin.Close()
	}
	if err := pub.Close(); err != nil {
		bridge.Log.Warnf("close publisher: %v", err)
	}
}

func runSubscribe(ctx context.Context, cfg bridge.Config) {
	err := bridge.Subscribe(ctx, cfg.Address, cfg.Path, func(s bridge.Snapshot) {
		bridge.Log.Infow("snapshot", "entities", len(s))
		if b, err := bridge.Encode(s); err == nil {
			fmt.Println(string(b))
		}
	})
	if err != nil {
		fatalf("subscribe: %v", err)
	}
}

// fatalf 启动期错误：日志默认只写文件，先打到 stderr 再退出
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	bridge.Log.Fatalf(format, args...)
}
