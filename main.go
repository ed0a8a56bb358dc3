package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/shahidirfan100/Website-Tech-Stack-Detector/global"
	"github.com/shahidirfan100/Website-Tech-Stack-Detector/middlerware/logger"
	"github.com/shahidirfan100/Website-Tech-Stack-Detector/routers"
	"github.com/shahidirfan100/Website-Tech-Stack-Detector/services/fingerprint"
	"github.com/shahidirfan100/Website-Tech-Stack-Detector/services/fingerprint/result"
)

func main() {
	configPath := flag.String("config", "", "YAML 配置文件路径")
	serveMode := flag.Bool("serve", false, "以 HTTP 服务模式运行")
	output := flag.String("output", "", "结果文件路径，覆盖配置文件")
	flag.Parse()

	cfg, err := global.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if *output != "" {
		cfg.Output = *output
	}
	// 命令行中的 URL 追加到配置之后
	cfg.URLs = append(cfg.URLs, flag.Args()...)

	logger.Init(&logger.Options{
		Path:       cfg.Log.Path,
		Level:      cfg.Log.Level,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	})
	defer logger.Sync()

	if *serveMode {
		runServer(cfg)
		return
	}
	runBatch(cfg)
}

// runBatch 批处理模式，结果以 JSON Lines 写入文件
func runBatch(cfg *global.Config) {
	summary, results, err := fingerprint.RunBatch(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "扫描失败: %v\n", err)
		os.Exit(1)
	}

	sink := result.NewSink()
	for _, record := range results {
		sink.Put(record)
	}
	if err = sink.Flush(cfg.Output); err != nil {
		fmt.Fprintf(os.Stderr, "写入结果失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("分析 %d 个 URL，成功 %d 个，耗时 %s，结果已写入 %s\n",
		summary.URLsAnalyzed, summary.Succeeded, summary.Runtime, cfg.Output)
}

// runServer HTTP 服务模式
func runServer(cfg *global.Config) {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	routers.InitPingRouter(engine)
	routers.InitScanRouter(engine)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("HTTP 服务启动于 " + addr)
	if err := engine.Run(addr); err != nil {
		logger.Error("HTTP 服务退出", err)
		os.Exit(1)
	}
}
