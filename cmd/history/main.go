// 查看最近的识别历史。
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/iabetor/inkdigit/internal/config"
	"github.com/iabetor/inkdigit/internal/history"
)

func main() {
	configPath := flag.String("config", "configs/inkdigit.yaml", "配置文件路径")
	limit := flag.Int("n", 20, "显示的记录条数")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.Default()
	}

	store, err := history.Open(cfg.History.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "打开历史数据库失败: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	entries, err := store.Recent(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "查询失败: %v\n", err)
		os.Exit(1)
	}

	if len(entries) == 0 {
		fmt.Println("暂无识别记录")
		return
	}

	for _, e := range entries {
		fmt.Printf("%s  digit=%d  confidence=%5.1f%%  ink=%d\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Label, e.Confidence*100, e.InkPixels)
	}
}
