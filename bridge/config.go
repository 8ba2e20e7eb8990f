package bridge

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultAddress 发布端默认绑定地址（本地回环）
	DefaultAddress = "tcp://127.0.0.1:5555"
	// DefaultTickInterval 宿主 Tick 周期（约 0.6s 一个游戏 Tick）
	DefaultTickInterval = 600 * time.Millisecond
)

// Config 桥接的全部配置，构造时显式传入
type Config struct {
	Enabled      bool          `yaml:"enabled"`
	Address      string        `yaml:"address"`
	Path         string        `yaml:"path"`
	SendQueue    int           `yaml:"send_queue"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	AdminAddr    string        `yaml:"admin_addr"`
	Log          LogConfig     `yaml:"log"`
	Sim          SimConfig     `yaml:"sim"`
}

// LogConfig 日志输出与滚动策略
type LogConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// SimConfig 演示用宿主世界
type SimConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	NPCs         int           `yaml:"npcs"`
	Width        int           `yaml:"width"`
	Height       int           `yaml:"height"`
	Seed         int64         `yaml:"seed"`
	// HiddenRatio 每 Tick 实体失去世界坐标的概率
	HiddenRatio float64 `yaml:"hidden_ratio"`
}

// PublisherConfig 从 Config 中取出发布端需要的部分
func (c Config) PublisherConfig() PublisherConfig {
	return PublisherConfig{
		Path:         c.Path,
		SendQueue:    c.SendQueue,
		WriteTimeout: c.WriteTimeout,
	}
}

// DefaultConfig 返回带文档化默认值的配置
func DefaultConfig() Config {
	c := Config{
		Enabled:   true,
		Address:   DefaultAddress,
		AdminAddr: "127.0.0.1:8081",
		Log: LogConfig{
			File: "app.log",
		},
		Sim: SimConfig{
			HiddenRatio: 0.1,
		},
	}
	c.defaults()
	return c
}

func (c *Config) defaults() {
	if c.Address == "" {
		c.Address = DefaultAddress
	}
	if c.Path == "" {
		c.Path = "/"
	}
	if c.SendQueue <= 0 {
		c.SendQueue = 64
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays <= 0 {
		c.Log.MaxAgeDays = 7
	}
	if c.Sim.TickInterval <= 0 {
		c.Sim.TickInterval = DefaultTickInterval
	}
	if c.Sim.NPCs <= 0 {
		c.Sim.NPCs = 8
	}
	if c.Sim.Width <= 0 {
		c.Sim.Width = 64
	}
	if c.Sim.Height <= 0 {
		c.Sim.Height = 64
	}
	if c.Sim.HiddenRatio < 0 {
		c.Sim.HiddenRatio = 0
	}
}

// LoadConfigFile 读取 YAML 配置；文件中缺省的字段保留默认值
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.defaults()
	return cfg, nil
}
