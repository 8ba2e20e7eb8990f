package bridge

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// TickHandler 宿主 Tick 事件的订阅回调
type TickHandler func(tick int64)

// npc 演示世界中的实体（宿主侧权威状态）
type npc struct {
	id      int
	name    string
	x, y    int
	plane   int
	visible bool // false 时本 Tick 没有世界坐标
}

func (n *npc) ID() int      { return n.id }
func (n *npc) Name() string { return n.name }
func (n *npc) WorldLocation() *WorldPoint {
	if !n.visible {
		return nil
	}
	return &WorldPoint{X: n.x, Y: n.y, Plane: n.plane}
}

var npcNames = []string{"Goblin", "Rat", "Cow", "Guard", "Man", "Woman", "Chicken", ""}

// Sim 演示用宿主世界：单协程按固定周期推进，并在同一协程内分发 Tick 事件
type Sim struct {
	mu       sync.RWMutex
	npcs     []*npc
	width    int
	height   int
	hidden   float64
	interval time.Duration
	rng      *rand.Rand
	tick     int64
	handlers []TickHandler
}

// NewSim 按配置生成 NPC，位置随机分布在 [0,width]x[0,height]
func NewSim(cfg SimConfig) *Sim {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &Sim{
		width:    cfg.Width,
		height:   cfg.Height,
		hidden:   cfg.HiddenRatio,
		interval: cfg.TickInterval,
		rng:      rand.New(rand.NewSource(seed)),
	}
	if s.interval <= 0 {
		s.interval = DefaultTickInterval
	}
	for i := 0; i < cfg.NPCs; i++ {
		s.npcs = append(s.npcs, &npc{
			id:      1000 + i,
			name:    npcNames[i%len(npcNames)],
			x:       s.rng.Intn(s.width + 1),
			y:       s.rng.Intn(s.height + 1),
			plane:   s.rng.Intn(4),
			visible: true,
		})
	}
	return s
}

// Subscribe 注册 Tick 回调，按注册顺序同步调用
func (s *Sim) Subscribe(h TickHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

// Entities 返回指定类别的实体；演示世界只有 NPC
func (s *Sim) Entities(kind EntityKind) []Entity {
	if kind != KindNPC {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entity, 0, len(s.npcs))
	for _, n := range s.npcs {
		cp := *n
		out = append(out, &cp)
	}
	return out
}

// Tick 已推进的 Tick 数
func (s *Sim) Tick() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}

// Step 推进一个 Tick：先更新世界，再把 Tick 事件分发给所有订阅者
func (s *Sim) Step() {
	s.mu.Lock()
	s.tick++
	tick := s.tick
	for _, n := range s.npcs {
		s.wander(n)
	}
	handlers := append([]TickHandler(nil), s.handlers...)
	s.mu.Unlock()

	for _, h := range handlers {
		h(tick)
	}
}

// Run 启动 Tick 循环直到 ctx 取消（单线程推进世界）
func (s *Sim) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	Log.Infof("host sim running: %d npcs, tick every %s", len(s.npcs), s.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Step()
		}
	}
}

// wander 随机走一步并进行越界裁剪；一定概率失去/恢复世界坐标
func (s *Sim) wander(n *npc) {
	n.visible = s.rng.Float64() >= s.hidden
	n.x += s.rng.Intn(3) - 1
	n.y += s.rng.Intn(3) - 1
	if n.x < 0 {
		n.x = 0
	}
	if n.y < 0 {
		n.y = 0
	}
	if n.x > s.width {
		n.x = s.width
	}
	if n.y > s.height {
		n.y = s.height
	}
}
