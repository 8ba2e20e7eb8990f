package bridge

import (
	"sync/atomic"
)

// Metrics 记录桥接运行期的关键指标（用于监控与调试）
type Metrics struct {
	TickCount        int64 // 完成发布流程的 Tick 次数
	Skipped          int64 // 未绑定或已禁用而跳过的 Tick
	BuildFailures    int64 // 构建/编码失败而跳过发布的 Tick
	Published        int64 // Publish 调用次数（已绑定状态）
	NoSubscriber     int64 // 无订阅者被传输层丢弃的消息
	QueueFullDropped int64 // 订阅者发送队列满被丢弃的消息
	SubscribersIn    int64 // 累计接入的订阅者
	SubscribersOut   int64 // 累计断开的订阅者
	TotalTickNs      int64 // 发布流程累计耗时（纳秒）
}

func NewMetrics() *Metrics { return &Metrics{} }

// 所有方法允许 nil 接收者，便于不关心指标的调用方直接传 nil
func (m *Metrics) IncSkipped() {
	if m != nil {
		atomic.AddInt64(&m.Skipped, 1)
	}
}
func (m *Metrics) IncBuildFailures() {
	if m != nil {
		atomic.AddInt64(&m.BuildFailures, 1)
	}
}
func (m *Metrics) IncPublished() {
	if m != nil {
		atomic.AddInt64(&m.Published, 1)
	}
}
func (m *Metrics) IncNoSubscriber() {
	if m != nil {
		atomic.AddInt64(&m.NoSubscriber, 1)
	}
}
func (m *Metrics) IncQueueFullDropped() {
	if m != nil {
		atomic.AddInt64(&m.QueueFullDropped, 1)
	}
}
func (m *Metrics) IncSubscribersIn() {
	if m != nil {
		atomic.AddInt64(&m.SubscribersIn, 1)
	}
}
func (m *Metrics) IncSubscribersOut() {
	if m != nil {
		atomic.AddInt64(&m.SubscribersOut, 1)
	}
}
func (m *Metrics) AddTick(ns int64) {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	if m == nil {
		return map[string]any{}
	}
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":         tick,
		"skipped":            atomic.LoadInt64(&m.Skipped),
		"build_failures":     atomic.LoadInt64(&m.BuildFailures),
		"published":          atomic.LoadInt64(&m.Published),
		"no_subscriber":      atomic.LoadInt64(&m.NoSubscriber),
		"queue_full_dropped": atomic.LoadInt64(&m.QueueFullDropped),
		"subscribers_in":     atomic.LoadInt64(&m.SubscribersIn),
		"subscribers_out":    atomic.LoadInt64(&m.SubscribersOut),
		"avg_tick_ms":        avgMs,
	}
}
