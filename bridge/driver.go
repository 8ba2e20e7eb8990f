package bridge

import (
	"fmt"
	"sync/atomic"
	"time"
)

// SnapshotPublisher Driver 需要的发布端能力；*Publisher 实现了它
type SnapshotPublisher interface {
	IsBound() bool
	Publish(payload []byte)
}

// Driver 把宿主的 Tick 信号适配为 构建 → 编码 → 发布 流水线
// 在 Tick 回调内同步执行，不在 Tick 之间保留任何状态
type Driver struct {
	world   World
	pub     SnapshotPublisher
	metrics *Metrics
	enabled atomic.Bool
}

// NewDriver 创建默认启用的 Driver；metrics 可为 nil
func NewDriver(world World, pub SnapshotPublisher, metrics *Metrics) *Driver {
	d := &Driver{world: world, pub: pub, metrics: metrics}
	d.enabled.Store(true)
	return d
}

// SetEnabled 对应插件的“启用发布”开关，可在运行期热切换
func (d *Driver) SetEnabled(on bool) {
	if d.enabled.Swap(on) != on {
		Log.Infof("snapshot publishing enabled=%v", on)
	}
}

func (d *Driver) Enabled() bool { return d.enabled.Load() }

// OnTick 每个宿主 Tick 调用一次；未绑定或已禁用时什么都不做
// 构建或编码失败只记录日志并跳过本 Tick，绝不把 panic/错误抛回宿主的事件分发
func (d *Driver) OnTick(tick int64) {
	if !d.enabled.Load() || d.pub == nil || !d.pub.IsBound() {
		d.metrics.IncSkipped()
		return
	}
	start := time.Now()
	payload, err := d.produce()
	if err != nil {
		d.metrics.IncBuildFailures()
		Log.Errorw("snapshot skipped", "tick", tick, "error", err)
		return
	}
	d.pub.Publish(payload)
	d.metrics.AddTick(time.Since(start).Nanoseconds())
}

func (d *Driver) produce() (payload []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload, err = nil, fmt.Errorf("build snapshot: %v", r)
		}
	}()
	return Encode(Build(d.world))
}
