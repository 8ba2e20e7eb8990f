package bridge

import (
	"encoding/json"
	"fmt"
)

// EntityKind 实体类别标签（目前只发布 NPC）
type EntityKind string

const (
	KindNPC EntityKind = "NPC"
)

// BBox 屏幕坐标包围盒 [x_min, y_min, x_max, y_max]
// 固定 4 元素；没有投影数据时全部为 0，字段永远不省略
type BBox [4]int

// UnmarshalJSON 拒绝元素个数不是 4 的数组，不做截断或补 0
func (b *BBox) UnmarshalJSON(data []byte) error {
	var vals []int
	if err := json.Unmarshal(data, &vals); err != nil {
		return err
	}
	if len(vals) != len(b) {
		return fmt.Errorf("bbox: want %d elements, got %d", len(b), len(vals))
	}
	copy(b[:], vals)
	return nil
}

// EntityRecord 单个实体在某个 Tick 的观测记录（线上格式）
type EntityRecord struct {
	ID    int        `json:"id" jsonschema:"description=Host assigned entity id (not stable across sessions)"`
	Name  string     `json:"name" jsonschema:"description=Host label; empty when the host has none"`
	Kind  EntityKind `json:"kind" jsonschema:"enum=NPC"`
	BBox  BBox       `json:"bbox" jsonschema:"description=Screen space [x_min y_min x_max y_max]; zeros when not projected"`
	Plane int        `json:"plane" jsonschema:"description=Vertical level in host world coordinates"`
}

// Snapshot 一个 Tick 的完整观测集合，每个 Tick 重新构建，发送后丢弃
type Snapshot []EntityRecord
