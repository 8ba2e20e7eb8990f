package bridge

// WorldPoint 宿主世界坐标（Plane 为垂直层级）
type WorldPoint struct {
	X     int
	Y     int
	Plane int
}

// Entity 宿主暴露的只读实体视图
// WorldLocation 返回 nil 表示本 Tick 无法定位（例如尚未加载或已离开视野）
type Entity interface {
	ID() int
	Name() string
	WorldLocation() *WorldPoint
}

// World 宿主世界的实体查询能力，只在 Tick 回调内调用
type World interface {
	Entities(kind EntityKind) []Entity
}
