package bridge

// Build 在 Tick 线程中查询一次宿主实体列表，映射为本 Tick 的 Snapshot
// 没有世界坐标的实体直接跳过（不是错误）；包围盒尚未实现投影，固定为全 0
// 空世界返回空但非 nil 的 Snapshot，照常编码和发布
func Build(w World) Snapshot {
	snap := make(Snapshot, 0)
	if w == nil {
		return snap
	}
	for _, e := range w.Entities(KindNPC) {
		if e == nil {
			continue
		}
		wp := e.WorldLocation()
		if wp == nil {
			continue
		}
		snap = append(snap, EntityRecord{
			ID:    e.ID(),
			Name:  e.Name(),
			Kind:  KindNPC,
			BBox:  BBox{},
			Plane: wp.Plane,
		})
	}
	return snap
}
