package concurrent

import "lintang/greenwave/pkg/datastructure"

// SaveCellJobItem satu h3 cell beserta traffic signal di dalamnya.
type SaveCellJobItem struct {
	KeyStr string
	ValArr []datastructure.SignalNode
}

type NotifyJobItem struct {
	Event datastructure.ProximityEvent
}

type JobI interface {
	SaveCellJobItem | NotifyJobItem
}

type JobFunc[T JobI, G any] func(job T) G
