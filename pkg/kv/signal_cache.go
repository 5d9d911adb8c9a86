package kv

import (
	"errors"
	"fmt"
	"sync"

	"lintang/greenwave/pkg/concurrent"
	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/geo"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/sirupsen/logrus"
	"github.com/uber/h3-go/v4"
)

const (
	DefaultResolution = 8
	keyPrefix         = "sig:"
	// batas jumlah cell untuk satu query bbox
	maxCellsPerQuery = 50000
	cellLockStripes  = 64
)

var ErrBoxTooLarge = errors.New("bounding box covers too many cells")

// SignalCache stores raw traffic signals in pebble, keyed by the h3 cell that contains them.
// It is a cache of externally sourced data only.
type SignalCache struct {
	db         *pebble.DB
	resolution int
	numWorkers int
	log        *logrus.Entry

	// get-merge-set satu cell harus atomic antar PutSignals yang jalan bersamaan
	cellLocks [cellLockStripes]sync.Mutex
}

func NewSignalCache(db *pebble.DB, resolution int, logger *logrus.Entry) *SignalCache {
	if resolution < 0 || resolution > 15 {
		resolution = DefaultResolution
	}
	if logger == nil {
		logger = logrus.WithField("module", "kv")
	}
	return &SignalCache{db: db, resolution: resolution, numWorkers: 4, log: logger}
}

// OpenSignalCache opens pebble at dir, or an in-memory store when dir is empty.
func OpenSignalCache(dir string, resolution int, logger *logrus.Entry) (*SignalCache, error) {
	opts := &pebble.Options{}
	if dir == "" {
		opts.FS = vfs.NewMem()
		dir = "signal-cache"
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble %q: %w", dir, err)
	}
	return NewSignalCache(db, resolution, logger), nil
}

func (k *SignalCache) cellKey(c h3.Cell) []byte {
	return []byte(keyPrefix + c.String())
}

func (k *SignalCache) cellOf(c datastructure.Coordinate) h3.Cell {
	return h3.LatLngToCell(h3.NewLatLng(c.Lat, c.Lon), k.resolution)
}

/*
PutSignals. group node per h3 cell, lalu tiap cell disimpan oleh worker pool.
isi cell lama di-merge (by id, node baru menang) supaya fetch dari bbox berbeda tidak saling hapus.
*/
func (k *SignalCache) PutSignals(nodes []datastructure.SignalNode) error {
	if len(nodes) == 0 {
		return nil
	}
	kv := make(map[string][]datastructure.SignalNode)
	for _, n := range nodes {
		key := string(k.cellKey(k.cellOf(n.Position)))
		kv[key] = append(kv[key], n)
	}

	workers := concurrent.NewWorkerPool[concurrent.SaveCellJobItem, error](k.numWorkers, len(kv))
	for keyStr, valArr := range kv {
		workers.AddJob(concurrent.SaveCellJobItem{KeyStr: keyStr, ValArr: valArr})
	}
	workers.Close()

	workers.Start(k.saveCell)
	workers.Wait()

	var errs []error
	for err := range workers.CollectResults() {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	k.log.WithFields(logrus.Fields{"signals": len(nodes), "cells": len(kv)}).Debug("signals cached")
	return nil
}

func (k *SignalCache) saveCell(item concurrent.SaveCellJobItem) error {
	key := []byte(item.KeyStr)
	mu := &k.cellLocks[xxhash.Sum64String(item.KeyStr)%cellLockStripes]
	mu.Lock()
	defer mu.Unlock()

	existing, err := k.getCell(key)
	if err != nil {
		return err
	}
	merged := mergeByID(existing, item.ValArr)

	val, err := CompressSignals(merged)
	if err != nil {
		return fmt.Errorf("cell %s: %w", item.KeyStr, err)
	}
	if err := k.db.Set(key, val, pebble.Sync); err != nil {
		return fmt.Errorf("cell %s: %w", item.KeyStr, err)
	}
	return nil
}

func mergeByID(old, fresh []datastructure.SignalNode) []datastructure.SignalNode {
	idx := make(map[string]int, len(old)+len(fresh))
	out := make([]datastructure.SignalNode, 0, len(old)+len(fresh))
	for _, list := range [][]datastructure.SignalNode{old, fresh} {
		for _, n := range list {
			if i, ok := idx[n.ID]; ok {
				out[i] = n
				continue
			}
			idx[n.ID] = len(out)
			out = append(out, n)
		}
	}
	return out
}

func (k *SignalCache) getCell(key []byte) ([]datastructure.SignalNode, error) {
	val, closer, err := k.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	// val hanya valid sampai closer.Close()
	buf := append([]byte(nil), val...)
	closer.Close()

	nodes, err := LoadSignals(buf)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return nodes, nil
}

// SignalsInBox returns every cached signal inside bbox, in cell order.
func (k *SignalCache) SignalsInBox(bbox geo.BBox) ([]datastructure.SignalNode, error) {
	if bbox.IsEmpty() {
		return []datastructure.SignalNode{}, nil
	}
	cells, err := k.coverCells(bbox)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	nodes := make([]datastructure.SignalNode, 0)
	for _, c := range cells {
		cellNodes, err := k.getCell(k.cellKey(c))
		if err != nil {
			return nil, err
		}
		for _, n := range cellNodes {
			if !bbox.Contains(n.Position) {
				continue
			}
			if _, ok := seen[n.ID]; ok {
				continue
			}
			seen[n.ID] = struct{}{}
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// coverCells: polygon fill hanya ambil cell yang centroid-nya di dalam bbox, jadi ditambah ring 1
// supaya node di pinggir bbox tetap ketemu.
func (k *SignalCache) coverCells(bbox geo.BBox) ([]h3.Cell, error) {
	polygon := h3.GeoPolygon{
		GeoLoop: h3.GeoLoop{
			h3.NewLatLng(bbox.South, bbox.West),
			h3.NewLatLng(bbox.South, bbox.East),
			h3.NewLatLng(bbox.North, bbox.East),
			h3.NewLatLng(bbox.North, bbox.West),
		},
	}
	filled := h3.PolygonToCells(polygon, k.resolution)
	if len(filled) == 0 {
		filled = []h3.Cell{k.cellOf(bbox.Center())}
	}
	if len(filled) > maxCellsPerQuery {
		return nil, fmt.Errorf("%w: %d cells", ErrBoxTooLarge, len(filled))
	}

	set := make(map[h3.Cell]struct{}, len(filled)*2)
	cells := make([]h3.Cell, 0, len(filled)*2)
	for _, c := range filled {
		for _, n := range h3.GridDisk(c, 1) {
			if _, ok := set[n]; ok {
				continue
			}
			set[n] = struct{}{}
			cells = append(cells, n)
		}
	}
	return cells, nil
}

func (k *SignalCache) Close() error {
	return k.db.Close()
}
