package kv

import (
	"fmt"

	"lintang/greenwave/pkg/datastructure"

	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"
)

func Encode(nodes []datastructure.SignalNode) ([]byte, error) {
	return binary.Marshal(nodes)
}

func Decode(bb []byte) ([]datastructure.SignalNode, error) {
	var nodes []datastructure.SignalNode
	if err := binary.Unmarshal(bb, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

func Compress(bb []byte) ([]byte, error) {
	var bbCompressed []byte
	bbCompressed, err := zstd.Compress(bbCompressed, bb)
	if err != nil {
		return []byte{}, err
	}
	return bbCompressed, nil
}

func Decompress(bbCompressed []byte) ([]byte, error) {
	var bb []byte
	bb, err := zstd.Decompress(bb, bbCompressed)
	if err != nil {
		return []byte{}, err
	}

	return bb, nil
}

// CompressSignals: binary encode lalu zstd.
func CompressSignals(nodes []datastructure.SignalNode) ([]byte, error) {
	bb, err := Encode(nodes)
	if err != nil {
		return nil, fmt.Errorf("encode signals: %w", err)
	}
	return Compress(bb)
}

func LoadSignals(bbCompressed []byte) ([]datastructure.SignalNode, error) {
	bb, err := Decompress(bbCompressed)
	if err != nil {
		return nil, fmt.Errorf("decompress signals: %w", err)
	}
	return Decode(bb)
}
