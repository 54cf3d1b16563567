package splitter

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/meshpart/engine/core"
	"github.com/spaghettifunk/meshpart/engine/math"
)

type Kind uint8

const (
	KindLongestAxis Kind = iota
	KindMean
	KindMorton
	KindBinning
	KindFixedLeafSize
)

var kindNames = map[Kind]string{
	KindLongestAxis:   "longest_axis",
	KindMean:          "mean",
	KindMorton:        "morton",
	KindBinning:       "binning",
	KindFixedLeafSize: "fixed_leaf_size",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Kinds returns every splitter kind.
func Kinds() []Kind {
	return []Kind{KindLongestAxis, KindMean, KindMorton, KindBinning, KindFixedLeafSize}
}

// ParseKind accepts the snake_case names returned by Kind.String, with dashes
// allowed in place of underscores.
func ParseKind(name string) (Kind, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for k, n := range kindNames {
		if n == normalized {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: splitter %q", core.ErrUnknownKind, name)
}

// Options carries the construction parameters of every splitter kind.
// LeafSize is only used by KindFixedLeafSize, Binning only by the binning kinds.
type Options struct {
	LeafSize int
	Binning  BinningOptions
}

func DefaultOptions() Options {
	return Options{
		LeafSize: 4,
		Binning:  DefaultBinningOptions(),
	}
}

// New constructs a splitter of the given kind.
func New(kind Kind, vertices math.VertexList, triangles math.IndexedTriangleList, opts Options) (Splitter, error) {
	var (
		s   Splitter
		err error
	)
	switch kind {
	case KindLongestAxis:
		s, err = asSplitter(NewLongestAxis(vertices, triangles))
	case KindMean:
		s, err = asSplitter(NewMean(vertices, triangles))
	case KindMorton:
		s, err = asSplitter(NewMorton(vertices, triangles))
	case KindBinning:
		s, err = asSplitter(NewBinning(vertices, triangles, opts.Binning))
	case KindFixedLeafSize:
		s, err = asSplitter(NewFixedLeafSize(vertices, triangles, opts.LeafSize, opts.Binning))
	default:
		err = fmt.Errorf("%w: %s", core.ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// asSplitter keeps a nil concrete pointer from turning into a non-nil interface.
func asSplitter[T Splitter](s T, err error) (Splitter, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
