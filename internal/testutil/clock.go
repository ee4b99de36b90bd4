package testutil

import (
	"strconv"
	"sync/atomic"
	"time"

	"photocrawl/internal/crawl"
)

// FixedClock is a crawl.Clock stopped at one instant.
type FixedClock time.Time

var _ crawl.Clock = FixedClock{}

func (c FixedClock) Now() time.Time { return time.Time(c) }

// SequentialIDs hands out prefix-1, prefix-2, and so on.
type SequentialIDs struct {
	prefix string
	n      atomic.Int64
}

var _ crawl.IDGenerator = (*SequentialIDs)(nil)

func NewSequentialIDs(prefix string) *SequentialIDs {
	return &SequentialIDs{prefix: prefix}
}

func (s *SequentialIDs) New() string {
	return s.prefix + "-" + strconv.FormatInt(s.n.Add(1), 10)
}
