package chatgen

import (
	"fmt"

	"github.com/you/fakechat/internal/core"
	"github.com/you/fakechat/internal/rng"
)

// Each active chatter stands in for two silent viewers as well, so the
// displayed count is three per chatter with a small random wobble.
const viewersPerChatter = 3

// ViewerCount derives the displayed viewer count from the number of
// active chatters. Never below 1.
func ViewerCount(src *rng.Source, chatters int) int {
	n := chatters*viewersPerChatter + src.IntN(7) - 3
	if n < 1 {
		n = 1
	}
	return n
}

// JitterViewers nudges an existing count by up to ±3. Never below 1.
func JitterViewers(src *rng.Source, current int) int {
	n := current + src.IntN(7) - 3
	if n < 1 {
		n = 1
	}
	return n
}

// maxLivePool caps how many distinct usernames live mode rotates through.
const maxLivePool = 100

// LivePool selects the active username subset for live mode: a shuffled
// slice of at most min(chatters, 100, available) names.
func LivePool(src *rng.Source, usernames []string, chatters int) []string {
	if len(usernames) == 0 {
		return nil
	}
	n := chatters
	if n > maxLivePool {
		n = maxLivePool
	}
	if n > len(usernames) {
		n = len(usernames)
	}
	shuffled := append([]string(nil), usernames...)
	rng.Shuffle(src, shuffled)
	return shuffled[:n]
}

// ExportPool selects the active username subset for an export. With no
// configured usernames the built-in pool stands in; a single synthetic
// viewer covers the degenerate empty case so the clip is never silent.
func ExportPool(src *rng.Source, usernames []string, chatters int) []string {
	if len(usernames) == 0 {
		usernames = core.DefaultUsernames
	}
	if len(usernames) == 0 {
		return []string{"Viewer1"}
	}
	n := chatters
	if n > len(usernames) {
		n = len(usernames)
	}
	if n < 1 {
		n = 1
	}
	shuffled := append([]string(nil), usernames...)
	rng.Shuffle(src, shuffled)
	return shuffled[:n]
}

// RandomUsername picks from the pool, falling back to a synthetic name
// when the pool is empty.
func RandomUsername(src *rng.Source, pool []string) string {
	if len(pool) == 0 {
		return fmt.Sprintf("User%d", src.IntN(10000))
	}
	return rng.Pick(src, pool)
}
