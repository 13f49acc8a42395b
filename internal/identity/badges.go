package identity

import (
	"github.com/you/fakechat/internal/core"
	"github.com/you/fakechat/internal/rng"
)

const maxBadges = 3

// LiveAssigner rolls badges the way live mode does: 40% of users carry
// none at all; otherwise the pool is shuffled and each badge is granted
// by its own weight, capped at three. A user who wins nothing still gets
// one common badge (weight >= 0.1) with probability 0.3.
func LiveAssigner(pool []core.Badge) BadgeAssigner {
	return func(src *rng.Source) []core.Badge {
		if len(pool) == 0 {
			return nil
		}
		if src.Float64() > 0.6 {
			return nil
		}

		shuffled := append([]core.Badge(nil), pool...)
		rng.Shuffle(src, shuffled)

		var out []core.Badge
		for _, b := range shuffled {
			if len(out) >= maxBadges {
				break
			}
			if src.Chance(b.Weight) {
				out = append(out, b)
			}
		}

		if len(out) == 0 && src.Chance(0.3) {
			var common []core.Badge
			for _, b := range pool {
				if b.Weight >= 0.1 {
					common = append(common, b)
				}
			}
			if len(common) > 0 {
				out = append(out, rng.Pick(src, common))
			}
		}
		return out
	}
}

// ExportAssigner rolls badges for export mode: same 40% badge-less roll,
// then official badges in fixed order followed by custom badges, each
// granted by its weight, capped at three. No common-badge fallback, and
// the broadcaster odds are rarer than in live mode so long clips are not
// full of broadcasters.
func ExportAssigner(official, customs []core.Badge) BadgeAssigner {
	adjusted := make([]core.Badge, len(official))
	for i, b := range official {
		if w, ok := core.ExportBadgeWeights[b.Kind]; ok {
			b.Weight = w
		}
		adjusted[i] = b
	}
	return func(src *rng.Source) []core.Badge {
		if len(adjusted) == 0 && len(customs) == 0 {
			return nil
		}
		if src.Float64() > 0.6 {
			return nil
		}
		var out []core.Badge
		for _, b := range adjusted {
			if len(out) >= maxBadges {
				return out
			}
			if src.Chance(b.Weight) {
				out = append(out, b)
			}
		}
		for _, b := range customs {
			if len(out) >= maxBadges {
				return out
			}
			if src.Chance(b.Weight) {
				out = append(out, b)
			}
		}
		return out
	}
}
