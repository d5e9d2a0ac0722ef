// Package progression derives level and rank from accumulated experience.
package progression

import "github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"

// XPPerLevel is the amount of XP needed to advance one level.
const XPPerLevel = 700

// rankThresholds maps the minimum level of each rank, highest first.
var rankThresholds = []struct {
	minLevel int
	rank     models.Rank
}{
	{90, models.RankSS},
	{70, models.RankS},
	{50, models.RankA},
	{35, models.RankB},
	{20, models.RankC},
	{10, models.RankD},
	{1, models.RankE},
}

// LevelForXP returns floor(xp/700)+1. Negative XP is treated as zero.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// RankForLevel returns the rank a user holds at the given level.
func RankForLevel(level int) models.Rank {
	for _, t := range rankThresholds {
		if level >= t.minLevel {
			return t.rank
		}
	}
	return models.RankE
}

// MinLevelForRank returns the lowest level at which rank is held.
func MinLevelForRank(rank models.Rank) (int, bool) {
	for _, t := range rankThresholds {
		if t.rank == rank {
			return t.minLevel, true
		}
	}
	return 0, false
}

// Apply recomputes Level and Rank from XP. It is the only place those fields
// are written.
func Apply(p *models.UserProgress) {
	p.Level = LevelForXP(p.XP)
	p.Rank = RankForLevel(p.Level)
}

// Consistent reports whether Level and Rank match XP.
func Consistent(p models.UserProgress) bool {
	level := LevelForXP(p.XP)
	return p.Level == level && p.Rank == RankForLevel(level)
}

// XPToNextLevel returns how much XP is missing to reach the next level.
func XPToNextLevel(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return LevelForXP(xp)*XPPerLevel - xp
}
