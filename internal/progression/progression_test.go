package progression

import (
	"testing"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{-50, 1},
		{0, 1},
		{699, 1},
		{700, 2},
		{750, 2},
		{1399, 2},
		{1400, 3},
		{70_000, 101},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForXP(tt.xp), "xp=%d", tt.xp)
	}
}

func TestRankForLevel_Boundaries(t *testing.T) {
	tests := []struct {
		level int
		want  models.Rank
	}{
		{0, models.RankE},
		{1, models.RankE},
		{9, models.RankE},
		{10, models.RankD},
		{19, models.RankD},
		{20, models.RankC},
		{34, models.RankC},
		{35, models.RankB},
		{49, models.RankB},
		{50, models.RankA},
		{69, models.RankA},
		{70, models.RankS},
		{89, models.RankS},
		{90, models.RankSS},
		{500, models.RankSS},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RankForLevel(tt.level), "level=%d", tt.level)
	}
}

func TestApply_DerivesFromXP(t *testing.T) {
	for xp := 0; xp <= 100*XPPerLevel; xp += 137 {
		p := models.UserProgress{XP: xp, Level: 42, Rank: models.RankSS}
		Apply(&p)

		assert.Equal(t, xp/700+1, p.Level)
		assert.Equal(t, RankForLevel(p.Level), p.Rank)
		assert.True(t, Consistent(p))
	}
}

func TestApply_TaskRewardCrossesLevel(t *testing.T) {
	p := models.UserProgress{XP: 650}
	Apply(&p)
	assert.Equal(t, 1, p.Level)

	p.XP += 100
	Apply(&p)

	assert.Equal(t, 750, p.XP)
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, models.RankE, p.Rank)
}

func TestMinLevelForRank(t *testing.T) {
	lvl, ok := MinLevelForRank(models.RankB)
	assert.True(t, ok)
	assert.Equal(t, 35, lvl)
	assert.Equal(t, models.RankB, RankForLevel(lvl))

	_, ok = MinLevelForRank(models.Rank("Z"))
	assert.False(t, ok)
}

func TestXPToNextLevel(t *testing.T) {
	assert.Equal(t, 700, XPToNextLevel(0))
	assert.Equal(t, 50, XPToNextLevel(650))
	assert.Equal(t, 700, XPToNextLevel(700))
}
