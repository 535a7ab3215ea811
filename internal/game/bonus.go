package game

import "github.com/sdwr/cowprofit/internal/enhance"

const (
	MaxGearLevel              = 20
	DefaultBaseAttemptSeconds = 12.0
	DefaultPartialXP          = 0.1
	DefaultTeaSeconds         = 300.0
	DefaultMarketFee          = 0.02
	DefaultMirrorItem         = "/items/mirror_of_protection"
)

// Gear and tool item hrids whose noncombat stats feed the bonuses.
const (
	ItemGuzzlingPouch   = "/items/guzzling_pouch"
	ItemEnchantedGloves = "/items/enchanted_gloves"
	ItemEnhancerTop     = "/items/enhancers_top"
	ItemEnhancerBottoms = "/items/enhancers_bottoms"
	ItemPhiloNeck       = "/items/philosophers_necklace"
)

var DefaultEnhanceBonus = []float64{
	1.000, 1.020, 1.042, 1.066, 1.092,
	1.120, 1.150, 1.182, 1.216, 1.252,
	1.290, 1.334, 1.384, 1.440, 1.502,
	1.570, 1.644, 1.724, 1.810, 1.902,
	2.000,
}

var DefaultSuccessRate = []float64{
	50, 45, 45, 40, 40, 40, 35, 35, 35, 35,
	30, 30, 30, 30, 30, 30, 30, 30, 30, 30,
}

// Calculator derives a player's enhancing multipliers from game constants,
// item stats and a profile. Gear at level 0 counts as not equipped.
type Calculator struct {
	Constants Constants
	Items     map[string]Item
	Recipes   map[string]Recipe
	Profile   Profile
}

func NewCalculator(g GameData, p Profile) Calculator {
	return Calculator{Constants: g.Constants, Items: g.Items, Recipes: g.Recipes, Profile: p}
}

func (c Calculator) stat(hrid, name string) float64 {
	it, ok := c.Items[hrid]
	if !ok {
		return 0
	}
	return it.Stats[name]
}

// gearMultiplier is the enhance-bonus table entry for a gear level, clamped to the table.
func (c Calculator) gearMultiplier(level int) float64 {
	t := c.Constants.EnhanceBonus
	if len(t) == 0 {
		t = DefaultEnhanceBonus
	}
	level = min(max(level, 0), len(t)-1)
	return t[level]
}

// Guzzling is the drink concentration multiplier applied to tea effects.
// Pouch level 0 means no pouch is worn, so a +0 pouch's concentration
// (drinkConcentration × EnhanceBonus[0]) is not applied; profiles wearing a
// +0 pouch read as unequipped.
func (c Calculator) Guzzling() float64 {
	lvl := c.Profile.Gear.GuzzlingPouch
	if lvl == 0 {
		return 1
	}
	bonus := c.stat(ItemGuzzlingPouch, "drinkConcentration") * 100 * c.gearMultiplier(lvl)
	return 1 + bonus/100
}

// EnhancerBonus is the tool's success bonus in percentage points.
func (c Calculator) EnhancerBonus() float64 {
	g := c.Profile.Gear
	if g.Enhancer == "" {
		return 0
	}
	return c.stat("/items/"+g.Enhancer, "enhancingSuccess") * 100 * c.gearMultiplier(g.EnhancerLevel)
}

// EffectiveLevel is the enhancing level plus enhancing tea levels.
func (c Calculator) EffectiveLevel() float64 {
	level := float64(c.Profile.EnhancingLevel)
	g := c.Guzzling()
	t := c.Profile.Teas
	if t.Enhancing {
		level += 3 * g
	}
	if t.SuperEnhancing {
		level += 6 * g
	}
	if t.UltraEnhancing {
		level += 8 * g
	}
	return level
}

// TotalBonus is the success multiplier applied to base rates for an item level.
// Being under-levelled scales the rate down by up to half.
func (c Calculator) TotalBonus(itemLevel int) float64 {
	tool := c.EnhancerBonus() + c.Profile.AchievementBonus
	eff := c.EffectiveLevel()
	obs := float64(c.Profile.ObservatoryLevel)
	il := float64(max(itemLevel, 1))

	if eff >= il {
		return 1 + (0.05*(eff+obs-il)+tool)/100
	}
	return (1 - 0.5*(1-eff/il)) + (0.05*obs+tool)/100
}

// BlessedChance is the chance a success skips a level; 0 without blessed tea.
func (c Calculator) BlessedChance() float64 {
	if !c.Profile.Teas.Blessed {
		return 0
	}
	return 0.01 * c.Guzzling()
}

// ArtisanMultiplier scales crafting input counts; 1 without artisan tea.
func (c Calculator) ArtisanMultiplier() float64 {
	if !c.Profile.Teas.Artisan {
		return 1
	}
	return 1 - 0.10*c.Guzzling()
}

// AttemptSeconds is the duration of one enhancement action.
func (c Calculator) AttemptSeconds(itemLevel int) float64 {
	g := c.Guzzling()
	p := c.Profile
	eff := c.EffectiveLevel()

	teaSpeed := 0.0
	switch {
	case p.Teas.Enhancing:
		teaSpeed = 2 * g
	case p.Teas.SuperEnhancing:
		teaSpeed = 4 * g
	case p.Teas.UltraEnhancing:
		teaSpeed = 6 * g
	}

	gear := 0.0
	for _, piece := range []struct {
		hrid  string
		level int
	}{
		{ItemEnchantedGloves, p.Gear.EnchantedGloves},
		{ItemEnhancerTop, p.Gear.EnhancerTop},
		{ItemEnhancerBottoms, p.Gear.EnhancerBottoms},
	} {
		if piece.level > 0 {
			gear += c.stat(piece.hrid, "enhancingSpeed") * 100 * c.gearMultiplier(piece.level)
		}
	}
	if p.Gear.PhiloNeck > 0 {
		gear += c.stat(ItemPhiloNeck, "skillingSpeed") * 100 * c.necklaceMultiplier(p.Gear.PhiloNeck)
	}
	if p.EnhancingBuff > 0 {
		gear += 19.5 + float64(p.EnhancingBuff)*0.5
	}

	obs := float64(p.ObservatoryLevel)
	speed := obs + gear + teaSpeed
	if il := float64(itemLevel); eff > il {
		speed += eff - il
	}

	base := c.Constants.BaseAttemptSeconds
	if base <= 0 {
		base = DefaultBaseAttemptSeconds
	}
	return base / (1 + speed/100)
}

// necklaceMultiplier: jewelry scales five times faster than other gear.
func (c Calculator) necklaceMultiplier(level int) float64 {
	return (c.gearMultiplier(level)-1)*5 + 1
}

// XPBonus is the additive experience bonus from tea, gear and buffs.
func (c Calculator) XPBonus() float64 {
	p := c.Profile
	bonus := 0.0
	if p.Teas.Wisdom {
		bonus += 0.12 * c.Guzzling()
	}
	if p.Gear.EnhancerBottoms > 0 {
		bonus += c.stat(ItemEnhancerBottoms, "enhancingExperience") * c.gearMultiplier(p.Gear.EnhancerBottoms)
	}
	if p.Gear.PhiloNeck > 0 {
		bonus += c.stat(ItemPhiloNeck, "skillingExperience") * c.necklaceMultiplier(p.Gear.PhiloNeck)
	}
	if p.ExperienceBuff > 0 {
		bonus += 0.195 + float64(p.ExperienceBuff)*0.005
	}
	return bonus
}

// XPFunc returns full-credit XP per action for an item, by current enhancement level.
func (c Calculator) XPFunc(itemLevel int) enhance.XPFunc {
	mult := 1 + c.XPBonus()
	return func(level int) float64 {
		return 1.4 * float64(1+level) * float64(10+itemLevel) * mult
	}
}

// Rates returns base success rates for levels below target. Levels past the
// constants table are left out; BuildModel reports them.
func (c Calculator) Rates(target int) enhance.RateTable {
	t := c.Constants.SuccessRate
	if len(t) == 0 {
		t = DefaultSuccessRate
	}
	n := min(target, len(t))
	if n < 0 {
		n = 0
	}
	return enhance.RatesFromPercent(t[:n])
}
