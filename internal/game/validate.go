package game

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrValidation = errors.New("validation failed")

// ValidateGame checks semantic constraints of game data and reports every
// violation at once.
func ValidateGame(raw RawGameData) error {
	var errs []string
	c := raw.Constants

	for i, b := range c.EnhanceBonus {
		if b <= 0 {
			errs = append(errs, fmt.Sprintf("constants.enhance_bonus[%d] must be > 0", i))
		}
	}
	for i, r := range c.SuccessRate {
		if r < 0 || r > 100 {
			errs = append(errs, fmt.Sprintf("constants.success_rate[%d] must be in [0,100]", i))
		}
	}
	if c.BaseAttemptSeconds != nil && *c.BaseAttemptSeconds <= 0 {
		errs = append(errs, "constants.base_attempt_seconds must be > 0")
	}
	if c.PartialXP != nil && (*c.PartialXP < 0 || *c.PartialXP > 1) {
		errs = append(errs, "constants.partial_xp must be in [0,1]")
	}
	if c.TeaSeconds != nil && *c.TeaSeconds <= 0 {
		errs = append(errs, "constants.tea_seconds must be > 0")
	}
	if c.MarketFee != nil && (*c.MarketFee < 0 || *c.MarketFee >= 1) {
		errs = append(errs, "constants.market_fee must be in [0,1)")
	}

	// sorted so the message is stable
	hrids := make([]string, 0, len(raw.Items))
	for hrid := range raw.Items {
		hrids = append(hrids, hrid)
	}
	sort.Strings(hrids)
	for _, hrid := range hrids {
		it := raw.Items[hrid]
		if it.Level < 0 {
			errs = append(errs, fmt.Sprintf("items[%s].level must be >= 0", hrid))
		}
		if it.SellPrice < 0 {
			errs = append(errs, fmt.Sprintf("items[%s].sell_price must be >= 0", hrid))
		}
		for i, ce := range it.EnhancementCosts {
			if ce.Item == "" {
				errs = append(errs, fmt.Sprintf("items[%s].enhancement_costs[%d].item is required", hrid, i))
			}
			if ce.Count < 0 {
				errs = append(errs, fmt.Sprintf("items[%s].enhancement_costs[%d].count must be >= 0", hrid, i))
			}
		}
	}

	outputs := make([]string, 0, len(raw.Recipes))
	for hrid := range raw.Recipes {
		outputs = append(outputs, hrid)
	}
	sort.Strings(outputs)
	for _, hrid := range outputs {
		r := raw.Recipes[hrid]
		if len(r.Inputs) == 0 && r.Upgrade == "" {
			errs = append(errs, fmt.Sprintf("recipes[%s] needs inputs or an upgrade", hrid))
		}
		for i, in := range r.Inputs {
			if in.Item == "" {
				errs = append(errs, fmt.Sprintf("recipes[%s].inputs[%d].item is required", hrid, i))
			}
			if in.Count <= 0 {
				errs = append(errs, fmt.Sprintf("recipes[%s].inputs[%d].count must be > 0", hrid, i))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: game data: %s", ErrValidation, strings.Join(errs, "; "))
	}
	return nil
}

// ValidateProfile checks a merged profile.
func ValidateProfile(raw RawProfile) error {
	var errs []string

	if raw.EnhancingLevel != nil && *raw.EnhancingLevel < 1 {
		errs = append(errs, "enhancing_level must be >= 1")
	}
	if raw.ObservatoryLevel != nil && *raw.ObservatoryLevel < 0 {
		errs = append(errs, "observatory_level must be >= 0")
	}
	if raw.AchievementBonus != nil && *raw.AchievementBonus < 0 {
		errs = append(errs, "achievement_bonus must be >= 0")
	}
	if g := raw.Gear; g != nil {
		for _, f := range []struct {
			name string
			v    *int
		}{
			{"gear.enchanted_gloves", g.EnchantedGloves},
			{"gear.guzzling_pouch", g.GuzzlingPouch},
			{"gear.enhancer_top", g.EnhancerTop},
			{"gear.enhancer_bottoms", g.EnhancerBottoms},
			{"gear.philo_neck", g.PhiloNeck},
			{"gear.enhancer_level", g.EnhancerLevel},
		} {
			if f.v != nil && (*f.v < 0 || *f.v > MaxGearLevel) {
				errs = append(errs, fmt.Sprintf("%s must be in [0,%d]", f.name, MaxGearLevel))
			}
		}
	}
	if b := raw.Buffs; b != nil {
		if b.Enhancing != nil && *b.Enhancing < 0 {
			errs = append(errs, "buffs.enhancing must be >= 0")
		}
		if b.Experience != nil && *b.Experience < 0 {
			errs = append(errs, "buffs.experience must be >= 0")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(errs, "; "))
	}
	return nil
}
