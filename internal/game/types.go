// types.go
package game

// Only equipment and the philosopher's mirror are priced from their recipes.
const (
	CategoryEquipment      = "/item_categories/equipment"
	ItemPhilosophersMirror = "/items/philosophers_mirror"
)

// Craftable reports whether the item's price may come from its recipe.
func (it Item) Craftable() bool {
	return it.Category == CategoryEquipment || it.Hrid == ItemPhilosophersMirror
}

// RawGameData is game/default.yaml: shared constants plus the item table.
type RawGameData struct {
	Version   string                `yaml:"version"`
	Constants RawConstants          `yaml:"constants"`
	Items     map[string]RawItem    `yaml:"items"`
	Teas      map[string]RawTeaItem `yaml:"teas,omitempty"`
	Recipes   map[string]RawRecipe  `yaml:"recipes,omitempty"` // keyed by output item
	Notes     string                `yaml:"notes,omitempty"`
}

type RawConstants struct {
	EnhanceBonus       []float64 `yaml:"enhance_bonus"` // gear multiplier by enhancement level, +0..+20
	SuccessRate        []float64 `yaml:"success_rate"`  // percent, index i is an attempt made at +i
	BaseAttemptSeconds *float64  `yaml:"base_attempt_seconds,omitempty"`
	PartialXP          *float64  `yaml:"partial_xp,omitempty"`
	TeaSeconds         *float64  `yaml:"tea_seconds,omitempty"`
	MarketFee          *float64  `yaml:"market_fee,omitempty"`
	MirrorItem         string    `yaml:"mirror_item,omitempty"`
}

type RawItem struct {
	Name             string             `yaml:"name"`
	Level            int                `yaml:"level"`
	Category         string             `yaml:"category,omitempty"`
	SellPrice        float64            `yaml:"sell_price,omitempty"` // vendor price
	EnhancementCosts []CostEntry        `yaml:"enhancement_costs,omitempty"`
	ProtectionItems  []string           `yaml:"protection_items,omitempty"`
	Stats            map[string]float64 `yaml:"stats,omitempty"` // noncombat stats
}

type CostEntry struct {
	Item  string  `yaml:"item"`
	Count float64 `yaml:"count"`
}

// RawRecipe is a production action. Artisan tea scales Inputs but not Upgrade.
type RawRecipe struct {
	Inputs  []CostEntry `yaml:"inputs"`
	Upgrade string      `yaml:"upgrade,omitempty"`
}

// RawTeaItem maps a tea toggle to the market item that is bought for it.
type RawTeaItem struct {
	Item string `yaml:"item"`
}

// RawProfile is profiles/<name>.yaml. Nil fields inherit from profiles/default.yaml.
type RawProfile struct {
	Name             string   `yaml:"name,omitempty"`
	EnhancingLevel   *int     `yaml:"enhancing_level"`
	ObservatoryLevel *int     `yaml:"observatory_level"`
	AchievementBonus *float64 `yaml:"achievement_bonus,omitempty"`

	Gear  *GearConfig `yaml:"gear,omitempty"`
	Buffs *BuffConfig `yaml:"buffs,omitempty"`
	Teas  *TeaConfig  `yaml:"teas,omitempty"`
}

// GearConfig holds enhancement levels of worn gear; 0 means not equipped.
type GearConfig struct {
	EnchantedGloves *int   `yaml:"enchanted_gloves"`
	GuzzlingPouch   *int   `yaml:"guzzling_pouch"`
	EnhancerTop     *int   `yaml:"enhancer_top"`
	EnhancerBottoms *int   `yaml:"enhancer_bottoms"`
	PhiloNeck       *int   `yaml:"philo_neck"`
	Enhancer        string `yaml:"enhancer,omitempty"`
	EnhancerLevel   *int   `yaml:"enhancer_level"`
}

type BuffConfig struct {
	Enhancing  *int `yaml:"enhancing"`
	Experience *int `yaml:"experience"`
}

type TeaConfig struct {
	Enhancing      *bool `yaml:"enhancing"`
	SuperEnhancing *bool `yaml:"super_enhancing"`
	UltraEnhancing *bool `yaml:"ultra_enhancing"`
	Blessed        *bool `yaml:"blessed"`
	Wisdom         *bool `yaml:"wisdom"`
	Artisan        *bool `yaml:"artisan"`
}

// Normalized values used by the rest of the engine.

type Constants struct {
	EnhanceBonus       []float64
	SuccessRate        []float64
	BaseAttemptSeconds float64
	PartialXP          float64
	TeaSeconds         float64
	MarketFee          float64
	MirrorItem         string
}

type Item struct {
	Hrid             string
	Name             string
	Level            int
	Category         string
	SellPrice        float64
	EnhancementCosts []CostEntry
	ProtectionItems  []string
	Stats            map[string]float64
}

type Recipe struct {
	Inputs  []CostEntry
	Upgrade string
}

type GameData struct {
	Version   string
	Constants Constants
	Items     map[string]Item
	Teas      map[string]string // tea toggle name -> item hrid
	Recipes   map[string]Recipe
}

type Gear struct {
	EnchantedGloves int
	GuzzlingPouch   int
	EnhancerTop     int
	EnhancerBottoms int
	PhiloNeck       int
	Enhancer        string
	EnhancerLevel   int
}

type Teas struct {
	Enhancing      bool
	SuperEnhancing bool
	UltraEnhancing bool
	Blessed        bool
	Wisdom         bool
	Artisan        bool
}

// Active returns the tea toggle names that are on, in a fixed order.
func (t Teas) Active() []string {
	var out []string
	for _, kv := range []struct {
		name string
		on   bool
	}{
		{"enhancing", t.Enhancing},
		{"super_enhancing", t.SuperEnhancing},
		{"ultra_enhancing", t.UltraEnhancing},
		{"blessed", t.Blessed},
		{"wisdom", t.Wisdom},
		{"artisan", t.Artisan},
	} {
		if kv.on {
			out = append(out, kv.name)
		}
	}
	return out
}

type Profile struct {
	Name             string
	EnhancingLevel   int
	ObservatoryLevel int
	AchievementBonus float64
	Gear             Gear
	EnhancingBuff    int
	ExperienceBuff   int
	Teas             Teas
}
