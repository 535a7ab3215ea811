package game

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned for a named profile or item that does not exist.
var ErrNotFound = errors.New("not found")

const DefaultProfile = "default"

// Paths helper for game data and profile files.
type Paths struct {
	BaseDir string // base directory, e.g., /opt/cowprofit/data
}

func (p Paths) GamePath() string {
	return filepath.Join(p.BaseDir, "game", "default.yaml")
}
func (p Paths) DefaultProfilePath() string {
	return filepath.Join(p.BaseDir, "profiles", DefaultProfile+".yaml")
}
func (p Paths) ProfilePath(name string) string {
	return filepath.Join(p.BaseDir, "profiles", name+".yaml")
}

// Loader reads YAML files, validates and normalizes them, and caches the result.
// Profiles merge default <- named.
type Loader struct {
	paths Paths

	mu       sync.RWMutex
	game     *GameData
	profiles map[string]Profile
}

// NewLoader creates a loader rooted at baseDir.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths:    Paths{BaseDir: baseDir},
		profiles: make(map[string]Profile),
	}
}

// Paths returns the files the loader reads, for hot-reload watching.
func (l *Loader) Paths() Paths { return l.paths }

// LoadGame returns the game data, reading game/default.yaml on first use.
func (l *Loader) LoadGame() (GameData, error) {
	l.mu.RLock()
	if l.game != nil {
		g := *l.game
		l.mu.RUnlock()
		return g, nil
	}
	l.mu.RUnlock()

	var raw RawGameData
	found, err := readYAML(l.paths.GamePath(), &raw)
	if err != nil {
		return GameData{}, fmt.Errorf("read game data: %w", err)
	}
	if !found {
		return GameData{}, fmt.Errorf("read game data: %w: %s", ErrNotFound, l.paths.GamePath())
	}
	if err := ValidateGame(raw); err != nil {
		return GameData{}, err
	}
	g := normalizeGame(raw)

	l.mu.Lock()
	l.game = &g
	l.mu.Unlock()
	return g, nil
}

// LoadProfile merges profiles/default.yaml with profiles/<name>.yaml. An empty
// name or "default" returns the default profile alone.
func (l *Loader) LoadProfile(name string) (Profile, error) {
	if name == "" {
		name = DefaultProfile
	}
	l.mu.RLock()
	if p, ok := l.profiles[name]; ok {
		l.mu.RUnlock()
		return p, nil
	}
	l.mu.RUnlock()

	var def RawProfile
	if _, err := readYAML(l.paths.DefaultProfilePath(), &def); err != nil {
		return Profile{}, fmt.Errorf("read default profile: %w", err)
	}
	merged := def
	if name != DefaultProfile {
		if err := validName(name); err != nil {
			return Profile{}, err
		}
		var named RawProfile
		found, err := readYAML(l.paths.ProfilePath(name), &named)
		if err != nil {
			return Profile{}, fmt.Errorf("read profile %q: %w", name, err)
		}
		if !found {
			return Profile{}, fmt.Errorf("profile %q: %w", name, ErrNotFound)
		}
		merged = mergeProfile(def, named)
	}
	if err := ValidateProfile(merged); err != nil {
		return Profile{}, fmt.Errorf("profile %q: %w", name, err)
	}
	p := normalizeProfile(name, merged)

	l.mu.Lock()
	l.profiles[name] = p
	l.mu.Unlock()
	return p, nil
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.game = nil
	l.profiles = make(map[string]Profile)
}

func validName(name string) error {
	if filepath.Base(name) != name || name == "." || name == ".." {
		return fmt.Errorf("profile %q: %w", name, ErrNotFound)
	}
	return nil
}

// readYAML decodes path into out. Missing files report found=false, no error.
func readYAML(path string, out any) (bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return true, err
	}
	return true, nil
}

// mergeProfile overlays b onto a: any non-nil field in b wins.
func mergeProfile(a, b RawProfile) RawProfile {
	out := a
	if b.Name != "" {
		out.Name = b.Name
	}
	out.EnhancingLevel = pick(a.EnhancingLevel, b.EnhancingLevel)
	out.ObservatoryLevel = pick(a.ObservatoryLevel, b.ObservatoryLevel)
	out.AchievementBonus = pick(a.AchievementBonus, b.AchievementBonus)

	switch {
	case a.Gear == nil && b.Gear != nil:
		c := *b.Gear
		out.Gear = &c
	case a.Gear != nil && b.Gear != nil:
		c := *a.Gear
		c.EnchantedGloves = pick(a.Gear.EnchantedGloves, b.Gear.EnchantedGloves)
		c.GuzzlingPouch = pick(a.Gear.GuzzlingPouch, b.Gear.GuzzlingPouch)
		c.EnhancerTop = pick(a.Gear.EnhancerTop, b.Gear.EnhancerTop)
		c.EnhancerBottoms = pick(a.Gear.EnhancerBottoms, b.Gear.EnhancerBottoms)
		c.PhiloNeck = pick(a.Gear.PhiloNeck, b.Gear.PhiloNeck)
		c.EnhancerLevel = pick(a.Gear.EnhancerLevel, b.Gear.EnhancerLevel)
		if b.Gear.Enhancer != "" {
			c.Enhancer = b.Gear.Enhancer
		}
		out.Gear = &c
	}

	switch {
	case a.Buffs == nil && b.Buffs != nil:
		c := *b.Buffs
		out.Buffs = &c
	case a.Buffs != nil && b.Buffs != nil:
		out.Buffs = &BuffConfig{
			Enhancing:  pick(a.Buffs.Enhancing, b.Buffs.Enhancing),
			Experience: pick(a.Buffs.Experience, b.Buffs.Experience),
		}
	}

	switch {
	case a.Teas == nil && b.Teas != nil:
		c := *b.Teas
		out.Teas = &c
	case a.Teas != nil && b.Teas != nil:
		out.Teas = &TeaConfig{
			Enhancing:      pick(a.Teas.Enhancing, b.Teas.Enhancing),
			SuperEnhancing: pick(a.Teas.SuperEnhancing, b.Teas.SuperEnhancing),
			UltraEnhancing: pick(a.Teas.UltraEnhancing, b.Teas.UltraEnhancing),
			Blessed:        pick(a.Teas.Blessed, b.Teas.Blessed),
			Wisdom:         pick(a.Teas.Wisdom, b.Teas.Wisdom),
			Artisan:        pick(a.Teas.Artisan, b.Teas.Artisan),
		}
	}
	return out
}

func pick[T any](a, b *T) *T {
	if b != nil {
		return b
	}
	return a
}

func val[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

func normalizeGame(raw RawGameData) GameData {
	c := raw.Constants
	consts := Constants{
		EnhanceBonus:       append([]float64(nil), c.EnhanceBonus...),
		SuccessRate:        append([]float64(nil), c.SuccessRate...),
		BaseAttemptSeconds: val(c.BaseAttemptSeconds, DefaultBaseAttemptSeconds),
		PartialXP:          val(c.PartialXP, DefaultPartialXP),
		TeaSeconds:         val(c.TeaSeconds, DefaultTeaSeconds),
		MarketFee:          val(c.MarketFee, DefaultMarketFee),
		MirrorItem:         c.MirrorItem,
	}
	if len(consts.EnhanceBonus) == 0 {
		consts.EnhanceBonus = append([]float64(nil), DefaultEnhanceBonus...)
	}
	if len(consts.SuccessRate) == 0 {
		consts.SuccessRate = append([]float64(nil), DefaultSuccessRate...)
	}
	if consts.MirrorItem == "" {
		consts.MirrorItem = DefaultMirrorItem
	}

	items := make(map[string]Item, len(raw.Items))
	for hrid, it := range raw.Items {
		items[hrid] = Item{
			Hrid:             hrid,
			Name:             it.Name,
			Level:            max(it.Level, 1),
			Category:         it.Category,
			SellPrice:        it.SellPrice,
			EnhancementCosts: append([]CostEntry(nil), it.EnhancementCosts...),
			ProtectionItems:  append([]string(nil), it.ProtectionItems...),
			Stats:            it.Stats,
		}
	}
	teas := make(map[string]string, len(raw.Teas))
	for name, t := range raw.Teas {
		teas[name] = t.Item
	}
	recipes := make(map[string]Recipe, len(raw.Recipes))
	for hrid, r := range raw.Recipes {
		recipes[hrid] = Recipe{
			Inputs:  append([]CostEntry(nil), r.Inputs...),
			Upgrade: r.Upgrade,
		}
	}
	return GameData{Version: raw.Version, Constants: consts, Items: items, Teas: teas, Recipes: recipes}
}

func normalizeProfile(name string, raw RawProfile) Profile {
	p := Profile{
		Name:             name,
		EnhancingLevel:   val(raw.EnhancingLevel, 1),
		ObservatoryLevel: val(raw.ObservatoryLevel, 0),
		AchievementBonus: val(raw.AchievementBonus, 0),
	}
	if raw.Gear != nil {
		p.Gear = Gear{
			EnchantedGloves: val(raw.Gear.EnchantedGloves, 0),
			GuzzlingPouch:   val(raw.Gear.GuzzlingPouch, 0),
			EnhancerTop:     val(raw.Gear.EnhancerTop, 0),
			EnhancerBottoms: val(raw.Gear.EnhancerBottoms, 0),
			PhiloNeck:       val(raw.Gear.PhiloNeck, 0),
			Enhancer:        raw.Gear.Enhancer,
			EnhancerLevel:   val(raw.Gear.EnhancerLevel, 0),
		}
	}
	if raw.Buffs != nil {
		p.EnhancingBuff = val(raw.Buffs.Enhancing, 0)
		p.ExperienceBuff = val(raw.Buffs.Experience, 0)
	}
	if raw.Teas != nil {
		p.Teas = Teas{
			Enhancing:      val(raw.Teas.Enhancing, false),
			SuperEnhancing: val(raw.Teas.SuperEnhancing, false),
			UltraEnhancing: val(raw.Teas.UltraEnhancing, false),
			Blessed:        val(raw.Teas.Blessed, false),
			Wisdom:         val(raw.Teas.Wisdom, false),
			Artisan:        val(raw.Teas.Artisan, false),
		}
	}
	return p
}
