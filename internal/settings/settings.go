// Package settings persists the simulation and display parameters.
package settings

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Settings is the flat parameter record shared by the layout engine and the
// render layer. JSON keys are the persisted keys.
type Settings struct {
	NodeRadius        float64 `json:"nodeRadius" validate:"gt=0,lte=100"`
	LinkWidth         float64 `json:"linkWidth" validate:"gte=0,lte=50"`
	TextSize          float64 `json:"textSize" validate:"gt=0,lte=96"`
	ChargeStrength    float64 `json:"chargeStrength" validate:"gte=-10000,lte=10000"`
	LinkDistance      float64 `json:"linkDistance" validate:"gte=0,lte=5000"`
	GravityStrength   float64 `json:"gravityStrength" validate:"gte=0,lte=1"`
	CollisionStrength float64 `json:"collisionStrength" validate:"gte=0,lte=1"`
	Alpha             float64 `json:"alpha" validate:"gt=0,lte=1"`
	AlphaDecay        float64 `json:"alphaDecay" validate:"gt=0,lt=1"`
	AlphaMin          float64 `json:"alphaMin" validate:"gt=0,ltfield=Alpha"`
	VelocityDecay     float64 `json:"velocityDecay" validate:"gte=0,lte=1"`
}

// Defaults returns the compiled-in parameter set.
func Defaults() Settings {
	return Settings{
		NodeRadius:        10,
		LinkWidth:         2,
		TextSize:          12,
		ChargeStrength:    -200,
		LinkDistance:      50,
		GravityStrength:   0.05,
		CollisionStrength: 0.7,
		Alpha:             1,
		AlphaDecay:        0.0228,
		AlphaMin:          0.001,
		VelocityDecay:     0.4,
	}
}

// cosmetic keys only change how elements are drawn; everything else feeds the forces.
var cosmetic = map[string]bool{
	"nodeRadius": true,
	"linkWidth":  true,
	"textSize":   true,
}

// IsCosmetic reports whether changing key needs a redraw only, not a re-simulation.
func IsCosmetic(key string) bool {
	return cosmetic[key]
}

// Keys returns every known setting key in sorted order.
func Keys() []string {
	m := Defaults().Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsKnown reports whether key names a setting.
func IsKnown(key string) bool {
	_, ok := Defaults().Map()[key]
	return ok
}

// Map flattens s into its persisted key→number form.
func (s Settings) Map() map[string]float64 {
	data, _ := json.Marshal(s)
	m := make(map[string]float64)
	_ = json.Unmarshal(data, &m)
	return m
}

// fromMap builds Settings from a flat map; keys absent from m keep their zero value.
func fromMap(m map[string]float64) Settings {
	data, _ := json.Marshal(m)
	var s Settings
	_ = json.Unmarshal(data, &s)
	return s
}

// merge overlays the known keys of persisted onto base.
func merge(base Settings, persisted map[string]float64) Settings {
	m := base.Map()
	for k, v := range persisted {
		if _, ok := m[k]; ok {
			m[k] = v
		}
	}
	return fromMap(m)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// invalidKeys lists the json keys of s that fail validation.
func invalidKeys(v *validator.Validate, s Settings) []string {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Keys()
	}
	keys := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		keys = append(keys, fe.Field())
	}
	return keys
}
