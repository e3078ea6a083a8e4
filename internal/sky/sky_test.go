package sky

import (
	"math"
	"testing"
	"time"
)

func TestModeForHour_Exhaustive(t *testing.T) {
	want := map[int]Mode{
		0: ModeNight, 4: ModeNight, 5: ModeDawn, 6: ModeDawn, 7: ModeMorning,
		10: ModeMorning, 11: ModeNoon, 13: ModeNoon, 14: ModeAfternoon,
		16: ModeAfternoon, 17: ModeDusk, 19: ModeDusk, 20: ModeNight, 23: ModeNight,
	}
	for h := 0; h < 24; h++ {
		got := ModeForHour(h)
		if _, ok := ParseMode(string(got)); !ok {
			t.Errorf("ModeForHour(%d) = %q, not a valid mode", h, got)
		}
		if w, ok := want[h]; ok && got != w {
			t.Errorf("ModeForHour(%d) = %v, want %v", h, got, w)
		}
	}
}

func TestModeAt_Boundaries(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2025, 6, 1, h, m, 0, 0, time.Local)
	}
	tests := []struct {
		time time.Time
		want Mode
	}{
		{at(6, 59), ModeDawn},
		{at(7, 0), ModeMorning},
		{at(4, 59), ModeNight},
		{at(5, 0), ModeDawn},
		{at(19, 59), ModeDusk},
		{at(20, 0), ModeNight},
	}
	for _, tt := range tests {
		if got := ModeAt(tt.time); got != tt.want {
			t.Errorf("ModeAt(%s) = %v, want %v", tt.time.Format("15:04"), got, tt.want)
		}
	}
}

func TestModeNext_Cycles(t *testing.T) {
	m := ModeDawn
	seen := map[Mode]bool{}
	for i := 0; i < len(Modes); i++ {
		seen[m] = true
		m = m.Next()
	}
	if m != ModeDawn {
		t.Errorf("cycle ended at %v, want dawn", m)
	}
	if len(seen) != len(Modes) {
		t.Errorf("cycle visited %d modes, want %d", len(seen), len(Modes))
	}
	if Mode("bogus").Next() != ModeDawn {
		t.Error("unknown mode should restart the cycle at dawn")
	}
}

func TestThemeFor_PureAndTotal(t *testing.T) {
	night := ThemeFor(ModeNight)
	for _, m := range append(Modes, Mode(""), Mode("eclipse")) {
		a, b := ThemeFor(m), ThemeFor(m)
		if a != b {
			t.Errorf("ThemeFor(%q) not deterministic: %+v vs %+v", m, a, b)
		}
		if a.StarIntensity < 0 || a.StarIntensity > 1 || a.OverlayDarkness < 0 || a.OverlayDarkness > 1 {
			t.Errorf("ThemeFor(%q) out of range: %+v", m, a)
		}
	}
	if ThemeFor("eclipse") != night {
		t.Error("unrecognized mode should resolve to the night theme")
	}
	if night.ShowSun || !night.ShowMoon {
		t.Errorf("night theme sun/moon = %v/%v, want false/true", night.ShowSun, night.ShowMoon)
	}
	if ThemeFor(ModeAfternoon).StarIntensity >= 0.1 {
		t.Error("afternoon should have low star intensity")
	}
}

func TestConditionForCode(t *testing.T) {
	tests := []struct {
		code int
		want Condition
	}{
		{0, ConditionSunny},
		{1, ConditionCloudy},
		{2, ConditionCloudy},
		{3, ConditionOvercast},
		{45, ConditionOvercast},
		{48, ConditionOvercast},
		{51, ConditionRain},
		{61, ConditionRain},
		{65, ConditionRain},
		{66, ConditionHail},
		{67, ConditionHail},
		{71, ConditionSnow},
		{77, ConditionSnow},
		{80, ConditionRain},
		{86, ConditionSnow},
		{95, ConditionStorm},
		{99, ConditionStorm},
		{42, ConditionUnknown},
		{100, ConditionUnknown},
	}
	for _, tt := range tests {
		if got := ConditionForCode(tt.code); got != tt.want {
			t.Errorf("ConditionForCode(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	obs := func(code int, wind, cloud float64) Observation {
		o := NewObservation()
		o.Code = code
		o.WindSpeed = wind
		o.CloudCover = cloud
		return o
	}
	nan := math.NaN()

	tests := []struct {
		name string
		obs  Observation
		want Condition
	}{
		{"clear", obs(0, 2, nan), ConditionSunny},
		{"clear but windy", obs(0, 12, nan), ConditionWindy},
		{"cloudy but windy", obs(2, 10, nan), ConditionWindy},
		{"rain ignores wind", obs(61, 15, nan), ConditionRain},
		{"unknown code windy", obs(42, 12, nan), ConditionWindy},
		{"unknown code heavy cloud", obs(42, 3, 90), ConditionOvercast},
		{"unknown code some cloud", obs(42, 3, 60), ConditionCloudy},
		{"unknown code clear", obs(42, 3, 10), ConditionSunny},
		{"missing code and cloud", NewObservation(), ConditionUnknown},
		{"missing code with cloud", obs(-1, nan, 85), ConditionOvercast},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.obs); got != tt.want {
				t.Errorf("Classify(%+v) = %v, want %v", tt.obs, got, tt.want)
			}
		})
	}
}

func TestParseCondition(t *testing.T) {
	if c, ok := ParseCondition("blizzard"); !ok || c != ConditionBlizzard {
		t.Errorf("ParseCondition(blizzard) = %v, %v", c, ok)
	}
	for _, s := range []string{"", "unknown", "fog"} {
		if _, ok := ParseCondition(s); ok {
			t.Errorf("ParseCondition(%q) ok, want automatic", s)
		}
	}
}
