package overlay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-sky/internal/canvas"
	"github.com/litescript/ls-sky/internal/sky"
)

func TestCompose_CloudTiers(t *testing.T) {
	tests := []struct {
		cond    sky.Condition
		count   int
		opacity float64
	}{
		{sky.ConditionOvercast, 8, 0.85},
		{sky.ConditionStorm, 9, 0.9},
		{sky.ConditionCloudy, 6, 0.7},
		{sky.ConditionSunny, 3, 0.5},
		{sky.ConditionRain, 3, 0.5},
		{sky.ConditionUnknown, 3, 0.5},
	}
	for _, tt := range tests {
		t.Run(string(tt.cond), func(t *testing.T) {
			s := Compose(InputFor(sky.ModeNoon, tt.cond))
			assert.Equal(t, tt.count, s.Count(KindCloud))

			l, ok := s.Layer(LayerClouds)
			require.True(t, ok)
			for _, p := range l.Particles {
				assert.LessOrEqual(t, p.Opacity, tt.opacity)
				assert.GreaterOrEqual(t, p.Opacity, tt.opacity*0.8)
			}
		})
	}
}

func TestCompose_CloudsAreStaggered(t *testing.T) {
	l, ok := Compose(InputFor(sky.ModeMorning, sky.ConditionCloudy)).Layer(LayerClouds)
	require.True(t, ok)

	seen := map[time.Duration]bool{}
	for _, p := range l.Particles {
		assert.False(t, seen[p.Duration], "duplicate cloud duration %v", p.Duration)
		seen[p.Duration] = true
	}
}

func TestCompose_NightHasNoDaytimeLayers(t *testing.T) {
	s := Compose(InputFor(sky.ModeNight, sky.ConditionSunny))
	assert.Empty(t, s.Layers)
	assert.Zero(t, s.Tint.Alpha)
	assert.False(t, s.Lightning)
}

func TestCompose_AmbientAndGoldenHour(t *testing.T) {
	noon := Compose(InputFor(sky.ModeNoon, sky.ConditionSunny))
	assert.Equal(t, 1, noon.Count(KindAirplane))
	assert.Equal(t, 3, noon.Count(KindBird))
	assert.Zero(t, noon.Count(KindWhale))
	assert.Zero(t, noon.Count(KindBuilding))

	for _, m := range []sky.Mode{sky.ModeDawn, sky.ModeDusk} {
		s := Compose(InputFor(m, sky.ConditionSunny))
		assert.Equal(t, 1, s.Count(KindWhale), m)
		assert.Positive(t, s.Count(KindBuilding), m)
	}
}

func TestCompose_Skyline_CoversWidth(t *testing.T) {
	l, ok := Compose(InputFor(sky.ModeDusk, sky.ConditionSunny)).Layer(LayerSkyline)
	require.True(t, ok)
	last := l.Particles[len(l.Particles)-1]
	assert.GreaterOrEqual(t, last.X+last.Size, 1.0)
}

func TestCompose_WeatherLayers(t *testing.T) {
	tests := []struct {
		cond      sky.Condition
		counts    map[Kind]int
		lightning bool
	}{
		{sky.ConditionRain, map[Kind]int{KindRain: 80, KindSplash: 0}, false},
		{sky.ConditionStorm, map[Kind]int{KindRain: 160, KindSplash: 30}, true},
		{sky.ConditionSnow, map[Kind]int{KindFlake: 85}, false},
		{sky.ConditionBlizzard, map[Kind]int{KindFlake: 190}, false},
		{sky.ConditionHail, map[Kind]int{KindHail: 50}, false},
		{sky.ConditionWindy, map[Kind]int{KindSwish: 12, KindMote: 20}, false},
		{sky.ConditionSunny, map[Kind]int{KindRain: 0, KindFlake: 0, KindHail: 0}, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.cond), func(t *testing.T) {
			s := Compose(InputFor(sky.ModeNight, tt.cond))
			for kind, want := range tt.counts {
				assert.Equal(t, want, s.Count(kind), kind.String())
			}
			assert.Equal(t, tt.lightning, s.Lightning)
		})
	}
}

func TestCompose_BlizzardDriftsMore(t *testing.T) {
	snow, _ := Compose(InputFor(sky.ModeNight, sky.ConditionSnow)).Layer(LayerSnow)
	bliz, _ := Compose(InputFor(sky.ModeNight, sky.ConditionBlizzard)).Layer(LayerSnow)
	require.NotEmpty(t, snow.Particles)
	require.NotEmpty(t, bliz.Particles)
	assert.InDelta(t, snow.Particles[0].Drift*3, bliz.Particles[0].Drift, 1e-12)
	assert.InDelta(t, snow.Particles[0].DX*3, bliz.Particles[0].DX, 1e-12)
}

func TestCompose_SnowFlakeSizes(t *testing.T) {
	tests := []struct {
		cond         sky.Condition
		small, large int
	}{
		{sky.ConditionSnow, 60, 25},
		{sky.ConditionBlizzard, 140, 50},
	}
	for _, tt := range tests {
		t.Run(string(tt.cond), func(t *testing.T) {
			layer, ok := Compose(InputFor(sky.ModeNight, tt.cond)).Layer(LayerSnow)
			require.True(t, ok)
			require.Len(t, layer.Particles, tt.small+tt.large)

			var small, large int
			for _, p := range layer.Particles {
				switch {
				case p.Size <= 2.4:
					small++
				case p.Size >= 2.6:
					large++
				}
			}
			assert.Equal(t, tt.small, small)
			assert.Equal(t, tt.large, large)
		})
	}
}

func TestCompose_StormRainIsFaster(t *testing.T) {
	rain, _ := Compose(InputFor(sky.ModeNoon, sky.ConditionRain)).Layer(LayerRain)
	storm, _ := Compose(InputFor(sky.ModeNoon, sky.ConditionStorm)).Layer(LayerRain)

	var maxStorm, minRain time.Duration = 0, time.Hour
	for _, p := range storm.Particles {
		maxStorm = max(maxStorm, p.Duration)
	}
	for _, p := range rain.Particles {
		minRain = min(minRain, p.Duration)
	}
	assert.Less(t, maxStorm, minRain)
}

func TestCompose_IsPure(t *testing.T) {
	in := InputFor(sky.ModeDawn, sky.ConditionStorm)
	assert.Equal(t, Compose(in), Compose(in))
}

func TestTintFor(t *testing.T) {
	tests := []struct {
		cond  sky.Condition
		color string
		alpha float64
	}{
		{sky.ConditionStorm, "#3a4a5c", 0.25},
		{sky.ConditionRain, "#5a7088", 0.15},
		{sky.ConditionSnow, "#e8f0ff", 0.12},
		{sky.ConditionBlizzard, "#f0f4ff", 0.2},
		{sky.ConditionHail, "#8fa3b8", 0.15},
		{sky.ConditionOvercast, "#8a94a0", 0.12},
		{sky.ConditionCloudy, "#b0bccb", 0.06},
		{sky.ConditionWindy, "#c8b890", 0.05},
		{sky.ConditionSunny, "", 0},
		{sky.ConditionUnknown, "", 0},
	}
	for _, tt := range tests {
		got := TintFor(tt.cond)
		assert.Equal(t, tt.color, got.Color, string(tt.cond))
		assert.Equal(t, tt.alpha, got.Alpha, string(tt.cond))
	}
}

func TestLightningIntensity(t *testing.T) {
	at := func(frac float64) time.Duration {
		return time.Duration(frac * float64(LightningCycle))
	}

	assert.Zero(t, LightningIntensity(0))
	assert.Zero(t, LightningIntensity(at(0.2)))
	assert.InDelta(t, 0.9, LightningIntensity(at(0.41)), 1e-9)
	assert.InDelta(t, 1.0, LightningIntensity(at(0.49)), 1e-9)
	assert.InDelta(t, 0.7, LightningIntensity(at(0.81)), 1e-9)
	assert.Zero(t, LightningIntensity(at(0.9)))

	// The timeline loops.
	assert.InDelta(t, LightningIntensity(at(0.41)), LightningIntensity(LightningCycle+at(0.41)), 1e-9)

	flashes := 0
	prev := 0.0
	for i := 0; i <= 1000; i++ {
		v := LightningIntensity(at(float64(i) / 1000))
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		if prev == 0 && v > 0 {
			flashes++
		}
		prev = v
	}
	assert.GreaterOrEqual(t, flashes, 3, "multiple flashes per cycle")
}

func TestSample(t *testing.T) {
	p := Particle{Kind: KindRain, X: 0.5, Y: 0, DY: 1, Opacity: 0.5, Duration: time.Second}

	x, y, a := Sample(p, 0)
	assert.InDelta(t, 0.5, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-9)
	assert.Equal(t, 0.5, a)

	_, y, _ = Sample(p, 500*time.Millisecond)
	assert.InDelta(t, 0.5, y, 1e-9)

	_, y, _ = Sample(p, 1250*time.Millisecond)
	assert.InDelta(t, 0.25, y, 1e-9, "loops every cycle")

	p.Delay = 250 * time.Millisecond
	_, y, _ = Sample(p, 0)
	assert.InDelta(t, 0.25, y, 1e-9, "delay starts mid-flight")

	static := Particle{Kind: KindBuilding, X: 0.2, Y: 0.9, Opacity: 0.55}
	x, y, a = Sample(static, 42*time.Second)
	assert.Equal(t, []float64{0.2, 0.9, 0.55}, []float64{x, y, a})
}

func TestSample_SplashFades(t *testing.T) {
	p := Particle{Kind: KindSplash, Opacity: 0.5, Duration: time.Second}
	_, _, early := Sample(p, 100*time.Millisecond)
	_, _, late := Sample(p, 900*time.Millisecond)
	assert.Greater(t, early, late)
}

func TestSample_HailBounces(t *testing.T) {
	p := Particle{Kind: KindHail, Y: 0, DY: 1, Opacity: 1, Duration: time.Second}
	_, ground, _ := Sample(p, 850*time.Millisecond)
	_, bounce, _ := Sample(p, 925*time.Millisecond)
	assert.Less(t, bounce, ground)
}

func TestPaint_TintOverWholeGrid(t *testing.T) {
	g := canvas.NewGrid(10, 4)
	Paint(g, Compose(InputFor(sky.ModeNight, sky.ConditionSunny)), time.Second)
	assert.Zero(t, g.Cell(0, 0).BGAlpha, "sunny night paints nothing")

	g.Clear()
	scene := Scene{Tint: TintFor(sky.ConditionRain)}
	Paint(g, scene, 0)
	for _, pos := range [][2]int{{0, 0}, {9, 3}, {5, 2}} {
		assert.InDelta(t, 0.15, g.Cell(pos[0], pos[1]).BGAlpha, 1e-9)
	}
}

func TestPaint_RainDrawsStreaks(t *testing.T) {
	g := canvas.NewGrid(40, 20)
	Paint(g, Compose(InputFor(sky.ModeAfternoon, sky.ConditionRain)), 3*time.Second)

	glyphs := 0
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			if g.Cell(c, r).Glyph != 0 && g.Cell(c, r).Glyph != ' ' {
				glyphs++
			}
		}
	}
	assert.Positive(t, glyphs)
}

func TestPaint_NilSurface(t *testing.T) {
	assert.NotPanics(t, func() {
		Paint(nil, Compose(InputFor(sky.ModeNoon, sky.ConditionStorm)), 0)
	})
}
