package overlay

import (
	"math"
	"time"

	"github.com/litescript/ls-sky/internal/canvas"
)

var (
	cloudColor    = canvas.Hex("#ffffff")
	stormCloud    = canvas.Hex("#9aa6b4")
	ambientColor  = canvas.Hex("#2b3140")
	skylineColor  = canvas.Hex("#141826")
	whaleColor    = canvas.Hex("#c9d8ff")
	rainColor     = canvas.Hex("#a8c4e0")
	splashColor   = canvas.Hex("#cfe0f0")
	snowColor     = canvas.Hex("#ffffff")
	hailColor     = canvas.Hex("#dce6f0")
	windColor     = canvas.Hex("#e8dcc0")
	lightningTint = canvas.Hex("#f4f7ff")
)

// Paint draws scene onto surf at elapsed time t, tint last.
func Paint(surf canvas.Surface, scene Scene, t time.Duration) {
	if surf == nil {
		return
	}
	w, h := surf.Size()
	if w <= 0 || h <= 0 {
		return
	}

	for _, l := range scene.Layers {
		for _, p := range l.Particles {
			x, y, a := Sample(p, t)
			if a <= 0.005 {
				continue
			}
			paintParticle(surf, scene, p, x*w, y*h, a, w, h)
		}
	}

	if scene.Lightning {
		if v := LightningIntensity(t); v > 0 {
			surf.FillRect(0, 0, w, h, lightningTint, 0.8*v)
		}
	}
	if tint := scene.Tint; tint.Alpha > 0 {
		surf.FillRect(0, 0, w, h, canvas.Hex(tint.Color), tint.Alpha)
	}
}

func paintParticle(surf canvas.Surface, scene Scene, p Particle, x, y, a, w, h float64) {
	switch p.Kind {
	case KindCloud:
		col := cloudColor
		if scene.Tint.Alpha >= 0.12 {
			col = stormCloud
		}
		// Three overlapping blobs.
		s := p.Size
		surf.Glow(x-0.6*s, y, 0.6*s, col, a*0.8, false)
		surf.Glow(x, y-0.25*s, 0.8*s, col, a, false)
		surf.Glow(x+0.6*s, y, 0.6*s, col, a*0.8, false)
	case KindAirplane:
		surf.Glyph(x, y, '✈', ambientColor, a)
	case KindBird:
		// A small flock trailing its leader.
		for i := 0; i < 3; i++ {
			off := float64(i) * p.Size * 3
			surf.Glyph(x+off, y+off*0.4*float64(i%2), 'v', ambientColor, a)
		}
	case KindBuilding:
		surf.FillRect(p.X*w, y, p.Size*w, h-y, skylineColor, a)
	case KindWhale:
		surf.Ellipse(x, y, p.Size, p.Size*0.35, 0.05*math.Sin(x/60), whaleColor, a)
		surf.Glow(x-p.Size*1.1, y-p.Size*0.2, p.Size*0.3, whaleColor, a*0.7, false)
	case KindRain:
		dx, dy := p.Size*math.Sin(p.Rotation), p.Size*math.Cos(p.Rotation)
		surf.Line(x, y, x-dx, y+dy, rainColor, a)
	case KindSplash:
		surf.Ellipse(x, y, p.Size, p.Size*0.35, 0, splashColor, a)
	case KindFlake:
		surf.Circle(x, y, p.Size, snowColor, a)
	case KindHail:
		surf.Circle(x, y, p.Size, hailColor, a)
		surf.Glow(x-p.Size*0.3, y-p.Size*0.3, p.Size*0.6, canvas.White, a*0.6, true)
	case KindSwish:
		dx, dy := p.Size*math.Cos(p.Rotation), -p.Size*math.Sin(p.Rotation)
		surf.Line(x, y, x+dx, y+dy, windColor, a)
	case KindMote:
		surf.Circle(x, y, p.Size, windColor, a)
	}
}
