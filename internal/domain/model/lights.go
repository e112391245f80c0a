package model

// LightGroup is the state of one group of lab lights.
type LightGroup struct {
	Name       string
	On         bool
	Brightness *int
	Hue        *int
	Scene      string
}

// DecodeLightGroup requires name and on.
func DecodeLightGroup(p Payload) (LightGroup, bool) {
	name, ok1 := p.String("name")
	on, ok2 := p.Bool("on")
	if !ok1 || !ok2 {
		return LightGroup{}, false
	}
	g := LightGroup{Name: name, On: on}
	if n, ok := p.Int("brightness"); ok {
		g.Brightness = &n
	}
	if n, ok := p.Int("hue"); ok {
		g.Hue = &n
	}
	g.Scene, _ = p.String("scene")
	return g, true
}

// Payload encodes the settable part of g.
func (g LightGroup) Payload() Payload {
	p := Payload{"on": g.On}
	if g.Brightness != nil {
		p["brightness"] = *g.Brightness
	}
	if g.Hue != nil {
		p["hue"] = *g.Hue
	}
	setString(p, "scene", g.Scene)
	return p
}

// LightScene is a preset the lights can switch to.
type LightScene struct {
	ID   string
	Name string
}

// DecodeLightScene requires id and name.
func DecodeLightScene(p Payload) (LightScene, bool) {
	id, ok1 := p.String("id")
	name, ok2 := p.String("name")
	if !ok1 || !ok2 {
		return LightScene{}, false
	}
	return LightScene{ID: id, Name: name}, true
}
