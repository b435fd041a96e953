package texstate

import "testing"

func BenchmarkChange_FullTexture(b *testing.B) {
	sel := FullSelector(AspectColor, 10, 6)
	var out []PendingTransition

	b.ReportAllocs()
	for b.Loop() {
		var s TextureStates
		out = out[:0]
		_ = s.Change(texID, sel, UsesColorTarget, &out)
		_ = s.Change(texID, sel, UsesResource, &out)
	}
}

func BenchmarkChange_SingleLayer(b *testing.B) {
	var s TextureStates
	_ = s.Change(texID, FullSelector(AspectColor, 10, 64), UsesResource, nil)
	var out []PendingTransition

	b.ReportAllocs()
	i := uint32(0)
	for b.Loop() {
		layer := i % 64
		i++
		sel := Selector{Aspects: AspectColor, Levels: Range{Start: 3, End: 4}, Layers: Range{Start: layer, End: layer + 1}}
		out = out[:0]
		_ = s.Change(texID, sel, UsesColorTarget, &out)
		_ = s.Change(texID, sel, UsesResource, &out)
	}
}

func BenchmarkQuery(b *testing.B) {
	var s TextureStates
	_ = s.Change(texID, FullSelector(AspectAll, 10, 16), UsesResource, nil)
	sel := FullSelector(AspectAll, 10, 16)

	b.ReportAllocs()
	for b.Loop() {
		_, _ = s.Query(sel)
	}
}

func BenchmarkMerge(b *testing.B) {
	var self, other TextureStates
	_ = self.Change(texID, FullSelector(AspectColor, 10, 16), UsesCopyDst, nil)
	_ = other.Change(texID, FullSelector(AspectColor, 10, 16), UsesResource, nil)
	var out []PendingTransition

	b.ReportAllocs()
	for b.Loop() {
		s := self.Clone()
		out = out[:0]
		_ = s.Merge(texID, &other, StitchInit, &out)
	}
}

func BenchmarkTrackerMerge(b *testing.B) {
	for _, bc := range []struct {
		name    string
		workers int
	}{{"serial", 0}, {"workers=4", 4}} {
		b.Run(bc.name, func(b *testing.B) {
			parent, child := buildScopes(b, 256, WithWorkers(bc.workers), WithParallelThreshold(16))
			defer parent.Close()
			var out []PendingTransition

			b.ReportAllocs()
			for b.Loop() {
				out = out[:0]
				_ = parent.Merge(child, StitchInit, &out)
			}
		})
	}
}
