package buddy

import (
	"buddy/pkg/catalog"
	"buddy/pkg/engine"
)

// TemplateFile describes the buddy template animation: every body part is a
// referenced image, plus a few assets the runtime resolves on its own.
func TemplateFile() engine.File {
	f := engine.File{
		StateMachine: catalog.StateMachineName,
		Inputs: []engine.InputDef{
			{Name: catalog.TriggerTap, Kind: engine.KindTrigger},
			{Name: catalog.TriggerWave, Kind: engine.KindTrigger},
			{Name: catalog.TriggerJump, Kind: engine.KindTrigger},
			{Name: catalog.TriggerBlink, Kind: engine.KindTrigger},
			{Name: catalog.InputIsReading, Kind: engine.KindBoolean, Default: false},
			{Name: catalog.InputExcitementLevel, Kind: engine.KindNumber, Default: 50.0},
		},
	}
	for _, part := range catalog.BodyParts {
		f.Assets = append(f.Assets, engine.AssetRef{Name: part, Image: true})
	}
	f.Assets = append(f.Assets,
		engine.AssetRef{Name: "shadow", Image: true, Embedded: []byte{0}},
		engine.AssetRef{Name: "badge", Image: true, CDNUUID: "a6b1c7e2-0000-4000-8000-000000000001"},
		engine.AssetRef{Name: "font", Image: false},
	)
	return f
}
