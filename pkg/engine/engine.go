// Package engine describes the boundary to the external animation runtime:
// the asset-loading hook it calls for referenced assets and the state machine
// inputs it exposes once a file is loaded.
package engine

import (
	"context"
	"image"
)

// FileAsset is the runtime's descriptor for an asset referenced by an
// animation file.
type FileAsset interface {
	Name() string
	IsImage() bool
	// CDNUUID is non-empty when the asset is hosted on the runtime vendor's CDN.
	CDNUUID() string
}

// ImageAsset is a FileAsset that accepts decoded image data.
type ImageAsset interface {
	FileAsset
	SetRenderImage(img image.Image)
}

// AssetLoader is called by the runtime for each referenced asset. Returning
// false lets the runtime handle the asset itself; returning true confirms the
// loader supplied the image.
type AssetLoader func(ctx context.Context, asset FileAsset, bytes []byte) bool

type Input interface {
	Name() string
}

type Trigger interface {
	Input
	Fire()
}

// ValueInput is a boolean or number input.
type ValueInput interface {
	Input
	Value() any
	SetValue(v any) error
}

// Runtime is a loaded animation with its state machines.
type Runtime interface {
	StateMachineInputs(stateMachine string) []Input
}
