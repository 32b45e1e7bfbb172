// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package pass

import (
	"fmt"

	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/types"
)

var formatByString = map[string]types.Format{
	"R8Unorm":        types.FormatR8Unorm,
	"RG8Unorm":       types.FormatRG8Unorm,
	"RGBA8Unorm":     types.FormatRGBA8Unorm,
	"RGBA8UnormSrgb": types.FormatRGBA8UnormSrgb,
	"BGRA8Unorm":     types.FormatBGRA8Unorm,
	"BGRA8UnormSrgb": types.FormatBGRA8UnormSrgb,
	"R16Float":       types.FormatR16Float,
	"RG16Float":      types.FormatRG16Float,
	"RGBA16Float":    types.FormatRGBA16Float,
	"R32Uint":        types.FormatR32Uint,
	"R32Float":       types.FormatR32Float,
	"RG32Float":      types.FormatRG32Float,
	"RGBA32Float":    types.FormatRGBA32Float,
	"RG11B10Ufloat":  types.FormatRG11B10Ufloat,
	"RGB10A2Unorm":   types.FormatRGB10A2Unorm,
	"D16Unorm":       types.FormatD16Unorm,
	"D24UnormS8Uint": types.FormatD24UnormS8Uint,
	"D32Float":       types.FormatD32Float,
	"D32FloatS8Uint": types.FormatD32FloatS8Uint,
}

func formatFromString(s string) types.Format {
	return formatByString[s]
}

func passTypeFromString(s string) (graph.PassType, error) {
	switch s {
	case "graphics", "":
		return graph.PassGraphics, nil
	case "compute":
		return graph.PassCompute, nil
	}
	return 0, fmt.Errorf("unknown pass type %q", s)
}

func shaderTypeFromString(s string) (types.ShaderType, error) {
	switch s {
	case "vertex":
		return types.ShaderTypeVertex, nil
	case "fragment":
		return types.ShaderTypeFragment, nil
	case "compute":
		return types.ShaderTypeCompute, nil
	case "ray_generation":
		return types.ShaderTypeRayGeneration, nil
	case "closest_hit":
		return types.ShaderTypeClosestHit, nil
	case "any_hit":
		return types.ShaderTypeAnyHit, nil
	case "miss":
		return types.ShaderTypeMiss, nil
	}
	return 0, fmt.Errorf("unknown shader type %q", s)
}

func hitGroupTypeFromString(s string) types.HitGroupType {
	if s == "procedural" {
		return types.HitGroupProcedural
	}
	return types.HitGroupTriangles
}

func loadOpFromString(s string) types.LoadOp {
	switch s {
	case "load":
		return types.LoadOpLoad
	case "dont_care":
		return types.LoadOpDontCare
	default:
		return types.LoadOpClear
	}
}

func storeOpFromString(s string) types.StoreOp {
	if s == "dont_care" {
		return types.StoreOpDontCare
	}
	return types.StoreOpStore
}
