// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package types

// ResourceUsage is a bit set describing how a resource may be used.
// A resource must be created with every usage it is later bound for.
type ResourceUsage uint32

// Resource usage flags.
const (
	UsageNone                   ResourceUsage = 0
	UsageTransferSrc            ResourceUsage = 1 << 0
	UsageTransferDst            ResourceUsage = 1 << 1
	UsageSampledTexture         ResourceUsage = 1 << 2
	UsageStorageTexture         ResourceUsage = 1 << 3
	UsageColorAttachment        ResourceUsage = 1 << 4
	UsageDepthStencilAttachment ResourceUsage = 1 << 5
	UsageUniformBuffer          ResourceUsage = 1 << 6
	UsageStorageBuffer          ResourceUsage = 1 << 7
	UsageVertexBuffer           ResourceUsage = 1 << 8
	UsageIndexBuffer            ResourceUsage = 1 << 9
	UsageIndirectBuffer         ResourceUsage = 1 << 10
	UsageAccelerationStructure  ResourceUsage = 1 << 11
	UsageShaderBindingTable     ResourceUsage = 1 << 12
)

// Has reports whether all flags in other are present in u.
func (u ResourceUsage) Has(other ResourceUsage) bool {
	return u&other == other
}

// IsEmpty reports whether no usage flags are set.
func (u ResourceUsage) IsEmpty() bool {
	return u == UsageNone
}
