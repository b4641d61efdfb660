// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package model

import (
	"strconv"
	"strings"
)

var usageNames = map[string]VertexUsage{
	"position":     UsagePosition,
	"pos":          UsagePosition,
	"color":        UsageColor,
	"colour":       UsageColor,
	"col":          UsageColor,
	"texcoord":     UsageTextureCoordinate,
	"texcoords":    UsageTextureCoordinate,
	"uv":           UsageTextureCoordinate,
	"normal":       UsageNormal,
	"norm":         UsageNormal,
	"binormal":     UsageBinormal,
	"bitangent":    UsageBinormal,
	"tangent":      UsageTangent,
	"blendindices": UsageBlendIndices,
	"boneindices":  UsageBlendIndices,
	"joints":       UsageBlendIndices,
	"blendweight":  UsageBlendWeight,
	"blendweights": UsageBlendWeight,
	"boneweights":  UsageBlendWeight,
	"weights":      UsageBlendWeight,
	"depth":        UsageDepth,
	"fog":          UsageFog,
	"psize":        UsagePointSize,
	"pointsize":    UsagePointSize,
	"sample":       UsageSample,
	"tessfactor":   UsageTessellateFactor,
}

// UsageFromName derives the vertex usage and usage index from an input
// name such as "position", "uv1" or "a_tex_coord_2". Trailing digits give
// the index. ok is false when the name matches no known usage.
func UsageFromName(name string) (usage VertexUsage, index int, ok bool) {
	s := strings.ToLower(name)
	for _, prefix := range []string{"in_", "a_", "i_", "v_"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.ReplaceAll(s, "_", "")

	end := len(s)
	for end > 0 && s[end-1] >= '0' && s[end-1] <= '9' {
		end--
	}
	if end < len(s) {
		n, err := strconv.Atoi(s[end:])
		if err != nil {
			return 0, 0, false
		}
		index = n
	}
	usage, ok = usageNames[s[:end]]
	if !ok {
		return 0, 0, false
	}
	return usage, index, true
}
