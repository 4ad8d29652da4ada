package sog

import "fmt"

// Stage identifies one step of an export. Stages run in declaration order.
type Stage uint8

const (
	StageExtract Stage = iota
	StageMorton
	StageMeans
	StageQuats
	StageScales
	StageColors
	StageSH
	StageMeta
	StageClose

	numStages
)

var stageNames = [numStages]string{
	StageExtract: "extract",
	StageMorton:  "morton",
	StageMeans:   "means",
	StageQuats:   "quats",
	StageScales:  "scales",
	StageColors:  "colors",
	StageSH:      "sh",
	StageMeta:    "meta",
	StageClose:   "close",
}

func (s Stage) String() string {
	if s < numStages {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

// Stages returns all stages in execution order.
func Stages() []Stage {
	out := make([]Stage, numStages)
	for i := range out {
		out[i] = Stage(i)
	}
	return out
}
