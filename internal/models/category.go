package models

import "fmt"

// WorkType enumerates the activities that earn additional points.
type WorkType string

const (
	WorkTypeExternalFitness WorkType = "ExternalFitness"
	WorkTypeGTO             WorkType = "GTO"
	WorkTypeScience         WorkType = "Science"
	WorkTypeOnlineWork      WorkType = "OnlineWork"
	WorkTypeInternalTeam    WorkType = "InternalTeam"
	WorkTypeActivist        WorkType = "Activist"
	WorkTypeCompetition     WorkType = "Competition"
)

// WorkTypes lists every known work type in declaration order.
var WorkTypes = []WorkType{
	WorkTypeExternalFitness,
	WorkTypeGTO,
	WorkTypeScience,
	WorkTypeOnlineWork,
	WorkTypeInternalTeam,
	WorkTypeActivist,
	WorkTypeCompetition,
}

// ParseWorkType validates a raw work type name.
func ParseWorkType(raw string) (WorkType, error) {
	for _, wt := range WorkTypes {
		if string(wt) == raw {
			return wt, nil
		}
	}
	return "", fmt.Errorf("unknown work type %q", raw)
}

// StandardType enumerates the fitness standards a student can pass.
type StandardType string

const (
	StandardTypeTilts                     StandardType = "Tilts"
	StandardTypeJumps                     StandardType = "Jumps"
	StandardTypePullUps                   StandardType = "PullUps"
	StandardTypeSquats                    StandardType = "Squats"
	StandardTypeJumpingRopeJumps          StandardType = "JumpingRopeJumps"
	StandardTypeTorsoLifts                StandardType = "TorsoLifts"
	StandardTypeFlexionAndExtensionOfArms StandardType = "FlexionAndExtensionOfArms"
	StandardTypeShuttleRun                StandardType = "ShuttleRun"
	StandardTypeOther                     StandardType = "Other"
)

// StandardTypes lists every known standard type in declaration order.
var StandardTypes = []StandardType{
	StandardTypeTilts,
	StandardTypeJumps,
	StandardTypePullUps,
	StandardTypeSquats,
	StandardTypeJumpingRopeJumps,
	StandardTypeTorsoLifts,
	StandardTypeFlexionAndExtensionOfArms,
	StandardTypeShuttleRun,
	StandardTypeOther,
}

// ParseStandardType validates a raw standard type name.
func ParseStandardType(raw string) (StandardType, error) {
	for _, st := range StandardTypes {
		if string(st) == raw {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown standard type %q", raw)
}
