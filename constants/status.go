package constants

// Stage is a step of the upload pipeline. Stages only move forward; any failure ends in StageFailed.
type Stage string

const (
	StageReceived   Stage = "RECEIVED"
	StageExtracting Stage = "EXTRACTING"
	StagePrompting  Stage = "PROMPTING"
	StageEstimating Stage = "ESTIMATING"
	StageParsing    Stage = "PARSING"
	StagePersisting Stage = "PERSISTING"
	StageDone       Stage = "DONE"
	StageFailed     Stage = "FAILED"
)
