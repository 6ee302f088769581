package bundle

import "fmt"

// Stage identifies one step of the assembly pipeline. Stages run strictly in
// the order of [Stages]; the first failure aborts the run.
type Stage string

const (
	StageReset       Stage = "reset"
	StageTools       Stage = "tools"
	StageDecompile   Stage = "decompile"
	StageCompileRes  Stage = "compile-res"
	StageLink        Stage = "link"
	StageExpand      Stage = "expand"
	StageRestage     Stage = "restage"
	StageRepackage   Stage = "repackage"
	StageBuildBundle Stage = "build-bundle"
	StageSign        Stage = "sign"
)

// Stages lists every pipeline stage in execution order.
var Stages = []Stage{
	StageReset,
	StageTools,
	StageDecompile,
	StageCompileRes,
	StageLink,
	StageExpand,
	StageRestage,
	StageRepackage,
	StageBuildBundle,
	StageSign,
}

// StageError reports which stage a pipeline run failed in. The wrapped error
// carries the tool's captured stderr for tool invocation failures.
type StageError struct {
	Err   error
	Stage Stage
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
