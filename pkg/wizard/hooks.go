package wizard

import "github.com/goliatone/go-formwizard/pkg/step"

// Stage names used for hook points ("pre-<stage>", "post-<stage>").
const (
	StageConfigure      = "configure"
	StageGetErrors      = "getErrors"
	StageGetValues      = "getValues"
	StageLocals         = "locals"
	StageCheckEmpty     = "checkEmpty"
	StageRender         = "render"
	StageClearErrors    = "clearErrors"
	StageProcess        = "process"
	StageValidate       = "validate"
	StageSaveValues     = "saveValues"
	StageSuccessHandler = "successHandler"
)

// LifecycleHooks observes every stage of every request a controller serves.
// Returning an error from Before skips the stage and aborts the pipeline.
type LifecycleHooks interface {
	Before(stage string, req *Request) error
	After(stage string, req *Request) error
}

// HookSet is a LifecycleHooks backed by step hook points, so the same
// functions can be declared per step (step.Config.Hooks) or controller-wide.
type HookSet step.Hooks

func (h HookSet) Before(stage string, req *Request) error {
	return step.Hooks(h).Run(step.Pre(stage), req)
}

func (h HookSet) After(stage string, req *Request) error {
	return step.Hooks(h).Run(step.Post(stage), req)
}
