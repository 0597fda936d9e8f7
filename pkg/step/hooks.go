package step

// HookPoint names a position around a pipeline stage, for example
// "pre-process" or "post-validate".
type HookPoint string

// HookFunc runs at a hook point. Returning an error aborts the pipeline the
// same way a failing stage does.
type HookFunc func(ctx Context) error

// Hooks maps hook points to the functions run there, in order.
type Hooks map[HookPoint][]HookFunc

// Pre returns the hook point run before stage.
func Pre(stage string) HookPoint { return HookPoint("pre-" + stage) }

// Post returns the hook point run after stage.
func Post(stage string) HookPoint { return HookPoint("post-" + stage) }

// Add appends fn to the hook point, allocating the map when needed.
func (h *Hooks) Add(point HookPoint, fn HookFunc) {
	if h == nil || fn == nil {
		return
	}
	if *h == nil {
		*h = make(Hooks)
	}
	(*h)[point] = append((*h)[point], fn)
}

// Run invokes every hook registered for point until one fails.
func (h Hooks) Run(point HookPoint, ctx Context) error {
	for _, fn := range h[point] {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}
