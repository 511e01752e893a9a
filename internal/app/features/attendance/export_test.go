package attendance

import "context"

// SetBulkLoadedHook installs fn between the bulk path's read and its writes
// and returns a func that restores the previous hook.
func SetBulkLoadedHook(fn func(context.Context)) (restore func()) {
	prev := testHookBulkLoaded
	testHookBulkLoaded = fn
	return func() { testHookBulkLoaded = prev }
}
