package system

import (
	"context"
)

// PurgeMemory asks the kernel to drop disk caches via purge(8).
func PurgeMemory(ctx context.Context, r Runner) bool {
	return r.Run(ctx, "purge") == nil
}

// FlushDNS clears the resolver cache. Both steps need root, so the call is
// refused up front when the process is not elevated.
func FlushDNS(ctx context.Context, r Runner, elevated bool) bool {
	if !elevated {
		return false
	}
	if err := r.Run(ctx, "dscacheutil", "-flushcache"); err != nil {
		return false
	}
	return r.Run(ctx, "killall", "-HUP", "mDNSResponder") == nil
}
