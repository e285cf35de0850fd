// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package surface

import "log"

// logf logs a non-fatal condition, matching the ALOGW/ALOGV warnings
// the original source emits for conditions that do not abort the call.
func logf(format string, args ...any) {
	log.Printf(format, args...)
}
