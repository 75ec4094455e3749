// SPDX-License-Identifier: Unlicense OR MIT

package vdso

import "go.uber.org/zap"

// nopLogger is the Manager's default so library use never forces log
// configuration on a caller that doesn't ask for it.
func nopLogger() *zap.Logger {
	return zap.NewNop()
}
