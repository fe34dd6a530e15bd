// +build debug

package tag

// Debug enables runtime invariant checks. Build with -tags debug.
const Debug = true
