package vm

import "fmt"

// Domain states (from libvirt VIR_DOMAIN_* constants)
const (
	domainStateNoState     = 0
	domainStateRunning     = 1
	domainStateBlocked     = 2
	domainStatePaused      = 3
	domainStateShutdown    = 4
	domainStateShutoff     = 5
	domainStateCrashed     = 6
	domainStatePMSuspended = 7
)

// shutoffReasons names VIR_DOMAIN_SHUTOFF_* reasons.
var shutoffReasons = map[int32]string{
	0: "unknown",
	1: "shutdown",
	2: "destroyed",
	3: "crashed",
	4: "migrated",
	5: "saved",
	6: "failed",
	7: "from snapshot",
	8: "daemon",
}

// stateToString converts a libvirt domain state to a human-readable string.
// Shutoff states carry their reason, e.g. "shutoff (destroyed)".
func stateToString(state, reason int32) string {
	switch state {
	case domainStateNoState:
		return "no state"
	case domainStateRunning:
		return "running"
	case domainStateBlocked:
		return "blocked"
	case domainStatePaused:
		return "paused"
	case domainStateShutdown:
		return "shutdown"
	case domainStateShutoff:
		if name, ok := shutoffReasons[reason]; ok {
			return fmt.Sprintf("shutoff (%s)", name)
		}
		return "shutoff"
	case domainStateCrashed:
		return "crashed"
	case domainStatePMSuspended:
		return "pmsuspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}
