// FILE: lixenwraith/settings/timing.go
package settings

import "time"

// Core timing constants for dotenv watching.
const (
	MinPollInterval      = 100 * time.Millisecond // Hard floor for file stat polling
	DefaultDebounce      = 500 * time.Millisecond // File change coalescence period
	DefaultPollInterval  = time.Second            // Standard file monitoring frequency
	DefaultReloadTimeout = 5 * time.Second        // Maximum duration for a reload
)
