package pagecore

import "time"

// Config holds the tunables SPEC_FULL.md's ambient-stack expansion calls
// for: the spec's open question on IdleNotification's 500ms threshold is
// resolved here by making it a Config field (SPEC_FULL.md §10.2) rather
// than a hardcoded constant, while keeping 500ms as the default so
// existing behavior is unchanged unless an embedder opts in.
type Config struct {
	// NetworkIdleThreshold is how long the idle/almost-idle conditions
	// must hold continuously before their notifications fire (spec.md
	// §4.5). Defaults to 500ms.
	NetworkIdleThreshold time.Duration

	// MaxMutationDeliveryDepth defaults to the MaxMutationDeliveryDepth
	// constant (100). The mutation delivery queue does not read this
	// field: its reentrancy bound (spec.md §4.7) is always the constant.
	MaxMutationDeliveryDepth int

	// BufferPoolSize bounds how many reusable fetch buffers ScriptManager
	// keeps around (spec.md §4.6's "BufferPool of up to N buffers").
	BufferPoolSize int

	// ArenaPoolBaseCapacity and ArenaPoolMaxCapacity default to 32 and
	// 256. NewPage does not read them: every Page draws its page/call
	// arenas from the process-wide arena.Default pool.
	ArenaPoolBaseCapacity int
	ArenaPoolMaxCapacity  int
}

// DefaultConfig returns the configuration used when a Page is created
// without an explicit Config.
func DefaultConfig() Config {
	return Config{
		NetworkIdleThreshold:     500 * time.Millisecond,
		MaxMutationDeliveryDepth: MaxMutationDeliveryDepth,
		BufferPoolSize:           16,
		ArenaPoolBaseCapacity:    32,
		ArenaPoolMaxCapacity:     256,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.NetworkIdleThreshold <= 0 {
		c.NetworkIdleThreshold = d.NetworkIdleThreshold
	}
	if c.MaxMutationDeliveryDepth <= 0 {
		c.MaxMutationDeliveryDepth = d.MaxMutationDeliveryDepth
	}
	if c.BufferPoolSize <= 0 {
		c.BufferPoolSize = d.BufferPoolSize
	}
	if c.ArenaPoolBaseCapacity <= 0 {
		c.ArenaPoolBaseCapacity = d.ArenaPoolBaseCapacity
	}
	if c.ArenaPoolMaxCapacity <= 0 {
		c.ArenaPoolMaxCapacity = d.ArenaPoolMaxCapacity
	}
	return c
}
