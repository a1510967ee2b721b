package sandbox

import (
	"cpp-scratchpad/internal/memory"
)

type Runtime string

const (
	Default Runtime = ""
	GVisor  Runtime = "runsc"
)

func (r Runtime) String() string { return string(r) }

type Profile struct {
	// The runtime the toolchain container will use. GVisor falls back to the
	// docker default when the daemon does not have it installed.
	Runtime Runtime

	// The maximum amount of memory the toolchain container can use, the
	// compiler included. Docker requires at least 6 megabytes.
	Memory memory.Memory

	// The amount of memory the container is allowed to swap to disk.
	MemorySwap memory.Memory

	// The maximum number of processes inside the container, bounding fork
	// bombs in the program under test.
	PidsLimit int64
}

// Profiles is every supported profile keyed by environment, with the
// development profile split by host operating system.
var Profiles = map[string]*Profile{
	"development_linux": {
		Runtime:   GVisor,
		Memory:    memory.Gigabyte * 2,
		PidsLimit: 256,
	},
	"development_windows": {
		Runtime:   Default,
		Memory:    memory.Gigabyte * 2,
		PidsLimit: 256,
	},
	"production": {
		Runtime:    GVisor,
		Memory:     memory.Megabyte * 512,
		MemorySwap: memory.Megabyte * 512,
		PidsLimit:  64,
	},
	"staging": {
		Runtime:    GVisor,
		Memory:     memory.Gigabyte,
		MemorySwap: memory.Gigabyte,
		PidsLimit:  64,
	},
}

// ProfileFor returns the profile of the environment, falling back to the
// development profile of the operating system.
func ProfileFor(environment, operatingSystem string) *Profile {
	if profile, ok := Profiles[environment]; ok {
		return profile
	}

	if profile, ok := Profiles[environment+"_"+operatingSystem]; ok {
		return profile
	}

	return Profiles["development_"+operatingSystem]
}
