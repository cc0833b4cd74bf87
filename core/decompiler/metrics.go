package decompiler

import "github.com/ethereum/go-ethereum/metrics"

var (
	decompiledCounter = metrics.NewRegisteredCounter("decompiler/methods/decompiled", nil)
	failedCounter     = metrics.NewRegisteredCounter("decompiler/methods/failed", nil)
	skippedCounter    = metrics.NewRegisteredCounter("decompiler/methods/skipped", nil)
	methodTimer       = metrics.NewRegisteredTimer("decompiler/methods/time", nil)

	shortCircuitCounter = metrics.NewRegisteredCounter("decompiler/patterns/shortcircuit", nil)
	telescopeCounter    = metrics.NewRegisteredCounter("decompiler/patterns/telescope", nil)
	arrayInitCounter    = metrics.NewRegisteredCounter("decompiler/patterns/arrayinit", nil)

	tryCounter    = metrics.NewRegisteredCounter("decompiler/structure/try", nil)
	ifCounter     = metrics.NewRegisteredCounter("decompiler/structure/if", nil)
	switchCounter = metrics.NewRegisteredCounter("decompiler/structure/switch", nil)
	loopCounter   = metrics.NewRegisteredCounter("decompiler/structure/loop", nil)
)
