package decompiler

import (
	"bufio"
	"fmt"
	"io"
	"reflect"

	"github.com/naoina/toml"
	"github.com/pkg/errors"
)

// Config tunes the decompilation pipeline.
type Config struct {
	// EnablePatterns runs the peephole pattern decompiler (short-circuit
	// recovery, push/pop telescoping, array initializer folding).
	EnablePatterns bool

	// EnableLoops runs the while/do-while structuring pass and
	// EnableForLoops the promotion of while loops to for loops.
	EnableLoops    bool
	EnableForLoops bool

	// VerifyPasses checks the tree invariants after every pass.
	VerifyPasses bool

	// TraceLabels dumps the label table at debug level after structuring.
	TraceLabels bool

	// Workers bounds the batch driver's concurrency. 0 sizes the pool from
	// the batch, at most one worker per CPU.
	Workers int

	// FailureCacheSize is the number of failed method bodies remembered
	// by the batch driver.
	FailureCacheSize int

	// WarnEvery writes one warning per that many failed methods in a
	// batch. 0 and 1 warn about every failure.
	WarnEvery uint32
}

// Defaults contains the default settings.
var Defaults = Config{
	EnablePatterns:   true,
	EnableLoops:      true,
	EnableForLoops:   true,
	VerifyPasses:     false,
	Workers:          0,
	FailureCacheSize: 1024,
	WarnEvery:        1,
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// LoadConfig decodes TOML settings from r on top of cfg.
func LoadConfig(r io.Reader, cfg *Config) error {
	err := tomlSettings.NewDecoder(bufio.NewReader(r)).Decode(cfg)
	if _, ok := err.(*toml.LineError); ok {
		err = errors.Wrap(err, "decompiler config")
	}
	return err
}

// MarshalTOML encodes cfg in the format LoadConfig reads.
func (c *Config) MarshalTOML() ([]byte, error) {
	return tomlSettings.Marshal(c)
}
