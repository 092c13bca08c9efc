package codec

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed snapshot.cue
var schemaSrc string

// ErrShape reports a payload that does not match the snapshot schema.
var ErrShape = errors.New("payload does not match snapshot shape")

// Validator checks raw JSON payloads against the snapshot schema.
//
// Thread-safety: a cue.Context is not safe for concurrent use, so Validate
// serialises callers with a mutex.
type Validator struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaSrc, cue.Filename("snapshot.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile snapshot schema: %w", err)
	}

	def := v.LookupPath(cue.ParsePath("#Snapshot"))
	if !def.Exists() {
		return nil, fmt.Errorf("compile snapshot schema: #Snapshot not defined")
	}
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("compile snapshot schema: %w", err)
	}

	return &Validator{ctx: ctx, schema: def}, nil
}

// Validate returns nil if data is a JSON document of the snapshot shape.
// Any mismatch is wrapped with ErrShape.
func (v *Validator) Validate(data []byte) error {
	expr, err := cuejson.Extract("snapshot.json", data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrShape, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	doc := v.ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrShape, err)
	}

	unified := v.schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrShape, err)
	}
	return nil
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
	defaultErr       error
)

// DefaultValidator returns the process-wide validator, compiling it on first use.
func DefaultValidator() (*Validator, error) {
	defaultOnce.Do(func() {
		defaultValidator, defaultErr = NewValidator()
	})
	return defaultValidator, defaultErr
}
