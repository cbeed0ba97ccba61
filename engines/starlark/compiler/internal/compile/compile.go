package compile

import (
	"errors"
	"fmt"

	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/resolve"
	"go.starlark.net/syntax"
)

// Compile parses and resolves src. Names not in predeclared or the Starlark universe
// are errors. A failure wraps ErrCompileFailed and joins every resolver message.
func Compile(
	filename string,
	src []byte,
	predeclared starlarkLib.StringDict,
) (*starlarkLib.Program, error) {
	if src == nil {
		return nil, ErrContentNil
	}

	opts := &syntax.FileOptions{}
	f, err := opts.Parse(filename, src, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}

	prog, err := starlarkLib.FileProgram(f, predeclared.Has)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, flatten(err))
	}
	return prog, nil
}

// Init runs the top level of prog once and freezes the resulting globals.
func Init(
	prog *starlarkLib.Program,
	thread *starlarkLib.Thread,
	predeclared starlarkLib.StringDict,
) (starlarkLib.StringDict, error) {
	globals, err := prog.Init(thread, predeclared)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}
	globals.Freeze()
	return globals, nil
}

func flatten(err error) error {
	var list resolve.ErrorList
	if !errors.As(err, &list) {
		return err
	}
	errz := make([]error, len(list))
	for i, e := range list {
		errz[i] = e
	}
	return errors.Join(errz...)
}
