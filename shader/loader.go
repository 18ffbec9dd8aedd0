package shader

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/richinsley/goshaderlive/graphics"
)

// ReadError reports that the shader source could not be read. It is
// distinct from a *graphics.CompileError.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read shader %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

var errNotUTF8 = errors.New("source is not valid UTF-8")

// Translator rewrites fragment source before compilation. names maps the
// uniform names declared in source to the names in the translated code;
// uniforms missing from names are treated as unused.
type Translator interface {
	Translate(source string) (code string, names map[string]string, err error)
}

// Loader reads, compiles and links fragment shaders against the bundled
// vertex stage.
type Loader struct {
	gpu        graphics.GPU
	translator Translator
}

// NewLoader returns a loader compiling with gpu. translator may be nil.
func NewLoader(gpu graphics.GPU, translator Translator) *Loader {
	return &Loader{gpu: gpu, translator: translator}
}

// ReadSource reads the full text of path.
func ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ReadError{Path: path, Err: err}
	}
	if !utf8.Valid(data) {
		return "", &ReadError{Path: path, Err: errNotUTF8}
	}
	return string(data), nil
}

// Load builds a program from the fragment source at path and resolves the
// location of every name in uniforms. Names the program does not use get
// location -1 and are skipped on write. On failure nothing is allocated:
// the returned error is a *ReadError or a *graphics.CompileError.
func (l *Loader) Load(path string, uniforms []string) (*Program, error) {
	source, err := ReadSource(path)
	if err != nil {
		return nil, err
	}

	code := source
	var names map[string]string
	if l.translator != nil {
		code, names, err = l.translator.Translate(source)
		if err != nil {
			return nil, &graphics.CompileError{Stage: "translate", Log: err.Error()}
		}
	}

	id, err := l.gpu.NewProgram(VertexSource, code)
	if err != nil {
		var ce *graphics.CompileError
		if errors.As(err, &ce) {
			return nil, ce
		}
		return nil, &graphics.CompileError{Stage: "link", Log: err.Error()}
	}

	p := &Program{ID: id, locations: make(map[string]int32, len(uniforms))}
	for _, name := range uniforms {
		mapped := name
		if names != nil {
			var ok bool
			if mapped, ok = names[name]; !ok {
				p.locations[name] = -1
				continue
			}
		}
		p.locations[name] = l.gpu.UniformLocation(id, mapped)
	}
	return p, nil
}
