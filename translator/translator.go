package translator

import (
	"context"
	"fmt"
	"log/slog"

	gst "github.com/richinsley/goshadertranslator"
)

// Translator turns WebGL2 (GLSL ES 3.00) fragment shaders into desktop
// GLSL 4.10 so they compile next to the bundled vertex stage.
type Translator struct {
	t *gst.ShaderTranslator
}

// New loads the translator runtime. This takes noticeably longer than a
// shader compile, so it is done once at startup.
func New(ctx context.Context) (*Translator, error) {
	t, err := gst.NewShaderTranslator(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start shader translator: %w", err)
	}
	slog.Info("shader translator ready")
	return &Translator{t: t}, nil
}

// Translate returns the translated code and, for every active variable,
// the name it was given in the translated code.
func (tr *Translator) Translate(source string) (string, map[string]string, error) {
	out, err := tr.t.TranslateShader(source, "fragment", gst.ShaderSpecWebGL2, gst.OutputFormatGLSL410)
	if err != nil {
		return "", nil, err
	}
	names := make(map[string]string, len(out.Variables))
	for name, v := range out.Variables {
		names[name] = v.MappedName
	}
	return out.Code, names, nil
}
