package shader

// Uniforms every program is asked for, ahead of the controller uniforms.
const (
	ResolutionUniform = "u_resolution" // vec2, surface size in pixels
	TimeUniform       = "u_time"       // float, seconds since start
)

// VertexSource is the bundled vertex stage: it passes a full-screen quad
// through unchanged. The fragment stage comes from the watched file.
const VertexSource = `#version 410 core
layout (location = 0) in vec2 in_vert;
out vec2 frag_uv;
void main() {
    frag_uv = in_vert * 0.5 + 0.5;
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

// DefaultFragmentSource is the template written by -init.
const DefaultFragmentSource = `#version 410 core
in vec2 frag_uv;
out vec4 fragColor;

uniform vec2  u_resolution;
uniform float u_time;

void main() {
    vec2 uv = gl_FragCoord.xy / u_resolution;
    fragColor = vec4(uv, 0.5 + 0.5 * sin(u_time), 1.0);
}
`

// RequiredUniforms returns the names to resolve for a program: resolution
// and time first, then each group in order, without duplicates.
func RequiredUniforms(groups ...[]string) []string {
	names := []string{ResolutionUniform, TimeUniform}
	seen := map[string]bool{ResolutionUniform: true, TimeUniform: true}
	for _, group := range groups {
		for _, name := range group {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}
