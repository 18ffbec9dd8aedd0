package options

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ErrUsage is wrapped by every error caused by a malformed command line.
var ErrUsage = errors.New("usage")

// Audio input modes accepted by -audio.
const (
	AudioNone = ""
	AudioMic  = "mic"
	AudioFile = "file"
)

// Resolution is an explicit surface size in pixels.
type Resolution struct {
	Width  int
	Height int
}

// Options is the parsed command line.
//
//	Resolution:        overrides auto-detected surface size
//	FullscreenDisplay: selects target display for fullscreen
//	ConfigPath:        loads controller mappings
type Options struct {
	ShaderPath        string
	Resolution        *Resolution
	FullscreenDisplay *int
	ConfigPath        string

	Translate   bool   // shader source is WebGL2 and is translated before compiling
	Audio       string // AudioNone, AudioMic or AudioFile
	AudioFile   string
	ListDevices bool
	Init        bool // write a template shader to ShaderPath and exit

	Verbose bool
	Quiet   bool
}

// LogLevel maps the verbosity flags onto a slog level.
func (o *Options) LogLevel() slog.Level {
	return LevelFromFlags(o.Verbose, o.Quiet)
}

// LevelFromFlags returns the [slog.Level] for the given flags. Verbose wins
// over quiet; the default is [slog.LevelInfo].
func LevelFromFlags(v, q bool) slog.Level {
	switch {
	case v:
		return slog.LevelDebug
	case q:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Parse parses args (without the program name). Usage text is written to
// output when parsing fails or -help is given.
func Parse(program string, args []string, output io.Writer) (*Options, error) {
	fs := flag.NewFlagSet(program, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: %s [options] FILE\n\n", program)
		fs.PrintDefaults()
	}

	opts := &Options{}
	width := fs.Int("width", 0, "resolution width in `PIXELS` (requires -height)")
	height := fs.Int("height", 0, "resolution height in `PIXELS` (requires -width)")
	fullscreen := fs.Int("fullscreen", -1, "enable full screen mode on display `INDEX`")
	fs.StringVar(&opts.ConfigPath, "config", "", "controller mapping file (`PATH`, .toml, .yaml or .json)")
	fs.BoolVar(&opts.Translate, "translate", false, "translate WebGL2 (GLSL ES 3.00) shader source to desktop GLSL")
	fs.StringVar(&opts.Audio, "audio", AudioNone, "audio analysis input: mic or file")
	fs.StringVar(&opts.AudioFile, "audio-file", "", "audio file to analyse when -audio=file")
	fs.BoolVar(&opts.ListDevices, "list-devices", false, "list MIDI inputs and displays, then exit")
	fs.BoolVar(&opts.Init, "init", false, "write a template shader to FILE, then exit")
	fs.BoolVar(&opts.Verbose, "v", false, "debug logging")
	fs.BoolVar(&opts.Quiet, "q", false, "only log errors")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	switch {
	case set["width"] && set["height"]:
		if *width <= 0 || *height <= 0 {
			return nil, usageError(fs, "resolution must be positive, got %dx%d", *width, *height)
		}
		opts.Resolution = &Resolution{Width: *width, Height: *height}
	case set["width"]:
		return nil, usageError(fs, "no -height specified")
	case set["height"]:
		return nil, usageError(fs, "no -width specified")
	}

	if set["fullscreen"] {
		if *fullscreen < 0 {
			return nil, usageError(fs, "invalid display index %d", *fullscreen)
		}
		ix := *fullscreen
		opts.FullscreenDisplay = &ix
	}

	switch opts.Audio {
	case AudioNone, AudioMic:
	case AudioFile:
		if opts.AudioFile == "" {
			return nil, usageError(fs, "-audio=file requires -audio-file")
		}
	default:
		return nil, usageError(fs, "unknown audio input %q", opts.Audio)
	}

	if opts.ListDevices {
		return opts, nil
	}

	if fs.NArg() == 0 {
		return nil, usageError(fs, "no file specified")
	}
	if fs.NArg() > 1 {
		return nil, usageError(fs, "unexpected arguments: %s", strings.Join(fs.Args()[1:], " "))
	}
	opts.ShaderPath = fs.Arg(0)

	return opts, nil
}

func usageError(fs *flag.FlagSet, format string, args ...any) error {
	fs.Usage()
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}
