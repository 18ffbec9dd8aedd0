package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/richinsley/goshaderlive/audio"
	"github.com/richinsley/goshaderlive/config"
	"github.com/richinsley/goshaderlive/glfwcontext"
	"github.com/richinsley/goshaderlive/glgpu"
	"github.com/richinsley/goshaderlive/inputs"
	"github.com/richinsley/goshaderlive/options"
	"github.com/richinsley/goshaderlive/renderer"
	"github.com/richinsley/goshaderlive/shader"
	"github.com/richinsley/goshaderlive/translator"
	"github.com/richinsley/goshaderlive/watcher"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := options.Parse("goshaderlive", args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: opts.LogLevel()})))

	if opts.Init {
		if err := writeTemplate(opts.ShaderPath); err != nil {
			return fail(err)
		}
		fmt.Printf("wrote %s\n", opts.ShaderPath)
		return 0
	}

	cfg := config.Default()
	if opts.ConfigPath != "" {
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return fail(err)
		}
	}

	if err := glfwcontext.InitGraphics(); err != nil {
		return fail(err)
	}
	defer glfwcontext.TerminateGraphics()
	defer inputs.CloseMIDI()

	if opts.ListDevices {
		listDevices()
		return 0
	}

	ctxOpts := glfwcontext.Options{Fullscreen: opts.FullscreenDisplay}
	if opts.Resolution != nil {
		ctxOpts.Width, ctxOpts.Height = opts.Resolution.Width, opts.Resolution.Height
	}
	window, err := glfwcontext.New(ctxOpts)
	if err != nil {
		return fail(err)
	}

	gpu, err := glgpu.New()
	if err != nil {
		window.Shutdown()
		return fail(err)
	}

	w, err := watcher.New(opts.ShaderPath)
	if err != nil {
		gpu.Destroy()
		window.Shutdown()
		return fail(err)
	}
	defer w.Close()

	rOpts := renderer.Options{
		ShaderPath: w.Path(),
		Config:     cfg,
		Context:    window,
		GPU:        gpu,
		Reloads:    w.Reloads(),
		Devices:    inputs.OpenMIDI,
		Audio:      audioDevice(opts),
	}
	if opts.Translate {
		tr, err := translator.New(context.Background())
		if err != nil {
			gpu.Destroy()
			window.Shutdown()
			return fail(err)
		}
		rOpts.Translator = tr
	}

	r := renderer.New(rOpts)
	defer r.Shutdown()
	if err := r.Start(); err != nil {
		return fail(err)
	}
	r.Run()
	return 0
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "goshaderlive: %v\n", err)
	return 1
}

// audioDevice returns the selected audio input, or nil when none is
// selected. A microphone that cannot be initialized is replaced by silence.
func audioDevice(opts *options.Options) audio.AudioDevice {
	switch opts.Audio {
	case options.AudioMic:
		mic, err := audio.NewMicrophone(audio.DefaultSampleRate)
		if err != nil {
			slog.Warn("could not initialize microphone, using silence", "err", err)
			return audio.NewNullDevice(audio.DefaultSampleRate)
		}
		return mic
	case options.AudioFile:
		return audio.NewFileInput(opts.AudioFile, audio.DefaultSampleRate)
	}
	return nil
}

func listDevices() {
	fmt.Println("MIDI inputs:")
	ports := inputs.ListMIDIInputs()
	if len(ports) == 0 {
		fmt.Println("  (none)")
	}
	for _, p := range ports {
		fmt.Println("  " + p)
	}
	fmt.Println("Monitors:")
	for _, m := range glfwcontext.Monitors() {
		fmt.Println("  " + m)
	}
}

func writeTemplate(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	if _, err := f.WriteString(shader.DefaultFragmentSource); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
