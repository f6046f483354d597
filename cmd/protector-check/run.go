package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
	"github.com/tliron/commonlog"

	protector "github.com/dop251/goja_protector"
	"github.com/dop251/goja_protector/nodejs/console"
	"github.com/dop251/goja_protector/nodejs/natives"
)

type runner struct {
	allowNatives    bool
	trace           bool
	printProtectors bool
	traceFilter     string
	configPath      string
	snapshotPath    string
	restorePath     string
	profilePath     string
	timelimit       time.Duration

	out  io.Writer
	prof *protector.InvalidationProfile
}

func readSource(filename string) ([]byte, error) {
	if filename == "" || filename == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(filename)
}

// config merges the configuration file, the script's Flags header and the
// command line, in that order.
func (r *runner) config(src string) (*protector.Config, error) {
	cfg := &protector.Config{}
	if r.configPath != "" {
		c, err := protector.LoadConfig(r.configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	for _, f := range natives.ParseFlags(src) {
		switch f {
		case "--allow-natives-syntax":
			cfg.AllowNativesSyntax = true
		case "--trace-protector-invalidation":
			cfg.TraceProtectorInvalidation = true
		default:
			log.Debugf("ignoring flag %s", f)
		}
	}
	if r.allowNatives {
		cfg.AllowNativesSyntax = true
	}
	if r.trace {
		cfg.TraceProtectorInvalidation = true
	}
	if r.traceFilter != "" {
		cfg.TraceFilter = r.traceFilter
	}
	return cfg, nil
}

func (r *runner) runFile(filename string) (*protector.Runtime, error) {
	b, err := readSource(filename)
	if err != nil {
		return nil, err
	}
	src := string(b)

	if filename == "" || filename == "-" {
		filename = "<stdin>"
	}

	cfg, err := r.config(src)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	if r.prof != nil {
		opts = append(opts, protector.WithInvalidationListener(r.prof.Record))
	}
	rt := protector.New(opts...)

	if r.restorePath != "" {
		if err := r.restore(rt); err != nil {
			return nil, err
		}
	}

	vm := goja.New()
	reg := new(require.Registry)
	natives.Register(reg, rt)
	console.Register(reg, commonlog.GetLogger("protector-check.console"))
	reg.Enable(vm)
	console.Enable(vm)
	natives.Enable(vm)
	if err := natives.Install(vm); err != nil {
		return nil, err
	}
	if _, err := vm.RunString(mjsunitSource); err != nil {
		return nil, err
	}

	if cfg.AllowNativesSyntax {
		if src, err = natives.Rewrite(src); err != nil {
			return nil, err
		}
	}

	if r.timelimit > 0 {
		timer := time.AfterFunc(r.timelimit, func() {
			vm.Interrupt("timeout")
		})
		defer timer.Stop()
	}

	log.Debugf("running %s", filename)
	prg, err := goja.Compile(filename, src, false)
	if err != nil {
		return nil, err
	}
	_, err = vm.RunProgram(prg)
	return rt, err
}

func (r *runner) restore(rt *protector.Runtime) error {
	f, err := os.Open(r.restorePath)
	if err != nil {
		return err
	}
	defer f.Close()
	s, err := protector.DecodeSnapshot(f)
	if err != nil {
		return err
	}
	return rt.Protectors().Apply(s)
}

func (r *runner) report(filename string, rt *protector.Runtime) error {
	if r.printProtectors {
		fmt.Fprintf(r.out, "%s:\n", filename)
		for _, p := range protector.AllProtectors() {
			state := "valid"
			if !rt.Protectors().Get(p) {
				state = "invalid"
			}
			fmt.Fprintf(r.out, "  %-24s %s\n", p, state)
		}
	}
	if r.snapshotPath != "" {
		f, err := os.Create(r.snapshotPath)
		if err != nil {
			return err
		}
		if err := rt.Protectors().Snapshot().Encode(f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return nil
}

func (r *runner) writeProfile() error {
	if r.prof == nil {
		return nil
	}
	f, err := os.Create(r.profilePath)
	if err != nil {
		return err
	}
	if err := r.prof.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (r *runner) runAll(files []string) error {
	for _, filename := range files {
		rt, err := r.runFile(filename)
		if err != nil {
			return fmt.Errorf("%s: %s", filename, describe(err))
		}
		if err := r.report(filename, rt); err != nil {
			return err
		}
	}
	return r.writeProfile()
}

func describe(err error) string {
	var exception *goja.Exception
	var interrupted *goja.InterruptedError
	switch {
	case errors.As(err, &exception):
		return exception.String()
	case errors.As(err, &interrupted):
		return interrupted.String()
	}
	return err.Error()
}
