package console

import (
	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
	"github.com/tliron/commonlog"
)

// Printer sends console output to a commonlog logger.
type Printer struct {
	log commonlog.Logger
}

func NewPrinter(log commonlog.Logger) *Printer {
	return &Printer{log: log}
}

func (p *Printer) Log(s string) {
	p.log.Info(s)
}

func (p *Printer) Warn(s string) {
	p.log.Warning(s)
}

func (p *Printer) Error(s string) {
	p.log.Error(s)
}

// Register replaces the console module of reg with one that logs to log.
func Register(reg *require.Registry, log commonlog.Logger) {
	reg.RegisterNativeModule(console.ModuleName, console.RequireWithPrinter(NewPrinter(log)))
}

func Enable(runtime *goja.Runtime) {
	console.Enable(runtime)
}
