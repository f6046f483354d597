package console

import (
	"reflect"
	"testing"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
	"github.com/tliron/commonlog"
)

type recordingLogger struct {
	commonlog.Logger
	lines []string
}

func (l *recordingLogger) Info(message string, keysAndValues ...any) {
	l.lines = append(l.lines, "info "+message)
}

func (l *recordingLogger) Warning(message string, keysAndValues ...any) {
	l.lines = append(l.lines, "warning "+message)
}

func (l *recordingLogger) Error(message string, keysAndValues ...any) {
	l.lines = append(l.lines, "error "+message)
}

func TestConsole(t *testing.T) {
	vm := goja.New()
	logger := &recordingLogger{}

	reg := new(require.Registry)
	Register(reg, logger)
	reg.Enable(vm)
	Enable(vm)

	if c := vm.Get("console"); c == nil {
		t.Fatal("console not found")
	}

	if _, err := vm.RunString(`
	console.log("a", 1);
	console.warn("b %d", 2);
	console.error("c");
	`); err != nil {
		t.Fatal(err)
	}

	want := []string{"info a 1", "warning b 2", "error c"}
	if !reflect.DeepEqual(logger.lines, want) {
		t.Fatalf("got %q", logger.lines)
	}
}
