package natives

import (
	"strings"

	"github.com/dlclark/regexp2"
)

var (
	// %Name( at a position where an operand may start. Modulo between an
	// identifier and a call without whitespace is indistinguishable and is
	// rewritten as well.
	nativeCallRe = regexp2.MustCompile(`(?<=^|[\s(,;=!&|?:{}\[+\-*/<>~])%(?=[A-Za-z_$][\w$]*\s*\()`, regexp2.Multiline)

	flagsRe = regexp2.MustCompile(`^//\s*Flags:[ \t]*(.*?)\s*$`, regexp2.Multiline)
)

// Rewrite turns natives syntax call sites (%ArrayIteratorProtector()) into
// calls on the natives module global.
func Rewrite(src string) (string, error) {
	return nativeCallRe.Replace(src, ModuleName+".", -1, -1)
}

// ParseFlags collects the flags from mjsunit style "// Flags:" header lines.
func ParseFlags(src string) []string {
	var flags []string
	m, _ := flagsRe.FindStringMatch(src)
	for m != nil {
		flags = append(flags, strings.Fields(m.GroupByNumber(1).String())...)
		m, _ = flagsRe.FindNextMatch(m)
	}
	return flags
}
