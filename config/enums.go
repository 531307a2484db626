package config

import (
	"fmt"
	"strings"
)

// Specification of requested output type.
// ENUM(text, html, epub)
type OutputFmt int

const (
	OutputFmtText OutputFmt = iota
	OutputFmtHTML
	OutputFmtEpub
)

var outputFmtNames = []string{"text", "html", "epub"}

// OutputFmtNames returns list of possible string values of OutputFmt.
func OutputFmtNames() []string {
	tmp := make([]string, len(outputFmtNames))
	copy(tmp, outputFmtNames)
	return tmp
}

func (o OutputFmt) IsValid() bool {
	return o >= OutputFmtText && o <= OutputFmtEpub
}

func (o OutputFmt) String() string {
	if !o.IsValid() {
		return fmt.Sprintf("OutputFmt(%d)", int(o))
	}
	return outputFmtNames[o]
}

// ParseOutputFmt attempts to convert a string to an OutputFmt.
func ParseOutputFmt(name string) (OutputFmt, error) {
	for i, n := range outputFmtNames {
		if strings.EqualFold(name, n) {
			return OutputFmt(i), nil
		}
	}
	return OutputFmt(0), fmt.Errorf("%s is not a valid OutputFmt, try [%s]", name, strings.Join(outputFmtNames, ", "))
}

// MustParseOutputFmt converts a string to an OutputFmt, panicking on failure.
func MustParseOutputFmt(name string) OutputFmt {
	val, err := ParseOutputFmt(name)
	if err != nil {
		panic(err)
	}
	return val
}

func (o OutputFmt) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *OutputFmt) UnmarshalText(text []byte) error {
	val, err := ParseOutputFmt(string(text))
	if err != nil {
		return err
	}
	*o = val
	return nil
}

func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtText:
		return ".txt"
	case OutputFmtHTML:
		return ".html"
	case OutputFmtEpub:
		return ".epub"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}
