package lx200

import (
	"fmt"
	"maps"
	"slices"
)

// MaxMnemonicLength is the longest command mnemonic allowed on the wire.
const MaxMnemonicLength = 3

// Command is a single LX200 command: a mnemonic plus an optional argument.
//
// Commands are values; they are built per call and consumed by the Framer.
type Command struct {
	mnemonic string
	argument string
}

// NewCommand returns a Command. Validation happens when the command is framed.
func NewCommand(mnemonic, argument string) Command {
	return Command{mnemonic: mnemonic, argument: argument}
}

// Mnemonic returns the command code, e.g. "GA".
func (c Command) Mnemonic() string { return c.mnemonic }

// Argument returns the command argument, or "" if none.
func (c Command) Argument() string { return c.argument }

// String returns the wire representation without validation.
func (c Command) String() string {
	return string(frameStart) + c.mnemonic + c.argument + string(frameEnd)
}

// ArgKind classifies the argument constraint of a command.
type ArgKind uint8

const (
	// ArgAny accepts any printable argument, including none.
	ArgAny ArgKind = iota
	// ArgNone rejects any argument.
	ArgNone
	// ArgFixed requires exactly Len printable characters.
	ArgFixed
	// ArgDigits requires exactly Len ASCII digits.
	ArgDigits
)

// ArgSpec is the declared argument constraint of a mnemonic.
type ArgSpec struct {
	Kind ArgKind
	Len  int
}

// NoArg is the constraint of commands that take no argument.
func NoArg() ArgSpec { return ArgSpec{Kind: ArgNone} }

// AnyArg accepts any printable argument, including none.
func AnyArg() ArgSpec { return ArgSpec{Kind: ArgAny} }

// FixedArg requires an argument of exactly n printable characters.
func FixedArg(n int) ArgSpec { return ArgSpec{Kind: ArgFixed, Len: n} }

// DigitsArg requires an argument of exactly n ASCII digits.
func DigitsArg(n int) ArgSpec { return ArgSpec{Kind: ArgDigits, Len: n} }

// Validate reports whether arg satisfies the constraint.
// Character-level checks (printable, no '#') are done by the Framer.
func (s ArgSpec) Validate(arg string) error {
	switch s.Kind {
	case ArgNone:
		if arg != "" {
			return fmt.Errorf("takes no argument, got %q", arg)
		}
	case ArgFixed:
		if len(arg) != s.Len {
			return fmt.Errorf("argument must be exactly %d characters, got %d", s.Len, len(arg))
		}
	case ArgDigits:
		if len(arg) != s.Len {
			return fmt.Errorf("argument must be exactly %d digits, got %d characters", s.Len, len(arg))
		}
		for i := 0; i < len(arg); i++ {
			if arg[i] < '0' || arg[i] > '9' {
				return fmt.Errorf("argument must be %d digits, got %q", s.Len, arg)
			}
		}
	case ArgAny:
	}

	return nil
}

// CommandSet maps mnemonics to their argument constraints. It is immutable.
type CommandSet struct {
	specs map[string]ArgSpec
}

// NewCommandSet builds a CommandSet from specs.
func NewCommandSet(specs map[string]ArgSpec) (*CommandSet, error) {
	for m := range specs {
		if err := validateMnemonic(m); err != nil {
			return nil, err
		}
	}

	return &CommandSet{specs: maps.Clone(specs)}, nil
}

// Spec returns the constraint registered for mnemonic.
func (cs *CommandSet) Spec(mnemonic string) (ArgSpec, bool) {
	s, ok := cs.specs[mnemonic]
	return s, ok
}

// Mnemonics returns the registered mnemonics in sorted order.
func (cs *CommandSet) Mnemonics() []string {
	return slices.Sorted(maps.Keys(cs.specs))
}

// Split breaks a frame body into mnemonic and argument using the longest
// registered mnemonic prefix. Bodies with no registered prefix of at most
// MaxMnemonicLength characters are treated as a bare mnemonic.
func (cs *CommandSet) Split(body string) (Command, bool) {
	for n := min(MaxMnemonicLength, len(body)); n > 0; n-- {
		if _, ok := cs.specs[body[:n]]; ok {
			return NewCommand(body[:n], body[n:]), true
		}
	}
	if body != "" && len(body) <= MaxMnemonicLength {
		return NewCommand(body, ""), true
	}

	return Command{}, false
}

// LX200 mnemonics used by this module.
const (
	CmdGetAltitude        = "GA"
	CmdGetAzimuth         = "GZ"
	CmdGetRightAscension  = "GR"
	CmdGetDeclination     = "GD"
	CmdGetTargetRA        = "Gr"
	CmdGetTargetDec       = "Gd"
	CmdGetLocalTime24     = "GL"
	CmdGetLocalTime12     = "Ga"
	CmdGetSiderealTime    = "GS"
	CmdGetDate            = "GC"
	CmdGetCalendarFormat  = "Gc"
	CmdGetBrowseMagnitude = "Gb"
	CmdGetTrackingRate    = "GT"
	CmdGetLatitude        = "Gt"
	CmdGetLongitude       = "Gg"
	CmdGetUTCOffset       = "GG"
	CmdGetProductName     = "GVP"
	CmdGetFirmwareNumber  = "GVN"
	CmdGetFirmwareDate    = "GVD"
	CmdMoveNorth          = "Mn"
	CmdMoveEast           = "Me"
	CmdMoveSouth          = "Ms"
	CmdMoveWest           = "Mw"
	CmdSlewToTarget       = "MS"
	CmdHaltAll            = "Q"
	CmdHaltNorth          = "Qn"
	CmdHaltEast           = "Qe"
	CmdHaltSouth          = "Qs"
	CmdHaltWest           = "Qw"
	CmdRateGuide          = "RG"
	CmdRateCenter         = "RC"
	CmdRateFind           = "RM"
	CmdRateSlew           = "RS"
	CmdSelectDeepSky      = "LC"
	CmdSelectMessier      = "LM"
	CmdSelectStar         = "LS"
	CmdSetTargetRA        = "Sr"
	CmdSetTargetDec       = "Sd"
	CmdSetLocalTime       = "SL"
	CmdSetDate            = "SC"
	CmdSyncToTarget       = "CM"
)

// CatalogIndexLength is the fixed width of catalog object numbers.
const CatalogIndexLength = 4

const (
	targetRAArgLength  = len("HH:MM:SS")
	targetDecArgLength = len("sDD*MM:SS")
	localTimeArgLength = len("HH:MM:SS")
	dateArgLength      = len("MM/DD/YY")
)

var defaultCommandSet = func() *CommandSet {
	specs := map[string]ArgSpec{
		CmdSelectDeepSky: DigitsArg(CatalogIndexLength),
		CmdSelectMessier: DigitsArg(CatalogIndexLength),
		CmdSelectStar:    DigitsArg(CatalogIndexLength),
		CmdSetTargetRA:   FixedArg(targetRAArgLength),
		CmdSetTargetDec:  FixedArg(targetDecArgLength),
		CmdSetLocalTime:  FixedArg(localTimeArgLength),
		CmdSetDate:       FixedArg(dateArgLength),
	}
	for _, m := range []string{
		CmdGetAltitude, CmdGetAzimuth, CmdGetRightAscension, CmdGetDeclination,
		CmdGetTargetRA, CmdGetTargetDec, CmdGetLocalTime24, CmdGetLocalTime12,
		CmdGetSiderealTime, CmdGetDate, CmdGetCalendarFormat, CmdGetBrowseMagnitude,
		CmdGetTrackingRate, CmdGetLatitude, CmdGetLongitude, CmdGetUTCOffset,
		CmdGetProductName, CmdGetFirmwareNumber, CmdGetFirmwareDate,
		CmdMoveNorth, CmdMoveEast, CmdMoveSouth, CmdMoveWest, CmdSlewToTarget,
		CmdHaltAll, CmdHaltNorth, CmdHaltEast, CmdHaltSouth, CmdHaltWest,
		CmdRateGuide, CmdRateCenter, CmdRateFind, CmdRateSlew, CmdSyncToTarget,
	} {
		specs[m] = NoArg()
	}

	cs, err := NewCommandSet(specs)
	if err != nil {
		panic(err)
	}

	return cs
}()

// DefaultCommandSet returns the documented LX200 command set.
func DefaultCommandSet() *CommandSet {
	return defaultCommandSet
}
