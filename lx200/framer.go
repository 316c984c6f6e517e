package lx200

import (
	"bytes"
	"fmt"
)

const (
	frameStart byte = ':'
	frameEnd   byte = '#'

	// NAK is the device-busy control byte. It never appears in reply payloads.
	NAK byte = 0x15
)

// Frame is the wire encoding of a Command: ':' + mnemonic + argument + '#'.
type Frame []byte

// String returns the frame as text.
func (f Frame) String() string { return string(f) }

// Framer encodes commands into frames and strips control bytes from replies.
// It performs no I/O and holds no mutable state.
type Framer struct {
	set *CommandSet
}

// NewFramer returns a Framer validating arguments against set.
// A nil set selects DefaultCommandSet.
func NewFramer(set *CommandSet) *Framer {
	if set == nil {
		set = DefaultCommandSet()
	}

	return &Framer{set: set}
}

// CommandSet returns the command set used for argument validation.
func (f *Framer) CommandSet() *CommandSet { return f.set }

// Encode validates cmd and returns its frame.
//
// Mnemonics not present in the command set are accepted only without an
// argument. Every encoded frame parses back to cmd with ParseFrame.
func (f *Framer) Encode(cmd Command) (Frame, error) {
	if err := validateMnemonic(cmd.mnemonic); err != nil {
		return nil, err
	}
	if err := validateArgument(cmd.argument); err != nil {
		return nil, fmt.Errorf("%w (mnemonic %q)", err, cmd.mnemonic)
	}

	spec, ok := f.set.Spec(cmd.mnemonic)
	if !ok {
		spec = NoArg()
	}
	if err := spec.Validate(cmd.argument); err != nil {
		return nil, invalidCommand("%s: %v", cmd.mnemonic, err)
	}
	// A body such as "G"+"A" would read back as the registered "GA".
	if got, ok := f.set.Split(cmd.mnemonic + cmd.argument); !ok || got != cmd {
		return nil, invalidCommand("%s%s: frame would read back as %q", cmd.mnemonic, cmd.argument, got.String())
	}

	frame := make(Frame, 0, len(cmd.mnemonic)+len(cmd.argument)+2)
	frame = append(frame, frameStart)
	frame = append(frame, cmd.mnemonic...)
	frame = append(frame, cmd.argument...)
	frame = append(frame, frameEnd)

	return frame, nil
}

// ParseFrame recovers the Command carried by a frame. The body is split at
// the longest mnemonic prefix known to the command set.
func (f *Framer) ParseFrame(frame []byte) (Command, error) {
	if len(frame) < 3 || frame[0] != frameStart || frame[len(frame)-1] != frameEnd {
		return Command{}, invalidCommand("malformed frame %q", frame)
	}

	body := frame[1 : len(frame)-1]
	if bytes.IndexByte(body, frameEnd) >= 0 || bytes.IndexByte(body, frameStart) == 0 {
		return Command{}, invalidCommand("malformed frame %q", frame)
	}

	cmd, ok := f.set.Split(string(body))
	if !ok {
		return Command{}, invalidCommand("unknown mnemonic in frame %q", frame)
	}

	return cmd, nil
}

// DecodeCandidate removes every NAK byte from raw, preserving the order of
// the remaining bytes, and reports whether at least one NAK was present.
// When raw holds no NAK it is returned unchanged.
func DecodeCandidate(raw []byte) (payload []byte, hadNAK bool) {
	i := bytes.IndexByte(raw, NAK)
	if i < 0 {
		return raw, false
	}

	payload = make([]byte, 0, len(raw)-1)
	payload = append(payload, raw[:i]...)
	for _, b := range raw[i+1:] {
		if b != NAK {
			payload = append(payload, b)
		}
	}

	return payload, true
}

// DecodeCandidate is the method form of the package level DecodeCandidate.
func (f *Framer) DecodeCandidate(raw []byte) ([]byte, bool) {
	return DecodeCandidate(raw)
}

func validateMnemonic(m string) error {
	if m == "" {
		return invalidCommand("empty mnemonic")
	}
	if len(m) > MaxMnemonicLength {
		return invalidCommand("mnemonic %q longer than %d characters", m, MaxMnemonicLength)
	}
	for i := 0; i < len(m); i++ {
		c := m[i]
		if c <= ' ' || c > '~' || c == frameStart || c == frameEnd {
			return invalidCommand("mnemonic %q contains byte 0x%02X", m, c)
		}
	}

	return nil
}

func validateArgument(arg string) error {
	for i := 0; i < len(arg); i++ {
		c := arg[i]
		if c < ' ' || c > '~' || c == frameEnd {
			return invalidCommand("argument %q contains byte 0x%02X", arg, c)
		}
	}

	return nil
}
