package protocol

import "fmt"

// Kind is the semantic type of a chunk. The byte value of a Kind is its
// wire tag.
type Kind byte

const (
	KindArgument    Kind = 'A'
	KindCommand     Kind = 'C'
	KindCurrentDir  Kind = 'D'
	KindEnvironment Kind = 'E'
	KindEOF         Kind = '.'
	KindExit        Kind = 'X'
	KindHeartbeat   Kind = 'H'
	KindLongArg     Kind = 'L'
	KindSendInput   Kind = 'S'
	KindStderr      Kind = '2'
	KindStdin       Kind = '0'
	KindStdout      Kind = '1'
)

var kindNames = map[Kind]string{
	KindArgument:    "argument",
	KindCommand:     "command",
	KindCurrentDir:  "current_dir",
	KindEnvironment: "environment",
	KindEOF:         "eof",
	KindExit:        "exit",
	KindHeartbeat:   "heartbeat",
	KindLongArg:     "longarg",
	KindSendInput:   "sendinput",
	KindStderr:      "stderr",
	KindStdin:       "stdin",
	KindStdout:      "stdout",
}

// KindForTag maps a wire tag back to its Kind. Tags outside the twelve
// known kinds are an error, never a default.
func KindForTag(tag byte) (Kind, error) {
	k := Kind(tag)
	if _, ok := kindNames[k]; !ok {
		return 0, fmt.Errorf("%w: tag 0x%02x", ErrUnknownKind, tag)
	}
	return k, nil
}

// Tag returns the wire tag for k.
func (k Kind) Tag() byte { return byte(k) }

// IsServerKind reports whether k may be received from the server during a
// read loop. Everything else is client-to-server only.
func (k Kind) IsServerKind() bool {
	switch k {
	case KindStdout, KindStderr, KindExit, KindSendInput:
		return true
	}
	return false
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(0x%02x)", byte(k))
}
