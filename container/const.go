package container

// Identifier is the 12-byte KTX 2.0 file identifier.
var Identifier = [IdentifierSize]byte{0xAB, 'K', 'T', 'X', ' ', '2', '0', 0xBB, '\r', '\n', 0x1A, '\n'}

const (
	IdentifierSize = 12
	// HeaderSize covers the identifier, the fixed header and the section index.
	HeaderSize     = 80
	LevelIndexSize = 24
	// PrefixSize is everything before the key/value data.
	PrefixSize = HeaderSize + LevelIndexSize

	payloadAlignment = 16

	// MaxPayloadSize is the largest pixel payload written to one file.
	// Readers commonly keep level sizes in 32 bits, so larger grids must be
	// split along t or cut with a sub-range.
	MaxPayloadSize = 1<<32 - 1
	// payloadWarnSize is where Save starts warning about the ceiling.
	payloadWarnSize = MaxPayloadSize / 4 * 3
)

// Key/value data keys.
const (
	KeyWriter      = "KTXwriter"
	KeyDimensions  = "Dimensions"
	KeyChannels    = "Channels"
	KeySeriesIndex = "SeriesIndex"
	KeyChecksum    = "Checksum"
	KeyPeakTable   = "PeakTable"
)

const writerName = "voltex"
