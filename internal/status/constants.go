// internal/status/constants.go
package status

// Bridge Status Block layout constants.
// These values define the register image and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerBlock is the fixed number of registers per bridge status block.
const SlotsPerBlock = 20

// ---- SLOT INDICES ----

// SlotPeerState holds the simulation peer liveness state.
const SlotPeerState = 0

// SlotUpstreamState holds whether upstream frames are flowing.
const SlotUpstreamState = 1

// SlotSecondsOffline holds how long (in seconds) the peer has been offline.
const SlotSecondsOffline = 2

// SlotThroughput holds upstream throughput in hundredths of a Mbps.
const SlotThroughput = 3

// SlotViewers holds the connected viewer count.
const SlotViewers = 4

// SlotFramesDropped holds malformed frames dropped in the last interval.
const SlotFramesDropped = 5

// ---- RESERVED RANGE ----

// Slots 6-10 are reserved.
const SlotReservedStart = 6
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the bridge name.
// The name always sits at the END of the block.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last name slot (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for the name.
const DeviceNameMaxChars = 16

// ---- PEER STATES ----

const (
	PeerUnknown uint16 = 0
	PeerOnline  uint16 = 1
	PeerOffline uint16 = 2
)

// ---- UPSTREAM STATES ----

const (
	UpstreamUnknown uint16 = 0
	UpstreamFlowing uint16 = 1
	UpstreamStale   uint16 = 3
)
