package tenma

import "time"

const (
	BaudRate = 9600

	// SettleDelay is the minimum pause after a write before the unit's reply can be read.
	SettleDelay = 200 * time.Millisecond

	// ReadPollTimeout bounds each serial read while draining buffered bytes.
	ReadPollTimeout = 50 * time.Millisecond

	EOLNone    = ""
	EOLNewline = "\n"

	RxBufferLen = 256
)

// Command mnemonics, formatted with channel/slot/value by the driver.
const (
	CommandIdentity       = "*IDN?"
	CommandStatus         = "STATUS?"
	CommandVoltageSet     = "VSET"
	CommandCurrentSet     = "ISET"
	CommandVoltageOut     = "VOUT"
	CommandCurrentOut     = "IOUT"
	CommandSave           = "SAV"
	CommandRecall         = "RCL"
	CommandOutput         = "OUT"
	CommandAllOutputs     = "OUT12"
	CommandOCP            = "OCP"
	CommandOVP            = "OVP"
	CommandBeep           = "BEEP"
	CommandLock           = "LOCK"
	CommandTrack          = "TRACK"
	CommandVoltageAutoRun = "VASTEP"
	CommandVoltageAutoEnd = "VASTOP"
	CommandCurrentAutoRun = "IASTEP"
	CommandCurrentAutoEnd = "IASTOP"
	CommandVoltageStep    = "VSTEP"
	CommandVoltageUp      = "VUP"
	CommandVoltageDown    = "VDOWN"
	CommandCurrentStep    = "ISTEP"
	CommandCurrentUp      = "IUP"
	CommandCurrentDown    = "IDOWN"
)

// Status register bits.
const (
	StatusChannel1 byte = 0x01
	StatusChannel2 byte = 0x02
	StatusTracking byte = 0x0C
	StatusBeep     byte = 0x10
	StatusLock     byte = 0x20
	StatusOutput1  byte = 0x40
	StatusOutput2  byte = 0x80
)

const statusTrackingShift = 2

// USB CDC identifiers used by the Nuvoton bridge found in 72-XXXX units.
const (
	USBVendorID  = "0416"
	USBProductID = "5011"
)
