package tenma

// Transport is the byte stream to the power supply.
type Transport interface {
	Write(p []byte) (int, error)
	// ReadAvailable drains every byte currently buffered. It returns an empty
	// slice when the unit sent nothing.
	ReadAvailable() ([]byte, error)
	Close() error
}

// Opener opens a Transport on the given port name.
type Opener func(port string) (Transport, error)

// Recorder receives every exchange with the unit, e.g. to write a capture file.
type Recorder interface {
	Sent(port string, data []byte)
	Received(port string, data []byte)
	Failed(port string, err error)
}
