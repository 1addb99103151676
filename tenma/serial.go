package tenma

import (
	"errors"
	"fmt"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// SerialPort is a Transport over a serial device such as /dev/ttyACM0.
type SerialPort struct {
	name   string
	serial serial.Port
	rbuf   []byte
}

// OpenSerial opens the port using the 9600 8N1 settings of the 72-XXXX family.
func OpenSerial(port string) (Transport, error) {
	s := &SerialPort{
		name: port,
		rbuf: make([]byte, RxBufferLen),
	}

	var err error
	s.serial, err = serial.Open(port, &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}

	// A read returning nothing within this timeout means the input buffer is drained.
	if err = s.serial.SetReadTimeout(ReadPollTimeout); err != nil {
		s.serial.Close()
		return nil, err
	}

	if err = s.serial.ResetInputBuffer(); err != nil {
		s.serial.Close()
		return nil, err
	}

	if err = s.serial.ResetOutputBuffer(); err != nil {
		s.serial.Close()
		return nil, err
	}

	return s, nil
}

func (s *SerialPort) Name() string {
	return s.name
}

func (s *SerialPort) Write(p []byte) (int, error) {
	return s.serial.Write(p)
}

func (s *SerialPort) ReadAvailable() ([]byte, error) {
	var out []byte
	for {
		n, err := s.serial.Read(s.rbuf)
		if err != nil {
			return out, err
		}
		if n == 0 {
			return out, nil
		}

		out = append(out, s.rbuf[:n]...)
	}
}

func (s *SerialPort) Close() error {
	err := errors.Join(
		s.serial.ResetInputBuffer(),
		s.serial.ResetOutputBuffer(),
	)
	return errors.Join(err, s.serial.Close())
}

// FindPort looks for the USB CDC bridge of a 72-XXXX unit and falls back on
// the first USB serial port.
func FindPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", err
	}

	var port *enumerator.PortDetails
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}

		if p.VID == USBVendorID && p.PID == USBProductID {
			port = p
			break
		}
		if port == nil {
			port = p
		}
	}
	if port == nil {
		return "", ErrNotFound
	}

	return port.Name, nil
}

// DescribePort gives a one line summary of a detected port.
func DescribePort(p *enumerator.PortDetails) string {
	if !p.IsUSB {
		return p.Name
	}
	return fmt.Sprintf("%s - VID: %s - PID: %s - SN: %s - %s", p.Name, p.VID, p.PID, p.SerialNumber, p.Product)
}
