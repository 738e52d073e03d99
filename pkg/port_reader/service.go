package port_reader

import (
	"errors"
	"fmt"
	"io"

	"github.com/NotCoffee418/slimmemeter/pkg/config"
	"github.com/NotCoffee418/slimmemeter/pkg/logging"
	"github.com/jacobsa/go-serial/serial"
)

var ErrNotConnected = errors.New("serial port not connected")

// Initialize a new P1Reader client.
func NewP1Reader(cfg *config.MeterCollectorConfig) (*P1Reader, error) {
	options, err := OpenOptions(cfg)
	if err != nil {
		return nil, err
	}
	return &P1Reader{
		options: options,
		log:     logging.WithComponent("port_reader").WithField("port", cfg.Device),
	}, nil
}

// OpenOptions translates the serial line settings of the config.
func OpenOptions(cfg *config.MeterCollectorConfig) (serial.OpenOptions, error) {
	parity, err := config.ParseParity(cfg.Parity)
	if err != nil {
		return serial.OpenOptions{}, err
	}

	mode := serial.PARITY_NONE
	switch parity {
	case config.ParityEven:
		mode = serial.PARITY_EVEN
	case config.ParityOdd:
		mode = serial.PARITY_ODD
	}

	return serial.OpenOptions{
		PortName:        cfg.Device,
		BaudRate:        cfg.Speed,
		DataBits:        cfg.Bits,
		StopBits:        cfg.StopBits,
		ParityMode:      mode,
		MinimumReadSize: 1,
	}, nil
}

// Open the connection to the P1 port.
func (p *P1Reader) Connect() error {
	port, err := serial.Open(p.options)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	p.portMutex.Lock()
	p.serialPort = port
	p.portMutex.Unlock()
	p.log.WithField("speed", p.options.BaudRate).Info("Connected to P1 port")
	return nil
}

// Read blocks until the port delivers bytes. Disconnect unblocks it with an error.
func (p *P1Reader) Read(b []byte) (int, error) {
	p.portMutex.Lock()
	port := p.serialPort
	p.portMutex.Unlock()

	if port == nil {
		return 0, ErrNotConnected
	}
	return port.Read(b)
}

// Disconnect closes the port. Safe to call more than once.
func (p *P1Reader) Disconnect() {
	p.portMutex.Lock()
	port := p.serialPort
	p.serialPort = nil
	p.portMutex.Unlock()

	if port != nil {
		port.Close()
		p.log.Info("Disconnected from P1 port")
	}
}

var _ io.Reader = (*P1Reader)(nil)
