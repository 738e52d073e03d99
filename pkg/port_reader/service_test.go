package port_reader

import (
	"errors"
	"testing"

	"github.com/NotCoffee418/slimmemeter/pkg/config"
	"github.com/jacobsa/go-serial/serial"
)

func TestOpenOptions(t *testing.T) {
	tests := []struct {
		parity string
		want   serial.ParityMode
	}{
		{"none", serial.PARITY_NONE},
		{"N", serial.PARITY_NONE},
		{"even", serial.PARITY_EVEN},
		{"O", serial.PARITY_ODD},
	}
	for _, tt := range tests {
		cfg := config.DefaultMeterCollectorConfig()
		cfg.Parity = tt.parity
		cfg.Bits = 7
		cfg.StopBits = 2
		cfg.Speed = 9600

		opts, err := OpenOptions(cfg)
		if err != nil {
			t.Fatalf("%s: %v", tt.parity, err)
		}
		if opts.ParityMode != tt.want {
			t.Errorf("%s: parity mode %v", tt.parity, opts.ParityMode)
		}
		if opts.PortName != cfg.Device || opts.BaudRate != 9600 || opts.DataBits != 7 || opts.StopBits != 2 {
			t.Errorf("%s: options %+v", tt.parity, opts)
		}
		if opts.MinimumReadSize != 1 {
			t.Errorf("reads must block for at least one byte")
		}
	}
}

func TestOpenOptionsRejectsParity(t *testing.T) {
	cfg := config.DefaultMeterCollectorConfig()
	cfg.Parity = "space"
	if _, err := NewP1Reader(cfg); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestReadBeforeConnect(t *testing.T) {
	reader, err := NewP1Reader(config.DefaultMeterCollectorConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reader.Read(make([]byte, 8)); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	reader.Disconnect()
}
