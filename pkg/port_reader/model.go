package port_reader

import (
	"io"
	"sync"

	"github.com/jacobsa/go-serial/serial"
	"github.com/sirupsen/logrus"
)

// P1Reader is the byte stream of the meter's P1 port.
type P1Reader struct {
	options    serial.OpenOptions
	serialPort io.ReadWriteCloser
	portMutex  sync.Mutex
	log        *logrus.Entry
}
