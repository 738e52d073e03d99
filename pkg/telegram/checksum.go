package telegram

import "github.com/sigurn/crc16"

// CRC16_ARC: reflected polynomial 0xA001, initial register 0.
var crcTable = crc16.MakeTable(crc16.CRC16_ARC)

// Checksum computes the telegram CRC over data. Empty input yields 0.
func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}
