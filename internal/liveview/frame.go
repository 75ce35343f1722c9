// Package liveview parses Sony's framed binary liveview stream into
// JPEG frames and frame-info records, with fps pacing and exponential
// backoff on transient failures.
package liveview

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	startByte        = 0xFF
	payloadTypeJPEG  = 0x01
	payloadTypeInfo  = 0x02
	payloadStartCode = 0x24356879 // 607479929 decimal

	commonHeaderSize  = 8
	payloadHeaderSize = 128
	infoRecordSize    = 8

	maxJPEGDataSize = 100000
)

// FrameInfo is one parsed frame-info record.
type FrameInfo struct {
	Left, Top, Right, Bottom uint16
	Category, Status, Additional byte
}

// Frame is exactly one of JPEG or Info, never both.
type Frame struct {
	JPEG []byte
	Info []FrameInfo
}

// commonHeader is the 8-byte frame header shared by every payload type.
type commonHeader struct {
	payloadType    byte
	sequenceNumber uint16
	timestampMs    uint32
}

func readCommonHeader(r io.Reader) (*commonHeader, error) {
	buf := make([]byte, commonHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("liveview: short read on common header: %w", err)
	}

	if buf[0] != startByte {
		return nil, fmt.Errorf("liveview: desync, expected start byte 0xFF got %#x", buf[0])
	}

	return &commonHeader{
		payloadType:    buf[1],
		sequenceNumber: binary.BigEndian.Uint16(buf[2:4]),
		timestampMs:    binary.BigEndian.Uint32(buf[4:8]),
	}, nil
}

// payloadHeader is the 128-byte header following the common header.
type payloadHeader struct {
	jpegDataSize int
	paddingSize  int
	flag         byte // JPEG only; must be 0
	frameCount   uint16
	frameSize    uint16
}

func readPayloadHeader(r io.Reader, payloadType byte) (*payloadHeader, error) {
	buf := make([]byte, payloadHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("liveview: short read on payload header: %w", err)
	}

	startCode := binary.BigEndian.Uint32(buf[0:4])
	if startCode != payloadStartCode {
		return nil, fmt.Errorf("liveview: desync, bad payload start code %#x", startCode)
	}

	// jpegDataSize is laid out as 3 big-endian bytes at offsets 4-6,
	// MSB first.
	jpegDataSize := int(buf[4])<<16 | int(buf[5])<<8 | int(buf[6])

	if jpegDataSize > maxJPEGDataSize {
		return nil, fmt.Errorf("liveview: desync, jpegDataSize %d exceeds %d", jpegDataSize, maxJPEGDataSize)
	}

	ph := &payloadHeader{
		jpegDataSize: jpegDataSize,
		paddingSize:  int(buf[7]),
	}

	switch payloadType {
	case payloadTypeJPEG:
		// buf[8:12] reserved, buf[12] is flag
		ph.flag = buf[12]
		if ph.flag != 0 {
			return nil, fmt.Errorf("liveview: JPEG payload flag must be 0, got %d", ph.flag)
		}
	case payloadTypeInfo:
		ph.frameCount = binary.BigEndian.Uint16(buf[10:12])
		ph.frameSize = binary.BigEndian.Uint16(buf[12:14])
	default:
		return nil, fmt.Errorf("liveview: unknown payload type %#x", payloadType)
	}

	return ph, nil
}

// ReadFrame consumes exactly one frame from r: common header, payload
// header, body, and padding. It returns one JPEG or FrameInfo frame.
func ReadFrame(r io.Reader) (*Frame, error) {
	ch, err := readCommonHeader(r)
	if err != nil {
		return nil, err
	}

	ph, err := readPayloadHeader(r, ch.payloadType)
	if err != nil {
		return nil, err
	}

	var frame *Frame

	switch ch.payloadType {
	case payloadTypeJPEG:
		body := make([]byte, ph.jpegDataSize)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("liveview: short read on JPEG body: %w", err)
		}

		frame = &Frame{JPEG: body}

	case payloadTypeInfo:
		records := make([]FrameInfo, 0, ph.frameCount)

		for i := 0; i < int(ph.frameCount); i++ {
			rec := make([]byte, ph.frameSize)
			if _, err := io.ReadFull(r, rec); err != nil {
				return nil, fmt.Errorf("liveview: short read on frame-info record %d: %w", i, err)
			}

			if len(rec) < infoRecordSize {
				continue
			}

			records = append(records, FrameInfo{
				Left:       binary.BigEndian.Uint16(rec[0:2]),
				Top:        binary.BigEndian.Uint16(rec[2:4]),
				Right:      binary.BigEndian.Uint16(rec[4:6]),
				Bottom:     binary.BigEndian.Uint16(rec[6:8]),
				Category:   atByte(rec, 8),
				Status:     atByte(rec, 9),
				Additional: atByte(rec, 10),
			})
		}

		frame = &Frame{Info: records}
	}

	if ph.paddingSize > 0 {
		pad := make([]byte, ph.paddingSize)
		if _, err := io.ReadFull(r, pad); err != nil {
			return nil, fmt.Errorf("liveview: desync, padding of %d bytes unavailable: %w", ph.paddingSize, err)
		}
	}

	return frame, nil
}

func atByte(b []byte, i int) byte {
	if i >= len(b) {
		return 0
	}

	return b[i]
}
