package liveview

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func buildCommonHeader(payloadType byte) []byte {
	buf := make([]byte, commonHeaderSize)
	buf[0] = startByte
	buf[1] = payloadType
	binary.BigEndian.PutUint16(buf[2:4], 0x002A)
	binary.BigEndian.PutUint32(buf[4:8], 100)

	return buf
}

func buildJPEGPayloadHeader(jpegDataSize, padding int) []byte {
	buf := make([]byte, payloadHeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], payloadStartCode)
	buf[4] = byte((jpegDataSize >> 16) & 0xFF)
	buf[5] = byte((jpegDataSize >> 8) & 0xFF)
	buf[6] = byte(jpegDataSize & 0xFF)
	buf[7] = byte(padding)
	// buf[12] flag already zero

	return buf
}

func TestReadFrameJPEGRoundTrip(t *testing.T) {
	jpegBody := bytes.Repeat([]byte{0xAA}, 10)

	var buf bytes.Buffer
	buf.Write(buildCommonHeader(payloadTypeJPEG))
	buf.Write(buildJPEGPayloadHeader(len(jpegBody), 0))
	buf.Write(jpegBody)

	frame, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame returned error: %v", err)
	}

	if !bytes.Equal(frame.JPEG, jpegBody) {
		t.Errorf("expected JPEG body %v, got %v", jpegBody, frame.JPEG)
	}

	if buf.Len() != 0 {
		t.Errorf("expected exactly 8+128+L+P bytes consumed, %d bytes remain", buf.Len())
	}
}

func TestReadFrameRejectsBadStartByte(t *testing.T) {
	ch := buildCommonHeader(payloadTypeJPEG)
	ch[0] = 0x00

	var buf bytes.Buffer
	buf.Write(ch)

	if _, err := ReadFrame(&buf); err == nil {
		t.Error("expected error for bad start byte")
	}
}

func TestReadFrameRejectsNonZeroFlag(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(buildCommonHeader(payloadTypeJPEG))

	ph := buildJPEGPayloadHeader(10, 0)
	ph[12] = 1 // flag must be 0
	buf.Write(ph)
	buf.Write(make([]byte, 10))

	if _, err := ReadFrame(&buf); err == nil {
		t.Error("expected error for non-zero JPEG flag")
	}
}

func TestReadFrameJpegDataSizeBoundary(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(buildCommonHeader(payloadTypeJPEG))
	buf.Write(buildJPEGPayloadHeader(maxJPEGDataSize, 0))
	buf.Write(make([]byte, maxJPEGDataSize))

	if _, err := ReadFrame(&buf); err != nil {
		t.Errorf("expected jpegDataSize==100000 to be accepted, got %v", err)
	}

	var buf2 bytes.Buffer
	buf2.Write(buildCommonHeader(payloadTypeJPEG))
	buf2.Write(buildJPEGPayloadHeader(maxJPEGDataSize+1, 0))

	if _, err := ReadFrame(&buf2); err == nil {
		t.Error("expected jpegDataSize==100001 to be rejected as desync")
	}
}

func TestReadFrameConsumesPadding(t *testing.T) {
	jpegBody := bytes.Repeat([]byte{0x11}, 5)
	padding := bytes.Repeat([]byte{0x00}, 3)

	var buf bytes.Buffer
	buf.Write(buildCommonHeader(payloadTypeJPEG))
	buf.Write(buildJPEGPayloadHeader(len(jpegBody), len(padding)))
	buf.Write(jpegBody)
	buf.Write(padding)
	buf.WriteByte(0xFF) // next frame's start byte, must remain untouched

	frame, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame returned error: %v", err)
	}

	if !bytes.Equal(frame.JPEG, jpegBody) {
		t.Errorf("unexpected JPEG body: %v", frame.JPEG)
	}

	if buf.Len() != 1 || buf.Bytes()[0] != 0xFF {
		t.Errorf("expected exactly the next frame's start byte left over, got %v", buf.Bytes())
	}
}

func TestReadFrameJpegDataSizeIsBigEndianAtOffset4(t *testing.T) {
	jpegBody := bytes.Repeat([]byte{0xBB}, 10)

	var buf bytes.Buffer
	buf.Write(buildCommonHeader(payloadTypeJPEG))

	ph := buildJPEGPayloadHeader(len(jpegBody), 0)
	if ph[4] != 0x00 || ph[5] != 0x00 || ph[6] != 0x0A {
		t.Fatalf("expected bytes 00 00 0A at offsets 4-6, got %#x %#x %#x", ph[4], ph[5], ph[6])
	}
	buf.Write(ph)
	buf.Write(jpegBody)

	frame, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame returned error: %v", err)
	}

	if len(frame.JPEG) != 10 {
		t.Errorf("expected jpegDataSize 10, got body length %d", len(frame.JPEG))
	}
}

func TestReadFrameFrameInfo(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(buildCommonHeader(payloadTypeInfo))

	const recSize = 11

	ph := make([]byte, payloadHeaderSize)
	binary.BigEndian.PutUint32(ph[0:4], payloadStartCode)
	binary.BigEndian.PutUint16(ph[10:12], 1) // frameCount
	binary.BigEndian.PutUint16(ph[12:14], recSize)
	buf.Write(ph)

	rec := make([]byte, recSize)
	binary.BigEndian.PutUint16(rec[0:2], 1)
	binary.BigEndian.PutUint16(rec[2:4], 2)
	binary.BigEndian.PutUint16(rec[4:6], 3)
	binary.BigEndian.PutUint16(rec[6:8], 4)
	rec[8], rec[9], rec[10] = 5, 6, 7
	buf.Write(rec)

	frame, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame returned error: %v", err)
	}

	if len(frame.Info) != 1 {
		t.Fatalf("expected 1 frame-info record, got %d", len(frame.Info))
	}

	fi := frame.Info[0]
	if fi.Left != 1 || fi.Top != 2 || fi.Right != 3 || fi.Bottom != 4 {
		t.Errorf("unexpected frame-info record: %+v", fi)
	}

	if fi.Category != 5 || fi.Status != 6 || fi.Additional != 7 {
		t.Errorf("unexpected frame-info tail bytes: %+v", fi)
	}
}
