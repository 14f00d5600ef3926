package socket

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"math"

	"github.com/brodyxchen/vmci/constant"
	"github.com/brodyxchen/vmci/errors"
	"github.com/brodyxchen/vmci/log"
	"github.com/brodyxchen/vmci/models"
)

// The deployed peer only ever ran on x86, so the wire order is pinned to
// little-endian rather than left to the host.
var byteOrder = binary.LittleEndian

// ReadSocket reads one message. maxLen bounds the payload; 0 disables the check.
// The returned body is exactly header.Length bytes.
func ReadSocket(ctx context.Context, key string, reader *bufio.Reader, maxLen uint32) (*models.Header, []byte, error) {
	select {
	case <-ctx.Done():
		return nil, nil, errors.ErrCtxReadDone
	default:
	}

	header := &models.Header{}

	var headerBuf [models.HeaderSize]byte
	if _, err := io.ReadFull(reader, headerBuf[:4]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		log.Errorf("%v.readSocket() read magic err: %v", key, err)
		return nil, nil, err
	}

	header.Magic = byteOrder.Uint32(headerBuf[:4])
	if header.Magic != constant.DefaultMagic {
		log.Errorf("%v.readSocket() wrong magic: got 0x%x expected 0x%x", key, header.Magic, constant.DefaultMagic)
		return nil, nil, errors.ErrBadMessage
	}

	if _, err := io.ReadFull(reader, headerBuf[4:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		log.Errorf("%v.readSocket() failed to receive len: %v", key, err)
		return nil, nil, err
	}
	header.Length = byteOrder.Uint32(headerBuf[4:])

	if maxLen > 0 && header.Length > maxLen {
		log.Errorf("%v.readSocket() length %v exceeds %v", key, header.Length, maxLen)
		return nil, nil, errors.ErrExceedBody
	}

	body := make([]byte, header.Length)
	n, err := io.ReadFull(reader, body)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		log.Errorf("%v.readSocket() read body n=%v/%v err: %v", key, n, header.Length, err)
		return nil, nil, err
	}

	return header, body[:n], nil
}

// WriteSocket writes body as one message and flushes it to the peer.
func WriteSocket(ctx context.Context, writer *bufio.Writer, body []byte) error {
	select {
	case <-ctx.Done():
		return errors.ErrCtxWriteDone
	default:
	}

	length := len(body)
	if uint64(length) > math.MaxUint32 {
		return errors.ErrExceedBody
	}

	var headerBuf [models.HeaderSize]byte
	byteOrder.PutUint32(headerBuf[:], constant.DefaultMagic)
	byteOrder.PutUint32(headerBuf[4:], uint32(length))

	if _, err := writer.Write(headerBuf[:]); err != nil {
		return err
	}
	if length > 0 {
		if _, err := writer.Write(body); err != nil {
			return err
		}
	}

	return writer.Flush()
}
