//    \\ salusd: a local Shamir-secret-sharing secret store daemon.
// \\\\\\\ SPDX-License-Identifier: Apache-2.0

// Package wire implements salusd's request/response binary encoding: a
// one-byte tag followed by a fixed payload shape per variant. Strings are
// uint32-little-endian-length-prefixed UTF-8; string slices are a
// uint32-little-endian count followed by that many strings. There is no
// outer framing — each connection carries exactly one request and one
// response, so encode writes straight to the connection and decode reads
// exactly one value from it. Decode does not read on to EOF: bytes after
// a complete value are left unread.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// Action tags.
const (
	TagUnlock     byte = 0x00
	TagShare      byte = 0x01
	TagGenShares  byte = 0x02
	TagStore      byte = 0x03
	TagRead       byte = 0x04
	TagThreshold  byte = 0x05
)

// Response tags.
const (
	TagError              byte = 0x00
	TagSuccess            byte = 0x01
	TagShares             byte = 0x02
	TagAlreadyInitialized byte = 0x03
	TagThresholdValue     byte = 0x04
	TagValue              byte = 0x05
	TagKeyNotFound        byte = 0x06
)

// ErrTruncated is returned when a frame ends before a complete value has
// been decoded.
var ErrTruncated = errors.New("wire: truncated frame")

// ErrUnknownTag is returned when a leading tag byte doesn't match any
// known Action or Response variant.
var ErrUnknownTag = errors.New("wire: unknown tag")

// Action is the request half of the protocol. Tag selects the variant;
// only that variant's payload fields are meaningful (none, one, or two
// of the fields below).
type Action struct {
	Tag       byte
	Share     string
	NumShares uint8
	Threshold uint8
	Key       string
	Value     string
}

// Response is the reply half of the protocol.
type Response struct {
	Tag       byte
	Message   string
	Shares    []string
	Threshold uint8
	Present   bool
	Value     string
}

func Unlock() Action                    { return Action{Tag: TagUnlock} }
func ShareAction(share string) Action   { return Action{Tag: TagShare, Share: share} }
func GenShares(n, t uint8) Action       { return Action{Tag: TagGenShares, NumShares: n, Threshold: t} }
func StoreAction(key, value string) Action { return Action{Tag: TagStore, Key: key, Value: value} }
func ReadAction(key string) Action      { return Action{Tag: TagRead, Key: key} }
func GetThreshold() Action              { return Action{Tag: TagThreshold} }

func ErrorResponse(msg string) Response       { return Response{Tag: TagError, Message: msg} }
func SuccessResponse() Response               { return Response{Tag: TagSuccess} }
func SharesResponse(shares []string) Response { return Response{Tag: TagShares, Shares: shares} }
func AlreadyInitializedResponse() Response    { return Response{Tag: TagAlreadyInitialized} }
func ThresholdResponse(t uint8) Response      { return Response{Tag: TagThresholdValue, Threshold: t} }
func ValueResponse(present bool, value string) Response {
	return Response{Tag: TagValue, Present: present, Value: value}
}
func KeyNotFoundResponse() Response { return Response{Tag: TagKeyNotFound} }

// EncodeAction writes a's wire representation to w.
func EncodeAction(w io.Writer, a Action) error {
	buf := &bytes.Buffer{}
	buf.WriteByte(a.Tag)

	switch a.Tag {
	case TagUnlock, TagThreshold:
		// no payload
	case TagShare:
		writeString(buf, a.Share)
	case TagGenShares:
		buf.WriteByte(a.NumShares)
		buf.WriteByte(a.Threshold)
	case TagStore:
		writeString(buf, a.Key)
		writeString(buf, a.Value)
	case TagRead:
		writeString(buf, a.Key)
	default:
		return ErrUnknownTag
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// DecodeAction reads one Action from r. Truncation mid-value is an
// error; any bytes after a complete Action are not read.
func DecodeAction(r io.Reader) (Action, error) {
	br := newByteReader(r)

	tag, err := br.readByte()
	if err != nil {
		return Action{}, ErrTruncated
	}

	switch tag {
	case TagUnlock:
		return Action{Tag: tag}, nil
	case TagThreshold:
		return Action{Tag: tag}, nil
	case TagShare:
		s, err := readString(br)
		if err != nil {
			return Action{}, err
		}
		return Action{Tag: tag, Share: s}, nil
	case TagGenShares:
		n, err := br.readByte()
		if err != nil {
			return Action{}, ErrTruncated
		}
		t, err := br.readByte()
		if err != nil {
			return Action{}, ErrTruncated
		}
		return Action{Tag: tag, NumShares: n, Threshold: t}, nil
	case TagStore:
		k, err := readString(br)
		if err != nil {
			return Action{}, err
		}
		v, err := readString(br)
		if err != nil {
			return Action{}, err
		}
		return Action{Tag: tag, Key: k, Value: v}, nil
	case TagRead:
		k, err := readString(br)
		if err != nil {
			return Action{}, err
		}
		return Action{Tag: tag, Key: k}, nil
	default:
		return Action{}, ErrUnknownTag
	}
}

// EncodeResponse writes resp's wire representation to w.
func EncodeResponse(w io.Writer, resp Response) error {
	buf := &bytes.Buffer{}
	buf.WriteByte(resp.Tag)

	switch resp.Tag {
	case TagError:
		writeString(buf, resp.Message)
	case TagSuccess, TagAlreadyInitialized, TagKeyNotFound:
		// no payload
	case TagShares:
		writeStringSlice(buf, resp.Shares)
	case TagThresholdValue:
		buf.WriteByte(resp.Threshold)
	case TagValue:
		if resp.Present {
			buf.WriteByte(1)
			writeString(buf, resp.Value)
		} else {
			buf.WriteByte(0)
		}
	default:
		return ErrUnknownTag
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// DecodeResponse reads one Response from r.
func DecodeResponse(r io.Reader) (Response, error) {
	br := newByteReader(r)

	tag, err := br.readByte()
	if err != nil {
		return Response{}, ErrTruncated
	}

	switch tag {
	case TagError:
		m, err := readString(br)
		if err != nil {
			return Response{}, err
		}
		return Response{Tag: tag, Message: m}, nil
	case TagSuccess, TagAlreadyInitialized, TagKeyNotFound:
		return Response{Tag: tag}, nil
	case TagShares:
		s, err := readStringSlice(br)
		if err != nil {
			return Response{}, err
		}
		return Response{Tag: tag, Shares: s}, nil
	case TagThresholdValue:
		t, err := br.readByte()
		if err != nil {
			return Response{}, ErrTruncated
		}
		return Response{Tag: tag, Threshold: t}, nil
	case TagValue:
		present, err := br.readByte()
		if err != nil {
			return Response{}, ErrTruncated
		}
		if present == 0 {
			return Response{Tag: tag, Present: false}, nil
		}
		v, err := readString(br)
		if err != nil {
			return Response{}, err
		}
		return Response{Tag: tag, Present: true, Value: v}, nil
	default:
		return Response{}, ErrUnknownTag
	}
}

func writeString(buf *bytes.Buffer, s string) {
	var lenBytes [4]byte
	binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(s)))
	buf.Write(lenBytes[:])
	buf.WriteString(s)
}

func writeStringSlice(buf *bytes.Buffer, ss []string) {
	var lenBytes [4]byte
	binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(ss)))
	buf.Write(lenBytes[:])
	for _, s := range ss {
		writeString(buf, s)
	}
}

// byteReader adapts an io.Reader to support the single-byte reads the
// decoders need without pulling in bufio for such a small surface.
type byteReader struct {
	r io.Reader
}

func newByteReader(r io.Reader) *byteReader { return &byteReader{r: r} }

func (b *byteReader) readByte() (byte, error) {
	var buf [1]byte
	_, err := io.ReadFull(b.r, buf[:])
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (b *byteReader) readN(n uint32) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	out := make([]byte, n)
	_, err := io.ReadFull(b.r, out)
	if err != nil {
		return nil, ErrTruncated
	}
	return out, nil
}

func readString(b *byteReader) (string, error) {
	var lenBytes [4]byte
	_, err := io.ReadFull(b.r, lenBytes[:])
	if err != nil {
		return "", ErrTruncated
	}
	n := binary.LittleEndian.Uint32(lenBytes[:])
	data, err := b.readN(n)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func readStringSlice(b *byteReader) ([]string, error) {
	var lenBytes [4]byte
	_, err := io.ReadFull(b.r, lenBytes[:])
	if err != nil {
		return nil, ErrTruncated
	}
	count := binary.LittleEndian.Uint32(lenBytes[:])
	out := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		s, err := readString(b)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
