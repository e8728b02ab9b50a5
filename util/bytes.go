package util

import (
	"bytes"
	"encoding/binary"
)

type Byter interface {
	Bytes() []byte
}

func CopyBytes(b []byte) []byte {
	n := make([]byte, len(b))
	copy(n, b)

	return n
}

func ConcatBytesSlice(sl ...[]byte) []byte {
	var t int
	for _, s := range sl {
		t += len(s)
	}

	n := make([]byte, t)
	var i int
	for _, s := range sl {
		i += copy(n[i:], s)
	}

	return n
}

func Uint8ToBytes(i uint8) []byte {
	b := new(bytes.Buffer)
	_ = binary.Write(b, binary.BigEndian, i)

	return b.Bytes()
}
