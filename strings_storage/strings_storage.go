/*
 Ordered line buffer: output statements are accepted one by one
 and written out in a single pass
*/

package strings_storage

import (
	"bufio"
	"io"
)

type Storage struct {
	strings []string
}

func NewStorage() *Storage {
	retVal := new(Storage)
	retVal.strings = make([]string, 0)
	return retVal
}

// empty strings are discarded
func (storage *Storage) Accept(s string) {
	if len(s) > 0 {
		storage.strings = append(storage.strings, s)
	}
}

func (storage *Storage) Len() int {
	return len(storage.strings)
}

func (storage *Storage) ToArray() []string {
	return append([]string(nil), storage.strings...)
}

// WriteTo writes every line followed by a newline
func (storage *Storage) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, s := range storage.strings {
		k, err := bw.WriteString(s)
		n += int64(k)
		if err != nil {
			return n, err
		}
		if err = bw.WriteByte('\n'); err != nil {
			return n, err
		}
		n++
	}
	return n, bw.Flush()
}
