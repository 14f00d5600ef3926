package server

import (
	"bufio"
	"io"
	"sync"

	"github.com/brodyxchen/vmci/constant"
)

var (
	bufReaderPool sync.Pool
	bufWriterPool sync.Pool
)

func getBufReader(r io.Reader) *bufio.Reader {
	if v := bufReaderPool.Get(); v != nil {
		br := v.(*bufio.Reader)
		br.Reset(r)
		return br
	}
	return bufio.NewReaderSize(r, constant.MaxReadBufferSize)
}

func putBufReader(br *bufio.Reader) {
	br.Reset(nil)
	bufReaderPool.Put(br)
}

func getBufWriter(w io.Writer) *bufio.Writer {
	if v := bufWriterPool.Get(); v != nil {
		bw := v.(*bufio.Writer)
		bw.Reset(w)
		return bw
	}
	return bufio.NewWriterSize(w, constant.MaxWriteBufferSize)
}

func putBufWriter(bw *bufio.Writer) {
	bw.Reset(nil)
	bufWriterPool.Put(bw)
}
