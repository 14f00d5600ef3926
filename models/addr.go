package models

import "strconv"

type Addr interface {
	GetAddr() string
}

// VSockAddr is the peer address of a VM socket connection. Family is
// kept for bookkeeping and reporting only.
type VSockAddr struct {
	Family    int
	ContextId uint32
	Port      uint32
}

func (va *VSockAddr) GetAddr() string {
	return strconv.FormatUint(uint64(va.ContextId), 10) + ":" + strconv.FormatUint(uint64(va.Port), 10)
}

func (va *VSockAddr) String() string {
	return "vsock(af=" + strconv.Itoa(va.Family) + ")/" + va.GetAddr()
}

// TCPAddr lets the server and tests stand in for the hypervisor socket.
type TCPAddr struct {
	IP   string
	Port uint32
}

func (ta *TCPAddr) GetAddr() string {
	return ta.IP + ":" + strconv.FormatUint(uint64(ta.Port), 10)
}
