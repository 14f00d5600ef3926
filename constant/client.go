package constant

import "time"

const (
	HostContextID = uint32(2) // ESX host VMCI CID ("address")

	MaxRequestSize = 1024 * 1024 // we do not expect json string > 1M
	MaxReplySize   = 0           // 0 means no limit

	ClientTimeout = time.Duration(0) // block until the peer answers

	MaxReadBufferSize  = 4 << 10
	MaxWriteBufferSize = 4 << 10
)

const (
	BackendVSocket = "vsocket" // backend to communicate via vSocket
	BackendDummy   = "dummy"   // backend which only returns OK, for unit test

	DummyReply = "none"
)
