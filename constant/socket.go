package constant

const (
	DefaultMagic = uint32(0x0badbeef)

	DefaultServerPort = uint32(1019)
)
