package layout

// Options change the wire layout. Two layouts compiled from the same
// definition with different options are not compatible.
type Options struct {
	Channel     uint8
	HasChannel  bool // a Channel byte leads every message
	AlignArrays bool // pad integer array blocks to their element width
}
