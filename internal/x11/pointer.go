package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
)

// Pointer returns the pointer position in root window coordinates.
func (c *Connection) Pointer() (x, y int, err error) {
	reply, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("query pointer: %w", err)
	}
	if !reply.SameScreen {
		return 0, 0, fmt.Errorf("pointer is on another screen")
	}
	return int(reply.RootX), int(reply.RootY), nil
}
