package interp

import "github.com/nolanderc/shitty/internal/vtparse"

// osc handles an OSC command; payload is sliced directly from the
// caller's read buffer using the offsets the parser recorded.
func (it *Interpreter) osc(buf []byte, cmd vtparse.Command) {
	code := it.param(0, 0)
	payload := buf[cmd.ArgMin:cmd.ArgMax]

	switch code {
	case 0, 2:
		if it.Platform != nil {
			it.Platform.SetWindowTitle(string(payload))
		}
	case 8:
		// Hyperlinks: accepted, ignored.
	default:
		warnf("erresc: unknown osc code %d", code)
	}
}
