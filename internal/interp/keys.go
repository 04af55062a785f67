package interp

// Modifier is a platform-independent modifier bitmask; the window
// system collaborator translates its native modifier state into this
// before calling HandleKey.
type Modifier int

const (
	ModShift Modifier = 1 << iota
	ModControl
	ModAlt
	ModSuper
)

// Key identifies a non-text key relevant to shortcuts. Ordinary
// letters arrive as text via Rune instead.
type Key int

const (
	KeyNone Key = iota
	KeyEscape
)

// Action is a shortcut's effect, performed by the window-system
// collaborator; the interpreter only decides which one fired.
type Action int

const (
	ActionNone Action = iota
	ActionCloseWindow
	ActionFontSmaller
	ActionFontLarger
	ActionRequestClipboardPaste
)

type shortcut struct {
	mods Modifier
	key  Key
	rune rune
	act  Action
}

// shortcuts is the fixed binding table from §4.3: Shift+Escape closes
// the window; Ctrl+1/Ctrl+2 resize the font; Ctrl+Shift+V requests a
// clipboard paste.
var shortcuts = []shortcut{
	{mods: ModShift, key: KeyEscape, act: ActionCloseWindow},
	{mods: ModControl, rune: '1', act: ActionFontSmaller},
	{mods: ModControl, rune: '2', act: ActionFontLarger},
	{mods: ModControl | ModShift, rune: 'V', act: ActionRequestClipboardPaste},
}

// FontSmallerFactor and FontLargerFactor are the Ctrl+1/Ctrl+2 zoom factors.
const (
	FontSmallerFactor = 1.0 / 1.1
	FontLargerFactor  = 1.1
)

// HandleKey matches (mods, key, rune) against the shortcut table. If
// matched, the shortcut's Action is returned and the caller must not
// also forward the key as text. If unmatched and a literal letter
// A..Z arrived with Control held, the corresponding control code is
// queued to the shell and consumed=true is returned with
// ActionNone.
func (it *Interpreter) HandleKey(mods Modifier, key Key, r rune) (action Action, consumed bool) {
	for _, s := range shortcuts {
		if s.mods != mods {
			continue
		}
		if s.key != KeyNone && s.key != key {
			continue
		}
		if s.rune != 0 && (s.rune&^0x20) != (r &^ 0x20) {
			continue
		}
		return s.act, true
	}

	if mods == ModControl && r != 0 {
		if code, ok := CtrlLetter(r); ok {
			it.WriteKey([]byte{code})
			return ActionNone, true
		}
	}
	return ActionNone, false
}
